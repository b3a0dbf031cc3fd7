package ui

import "os"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Enabled is false when NO_COLOR is set; the helpers then return plain text.
var Enabled = os.Getenv("NO_COLOR") == ""

func paint(style, s string) string {
	if !Enabled {
		return s
	}
	return style + s + ColorReset
}

func Bold(s string) string {
	return paint(ColorBold, s)
}

// Success marks completed work and written files.
func Success(s string) string {
	return paint(ColorGreen, s)
}

func Info(s string) string {
	return paint(ColorDim+ColorYellow, s)
}

func Error(s string) string {
	return paint(ColorRed, s)
}

func Heading(s string) string {
	return paint(ColorBold+ColorCyan, s)
}

func Command(s string) string {
	return paint(ColorCyan, s)
}

func Flag(s string) string {
	return paint(ColorGreen, s)
}

func Dim(s string) string {
	return paint(ColorDim, s)
}
