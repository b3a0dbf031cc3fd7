// internal/cli/run.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/law-makers/nepafeed/internal/config"
	"github.com/law-makers/nepafeed/internal/pipeline"
	"github.com/law-makers/nepafeed/internal/ui"
	"github.com/law-makers/nepafeed/internal/utils/output"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the search plan and write RSS feeds",
	Long: `Runs every query and structured search in the plan file one term at a
time, merges the results by project id, and writes:

- feed.xml with every project
- by-state/<STATE>.xml for each state
- summary.json describing the run
- records.csv when --csv is set`,
	Example: `  # Run a plan with defaults
  nepafeed run --config plan.yaml

  # Write somewhere else and allow the headless browser fallback
  nepafeed run --config plan.yaml --out ./public --browser

  # Only use the JSON API
  nepafeed run --config plan.json5 --mode=api`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	config.RegisterRetrievalFlags(runCmd)
	config.RegisterOutputFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	appCtx := GetAppFromCmd(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := appCtx.Config

	showProgress := !cfg.Quiet && !cfg.JSONLog
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(len(cfg.Plan.Terms()),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Searching"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}

	summary, err := appCtx.Run(cmd.Context(), func(tr pipeline.TermResult) {
		if bar == nil {
			return
		}
		bar.Describe(tr.Term.String())
		_ = bar.Add(1)
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	if cfg.JSONLog {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	if !cfg.Quiet {
		printSummary(summary, cfg.OutputDir)
	}
	return nil
}

func printSummary(s *output.Summary, dir string) {
	fmt.Printf("\n%s %d projects from %d terms", ui.Success("✓"), s.Count, s.Terms)
	if s.FailedTerms > 0 {
		fmt.Printf(" (%s)", ui.Error(fmt.Sprintf("%d failed", s.FailedTerms)))
	}
	if s.Duplicates > 0 {
		fmt.Printf(" %s", ui.Info(fmt.Sprintf("%d duplicates dropped", s.Duplicates)))
	}
	fmt.Println()

	states := make([]string, 0, len(s.States))
	for st := range s.States {
		states = append(states, st)
	}
	sort.Strings(states)
	for _, st := range states {
		fmt.Printf("  %s %d\n", ui.Bold(st), s.States[st])
	}

	fmt.Printf("\n%s %s\n", ui.Info("Run"), s.RunID)
	for _, f := range s.Files {
		fmt.Printf("%s %s/%s\n", ui.Success("→"), dir, f)
	}
}
