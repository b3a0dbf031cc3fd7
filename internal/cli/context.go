// Package cli provides the command-line interface for nepafeed.
package cli

import (
	"sync"

	"github.com/law-makers/nepafeed/internal/app"
	"github.com/spf13/cobra"
)

// The application is shared by every command of one process invocation.
var (
	appMu     sync.Mutex
	globalApp *app.Application
)

// SetApp stores the Application for the running command tree.
func SetApp(cmd *cobra.Command, a *app.Application) {
	appMu.Lock()
	defer appMu.Unlock()
	globalApp = a
}

// GetAppFromCmd retrieves the Application for cmd.
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	appMu.Lock()
	defer appMu.Unlock()
	return globalApp
}
