package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/nepafeed/internal/app"
	"github.com/law-makers/nepafeed/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nepafeed",
	Short: "Turn BLM NEPA project searches into RSS feeds",
	Long: `nepafeed polls the BLM ePlanning search for configured queries, reconciles
the results into one deduplicated project list, and writes a national RSS feed
plus one feed per state.

Retrieval tries the JSON search API first, then the HTML search page, and
optionally a headless browser when --browser is set.`,
	Version:       "0.1.0",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when a command fails.
	closeApp(rootCmd)
	if err != nil {
		log.Error().Err(err).Msg("nepafeed failed")
		os.Exit(1)
	}
}

func init() {
	// Initialize the application lazily so -h/--version never load the plan.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		appCtx, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		SetApp(cmd, appCtx)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		closeApp(cmd)
	}
}

func closeApp(cmd *cobra.Command) {
	appCtx := GetAppFromCmd(cmd)
	if appCtx == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = appCtx.Close(ctx)
	SetApp(cmd, nil)
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for nepafeed")
	rootCmd.Flags().Bool("version", false, "Version for nepafeed")

	// Until the app logger exists, errors go to a plain console writer.
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func init() {
	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(os.Stdout, cmd, true)
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		renderHelp(os.Stderr, cmd, false)
		return nil
	})
}
