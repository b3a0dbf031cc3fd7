package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format only")
	cmd.PersistentFlags().String("proxy", "", "HTTP proxy, or a comma-separated list to rotate through (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "30s", "Set hard timeout for requests")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("config", "", "Path to the search plan file (.yaml, .yml, .json, .json5)")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Add a request header (\"Key: Value\"), repeatable")
	cmd.PersistentFlags().String("base-url", "", "Upstream base URL (default "+DefaultBaseURL+")")
	cmd.PersistentFlags().Float64("rps", 0, "Requests per second per host (default 1)")
}

// RegisterRetrievalFlags registers flags that shape the retrieval ladder.
func RegisterRetrievalFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Retrieval mode: auto, api, static, browser")
	cmd.Flags().Bool("browser", false, "Allow the headless browser as the last retrieval step")
	cmd.Flags().String("dom-wait", "", "Maximum wait for project links in the rendered page (e.g. 15s)")
}

// RegisterOutputFlags registers flags that only apply to a full run.
func RegisterOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "Output directory for feeds (default "+DefaultOutputDir+")")
	cmd.Flags().Bool("csv", false, "Also write the merged records as CSV")
	cmd.Flags().String("feed-title", "", "Title of the national feed")
}
