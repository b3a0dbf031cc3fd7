// internal/cli/search.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/law-makers/nepafeed/internal/config"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/spf13/cobra"
)

var searchFilter string

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Run one search term through the retrieval ladder",
	Long: `Retrieves a single term the same way a run does and prints the normalized
records without writing any feeds. Useful for checking which retrieval step
answers and what the upstream returns.`,
	Example: `  # Plain text search
  nepafeed search "solar NV"

  # Structured filter, JSON output
  nepafeed search "Wind EAs" --filter "nepaType eq 'EA'" --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	config.RegisterRetrievalFlags(searchCmd)
	searchCmd.Flags().StringVar(&searchFilter, "filter", "", "Structured filter expression")
}

func runSearch(cmd *cobra.Command, args []string) error {
	appCtx := GetAppFromCmd(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	term := models.SearchTerm{Filter: strings.TrimSpace(searchFilter)}
	if len(args) > 0 {
		term.Text = strings.TrimSpace(args[0])
		term.Name = term.Text
	}
	if term.Text == "" && term.Filter == "" {
		return fmt.Errorf("a search term or --filter is required")
	}
	if term.Name == "" {
		term.Name = term.Filter
	}

	records, err := appCtx.Search(cmd.Context(), term)
	if err != nil {
		return fmt.Errorf("search %q: %w", term.String(), err)
	}

	if appCtx.Config.JSONLog {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Title", "State", "Office", "Type", "Status", "URL"})
	for _, r := range records {
		t.AppendRow(table.Row{r.ID, r.Title, r.State, r.Office, r.NEPAType, r.NEPAStatus, r.URL})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d records", len(records))})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
