package metalink

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/soundprediction/metalink/pkg/config"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge graph",
	Long: `Search the knowledge graph by free text, or by seed entity with
--seed. Results blend lexical and embedding similarity; when no
embedding version is published the search degrades to lexical-only
scoring and says so.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

var (
	searchSeedID string
	searchLimit  int
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchSeedID, "seed", "", "Seed node ID for similarity search")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" && searchSeedID == "" {
		return fmt.Errorf("a query or --seed is required")
	}
	if query != "" && searchSeedID != "" {
		return fmt.Errorf("a query and --seed are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, _, err := initializeMetalink(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize metalink: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	searchCfg := &types.SearchConfig{Limit: searchLimit}

	var results *types.SearchResults
	if searchSeedID != "" {
		results, err = client.Similar(ctx, searchSeedID, searchCfg)
	} else {
		results, err = client.Search(ctx, query, searchCfg)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if results.Degraded {
		fmt.Fprintln(os.Stderr, "Note: no embedding version available, lexical scoring only")
	}
	if len(results.Results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tTYPE\tNAME")
	for _, result := range results.Results {
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
			result.Score, result.Node.ID, result.Node.Type, result.Node.Name)
	}
	return w.Flush()
}
