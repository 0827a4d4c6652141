package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/visual-search/internal/catalog"
	"github.com/kozaktomas/visual-search/internal/constants"
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Find products similar to an image",
	Long: `Rank the stored catalog by fingerprint distance to a query image.

Examples:
  # Ten closest products
  visual-search search query.jpg

  # Near duplicates in one category
  visual-search search query.jpg --max-distance 5 --category shoes

  # JSON output for scripting
  visual-search search query.jpg --limit 3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Int("limit", constants.DefaultSearchLimit, "Maximum number of results")
	searchCmd.Flags().Int("max-distance", constants.NoDistanceFilter, "Only show results within this distance (-1 for no limit)")
	searchCmd.Flags().String("category", "", "Only search this category")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

// SearchMatch is one row of search output.
type SearchMatch struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	ImageURL   string  `json:"image_url"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// SearchOutput is the JSON output of the search command.
type SearchOutput struct {
	Query       string        `json:"query"`
	QueryHash   string        `json:"query_hash"`
	CatalogSize int           `json:"catalog_size"`
	Results     []SearchMatch `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit := mustGetInt(cmd, "limit")
	maxDistance := mustGetInt(cmd, "max-distance")
	category := mustGetString(cmd, "category")
	jsonOutput := mustGetBool(cmd, "json")

	if limit < 1 {
		return fmt.Errorf("--limit must be at least 1")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read query image: %w", err)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	svc, closer, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	result, err := svc.FindSimilar(ctx, data, catalog.SearchOptions{
		Limit:       limit,
		MaxDistance: maxDistance,
		Category:    category,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := SearchOutput{
		Query:       args[0],
		QueryHash:   result.Query.String(),
		CatalogSize: result.CatalogSize,
		Results:     make([]SearchMatch, len(result.Matches)),
	}
	for i, m := range result.Matches {
		out.Results[i] = SearchMatch{
			ID:         m.Product.ID,
			Name:       m.Product.Name,
			Category:   m.Product.Category,
			ImageURL:   m.Product.ImageURL,
			Distance:   m.Distance,
			Similarity: float64(m.Similarity),
		}
	}
	if jsonOutput {
		return outputJSON(out)
	}

	fmt.Printf("Query %s (%s), %d products searched\n\n", out.Query, out.QueryHash, out.CatalogSize)
	if len(out.Results) == 0 {
		fmt.Println("No similar products found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDISTANCE\tSIMILARITY\tID\tNAME\tCATEGORY")
	for i, r := range out.Results {
		fmt.Fprintf(w, "%d\t%d\t%.1f%%\t%s\t%s\t%s\n", i+1, r.Distance, r.Similarity, r.ID, r.Name, r.Category)
	}
	return w.Flush()
}
