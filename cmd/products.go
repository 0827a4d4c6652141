package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/visual-search/internal/database"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage stored products",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored products",
	Long: `List stored products in catalog order.

Examples:
  visual-search products list
  visual-search products list --category shoes --json`,
	Args: cobra.NoArgs,
	RunE: runProductsList,
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete products",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProductsDelete,
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsDeleteCmd)

	productsListCmd.Flags().String("category", "", "Only list this category")
	productsListCmd.Flags().Bool("json", false, "Output as JSON")
}

// ProductRow is one product in list output.
type ProductRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

func runProductsList(cmd *cobra.Command, args []string) error {
	category := mustGetString(cmd, "category")
	jsonOutput := mustGetBool(cmd, "json")

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

	products, err := svc.ListProducts(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	rows := make([]ProductRow, len(products))
	for i, p := range products {
		rows[i] = ProductRow{
			ID:        p.ID,
			Name:      p.Name,
			Category:  p.Category,
			ImageURL:  p.ImageURL,
			Hash:      p.Fingerprint.String(),
			CreatedAt: p.CreatedAt,
		}
	}
	if jsonOutput {
		return outputJSON(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No products found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tHASH\tCREATED")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Category, r.Hash, r.CreatedAt.Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d products\n", len(rows))
	return nil
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
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

	var missing int
	for _, id := range args {
		err := svc.DeleteProduct(ctx, id)
		switch {
		case errors.Is(err, database.ErrNotFound):
			fmt.Fprintf(os.Stderr, "%s: product not found\n", id)
			missing++
		case err != nil:
			return fmt.Errorf("failed to delete %s: %w", id, err)
		default:
			fmt.Printf("Deleted %s\n", id)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d products not found", missing, len(args))
	}
	return nil
}
