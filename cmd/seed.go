package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/visual-search/internal/catalog"
	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/constants"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import the sample product catalog",
	Long: `Download sample product images, fingerprint them and store the products.

Without --file the built-in catalog of 50 products is used. Downloads are
rate limited; products whose image cannot be fetched or decoded are skipped.

Examples:
  # Import the built-in sample catalog
  visual-search seed

  # Replace the catalog with products from a YAML file
  visual-search seed --file products.yaml --clear

  # JSON summary for scripting
  visual-search seed --json

  # 300 random products found through the Unsplash API (needs UNSPLASH_ACCESS_KEY)
  visual-search seed --large 300`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("file", "", "YAML catalog file (defaults to the built-in sample catalog)")
	seedCmd.Flags().Bool("clear", false, "Delete all existing products first")
	seedCmd.Flags().Int("concurrency", constants.DefaultSeedConcurrency, "Number of parallel downloads")
	seedCmd.Flags().Float64("rate", constants.SeedRequestsPerSecond, "Maximum downloads per second (0 for no limit)")
	seedCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
	seedCmd.Flags().Int("large", 0, "Seed this many random products found through the Unsplash API instead of a catalog")
}

// SeedResult is the summary of a seed run
type SeedResult struct {
	Success       bool     `json:"success"`
	Cleared       int64    `json:"cleared"`
	Total         int      `json:"total"`
	Added         int      `json:"added"`
	Failed        []string `json:"failed,omitempty"`
	DurationMs    int64    `json:"duration_ms"`
	DurationHuman string   `json:"duration_human,omitempty"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	file := mustGetString(cmd, "file")
	clearFirst := mustGetBool(cmd, "clear")
	concurrency := mustGetInt(cmd, "concurrency")
	perSecond := mustGetFloat64(cmd, "rate")
	jsonOutput := mustGetBool(cmd, "json")
	large := mustGetInt(cmd, "large")

	if large > 0 && file != "" {
		return fmt.Errorf("--large and --file cannot be combined")
	}
	seedCatalog := config.DefaultSeedCatalog()
	if file != "" {
		var err error
		if seedCatalog, err = config.LoadSeedCatalog(file); err != nil {
			return err
		}
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	startTime := time.Now()

	var planFailures []catalog.SeedOutcome
	if large > 0 {
		if cfg.Unsplash.AccessKey == "" {
			return fmt.Errorf("UNSPLASH_ACCESS_KEY environment variable is required for --large")
		}
		unsplash := catalog.NewUnsplashClient(cfg.Unsplash)
		unsplash.OnRateLimit = func(resume time.Time) {
			logger.WarnContext(ctx, "image search rate limit hit, pausing", "resume_at", resume.Format(time.TimeOnly))
		}
		if !jsonOutput {
			fmt.Printf("Finding images for %d products\n", large)
		}
		products, failed, err := catalog.PlanBulkSeed(ctx, unsplash, config.BulkSeedTopics(), catalog.BulkPlanOptions{
			Count:             large,
			RequestsPerSecond: perSecond,
		})
		if err != nil {
			return err
		}
		seedCatalog = &config.SeedCatalog{Products: products}
		planFailures = failed
	}

	svc, closer, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	result := SeedResult{Total: len(seedCatalog.Products) + len(planFailures)}
	if clearFirst {
		if result.Cleared, err = svc.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}
		if !jsonOutput {
			fmt.Printf("Cleared %d existing products\n", result.Cleared)
		}
	}

	if !jsonOutput {
		fmt.Printf("Seeding %d products in %d categories\n\n", len(seedCatalog.Products), len(seedCatalog.Categories()))
	}

	// Create progress bar (only for non-JSON output)
	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(seedCatalog.Products),
			progressbar.OptionSetDescription("Seeding"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("products"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	report, err := svc.Seed(ctx, seedCatalog.Products, catalog.SeedOptions{
		Concurrency:       concurrency,
		RequestsPerSecond: perSecond,
		MaxImageBytes:     cfg.Web.MaxUploadBytes(),
		OnItem: func(catalog.SeedOutcome) {
			if bar != nil {
				bar.Add(1)
			}
		},
	})
	if bar != nil {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	duration := time.Since(startTime)
	result.Success = true
	result.Added = report.Added
	result.DurationMs = duration.Milliseconds()
	for _, f := range append(planFailures, report.Failed...) {
		result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", f.Product.Name, f.Err))
	}

	if jsonOutput {
		return outputJSON(result)
	}

	result.DurationHuman = formatDuration(duration)
	fmt.Println("\nSeeding complete!")
	fmt.Printf("  Added:    %d\n", result.Added)
	if len(result.Failed) > 0 {
		fmt.Printf("  Skipped:  %d\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "    %s\n", f)
		}
	}
	fmt.Printf("  Duration: %s\n", result.DurationHuman)
	return nil
}
