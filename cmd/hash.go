package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash <file>...",
	Short: "Print image fingerprints",
	Long: `Compute the average-hash fingerprint of one or more image files.

The fingerprint is printed as lowercase hex, or as a bit string with --bits.
Files that cannot be read or decoded are reported and skipped.

Examples:
  visual-search hash shoe.jpg
  visual-search hash --bits *.png
  visual-search hash --json catalog/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)

	hashCmd.Flags().Bool("json", false, "Output as JSON")
	hashCmd.Flags().Bool("bits", false, "Print fingerprints as bit strings")
}

// HashResult is the fingerprint of one file.
type HashResult struct {
	File  string `json:"file"`
	Hash  string `json:"hash,omitempty"`
	Bits  string `json:"bits,omitempty"`
	Error string `json:"error,omitempty"`
}

func runHash(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	showBits := mustGetBool(cmd, "bits")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	// Only worth a bar for larger batches.
	var bar *progressbar.ProgressBar
	if !jsonOutput && len(args) > 10 {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Hashing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]HashResult, 0, len(args))
	failed := 0
	for _, path := range args {
		result := HashResult{File: path}
		data, err := os.ReadFile(path)
		if err == nil {
			fp, genErr := gen.Generate(data)
			if genErr == nil {
				result.Hash = fp.String()
				if showBits {
					result.Bits = fp.BitString()
				}
			}
			err = genErr
		}
		if err != nil {
			result.Error = err.Error()
			failed++
		}
		results = append(results, result)
		if bar != nil {
			bar.Add(1)
		}
	}

	if jsonOutput {
		if err := outputJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			switch {
			case r.Error != "":
				fmt.Fprintf(os.Stderr, "%s: %s\n", r.File, r.Error)
			case showBits:
				fmt.Printf("%s  %s\n", r.Bits, r.File)
			default:
				fmt.Printf("%s  %s\n", r.Hash, r.File)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be hashed", failed, len(args))
	}
	return nil
}
