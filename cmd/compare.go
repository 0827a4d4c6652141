package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/visual-search/internal/fingerprint"
	"github.com/kozaktomas/visual-search/internal/ranking"
)

var compareCmd = &cobra.Command{
	Use:   "compare <image-a> <image-b>",
	Short: "Compare two images",
	Long: `Print the Hamming distance and similarity percentage of two images.

A distance of 0 means identical fingerprints.

Example:
  visual-search compare original.jpg resized.jpg`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

// CompareResult is the output of the compare command.
type CompareResult struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	HashA      string  `json:"hash_a"`
	HashB      string  `json:"hash_b"`
	Bits       int     `json:"bits"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
}

func hashFile(gen *fingerprint.Generator, path string) (fingerprint.Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("read %s: %w", path, err)
	}
	fp, err := gen.Generate(data)
	if err != nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("%s: %w", path, err)
	}
	return fp, nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	a, err := hashFile(gen, args[0])
	if err != nil {
		return err
	}
	b, err := hashFile(gen, args[1])
	if err != nil {
		return err
	}
	distance, err := fingerprint.Distance(a, b)
	if err != nil {
		return err
	}

	result := CompareResult{
		A:          args[0],
		B:          args[1],
		HashA:      a.String(),
		HashB:      b.String(),
		Bits:       a.Len(),
		Distance:   distance,
		Similarity: float64(ranking.SimilarityOf(distance, a.Len())),
	}
	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Printf("%s  %s\n", result.HashA, result.A)
	fmt.Printf("%s  %s\n", result.HashB, result.B)
	fmt.Printf("Distance:   %d / %d bits\n", result.Distance, result.Bits)
	fmt.Printf("Similarity: %.1f%%\n", result.Similarity)
	return nil
}
