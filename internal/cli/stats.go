package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/happyhavoc/satsuki"
)

func newStatsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "stats <original> <reimplementation> <pdb>",
		Short: "Compare every function of two builds and report match scores",
		Long: `Stats extracts functions from the original executable through the mapping
file, extracts the same-named functions from the reimplementation through its
PDB, and reports a byte-match percentage per function plus a global score.
Functions the reimplementation does not have yet are reported as MISSING and
count as zero toward the global score.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := compareBuilds(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return err
				}
				defer f.Close()

				if filepath.Ext(outputFile) == ".csv" {
					err = writeStatsCSV(f, stats)
				} else {
					err = writeStatsPlain(f, stats)
				}
				if err != nil {
					return err
				}
			} else if err := writeStatsPlain(cmd.OutOrStdout(), stats); err != nil {
				return err
			}

			cmd.Printf("GLOBAL: %.2f%%\n", stats.Global())
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFile, "output-file", "", "output file containing the stats")

	return cmd
}

// compareBuilds builds both executables and matches them function by
// function. The original side is extracted through the mapping; the
// reimplementation side through its PDB.
func compareBuilds(originalFile, reimplFile, pdbFile string) (satsuki.Stats, error) {
	mapping, err := loadMapping()
	if err != nil {
		return nil, err
	}

	original, err := parseWithMapping(originalFile, mapping)
	if err != nil {
		return nil, err
	}
	reimpl, err := parseWithPDB(reimplFile, pdbFile, mapping)
	if err != nil {
		return nil, err
	}

	stats, err := original.GenerateStats(reimpl)
	if err != nil {
		return nil, err
	}
	log.Info().Int("functions", len(stats)).Float64("global", stats.Global()).
		Msg("generated match statistics")
	return stats, nil
}

// sortedNames fixes the report order; the stats map iterates randomly.
func sortedNames(stats satsuki.Stats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatScore(score *float64) string {
	if score == nil {
		return "MISSING"
	}
	return fmt.Sprintf("%.2f%%", *score)
}

func writeStatsPlain(w io.Writer, stats satsuki.Stats) error {
	for _, name := range sortedNames(stats) {
		if _, err := fmt.Fprintf(w, "%s: %s\n", name, formatScore(stats[name])); err != nil {
			return err
		}
	}
	return nil
}

func writeStatsCSV(w io.Writer, stats satsuki.Stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Function name", "Status"}); err != nil {
		return err
	}
	for _, name := range sortedNames(stats) {
		if err := cw.Write([]string{name, formatScore(stats[name])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
