// Package cli implements the satsuki command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/happyhavoc/satsuki"
	"github.com/happyhavoc/satsuki/internal/logging"
	"github.com/happyhavoc/satsuki/objfile"
	"github.com/happyhavoc/satsuki/pdbfile"
	"github.com/happyhavoc/satsuki/pkg/version"
)

var (
	mappingFile string
	logLevel    string

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "satsuki",
	Short: "Binary comparison helper for reimplementation projects",
	Long: `Satsuki extracts functions from compiled executables and measures how
closely a reimplementation matches the original machine code, byte by byte.

Function ranges come from the executable's own symbols, from a PDB file, or
from a user-written mapping TOML file for binaries without debug info.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := logging.DefaultConfig()
		cfg.Level = logLevel
		log = logging.New(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mappingFile, "mapping-file", "", "mapping TOML file related to the executable")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newDisassembleCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newBadgeCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("satsuki version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadMapping() (satsuki.Mapping, error) {
	if mappingFile == "" {
		return satsuki.Mapping{}, fmt.Errorf("--mapping-file is required")
	}
	if _, err := os.Stat(mappingFile); err != nil {
		return satsuki.Mapping{}, fmt.Errorf("mapping not found: %s", mappingFile)
	}
	mapping, err := satsuki.LoadMapping(mappingFile)
	if err != nil {
		return satsuki.Mapping{}, fmt.Errorf("failed to load mapping %s: %w", mappingFile, err)
	}
	return mapping, nil
}

func openObject(path string) (*objfile.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("executable not found: %s", path)
	}
	obj, err := objfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return obj, nil
}

func parseWithMapping(path string, mapping satsuki.Mapping) (*satsuki.Executable, error) {
	obj, err := openObject(path)
	if err != nil {
		return nil, err
	}
	exe, err := satsuki.FromObjectWithMapping(obj, mapping)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("executable", path).Int("functions", exe.FunctionsCount()).
		Msg("extracted functions from mapping")
	return exe, nil
}

func parseWithPDB(path, pdbPath string, mapping satsuki.Mapping) (*satsuki.Executable, error) {
	obj, err := openObject(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(pdbPath); err != nil {
		return nil, fmt.Errorf("PDB not found: %s", pdbPath)
	}
	pdb, err := pdbfile.Open(pdbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pdbPath, err)
	}
	exe, err := satsuki.FromObjectWithPDB(obj, mapping, pdb)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("executable", path).Str("pdb", pdbPath).
		Int("functions", exe.FunctionsCount()).Msg("extracted functions from PDB")
	return exe, nil
}
