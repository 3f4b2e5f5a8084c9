package cli

import (
	"github.com/spf13/cobra"

	"github.com/happyhavoc/satsuki"
)

func newScanCmd() *cobra.Command {
	var mode int

	cmd := &cobra.Command{
		Use:   "scan <executable>",
		Short: "Discover candidate function entry points",
		Long: `Scan disassembles the executable's code section and reports addresses
that look like function starts: recognized prologue patterns and direct call
targets. The output is a skeleton of mapping TOML stanzas, meant as a
starting point for writing the mapping file of a binary without symbols.
Sizes are left at 0 and must be filled in by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := openObject(args[0])
			if err != nil {
				return err
			}

			entries := satsuki.ScanObject(obj, mode)
			log.Info().Int("candidates", len(entries)).Msg("scanned code section")

			for _, e := range entries {
				cmd.Printf("# %s, %s confidence\n", e.Type, e.Confidence)
				cmd.Printf("[[function]]\n")
				cmd.Printf("address = 0x%08x\n", e.Address)
				cmd.Printf("size = 0\n\n")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&mode, "mode", 32, "x86 decoder mode (32 or 64)")

	return cmd
}
