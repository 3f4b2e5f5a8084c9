package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/happyhavoc/satsuki"
)

func newDisassembleCmd() *cobra.Command {
	var (
		pdbFile          string
		forceAddressZero bool
		att              bool
		resolveNames     bool
		mode             int
	)

	cmd := &cobra.Command{
		Use:   "disassemble <executable> <function>",
		Short: "Disassemble a function by name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			executableFile, functionName := args[0], args[1]

			mapping, err := loadMapping()
			if err != nil {
				return err
			}

			var exe *satsuki.Executable
			if pdbFile != "" {
				exe, err = parseWithPDB(executableFile, pdbFile, mapping)
			} else {
				exe, err = parseWithMapping(executableFile, mapping)
			}
			if err != nil {
				return err
			}

			fn := exe.Function(functionName)
			if fn == nil {
				return fmt.Errorf("function %s not found in executable", functionName)
			}

			listing, err := fn.Disassemble(exe, satsuki.DisassembleOptions{
				Mode:             mode,
				ForceAddressZero: forceAddressZero,
				ResolveNames:     resolveNames,
				ATTSyntax:        att,
			})
			if err != nil {
				return err
			}

			cmd.Println(listing)
			return nil
		},
	}

	cmd.Flags().StringVar(&pdbFile, "pdb-file", "", "PDB file related to the executable")
	cmd.Flags().BoolVar(&forceAddressZero, "force-address-zero", false, "force usage of address zero when disassembling")
	cmd.Flags().BoolVar(&att, "att", false, "use AT&T syntax when printing assembly")
	cmd.Flags().BoolVar(&resolveNames, "resolve-names", false, "enable name resolution for calls")
	cmd.Flags().IntVar(&mode, "mode", 32, "x86 decoder mode (32 or 64)")

	return cmd
}
