package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// shieldsBadge is the shields.io endpoint schema.
type shieldsBadge struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
}

func newBadgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "badge <original> <reimplementation> <pdb> <output>",
		Short: "Generate a progress badge to be used on README.md",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := compareBuilds(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			badge := shieldsBadge{
				SchemaVersion: 1,
				Label:         "progress",
				Message:       fmt.Sprintf("%.2f%%", stats.Global()),
				Color:         "yellow",
			}
			data, err := json.Marshal(badge)
			if err != nil {
				return err
			}
			data = append(data, '\n')

			return os.WriteFile(args[3], data, 0o644)
		},
	}
}
