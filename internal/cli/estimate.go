package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

func (a *app) newEstimateCmd() *cobra.Command {
	var (
		sideFlag string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "estimate <pose.json>",
		Short: "Print the curl report for a pose without sending it",
		Long: `Estimates per-finger curl for a pose file against the configured reference
poses. The file holds a {"left": [...], "right": [...]} pose or a bare list
of rotations for the hand given by --hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := skeleton.ParseSide(sideFlag)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			report, err := estimateFile(cfg, side, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]any{
					"hand":   side,
					"report": report,
				})
			}
			fmt.Fprintf(out, "%s: %s\n", side, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&sideFlag, "hand", "right", "hand to estimate: left or right")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
