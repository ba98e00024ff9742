package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOrphansCommand(a *app) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List pipe racks left behind by deleted units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if purge {
				n, err := a.store.PurgeOrphanedPipeRacks(ctx, ActorID)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return writeJSON(out, map[string]int{"deleted": n})
				}
				fmt.Fprintf(out, "Deleted %d orphaned pipe rack(s).\n", n)
				return nil
			}

			racks, err := a.store.OrphanedPipeRacks(ctx)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(out, racks)
			}
			rackTable(out, racks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete the orphaned racks")
	return cmd
}
