package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCommand(a *app) *cobra.Command {
	var entity, id string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the audit trail, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.store.History(cmd.Context(), entity, id, limit)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			historyTable(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "Filter by entity (unit, pipe_rack, user)")
	cmd.Flags().StringVar(&id, "id", "", "Filter by entity id, e.g. 550/PR01")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries")
	return cmd
}
