package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rackTable(w io.Writer, racks []models.PipeRack) {
	if len(racks) == 0 {
		fmt.Fprintln(w, "No orphaned pipe racks.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tRACK\tSTATUS\tUPDATED")
	for _, r := range racks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.UnitID, r.ID, r.Status, stamp(r.LastUpdated))
	}
	tw.Flush()
}

func historyTable(w io.Writer, entries []docstore.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tUSER\tENTITY\tID\tACTION\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", stamp(e.At), e.UserID, e.Entity, e.EntityID, e.Action, e.Details)
	}
	tw.Flush()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
