// Package report formats store snapshots and backend statuses for the
// scribe CLI: aligned-column tables for humans, JSON and JSONL for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/scribebot/scribe/internal/storage"
	"github.com/scribebot/scribe/pkg/todo"
)

// FormatStatusTable writes backend statuses as a formatted table.
func FormatStatusTable(w io.Writer, statuses []storage.Status) {
	fmt.Fprintf(w, "%-8s %-8s %-10s %-6s %-6s %s\n",
		"BACKEND", "EXISTS", "SIZE", "LISTS", "ITEMS", "PATH")
	fmt.Fprintf(w, "%-8s %-8s %-10s %-6s %-6s %s\n",
		"--------", "--------", "----------", "------", "------", "----------------------------------------")

	for _, st := range statuses {
		fmt.Fprintf(w, "%-8s %-8s %-10s %-6d %-6d %s\n",
			st.Backend,
			formatBool(st.Exists),
			formatSize(st.SizeBytes),
			st.Lists,
			st.Items,
			st.Path,
		)
	}
}

// FormatSnapshotTable writes every list in the snapshot as a formatted
// table, grouped by guild. Returns the number of lists formatted.
func FormatSnapshotTable(w io.Writer, snap todo.Snapshot) int {
	if len(snap) == 0 {
		fmt.Fprintln(w, "No lists found")
		return 0
	}

	guilds := make([]string, 0, len(snap))
	for guildID := range snap {
		guilds = append(guilds, guildID)
	}
	sort.Strings(guilds)

	count := 0
	for _, guildID := range guilds {
		fmt.Fprintf(w, "Guild %s:\n\n", guildID)
		fmt.Fprintf(w, "  %-10s %-20s %-18s %-8s %s\n",
			"ID", "NAME", "CREATED BY", "AGE", "ITEMS")
		fmt.Fprintf(w, "  %-10s %-20s %-18s %-8s %s\n",
			"----------", "--------------------", "------------------", "--------", "----------")

		for _, l := range snap[guildID] {
			s := l.Summary()
			fmt.Fprintf(w, "  %-10s %-20s %-18s %-8s %d/%d done\n",
				formatID(s.ID),
				formatName(s.Name),
				formatName(s.CreatedBy),
				formatAge(s.CreatedAt),
				s.Completed,
				s.Items,
			)
			count++
		}
		fmt.Fprintln(w)
	}

	listWord := "list"
	if count != 1 {
		listWord = "lists"
	}
	fmt.Fprintf(w, "%d %s found\n", count, listWord)
	return count
}

// FormatSnapshotJSONL writes every list as line-delimited JSON, one list
// object per line. Ideal for processing with tools like jq.
func FormatSnapshotJSONL(w io.Writer, snap todo.Snapshot) error {
	guilds := make([]string, 0, len(snap))
	for guildID := range snap {
		guilds = append(guilds, guildID)
	}
	sort.Strings(guilds)

	for _, guildID := range guilds {
		for _, l := range snap[guildID] {
			data, err := json.Marshal(l)
			if err != nil {
				return fmt.Errorf("failed to marshal list to JSON: %w", err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", string(data)); err != nil {
				return fmt.Errorf("failed to write JSONL output: %w", err)
			}
		}
	}
	return nil
}

// FormatJSON writes any value as pretty-printed JSON with a trailing newline.
func FormatJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID truncates a UUID to its first 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatName truncates long names for table display.
func formatName(name string) string {
	if len(name) > 18 {
		return name[:15] + "..."
	}
	return name
}

// formatBool renders a boolean as yes/no for table display.
func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatSize renders a byte count compactly (B, KB, MB).
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// formatAge renders the elapsed time since t compactly (e.g. "2h", "3d").
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
