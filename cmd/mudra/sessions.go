package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/store"
)

var (
	sessionsLimit int
	pruneOlder    time.Duration
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent control sessions and their action counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSessions(os.Stdout, db, sessionsLimit)
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete action log entries older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := db.ActionLog().Prune(time.Now().Add(-pruneOlder))
		if err != nil {
			return fmt.Errorf("prune action log: %w", err)
		}
		fmt.Printf("Removed %d action log entries older than %s.\n", n, pruneOlder)
		return nil
	},
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "number of sessions to show")
	pruneCmd.Flags().DurationVar(&pruneOlder, "older-than", 30*24*time.Hour, "age cutoff")
	sessionsCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func listSessions(out io.Writer, s *store.Store, limit int) error {
	sessions, err := s.Sessions().List(limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tSCREEN\tMAPPING\tACTIONS")
	fmt.Fprintln(w, "--\t-------\t--------\t------\t-------\t-------")

	for _, sess := range sessions {
		counts, err := s.ActionLog().CountByKind(sess.ID)
		if err != nil {
			return fmt.Errorf("count actions for %s: %w", sess.ID, err)
		}

		duration := "running"
		if sess.EndedAt != nil {
			duration = sess.EndedAt.Sub(sess.StartedAt).Round(time.Second).String()
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\t%s\n",
			sess.ID[:8],
			sess.StartedAt.Local().Format("2006-01-02 15:04"),
			duration,
			sess.ScreenWidth, sess.ScreenHeight,
			sess.Mapping,
			formatCounts(counts),
		)
	}
	return w.Flush()
}

// formatCounts renders counts as "click=3 scroll=12", sorted by kind.
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
