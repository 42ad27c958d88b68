package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show tunables saved from previous runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSettings(os.Stdout, db)
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget saved tunables so defaults and MUDRA_* variables apply again",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := resetSettings(db)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d saved settings.\n", n)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func showSettings(out io.Writer, s *store.Store) error {
	values, err := s.Settings().All()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	if len(values) == 0 {
		fmt.Fprintln(out, "No saved settings.")
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\n", k, values[k])
	}
	return w.Flush()
}

func resetSettings(s *store.Store) (int, error) {
	values, err := s.Settings().All()
	if err != nil {
		return 0, fmt.Errorf("read settings: %w", err)
	}
	for k := range values {
		if err := s.Settings().Delete(k); err != nil {
			return 0, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(values), nil
}
