package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/oriumgames/contraptions"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [type]",
	Short: "List saved contraptions",
	Long: `Inspect loads the saved population and prints every contraption, or only
those of the given type.

Example:
  contraptions inspect
  contraptions inspect coal_generator --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	m, _, err := buildManager(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	restore(cmd.Context(), m, store)

	var records []contraptions.Record
	for _, rec := range m.Snapshot() {
		if len(args) == 1 && rec.Type != args[0] {
			continue
		}
		records = append(records, rec)
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal records: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tTYPE\tRESOURCES")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%v\n", rec.Location, rec.Type, rec.Resources)
	}
	return w.Flush()
}
