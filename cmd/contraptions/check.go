package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate properties files and the save file",
	Long: `Check loads every properties file in configs_dir and every record in the
configured store without starting the scheduler. It lists skipped entries
and fails if any were found.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

type checkResult struct {
	Types    []string `json:"types"`
	Records  int      `json:"records"`
	Failures []string `json:"failures"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	m, props, err := buildManager(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	saved := restore(cmd.Context(), m, store)

	res := checkResult{Types: m.Types(), Records: saved.Loaded}
	for _, f := range append(props.Failures, saved.Failures...) {
		res.Failures = append(res.Failures, f.Error())
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "types:   %d\n", len(res.Types))
		fmt.Fprintf(out, "records: %d\n", res.Records)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "skipped: %s\n", f)
		}
	}

	if len(res.Failures) > 0 {
		return fmt.Errorf("%d entries skipped", len(res.Failures))
	}
	return nil
}
