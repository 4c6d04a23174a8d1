package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"framelock/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.Check(cfg)
			if asJSON {
				return writeJSON(cmd, statuses)
			}
			printDeps(cmd, statuses)
			for _, status := range statuses {
				if !status.Available && !status.Optional {
					return fmt.Errorf("missing required dependency: %s", status.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func printDeps(cmd *cobra.Command, statuses []deps.Status) {
	out := cmd.OutOrStdout()

	headers := []string{"Name", "Command", "Available", "Detail"}
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Detail
		if detail == "" {
			detail = status.Description
		}
		rows = append(rows, []string{
			status.Name,
			status.Command,
			yesNo(status.Available),
			detail,
		})
	}

	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(out, renderTable(headers, rows))
		return
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3])
	}
}
