package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/storage/textfile"
	"github.com/steveyegge/triage/internal/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records [department]",
	Short: "Show stored tickets",
	Long: `Show the tickets stored for a department, or for every department
when none is given. Department labels may be passed unquoted:

  triage records soporte tecnico`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := cfg.DepartmentTable()
		if err != nil {
			return err
		}

		depts := table.Departments()
		if len(args) > 0 {
			dept, err := table.Lookup(strings.Join(args, " "))
			if err != nil {
				return err
			}
			depts = []types.Department{dept}
		}

		store := textfile.New(cfg.DataDir)
		out := cmd.OutOrStdout()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		for _, dept := range depts {
			records, err := store.Load(cmd.Context(), dept)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s %s\n", yellow(dept.Label+":"), gray(fmt.Sprintf("(%d)", len(records))))
			if len(records) == 0 {
				fmt.Fprintf(out, "  %s\n", gray("no tickets"))
			}
			for _, record := range records {
				fmt.Fprintf(out, "  %s\n", textfile.FormatRecord(record))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}
