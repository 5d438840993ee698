package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var departmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "List departments and their ticket files",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := cfg.DepartmentTable()
		if err != nil {
			return err
		}

		printHeader(cmd, "=== Departments ===")
		green := color.New(color.FgGreen).SprintFunc()
		for _, dept := range table.Departments() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", green(fmt.Sprintf("%-18s", dept.Label)), filepath.Join(cfg.DataDir, dept.File))
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(departmentsCmd)
}
