package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/repl"
)

var replName string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start interactive ticket prompt",
	Long: `Start an interactive prompt that asks for your name once and then
submits every line you type as a ticket.

Type '/help' in the REPL for available commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProcessor()
		if err != nil {
			return err
		}

		r, err := repl.New(&repl.Config{
			Processor: p,
			Requester: replName,
			Out:       cmd.OutOrStdout(),
		})
		if err != nil {
			return fmt.Errorf("failed to create REPL: %w", err)
		}

		return r.Run(cmd.Context())
	},
}

func init() {
	replCmd.Flags().StringVar(&replName, "name", "", "Requester name (asked for when empty)")
	rootCmd.AddCommand(replCmd)
}
