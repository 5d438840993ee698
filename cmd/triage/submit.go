package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	submitName   string
	submitTicket string
)

var submitCmd = &cobra.Command{
	Use:   "submit [ticket text]",
	Short: "Classify and store one ticket",
	Long: `Classify a ticket and store it in its department file, or add the
requester to an existing ticket when it is a duplicate.

The ticket text comes from --ticket or from the positional arguments.`,
	Example: `  triage submit --name Ana --ticket "My laptop won't turn on"
  triage submit --name Luis printer on floor 2 is jammed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ticket := submitTicket
		if ticket == "" {
			ticket = strings.Join(args, " ")
		}

		p, err := newProcessor()
		if err != nil {
			return err
		}

		result, err := p.Process(cmd.Context(), ticket, submitName)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		if result.Duplicate {
			green = color.New(color.FgYellow).SprintFunc()
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", green("✓ Resultado:"), result.Message)
		fmt.Fprintf(out, "Departamento: %s\n", result.Department)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitName, "name", "", "Requester name (required)")
	submitCmd.Flags().StringVar(&submitTicket, "ticket", "", "Ticket text")
	_ = submitCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(submitCmd)
}
