package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

func newAssessCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score a vehicle inspection",
		Long:  "Prints the health assessment of a General Service form as JSON, or null for Quick Service. The form is not validated.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := readValues(cmd, input)
			if err != nil {
				return err
			}
			form, err := formFromValues(values)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(domain.Assess(form))
		},
	}

	cmd.Flags().StringVarP(&input, "in", "i", "", "Path to form JSON file, or - for stdin (required)")
	if err := cmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	return cmd
}
