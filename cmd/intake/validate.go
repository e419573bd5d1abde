package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

func newValidateCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an intake form",
		Long:  "Prints one line per invalid field and exits with status 1 when the form would be rejected.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := readValues(cmd, input)
			if err != nil {
				return err
			}
			form, err := formFromValues(values)
			if err != nil {
				return err
			}

			errs := domain.Validate(form)
			if len(errs) > 0 {
				printErrors(cmd.OutOrStdout(), errs)
				return errInvalidForm
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Form is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "in", "i", "", "Path to form JSON file, or - for stdin (required)")
	if err := cmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	return cmd
}
