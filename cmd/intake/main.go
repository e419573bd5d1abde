// Package main provides the intake CLI, which runs the intake form rules
// against a JSON form file without a browser.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

// errInvalidForm is returned after the field messages have been printed.
var errInvalidForm = errors.New("form is invalid")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "intake",
		Short:         "Fleet service intake tools",
		Long:          "Validates, scores and exports fleet service intake forms stored as JSON keyed by wire field names.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd(), newAssessCmd(), newReportCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalidForm) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// readValues loads the field values from path, or stdin when path is "-".
func readValues(cmd *cobra.Command, path string) (map[domain.Field]string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open form file: %w", err)
		}
		defer f.Close()
		r = f
	}

	values, err := domain.DecodeFieldValues(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read form: %s", domain.ErrorMessage(err))
	}
	return values, nil
}

// formFromValues applies values onto the initial form in form order.
func formFromValues(values map[domain.Field]string) (domain.IntakeForm, error) {
	form := domain.NewIntakeForm()
	for _, field := range domain.AllFields {
		value, ok := values[field]
		if !ok {
			continue
		}
		next, err := form.With(field, value)
		if err != nil {
			return form, fmt.Errorf("%s: %s", field, domain.ErrorMessage(err))
		}
		form = next
	}
	return form, nil
}

func printErrors(w io.Writer, errs domain.ValidationErrors) {
	for _, field := range domain.AllFields {
		if msg, ok := errs[field]; ok {
			fmt.Fprintf(w, "%s: %s\n", field, msg)
		}
	}
}
