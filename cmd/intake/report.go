package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		input    string
		format   string
		output   string
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Submit a form and export its report",
		Long:  "Submits the form through a fresh intake session and writes the resulting report as PDF or JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := domain.ReportFormat(format)
			if !f.IsValid() {
				return fmt.Errorf("--format must be either 'pdf' or 'json', got: %s", format)
			}
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("unknown time zone %q: %w", timezone, err)
			}

			values, err := readValues(cmd, input)
			if err != nil {
				return err
			}

			rep, err := submit(values, time.Now())
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				printErrors(cmd.ErrOrStderr(), ve.Fields)
				return errInvalidForm
			}
			if err != nil {
				return err
			}

			var gen report.Generator
			switch f {
			case domain.ReportFormatPDF:
				gen = report.NewPDFGenerator(loc)
			default:
				gen = report.NewJSONGenerator(loc)
			}

			w, closeFn, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			defer closeFn()

			if _, err := gen.Generate(cmd.Context(), rep, w); err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s)\n", output, rep.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "in", "i", "", "Path to form JSON file, or - for stdin (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Report format: pdf or json")
	cmd.Flags().StringVarP(&output, "out", "o", "-", "Output path, or - for stdout")
	cmd.Flags().StringVar(&timezone, "timezone", "Asia/Kolkata", "Time zone for the report timestamp")
	if err := cmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	return cmd
}

// submit replays the values as edits on a new session, then submits it.
func submit(values map[domain.Field]string, now time.Time) (*domain.Report, error) {
	sess := domain.NewSession(uuid.NewString(), now)
	for _, field := range domain.AllFields {
		value, ok := values[field]
		if !ok {
			continue
		}
		if err := sess.EditField(field, value); err != nil {
			return nil, fmt.Errorf("%s: %s", field, domain.ErrorMessage(err))
		}
	}
	return sess.Submit(domain.NewReportID(now), now)
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
