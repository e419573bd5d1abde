// Package service contains the business logic layer.
//
// This file implements the report export service, which renders the
// session's current report through the registered generators.
package service

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/metrics"
	"github.com/DukeRupert/fleetintake/internal/report"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ReportService defines operations for downloading reports.
type ReportService interface {
	// Export renders the session's current report in the requested format.
	Export(ctx context.Context, sessionID string, format domain.ReportFormat) (*ReportFile, error)
}

// ReportFile is a rendered report ready to be sent to the client.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// =============================================================================
// Implementation
// =============================================================================

type reportService struct {
	intake     IntakeService
	generators map[domain.ReportFormat]report.Generator
	logger     *slog.Logger
}

// NewReportService creates a new ReportService. Each generator serves the
// format it reports; a later generator for the same format wins.
func NewReportService(intake IntakeService, logger *slog.Logger, generators ...report.Generator) ReportService {
	byFormat := make(map[domain.ReportFormat]report.Generator, len(generators))
	for _, g := range generators {
		byFormat[g.Format()] = g
	}
	return &reportService{
		intake:     intake,
		generators: byFormat,
		logger:     logger,
	}
}

// Export renders the session's current report in the requested format.
func (s *reportService) Export(ctx context.Context, sessionID string, format domain.ReportFormat) (*ReportFile, error) {
	const op = "ReportService.Export"

	gen, ok := s.generators[format]
	if !ok {
		return nil, domain.Invalid(op, "unsupported report format "+format.String())
	}

	r, err := s.intake.CurrentReport(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := gen.Generate(ctx, r, &buf); err != nil {
		s.logger.ErrorContext(ctx, "failed to generate report",
			"error", err,
			"op", op,
			"report_id", r.ID,
			"format", format.String(),
		)
		return nil, domain.Internal(err, op, "Failed to generate report")
	}

	metrics.ReportExported(format)
	s.logger.InfoContext(ctx, "report exported",
		"report_id", r.ID,
		"format", format.String(),
		"bytes", buf.Len(),
	)

	return &ReportFile{
		Filename:    report.Filename(r, format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
