// Package service contains the business logic layer.
//
// This file implements the intake service: it resolves the caller's session,
// applies events to it under the store's per-session lock, issues report
// identifiers and records submission metrics.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/metrics"
)

// =============================================================================
// Interface Definition
// =============================================================================

// IntakeService defines the events a browser can send to its session. Every
// method returns the session view after the event, including when the event
// is rejected, so callers can always re-render.
type IntakeService interface {
	// View returns the current state without changing it.
	View(ctx context.Context, sessionID string) (domain.SessionView, error)

	// EditField sets one field from its wire value.
	EditField(ctx context.Context, sessionID string, field domain.Field, value string) (domain.SessionView, error)

	// BlurField marks a field as touched.
	BlurField(ctx context.Context, sessionID string, field domain.Field) (domain.SessionView, error)

	// SelectJobType switches between Quick Service and General Service.
	SelectJobType(ctx context.Context, sessionID string, jobType domain.JobType) (domain.SessionView, error)

	// Submit applies any posted values that differ from the session's form,
	// then validates. A rejected submission returns *domain.ValidationError.
	Submit(ctx context.Context, sessionID string, values map[domain.Field]string) (domain.SessionView, error)

	// Reset restores the blank form.
	Reset(ctx context.Context, sessionID string) (domain.SessionView, error)

	// NewIntake leaves the report screen for a blank form.
	NewIntake(ctx context.Context, sessionID string) (domain.SessionView, error)

	// CurrentReport returns the report shown on the report screen.
	CurrentReport(ctx context.Context, sessionID string) (*domain.Report, error)
}

// SessionStore is the subset of session.Store the service needs.
type SessionStore interface {
	Do(id string, fn func(*domain.Session) error) error
}

// IntakeConfig configures the intake service.
type IntakeConfig struct {
	// ReportIDScope decides whether every submission gets a fresh report id.
	ReportIDScope domain.ReportIDScope

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// =============================================================================
// Implementation
// =============================================================================

type intakeService struct {
	store   SessionStore
	idScope domain.ReportIDScope
	now     func() time.Time
	logger  *slog.Logger
}

// NewIntakeService creates a new IntakeService.
func NewIntakeService(store SessionStore, cfg IntakeConfig, logger *slog.Logger) IntakeService {
	if !cfg.ReportIDScope.IsValid() {
		cfg.ReportIDScope = domain.ReportIDScopeSubmission
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &intakeService{
		store:   store,
		idScope: cfg.ReportIDScope,
		now:     cfg.Now,
		logger:  logger,
	}
}

// apply runs fn on the session and returns the view taken afterwards under
// the same lock.
func (s *intakeService) apply(sessionID string, fn func(*domain.Session) error) (domain.SessionView, error) {
	const op = "IntakeService.apply"

	if sessionID == "" {
		return domain.SessionView{}, domain.Invalid(op, "missing session")
	}

	var view domain.SessionView
	err := s.store.Do(sessionID, func(sess *domain.Session) error {
		fnErr := fn(sess)
		view = sess.View()
		return fnErr
	})
	return view, err
}

// View returns the current state without changing it.
func (s *intakeService) View(ctx context.Context, sessionID string) (domain.SessionView, error) {
	return s.apply(sessionID, func(*domain.Session) error { return nil })
}

// EditField sets one field from its wire value.
func (s *intakeService) EditField(ctx context.Context, sessionID string, field domain.Field, value string) (domain.SessionView, error) {
	return s.apply(sessionID, func(sess *domain.Session) error {
		return sess.EditField(field, value)
	})
}

// BlurField marks a field as touched.
func (s *intakeService) BlurField(ctx context.Context, sessionID string, field domain.Field) (domain.SessionView, error) {
	return s.apply(sessionID, func(sess *domain.Session) error {
		return sess.BlurField(field)
	})
}

// SelectJobType switches between Quick Service and General Service.
func (s *intakeService) SelectJobType(ctx context.Context, sessionID string, jobType domain.JobType) (domain.SessionView, error) {
	return s.apply(sessionID, func(sess *domain.Session) error {
		return sess.SelectJobType(jobType)
	})
}

// Submit applies changed values, then validates and freezes a report.
func (s *intakeService) Submit(ctx context.Context, sessionID string, values map[domain.Field]string) (domain.SessionView, error) {
	const op = "IntakeService.Submit"

	var (
		report   *domain.Report
		jobType  domain.JobType
		rejected *domain.ValidationError
	)

	view, err := s.apply(sessionID, func(sess *domain.Session) error {
		if sess.Screen() != domain.ScreenForm {
			return domain.Conflict(op, "the report has already been generated")
		}
		if err := applyChanged(sess, values); err != nil {
			return err
		}

		now := s.now()
		r, err := sess.Submit(s.reportID(sess, now), now)
		jobType = sess.Form().JobType
		report = r
		return err
	})

	switch {
	case errors.As(err, &rejected):
		metrics.SubmissionRejected(jobType, rejected.Fields)
		s.logger.DebugContext(ctx, "submission rejected",
			"session_id", sessionID,
			"job_type", jobType.String(),
			"invalid_fields", rejected.Fields.Count(),
		)
	case err == nil && report != nil:
		metrics.SubmissionAccepted(report)
		s.logSubmission(ctx, sessionID, report)
	}

	return view, err
}

// applyChanged edits only the fields whose posted value differs from the
// current form. All values are checked before any is applied so a malformed
// post leaves the session untouched.
func applyChanged(sess *domain.Session, values map[domain.Field]string) error {
	for field := range values {
		if !field.IsValid() {
			return domain.Invalid("IntakeService.Submit", "unknown field "+field.String())
		}
	}

	form := sess.Form()
	var changed []domain.Field

	for _, field := range domain.AllFields {
		value, ok := values[field]
		if !ok || value == form.Value(field) {
			continue
		}
		next, err := form.With(field, value)
		if err != nil {
			return err
		}
		form = next
		changed = append(changed, field)
	}

	for _, field := range changed {
		if err := sess.EditField(field, values[field]); err != nil {
			return err
		}
	}
	return nil
}

func (s *intakeService) reportID(sess *domain.Session, now time.Time) string {
	if s.idScope == domain.ReportIDScopeSession {
		return sess.SessionReportID
	}
	return domain.NewReportID(now)
}

func (s *intakeService) logSubmission(ctx context.Context, sessionID string, report *domain.Report) {
	attrs := []any{
		"session_id", sessionID,
		"report_id", report.ID,
		"job_type", report.Data.JobType.String(),
		"vehicle_number", report.Data.VehicleNumber,
		"company_name", report.Data.CompanyName,
	}
	if a := report.Assessment; a != nil {
		attrs = append(attrs,
			"health_score", a.Score,
			"health_status", a.Status.String(),
			"flags", len(a.Flags),
		)
	}
	s.logger.InfoContext(ctx, "intake submitted", attrs...)
}

// Reset restores the blank form.
func (s *intakeService) Reset(ctx context.Context, sessionID string) (domain.SessionView, error) {
	return s.apply(sessionID, func(sess *domain.Session) error {
		return sess.Reset()
	})
}

// NewIntake leaves the report screen for a blank form.
func (s *intakeService) NewIntake(ctx context.Context, sessionID string) (domain.SessionView, error) {
	return s.apply(sessionID, func(sess *domain.Session) error {
		return sess.NewIntake()
	})
}

// CurrentReport returns the report shown on the report screen.
func (s *intakeService) CurrentReport(ctx context.Context, sessionID string) (*domain.Report, error) {
	const op = "IntakeService.CurrentReport"

	view, err := s.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if view.Report == nil {
		return nil, domain.NotFound(op, "report for session", sessionID)
	}
	return view.Report, nil
}
