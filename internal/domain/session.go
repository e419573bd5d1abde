// Package domain contains core business types and interfaces.
//
// This file defines the intake Session: the two-screen navigation state
// machine that mediates edits into the IntakeForm and freezes reports.
package domain

import (
	"time"
)

// =============================================================================
// Screen
// =============================================================================

// Screen is the navigation state of a session.
type Screen string

const (
	// ScreenForm is the editable intake form. Sessions start here.
	ScreenForm Screen = "form"

	// ScreenReport shows the last successful submission. A new intake
	// returns to the form.
	ScreenReport Screen = "report"
)

// String returns the string representation of the screen.
func (s Screen) String() string {
	return string(s)
}

// =============================================================================
// Touched Set
// =============================================================================

// TouchedSet records fields the user has interacted with. It gates the
// display of errors only; validation always covers the whole form.
type TouchedSet map[Field]bool

// Has returns true if the field has been touched.
func (t TouchedSet) Has(field Field) bool {
	return t[field]
}

// Clone returns an independent copy.
func (t TouchedSet) Clone() TouchedSet {
	out := make(TouchedSet, len(t))
	for f, v := range t {
		if v {
			out[f] = true
		}
	}
	return out
}

// =============================================================================
// Session
// =============================================================================

// Session is one user's intake workflow. It is not safe for concurrent use;
// callers serialise events per session.
//
// Transitions:
//   - form -> form   (edit, blur, select job type, reset, rejected submit)
//   - form -> report (accepted submit)
//   - report -> form (new intake)
//
// Any other event returns a conflict error and leaves the session unchanged.
type Session struct {
	ID        string
	StartedAt time.Time

	// SessionReportID is issued at session start and used when report
	// identifiers are scoped to the session.
	SessionReportID string

	screen  Screen
	form    IntakeForm
	errors  ValidationErrors
	touched TouchedSet
	report  *Report
}

// NewSession returns a session on the form screen with a blank form.
func NewSession(id string, startedAt time.Time) *Session {
	s := &Session{
		ID:              id,
		StartedAt:       startedAt,
		SessionReportID: NewReportID(startedAt),
		screen:          ScreenForm,
	}
	s.clear()
	return s
}

// Screen returns the current screen.
func (s *Session) Screen() Screen {
	return s.screen
}

// Form returns a copy of the current form values.
func (s *Session) Form() IntakeForm {
	return s.form
}

// Report returns the current report, or nil when none is held.
func (s *Session) Report() *Report {
	return s.report
}

// EditField sets a field from its wire value, marks it touched and clears
// any error it had. The error is recomputed on the next submit.
func (s *Session) EditField(field Field, value string) error {
	const op = "session.edit_field"

	if s.screen != ScreenForm {
		return Conflict(op, "fields can only be edited on the intake form")
	}

	next, err := s.form.With(field, value)
	if err != nil {
		return err
	}

	s.form = next
	s.touched[field] = true
	delete(s.errors, field)
	return nil
}

// BlurField marks a field touched so its error, if any, becomes visible.
func (s *Session) BlurField(field Field) error {
	const op = "session.blur_field"

	if s.screen != ScreenForm {
		return Conflict(op, "fields can only be edited on the intake form")
	}
	if !field.IsValid() {
		return Invalid(op, "unknown field")
	}

	s.touched[field] = true
	return nil
}

// SelectJobType switches the inspection path. Inspection values entered
// earlier are kept.
func (s *Session) SelectJobType(jobType JobType) error {
	return s.EditField(FieldJobType, string(jobType))
}

// Submit validates the whole form. Every field is marked touched so all
// messages become visible at once.
//
// When validation fails the errors are stored, the session stays on the
// form and a *ValidationError is returned. Otherwise a new Report replaces
// any previous one and the session moves to the report screen.
func (s *Session) Submit(reportID string, at time.Time) (*Report, error) {
	const op = "session.submit"

	if s.screen != ScreenForm {
		return nil, Conflict(op, "the report has already been generated")
	}

	for _, f := range AllFields {
		s.touched[f] = true
	}

	errs := Validate(s.form)
	s.errors = errs
	if len(errs) > 0 {
		return nil, &ValidationError{Op: op, Fields: errs.Clone()}
	}

	s.report = newReport(reportID, s.form, at)
	s.screen = ScreenReport
	return s.report.Clone(), nil
}

// Reset restores the canonical blank form without submitting.
func (s *Session) Reset() error {
	if s.screen != ScreenForm {
		return Conflict("session.reset", "reset is only available on the intake form")
	}
	s.clear()
	return nil
}

// NewIntake discards the report and returns to a blank form.
func (s *Session) NewIntake() error {
	if s.screen != ScreenReport {
		return Conflict("session.new_intake", "there is no report to leave")
	}
	s.report = nil
	s.screen = ScreenForm
	s.clear()
	return nil
}

func (s *Session) clear() {
	s.form = NewIntakeForm()
	s.errors = ValidationErrors{}
	s.touched = TouchedSet{}
}

// =============================================================================
// View
// =============================================================================

// SessionView is a detached snapshot of everything the renderer needs.
type SessionView struct {
	SessionID string           `json:"sessionId"`
	Screen    Screen           `json:"screen"`
	Form      IntakeForm       `json:"form"`
	Errors    ValidationErrors `json:"errors"`
	Touched   TouchedSet       `json:"touched"`
	Report    *Report          `json:"report,omitempty"`
}

// View returns a snapshot that shares no mutable state with the session.
func (s *Session) View() SessionView {
	return SessionView{
		SessionID: s.ID,
		Screen:    s.screen,
		Form:      s.form,
		Errors:    s.errors.Clone(),
		Touched:   s.touched.Clone(),
		Report:    s.report.Clone(),
	}
}

// VisibleError returns the field's error if the field has been touched.
func (v SessionView) VisibleError(field Field) string {
	if !v.Touched.Has(field) {
		return ""
	}
	return v.Errors[field]
}
