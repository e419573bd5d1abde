// Package domain contains core business types and interfaces.
//
// This file defines the Report snapshot produced by a successful submission
// and the export formats it can be downloaded in.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Report Format
// =============================================================================

// ReportFormat represents the output format of an exported report.
type ReportFormat string

const (
	// ReportFormatPDF generates a printable PDF document.
	ReportFormatPDF ReportFormat = "pdf"

	// ReportFormatJSON generates the raw snapshot as JSON.
	ReportFormatJSON ReportFormat = "json"
)

// String returns the string representation of the format.
func (f ReportFormat) String() string {
	return string(f)
}

// IsValid returns true if the format is a recognized value.
func (f ReportFormat) IsValid() bool {
	switch f {
	case ReportFormatPDF, ReportFormatJSON:
		return true
	}
	return false
}

// ContentType returns the MIME content type for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	case ReportFormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the file extension for the format.
func (f ReportFormat) FileExtension() string {
	return string(f)
}

// =============================================================================
// Report Identifier
// =============================================================================

// ReportIDPrefix starts every report identifier.
const ReportIDPrefix = "SVC-"

// NewReportID derives a report identifier from a wall-clock reading:
// the prefix followed by the Unix millisecond timestamp in upper-case base 36.
func NewReportID(at time.Time) string {
	return ReportIDPrefix + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
}

// ReportIDScope decides how often a new report identifier is issued.
type ReportIDScope string

const (
	// ReportIDScopeSubmission issues a fresh identifier for every successful
	// submission.
	ReportIDScopeSubmission ReportIDScope = "submission"

	// ReportIDScopeSession issues one identifier when the session starts and
	// reuses it for every submission in that session.
	ReportIDScopeSession ReportIDScope = "session"
)

// IsValid returns true if the scope is a recognized value.
func (s ReportIDScope) IsValid() bool {
	switch s {
	case ReportIDScopeSubmission, ReportIDScopeSession:
		return true
	}
	return false
}

// =============================================================================
// Report Domain Type
// =============================================================================

// Report is the immutable snapshot handed to the report screen. It only
// ever holds data that passed validation.
type Report struct {
	ID          string            `json:"reportId"`
	Data        IntakeForm        `json:"data"`
	Job         ServiceJob        `json:"-"`
	Assessment  *HealthAssessment `json:"derivedAssessment"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// newReport freezes a copy of the form together with its assessment.
func newReport(id string, form IntakeForm, at time.Time) *Report {
	return &Report{
		ID:          id,
		Data:        form,
		Job:         form.Job(),
		Assessment:  Assess(form),
		GeneratedAt: at,
	}
}

// Clone returns an independent copy.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	out.Assessment = r.Assessment.Clone()
	return &out
}

// IsGeneralService returns true if the report includes an inspection.
func (r *Report) IsGeneralService() bool {
	_, ok := r.Job.(GeneralServiceJob)
	return ok
}

// Inspection returns the inspection values of a General Service report.
func (r *Report) Inspection() (GeneralServiceJob, bool) {
	job, ok := r.Job.(GeneralServiceJob)
	return job, ok
}
