package metrics

import (
	"github.com/DukeRupert/fleetintake/internal/domain"
)

// SubmissionAccepted records a successful submit and, for General Service
// reports, the resulting health score.
func SubmissionAccepted(report *domain.Report) {
	SubmissionsTotal.WithLabelValues(report.Data.JobType.String(), "accepted").Inc()

	if a := report.Assessment; a != nil {
		HealthScore.Observe(float64(a.Score))
		HealthStatusTotal.WithLabelValues(a.Status.String()).Inc()
	}
}

// SubmissionRejected records a submit that failed validation.
func SubmissionRejected(jobType domain.JobType, fields domain.ValidationErrors) {
	SubmissionsTotal.WithLabelValues(jobType.String(), "rejected").Inc()

	for field, msg := range fields {
		if msg != "" {
			ValidationFailuresTotal.WithLabelValues(field.String()).Inc()
		}
	}
}

// ReportExported records a report download.
func ReportExported(format domain.ReportFormat) {
	ReportsExported.WithLabelValues(format.String()).Inc()
}
