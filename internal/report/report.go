// Package report renders service intake reports for download.
//
// This package defines a Generator interface implemented by PDFGenerator and
// JSONGenerator, along with the status wording and colour palette shared by
// the HTML report screen and the exported documents.
package report

import (
	"context"
	"io"
	"time"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator defines the interface for report generators.
type Generator interface {
	// Generate renders the report and writes it to the provided writer.
	// Returns the number of bytes written and any error.
	Generate(ctx context.Context, r *domain.Report, w io.Writer) (int64, error)

	// Format returns the output format of this generator.
	Format() domain.ReportFormat
}

var (
	_ Generator = (*PDFGenerator)(nil)
	_ Generator = (*JSONGenerator)(nil)
)

// Filename returns the download name for a report in the given format.
func Filename(r *domain.Report, format domain.ReportFormat) string {
	return r.ID + "." + format.FileExtension()
}

// =============================================================================
// Colours
// =============================================================================

// Colors is the report palette.
var Colors = struct {
	Good     string
	Warning  string
	Critical string
	Info     string
	Ink      string
	Muted    string
	Border   string
	Panel    string
}{
	Good:     "#22C55E",
	Warning:  "#F97316",
	Critical: "#EF4444",
	Info:     "#3B82F6",
	Ink:      "#0F172A",
	Muted:    "#64748B",
	Border:   "#E2E8F0",
	Panel:    "#F8FAFC",
}

// HexToRGB converts a hex colour string to RGB values.
// Input format: "#RRGGBB" or "RRGGBB". Malformed input yields black.
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	return hexByte(hex[0:2]), hexByte(hex[2:4]), hexByte(hex[4:6])
}

func hexByte(s string) int {
	v := 0
	for _, c := range s {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= int(c - '0')
		case c >= 'a' && c <= 'f':
			v |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= int(c-'A') + 10
		default:
			return 0
		}
	}
	return v
}

// =============================================================================
// Status Presentation
// =============================================================================

// Banner is the headline block at the top of a report.
type Banner struct {
	Icon        string
	Badge       string
	Title       string
	Description string
	Color       string
	// Grade is the one-word verdict under the score ring. Empty for Quick
	// Service reports.
	Grade string
	// Tone is a short CSS modifier: good, warning, critical or info.
	Tone string
}

var statusBanners = map[domain.HealthStatus]Banner{
	domain.HealthStatusGood: {
		Icon:        "✅",
		Badge:       "OPTIMAL",
		Title:       "Vehicle in Good Condition",
		Description: "All parameters within acceptable range.",
		Color:       Colors.Good,
		Grade:       "EXCELLENT",
		Tone:        "good",
	},
	domain.HealthStatusWarning: {
		Icon:        "⚠️",
		Badge:       "NEEDS ATTENTION",
		Title:       "Some Issues Detected",
		Description: "Minor issues found. Schedule maintenance soon.",
		Color:       Colors.Warning,
		Grade:       "FAIR",
		Tone:        "warning",
	},
	domain.HealthStatusCritical: {
		Icon:        "🚨",
		Badge:       "CRITICAL",
		Title:       "Immediate Action Required",
		Description: "Significant problems detected. Do not delay.",
		Color:       Colors.Critical,
		Grade:       "POOR",
		Tone:        "critical",
	},
}

var quickServiceBanner = Banner{
	Icon:        "⚡",
	Badge:       "QUEUED",
	Title:       "Quick Service Scheduled",
	Description: "Vehicle queued for quick service. No detailed inspection required.",
	Color:       Colors.Info,
	Tone:        "info",
}

// BannerFor returns the headline block for a report.
func BannerFor(r *domain.Report) Banner {
	if r.Assessment == nil {
		return quickServiceBanner
	}
	if b, ok := statusBanners[r.Assessment.Status]; ok {
		return b
	}
	return quickServiceBanner
}

// NoFindingsText is shown in place of recommendations when no rule fired.
const NoFindingsText = "All parameters within acceptable range — no immediate action required."

// FlagColor returns the dot colour of a recommendation.
func FlagColor(level domain.FlagLevel) string {
	if level == domain.FlagLevelCritical {
		return Colors.Critical
	}
	return Colors.Warning
}

// BatteryColor grades a battery reading: green from 60, orange from 30,
// red below.
func BatteryColor(percent int) string {
	switch {
	case percent >= 60:
		return Colors.Good
	case percent >= 30:
		return Colors.Warning
	default:
		return Colors.Critical
	}
}

// BodyColor grades the exterior body condition.
func BodyColor(c domain.BodyCondition) string {
	switch c {
	case domain.BodyConditionGood:
		return Colors.Good
	case domain.BodyConditionMinorDamage:
		return Colors.Warning
	case domain.BodyConditionMajorDamage:
		return Colors.Critical
	}
	return Colors.Muted
}

// PaintColor grades the paint condition.
func PaintColor(c domain.PaintCondition) string {
	switch c {
	case domain.PaintConditionGood:
		return Colors.Good
	case domain.PaintConditionFaded:
		return Colors.Warning
	case domain.PaintConditionScratchedChipped:
		return Colors.Critical
	}
	return Colors.Muted
}

// OrDash returns s, or an em dash when s is empty.
func OrDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// =============================================================================
// Timestamps
// =============================================================================

// TimestampLayout matches the en-IN medium date, short time style.
const TimestampLayout = "2 Jan 2006, 3:04 pm"

// FormatTimestamp formats a report time in the given location. A nil
// location formats in UTC.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}
