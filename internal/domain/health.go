package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// =============================================================================
// Flag Level
// =============================================================================

// FlagLevel is the severity of a single scoring rule violation.
type FlagLevel string

const (
	FlagLevelWarning  FlagLevel = "warning"
	FlagLevelCritical FlagLevel = "critical"
)

// String returns the string representation of the level.
func (l FlagLevel) String() string {
	return string(l)
}

// Flag is a scoring rule that fired during assessment.
type Flag struct {
	Text  string    `json:"text"`
	Level FlagLevel `json:"level"`
}

// =============================================================================
// Health Status
// =============================================================================

// HealthStatus summarizes an assessment score.
type HealthStatus string

const (
	HealthStatusGood     HealthStatus = "good"
	HealthStatusWarning  HealthStatus = "warning"
	HealthStatusCritical HealthStatus = "critical"
)

// String returns the string representation of the status.
func (s HealthStatus) String() string {
	return string(s)
}

// StatusForScore maps a score to its status band:
// 75 and above is good, 50 to 74 is warning, below 50 is critical.
func StatusForScore(score int) HealthStatus {
	switch {
	case score >= 75:
		return HealthStatusGood
	case score >= 50:
		return HealthStatusWarning
	default:
		return HealthStatusCritical
	}
}

// =============================================================================
// Health Assessment
// =============================================================================

// MaxHealthScore is the score of a vehicle with no findings.
const MaxHealthScore = 100

// Tyre pressure outside [TyrePressureMin, TyrePressureMax] PSI is flagged.
const (
	TyrePressureMin = 28
	TyrePressureMax = 40
)

// HealthAssessment is the derived, read-only summary of an inspection.
type HealthAssessment struct {
	Score  int          `json:"score"`
	Flags  []Flag       `json:"flags"`
	Status HealthStatus `json:"status"`
}

// Clone returns an independent copy.
func (a *HealthAssessment) Clone() *HealthAssessment {
	if a == nil {
		return nil
	}
	out := *a
	out.Flags = append([]Flag{}, a.Flags...)
	return &out
}

// CriticalCount returns the number of critical flags.
func (a *HealthAssessment) CriticalCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, f := range a.Flags {
		if f.Level == FlagLevelCritical {
			n++
		}
	}
	return n
}

// Assess scores the form. It returns nil unless the job is General Service;
// quick-service vehicles are not inspected.
//
// Rules are applied in a fixed order and flags keep that order. Several
// rules may fire; body, paint and battery each fire at most once.
func Assess(form IntakeForm) *HealthAssessment {
	job, ok := form.Job().(GeneralServiceJob)
	if !ok {
		return nil
	}

	a := &HealthAssessment{Score: MaxHealthScore, Flags: []Flag{}}
	penalize := func(points int, level FlagLevel, text string) {
		a.Score -= points
		a.Flags = append(a.Flags, Flag{Text: text, Level: level})
	}

	switch job.Body {
	case BodyConditionMinorDamage:
		penalize(15, FlagLevelWarning, "Minor exterior body damage detected")
	case BodyConditionMajorDamage:
		penalize(35, FlagLevelCritical, "Major body damage — immediate inspection required")
	}

	switch job.Paint {
	case PaintConditionFaded:
		penalize(10, FlagLevelWarning, "Paint fading — consider repainting")
	case PaintConditionScratchedChipped:
		penalize(15, FlagLevelCritical, "Paint scratches/chips — touch-up recommended")
	}

	switch bat := job.BatteryHealth; {
	case bat < 30:
		penalize(25, FlagLevelCritical, fmt.Sprintf("Battery at %d%% — replacement advised", bat))
	case bat < 60:
		penalize(10, FlagLevelWarning, fmt.Sprintf("Battery at %d%% — monitor closely", bat))
	}

	// Non-numeric pressure is ignored rather than reported.
	if psi, ok := ParseLeadingInt(job.TyrePressure); ok && (psi < TyrePressureMin || psi > TyrePressureMax) {
		penalize(12, FlagLevelWarning, fmt.Sprintf("Tyre pressure at %d PSI — adjust to 30–36 PSI", psi))
	}

	if a.Score < 0 {
		a.Score = 0
	}
	a.Status = StatusForScore(a.Score)
	return a
}

// ParseLeadingInt reads an integer from the start of s the way a browser's
// parseInt does: leading whitespace is skipped, an optional sign and 0x
// prefix are honoured, and whatever follows the digits is ignored ("32 PSI"
// is 32, "3.9" is 3, "0x20" is 32). It reports false when s does not start
// with a number. Values beyond the int range saturate.
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, isLeadingSpace)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}

	base, isDigit := 10, isDecimalDigit
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit = 16, isHexDigit
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(sign+s[:end], base, 0)
	if err != nil {
		// Only a range error is possible here.
		if sign == "-" {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return int(n), true
}

// isLeadingSpace matches the whitespace parseInt skips: Unicode White_Space
// plus the byte order mark, minus NEL.
func isLeadingSpace(r rune) bool {
	return r == '\uFEFF' || (r != '\u0085' && unicode.IsSpace(r))
}

func isDecimalDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDecimalDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
