// Package domain contains core business types and interfaces.
//
// This file defines the IntakeForm captured at the service desk and the
// enumerations it is built from.
package domain

import (
	"strconv"
	"strings"
)

// =============================================================================
// Job Type
// =============================================================================

// JobType selects the inspection path for a service request.
type JobType string

const (
	// JobTypeQuickService covers oil, filter and basic checks. No inspection
	// is recorded and no health assessment is produced.
	JobTypeQuickService JobType = "Quick Service"

	// JobTypeGeneralService is a full inspection. It activates the condition
	// fields and the health scoring engine.
	JobTypeGeneralService JobType = "General Service"
)

// JobTypes lists job types in display order.
var JobTypes = []JobType{JobTypeQuickService, JobTypeGeneralService}

// String returns the string representation of the job type.
func (t JobType) String() string {
	return string(t)
}

// IsValid returns true if the job type is a recognized value.
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeQuickService, JobTypeGeneralService:
		return true
	}
	return false
}

// =============================================================================
// Body Condition
// =============================================================================

// BodyCondition is the inspector's rating of the exterior body. The zero
// value means no selection has been made.
type BodyCondition string

const (
	BodyConditionGood        BodyCondition = "Good"
	BodyConditionMinorDamage BodyCondition = "Minor Damage"
	BodyConditionMajorDamage BodyCondition = "Major Damage"
)

// BodyConditions lists body conditions in display order.
var BodyConditions = []BodyCondition{BodyConditionGood, BodyConditionMinorDamage, BodyConditionMajorDamage}

// String returns the string representation of the condition.
func (c BodyCondition) String() string {
	return string(c)
}

// IsValid returns true if the condition is a recognized value.
// The empty selection is not a valid condition.
func (c BodyCondition) IsValid() bool {
	switch c {
	case BodyConditionGood, BodyConditionMinorDamage, BodyConditionMajorDamage:
		return true
	}
	return false
}

// =============================================================================
// Paint Condition
// =============================================================================

// PaintCondition is the inspector's rating of the paintwork. The zero value
// means no selection has been made.
type PaintCondition string

const (
	PaintConditionGood             PaintCondition = "Good"
	PaintConditionFaded            PaintCondition = "Faded"
	PaintConditionScratchedChipped PaintCondition = "Scratched/Chipped"
)

// PaintConditions lists paint conditions in display order.
var PaintConditions = []PaintCondition{PaintConditionGood, PaintConditionFaded, PaintConditionScratchedChipped}

// String returns the string representation of the condition.
func (c PaintCondition) String() string {
	return string(c)
}

// IsValid returns true if the condition is a recognized value.
func (c PaintCondition) IsValid() bool {
	switch c {
	case PaintConditionGood, PaintConditionFaded, PaintConditionScratchedChipped:
		return true
	}
	return false
}

// =============================================================================
// Fields
// =============================================================================

// Field names a single input of the intake form. The string value is the
// wire name used in form posts, JSON and validation results.
type Field string

const (
	FieldVehicleNumber  Field = "vehicleNumber"
	FieldCompanyName    Field = "companyName"
	FieldOwnerName      Field = "ownerName"
	FieldContact        Field = "contact"
	FieldEmail          Field = "email"
	FieldIssue          Field = "issue"
	FieldJobType        Field = "jobType"
	FieldBodyCondition  Field = "bodyCondition"
	FieldPaintCondition Field = "paintCondition"
	FieldBatteryHealth  Field = "batteryHealth"
	FieldTyrePressure   Field = "tyrePressure"
)

// AllFields lists every form field in form order.
var AllFields = []Field{
	FieldVehicleNumber,
	FieldCompanyName,
	FieldOwnerName,
	FieldContact,
	FieldEmail,
	FieldIssue,
	FieldJobType,
	FieldBodyCondition,
	FieldPaintCondition,
	FieldBatteryHealth,
	FieldTyrePressure,
}

// String returns the wire name of the field.
func (f Field) String() string {
	return string(f)
}

// IsValid returns true if the field is part of the intake form.
func (f Field) IsValid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// =============================================================================
// Intake Form
// =============================================================================

// DefaultBatteryHealth is the slider position of a fresh form.
const DefaultBatteryHealth = 75

// IntakeForm holds the values entered on the intake screen. It is a plain
// value type: copying it produces an independent snapshot.
//
// Switching the job type back to Quick Service keeps the inspection values
// but they are ignored by validation and scoring.
type IntakeForm struct {
	VehicleNumber  string         `json:"vehicleNumber" validate:"filled"`
	CompanyName    string         `json:"companyName" validate:"filled"`
	OwnerName      string         `json:"ownerName" validate:"filled"`
	Contact        string         `json:"contact" validate:"filled,phone"`
	Email          string         `json:"email" validate:"filled,mailbox"`
	Issue          string         `json:"issue" validate:"filled"`
	JobType        JobType        `json:"jobType"`
	BodyCondition  BodyCondition  `json:"bodyCondition" validate:"inspection"`
	PaintCondition PaintCondition `json:"paintCondition" validate:"inspection"`
	BatteryHealth  int            `json:"batteryHealth"`
	TyrePressure   string         `json:"tyrePressure" validate:"inspection"`
}

// NewIntakeForm returns the canonical initial state. Every reset restores
// exactly this value.
func NewIntakeForm() IntakeForm {
	return IntakeForm{
		JobType:       JobTypeQuickService,
		BatteryHealth: DefaultBatteryHealth,
	}
}

// IsGeneralService returns true if the form is on the inspection path.
func (f IntakeForm) IsGeneralService() bool {
	return f.JobType == JobTypeGeneralService
}

// Value returns the current value of a field in its wire representation.
func (f IntakeForm) Value(field Field) string {
	switch field {
	case FieldVehicleNumber:
		return f.VehicleNumber
	case FieldCompanyName:
		return f.CompanyName
	case FieldOwnerName:
		return f.OwnerName
	case FieldContact:
		return f.Contact
	case FieldEmail:
		return f.Email
	case FieldIssue:
		return f.Issue
	case FieldJobType:
		return string(f.JobType)
	case FieldBodyCondition:
		return string(f.BodyCondition)
	case FieldPaintCondition:
		return string(f.PaintCondition)
	case FieldBatteryHealth:
		return strconv.Itoa(f.BatteryHealth)
	case FieldTyrePressure:
		return f.TyrePressure
	}
	return ""
}

// With returns a copy of the form with one field replaced by a wire value.
// Enumerated fields reject unknown values; the body and paint conditions
// also accept the empty selection. Battery health must be an integer and is
// clamped to [0,100].
func (f IntakeForm) With(field Field, value string) (IntakeForm, error) {
	const op = "intake.with"

	switch field {
	case FieldVehicleNumber:
		f.VehicleNumber = value
	case FieldCompanyName:
		f.CompanyName = value
	case FieldOwnerName:
		f.OwnerName = value
	case FieldContact:
		f.Contact = value
	case FieldEmail:
		f.Email = value
	case FieldIssue:
		f.Issue = value
	case FieldTyrePressure:
		f.TyrePressure = value
	case FieldJobType:
		jt := JobType(value)
		if !jt.IsValid() {
			return f, Invalid(op, "unknown job type")
		}
		f.JobType = jt
	case FieldBodyCondition:
		bc := BodyCondition(value)
		if bc != "" && !bc.IsValid() {
			return f, Invalid(op, "unknown body condition")
		}
		f.BodyCondition = bc
	case FieldPaintCondition:
		pc := PaintCondition(value)
		if pc != "" && !pc.IsValid() {
			return f, Invalid(op, "unknown paint condition")
		}
		f.PaintCondition = pc
	case FieldBatteryHealth:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return f, Invalid(op, "battery health must be a whole number")
		}
		f.BatteryHealth = clampPercent(n)
	default:
		return f, Invalid(op, "unknown field")
	}
	return f, nil
}

func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// =============================================================================
// Service Job Variant
// =============================================================================

// ServiceJob is the job-type-specific part of a submission. It is either
// QuickServiceJob or GeneralServiceJob; inspection values only exist on the
// latter.
type ServiceJob interface {
	JobType() JobType
	isServiceJob()
}

// QuickServiceJob carries no inspection data.
type QuickServiceJob struct{}

// JobType returns JobTypeQuickService.
func (QuickServiceJob) JobType() JobType { return JobTypeQuickService }
func (QuickServiceJob) isServiceJob()    {}

// GeneralServiceJob carries the vehicle condition assessment.
type GeneralServiceJob struct {
	Body          BodyCondition
	Paint         PaintCondition
	BatteryHealth int
	TyrePressure  string
}

// JobType returns JobTypeGeneralService.
func (GeneralServiceJob) JobType() JobType { return JobTypeGeneralService }
func (GeneralServiceJob) isServiceJob()    {}

// Job returns the job variant selected by the form. Inspection values are
// only carried when the job type is General Service.
func (f IntakeForm) Job() ServiceJob {
	if f.IsGeneralService() {
		return GeneralServiceJob{
			Body:          f.BodyCondition,
			Paint:         f.PaintCondition,
			BatteryHealth: f.BatteryHealth,
			TyrePressure:  f.TyrePressure,
		}
	}
	return QuickServiceJob{}
}
