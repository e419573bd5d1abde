package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// validQuickForm returns a Quick Service form that passes every rule.
func validQuickForm() IntakeForm {
	f := NewIntakeForm()
	f.VehicleNumber = "MH04 AB 1234"
	f.CompanyName = "TT Xpress Pvt. Ltd."
	f.OwnerName = "Asha Rao"
	f.Contact = "+91 98765-43210"
	f.Email = "fleet@company.com"
	f.Issue = "Brakes squeal when cold"
	return f
}

// validGeneralForm returns a General Service form that passes every rule.
func validGeneralForm() IntakeForm {
	f := validQuickForm()
	f.JobType = JobTypeGeneralService
	f.BodyCondition = BodyConditionGood
	f.PaintCondition = PaintConditionGood
	f.BatteryHealth = 80
	f.TyrePressure = "32"
	return f
}

func TestValidate_ValidForms(t *testing.T) {
	assert.Empty(t, Validate(validQuickForm()))
	assert.Empty(t, Validate(validGeneralForm()))
}

func TestValidate_BlankForm(t *testing.T) {
	errs := Validate(NewIntakeForm())

	assert.Equal(t, ValidationErrors{
		FieldVehicleNumber: "Vehicle number is required",
		FieldCompanyName:   "Company name is required",
		FieldOwnerName:     "Fleet owner name is required",
		FieldContact:       "Contact is required",
		FieldEmail:         "Email is required",
		FieldIssue:         "Please describe the issue",
	}, errs)
}

func TestValidate_BlankGeneralFormIncludesInspectionFields(t *testing.T) {
	f := NewIntakeForm()
	f.JobType = JobTypeGeneralService

	errs := Validate(f)

	assert.Equal(t, 9, errs.Count())
	assert.Equal(t, "Select body condition", errs[FieldBodyCondition])
	assert.Equal(t, "Select paint condition", errs[FieldPaintCondition])
	assert.Equal(t, "Enter tyre pressure", errs[FieldTyrePressure])
	assert.False(t, errs.Has(FieldBatteryHealth))
	assert.False(t, errs.Has(FieldJobType))
}

func TestValidate_InspectionFieldsIgnoredForQuickService(t *testing.T) {
	f := validQuickForm()
	f.BodyCondition = ""
	f.PaintCondition = ""
	f.TyrePressure = "   "

	assert.Empty(t, Validate(f))
}

func TestValidate_WhitespaceOnlyIsBlank(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*IntakeForm)
		field Field
		want  string
	}{
		{"vehicle number", func(f *IntakeForm) { f.VehicleNumber = "  \t" }, FieldVehicleNumber, "Vehicle number is required"},
		{"company name", func(f *IntakeForm) { f.CompanyName = " " }, FieldCompanyName, "Company name is required"},
		{"owner name", func(f *IntakeForm) { f.OwnerName = "\n" }, FieldOwnerName, "Fleet owner name is required"},
		{"contact", func(f *IntakeForm) { f.Contact = "   " }, FieldContact, "Contact is required"},
		{"email", func(f *IntakeForm) { f.Email = "  " }, FieldEmail, "Email is required"},
		{"issue", func(f *IntakeForm) { f.Issue = " \n " }, FieldIssue, "Please describe the issue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validQuickForm()
			tt.edit(&f)

			errs := Validate(f)

			assert.Equal(t, ValidationErrors{tt.field: tt.want}, errs)
		})
	}
}

func TestValidate_GeneralServiceTyrePressureWhitespace(t *testing.T) {
	f := validGeneralForm()
	f.TyrePressure = "  "

	assert.Equal(t, ValidationErrors{FieldTyrePressure: "Enter tyre pressure"}, Validate(f))
}

func TestValidate_ContactFormat(t *testing.T) {
	tests := []struct {
		contact string
		valid   bool
	}{
		{"9876543", true},
		{"+91 98765 43210", true},
		{"022-2345-6789", true},
		{"123456789012345", true},
		{"123456", false},
		{"1234567890123456", false},
		{"abc", false},
		{"98765x43210", false},
		{"(022) 2345678", false},
		{"98765\u00A043210", true},
		{"98765\u300043210", true},
		{"98765\v43210", true},
	}

	for _, tt := range tests {
		t.Run(tt.contact, func(t *testing.T) {
			f := validQuickForm()
			f.Contact = tt.contact

			errs := Validate(f)

			if tt.valid {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, ValidationErrors{FieldContact: "Enter a valid phone number"}, errs)
			}
		})
	}
}

func TestValidate_EmailFormat(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"fleet@company.com", true},
		{"a@b.c", true},
		{"first.last@sub.example.co.in", true},
		{"fleet@company", false},
		{"fleetcompany.com", false},
		{"fleet@@company.com", false},
		{"fleet @company.com", false},
		{" fleet@company.com", false},
		{"@company.com", false},
		{"fleet\u00A0ops@company.com", false},
		{"fleet@company\u2028.com", false},
		{"fleet@company.com\uFEFF", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			f := validQuickForm()
			f.Email = tt.email

			errs := Validate(f)

			if tt.valid {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, ValidationErrors{FieldEmail: "Enter a valid email"}, errs)
			}
		})
	}
}

func TestValidate_ContactPatternFailureOnlyAffectsContact(t *testing.T) {
	f := NewIntakeForm()
	f.Contact = "abc"

	errs := Validate(f)

	assert.Equal(t, "Enter a valid phone number", errs[FieldContact])
	assert.Equal(t, "Email is required", errs[FieldEmail])
	assert.Equal(t, 6, errs.Count())
}

func TestValidate_Idempotent(t *testing.T) {
	f := NewIntakeForm()
	f.JobType = JobTypeGeneralService
	f.Email = "nope"

	first := Validate(f)
	second := Validate(f)

	assert.Equal(t, first, second)
}

func TestValidationErrors_Clone(t *testing.T) {
	errs := ValidationErrors{FieldEmail: "Email is required"}
	clone := errs.Clone()
	clone[FieldEmail] = ""

	assert.True(t, errs.Has(FieldEmail))
	assert.False(t, clone.Has(FieldEmail))
	assert.Equal(t, 0, clone.Count())
}
