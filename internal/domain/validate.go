package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps a field to its failure message. A field passes when
// it is absent or its message is empty.
type ValidationErrors map[Field]string

// Has returns true if the field currently fails its rule.
func (e ValidationErrors) Has(field Field) bool {
	return e[field] != ""
}

// Count returns the number of failing fields.
func (e ValidationErrors) Count() int {
	n := 0
	for _, msg := range e {
		if msg != "" {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (e ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(e))
	for f, msg := range e {
		out[f] = msg
	}
	return out
}

// RE2's \s is ASCII only; browsers also count \v, Unicode separators and
// the byte order mark as whitespace.
const space = `\s\v\p{Z}\x{FEFF}`

var (
	phonePattern = regexp.MustCompile(`^[\d` + space + `+\-]{7,15}$`)
	emailPattern = regexp.MustCompile(`^[^` + space + `@]+@[^` + space + `@]+\.[^` + space + `@]+$`)
)

// requiredMessages holds the message for a field that is blank.
var requiredMessages = map[Field]string{
	FieldVehicleNumber:  "Vehicle number is required",
	FieldCompanyName:    "Company name is required",
	FieldOwnerName:      "Fleet owner name is required",
	FieldContact:        "Contact is required",
	FieldEmail:          "Email is required",
	FieldIssue:          "Please describe the issue",
	FieldBodyCondition:  "Select body condition",
	FieldPaintCondition: "Select paint condition",
	FieldTyrePressure:   "Enter tyre pressure",
}

// formatMessages holds the message for a field that is present but malformed.
var formatMessages = map[Field]string{
	FieldContact: "Enter a valid phone number",
	FieldEmail:   "Enter a valid email",
}

// intakeValidator is safe for concurrent use; it caches struct metadata.
var intakeValidator = newIntakeValidator()

func newIntakeValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "filled", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "mailbox", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	// Inspection fields are only required on the General Service path.
	mustRegister(v, "inspection", func(fl validator.FieldLevel) bool {
		jobType := fl.Parent().FieldByName("JobType")
		if !jobType.IsValid() || JobType(jobType.String()) != JobTypeGeneralService {
			return true
		}
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("domain: register validation " + tag + ": " + err.Error())
	}
}

// Validate checks every rule against the form and returns all failing
// fields. It has no side effects; an empty result means the form can be
// submitted.
//
// Each field reports at most one message. The required check runs before
// the format check, so a blank contact or email reports "required".
func Validate(form IntakeForm) ValidationErrors {
	errs := ValidationErrors{}

	err := intakeValidator.Struct(form)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable if IntakeForm stops being a struct.
		panic("domain: validate intake form: " + err.Error())
	}

	for _, fe := range fieldErrs {
		field := Field(fe.Field())
		errs[field] = messageFor(field, fe.Tag())
	}
	return errs
}

func messageFor(field Field, tag string) string {
	switch tag {
	case "phone", "mailbox":
		if msg, ok := formatMessages[field]; ok {
			return msg
		}
	}
	if msg, ok := requiredMessages[field]; ok {
		return msg
	}
	return "Invalid value"
}
