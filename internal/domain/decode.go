package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeFieldValues reads a JSON object keyed by wire field names. Values
// may be JSON strings or numbers; numbers keep their literal text. Unknown
// keys are rejected.
func DecodeFieldValues(r io.Reader) (map[Field]string, error) {
	const op = "intake.decode"

	var raw map[Field]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &Error{Code: EINVALID, Op: op, Message: "form must be a JSON object", Err: err}
	}

	values := make(map[Field]string, len(raw))
	for field, msg := range raw {
		if !field.IsValid() {
			return nil, Invalid(op, fmt.Sprintf("unknown field %q", field))
		}
		value, err := wireValue(msg)
		if err != nil {
			return nil, Invalid(op, fmt.Sprintf("%s: %v", field, err))
		}
		values[field] = value
	}
	return values, nil
}

// DecodeIntakeForm decodes field values (see DecodeFieldValues) and applies
// them onto the initial form through IntakeForm.With in form order, so the
// same enum checks and clamping apply as for interactive edits. Missing
// keys keep their initial values.
func DecodeIntakeForm(r io.Reader) (IntakeForm, error) {
	values, err := DecodeFieldValues(r)
	if err != nil {
		return IntakeForm{}, err
	}

	form := NewIntakeForm()
	for _, field := range AllFields {
		value, ok := values[field]
		if !ok {
			continue
		}
		if form, err = form.With(field, value); err != nil {
			return IntakeForm{}, err
		}
	}
	return form, nil
}

func wireValue(msg json.RawMessage) (string, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) > 0 && msg[0] == '"' {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("value must be a string or a number")
	}
	return n.String(), nil
}
