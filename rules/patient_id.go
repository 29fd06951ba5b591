package rules

import (
	"regexp"

	"github.com/liamcoop/recordcheck/validation"
)

const (
	PatientIDRuleID = "PATIENT_ID_FORMAT"
	PatientIDField  = "patientId"

	patientIDRequiredMessage = "patientId is a required field"
	patientIDFormatMessage   = "patientId format mismatch: expected P followed by 8 digits"
)

var patientIDPattern = regexp.MustCompile(`^P[0-9]{8}$`)

// ValidatePatientID reports whether id is a P followed by exactly 8 ASCII digits
func ValidatePatientID(id string) bool {
	return patientIDPattern.MatchString(id)
}

// PatientIDFormatRule checks the patientId field of a record
type PatientIDFormatRule struct{}

// NewPatientIDFormatRule returns the PATIENT_ID_FORMAT rule
func NewPatientIDFormatRule() *PatientIDFormatRule {
	return &PatientIDFormatRule{}
}

func (r *PatientIDFormatRule) Info() validation.RuleInfo {
	return validation.RuleInfo{
		ID:           PatientIDRuleID,
		Name:         "Patient ID format",
		Description:  "patientId must be the letter P followed by 8 digits",
		Category:     "patient",
		Severity:     validation.SeverityError,
		Dependencies: []string{},
		ErrorMessage: patientIDFormatMessage,
		Version:      "1.0.0",
	}
}

// Validate rejects a missing patientId separately from a malformed one.
// A nil or non-string value counts as malformed.
func (r *PatientIDFormatRule) Validate(record validation.Record) (validation.Outcome, error) {
	value, present := record[PatientIDField]
	if !present {
		return validation.Fail(PatientIDField, nil, patientIDRequiredMessage), nil
	}

	id, ok := value.(string)
	if !ok || !ValidatePatientID(id) {
		return validation.Fail(PatientIDField, value, patientIDFormatMessage), nil
	}

	return validation.Pass(), nil
}
