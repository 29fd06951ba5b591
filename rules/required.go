package rules

import (
	"fmt"
	"strings"

	"github.com/liamcoop/recordcheck/validation"
)

// RequiredFieldRule fails when a field is absent, nil, or a blank string
type RequiredFieldRule struct {
	info  validation.RuleInfo
	field string
}

// NewRequiredFieldRule creates a rule with the given id checking field
func NewRequiredFieldRule(id, field string, severity validation.Severity) *RequiredFieldRule {
	return &RequiredFieldRule{
		info: validation.RuleInfo{
			ID:           id,
			Name:         fmt.Sprintf("%s required", field),
			Description:  fmt.Sprintf("%s must be present and non-empty", field),
			Category:     "presence",
			Severity:     severity,
			Dependencies: []string{},
			ErrorMessage: fmt.Sprintf("%s is a required field", field),
			Version:      "1.0.0",
		},
		field: field,
	}
}

func (r *RequiredFieldRule) Info() validation.RuleInfo {
	return r.info
}

// Validate leaves the message empty so the engine falls back to ErrorMessage
func (r *RequiredFieldRule) Validate(record validation.Record) (validation.Outcome, error) {
	value, present := record[r.field]
	if !present || value == nil {
		return validation.Fail(r.field, nil, ""), nil
	}

	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return validation.Fail(r.field, value, ""), nil
	}

	return validation.Pass(), nil
}
