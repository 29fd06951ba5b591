package validation

// RuleInfo describes a rule. ID is the registry key and the provenance tag on
// every Error the rule produces.
type RuleInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Severity     Severity `json:"severity"`
	Dependencies []string `json:"dependencies"` // declared only, the engine does not order or gate on them
	ErrorMessage string   `json:"errorMessage"` // used when an outcome carries no message
	Version      string   `json:"version"`
}

// EffectiveSeverity returns the declared severity, defaulting to SeverityError.
func (i RuleInfo) EffectiveSeverity() Severity {
	if i.Severity == "" {
		return SeverityError
	}
	return i.Severity
}

// Rule is a pluggable unit of validation logic.
//
// Implementations must be stateless and safe for concurrent use: one instance
// is shared by every Validate call. Validate must not mutate the record. It may
// fail by returning an error or panicking; the engine turns either into a
// blocking Error instead of propagating it.
type Rule interface {
	Info() RuleInfo
	Validate(record Record) (Outcome, error)
}
