package validation

import "time"

// Record is the data bag being validated. The engine never interprets its fields.
type Record map[string]any

// Severity classifies a rule failure
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Blocking reports whether a failure with this severity invalidates the result.
// Only warnings are non-blocking; unrecognized severities block.
func (s Severity) Blocking() bool {
	return s != SeverityWarning
}

// FieldError describes the field a rule rejected.
// An empty Path marks a rule-level failure not tied to a field.
type FieldError struct {
	Path    string `json:"path"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Outcome is what a rule reports for a single record
type Outcome struct {
	Valid bool
	Error *FieldError
}

// Pass returns a passing outcome.
func Pass() Outcome {
	return Outcome{Valid: true}
}

// Fail returns a failing outcome for the field at path.
func Fail(path string, value any, message string) Outcome {
	return Outcome{
		Valid: false,
		Error: &FieldError{Path: path, Value: value, Message: message},
	}
}

// Error is an engine-level failure record carrying the rule that produced it
// and the severity it was classified under.
type Error struct {
	RuleID   string   `json:"ruleId"`
	Path     string   `json:"path"`
	Value    any      `json:"value,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Metadata records when and how a validation ran
type Metadata struct {
	ValidatedAt  time.Time `json:"validatedAt"`
	Duration     int64     `json:"duration"` // milliseconds
	RulesApplied []string  `json:"rulesApplied"`
}

// Result is the aggregated output of Engine.Validate.
// Valid is true iff Errors is empty; warnings never affect validity.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []Error  `json:"errors"`
	Warnings []Error  `json:"warnings"`
	Metadata Metadata `json:"metadata"`
}

// Options configures a single validation call. No option is recognized yet;
// the map is accepted so callers can pass settings without an API change.
type Options map[string]any
