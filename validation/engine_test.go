package validation

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRule is a configurable Rule for engine tests
type stubRule struct {
	info RuleInfo
	fn   func(Record) (Outcome, error)
}

func (r *stubRule) Info() RuleInfo { return r.info }

func (r *stubRule) Validate(record Record) (Outcome, error) {
	return r.fn(record)
}

func passing(id string) *stubRule {
	return &stubRule{
		info: RuleInfo{ID: id, Severity: SeverityError},
		fn:   func(Record) (Outcome, error) { return Pass(), nil },
	}
}

func failing(id string, severity Severity, path, message string) *stubRule {
	return &stubRule{
		info: RuleInfo{ID: id, Severity: severity, ErrorMessage: "default message for " + id},
		fn: func(r Record) (Outcome, error) {
			return Fail(path, r[path], message), nil
		},
	}
}

func newEngine(t *testing.T, rules ...Rule) *Engine {
	t.Helper()
	en := NewEngine()
	for _, r := range rules {
		require.NoError(t, en.RegisterRule(r))
	}
	return en
}

func TestRegisterRule(t *testing.T) {
	t.Run("registers by id", func(t *testing.T) {
		en := newEngine(t, passing("A"), passing("B"))

		assert.Equal(t, []string{"A", "B"}, en.RuleIDs())
		rule, ok := en.Lookup("A")
		require.True(t, ok)
		assert.Equal(t, "A", rule.Info().ID)
	})

	t.Run("replaces rule with same id", func(t *testing.T) {
		en := newEngine(t, passing("A"))
		require.NoError(t, en.RegisterRule(failing("A", SeverityError, "x", "replaced")))

		assert.Equal(t, []string{"A"}, en.RuleIDs())
		result := en.Validate(Record{"x": 1}, []string{"A"})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "replaced", result.Errors[0].Message)
	})

	t.Run("rejects nil rule", func(t *testing.T) {
		err := NewEngine().RegisterRule(nil)
		assert.ErrorIs(t, err, ErrNilRule)
	})

	t.Run("rejects empty id", func(t *testing.T) {
		err := NewEngine().RegisterRule(passing(""))
		assert.ErrorIs(t, err, ErrEmptyRuleID)
	})

	t.Run("lookup of unknown id", func(t *testing.T) {
		_, ok := NewEngine().Lookup("missing")
		assert.False(t, ok)
	})
}

func TestValidatePassing(t *testing.T) {
	en := newEngine(t, passing("A"), passing("B"))

	result := en.Validate(Record{"name": "A"}, []string{"A", "B"})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []string{"A", "B"}, result.Metadata.RulesApplied)
	assert.GreaterOrEqual(t, result.Metadata.Duration, int64(0))
	assert.False(t, result.Metadata.ValidatedAt.IsZero())
}

func TestValidateSeverityRouting(t *testing.T) {
	testCases := []struct {
		name         string
		severity     Severity
		wantValid    bool
		wantErrors   int
		wantWarnings int
		wantSeverity Severity
	}{
		{"error blocks", SeverityError, false, 1, 0, SeverityError},
		{"warning does not block", SeverityWarning, true, 0, 1, SeverityWarning},
		{"unknown severity blocks", Severity("critical"), false, 1, 0, Severity("critical")},
		{"empty severity blocks as error", "", false, 1, 0, SeverityError},
		{"severity is case sensitive", Severity("WARNING"), false, 1, 0, Severity("WARNING")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			en := newEngine(t, failing("R", tc.severity, "field", "bad field"))

			result := en.Validate(Record{"field": "v"}, []string{"R"})

			assert.Equal(t, tc.wantValid, result.Valid)
			require.Len(t, result.Errors, tc.wantErrors)
			require.Len(t, result.Warnings, tc.wantWarnings)

			var got Error
			if tc.wantErrors == 1 {
				got = result.Errors[0]
			} else {
				got = result.Warnings[0]
			}
			assert.Equal(t, Error{
				RuleID:   "R",
				Path:     "field",
				Value:    "v",
				Message:  "bad field",
				Severity: tc.wantSeverity,
			}, got)
		})
	}
}

func TestValidateDefaultMessage(t *testing.T) {
	en := newEngine(t, failing("R", SeverityError, "field", ""))

	result := en.Validate(Record{}, []string{"R"})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "default message for R", result.Errors[0].Message)
	assert.Nil(t, result.Errors[0].Value)
}

func TestValidateInvalidWithoutFieldError(t *testing.T) {
	rule := &stubRule{
		info: RuleInfo{ID: "R"},
		fn:   func(Record) (Outcome, error) { return Outcome{Valid: false}, nil },
	}
	en := newEngine(t, rule)

	result := en.Validate(Record{}, []string{"R"})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"R"}, result.Metadata.RulesApplied)
}

func TestValidateUnknownRulesSkipped(t *testing.T) {
	en := newEngine(t, failing("KNOWN", SeverityError, "f", "bad"))

	result := en.Validate(Record{}, []string{"NONEXISTENT_RULE", "KNOWN", "ALSO_MISSING"})

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "KNOWN", result.Errors[0].RuleID)
	assert.Equal(t, []string{"KNOWN"}, result.Metadata.RulesApplied)
}

func TestValidateRuleFaults(t *testing.T) {
	testCases := []struct {
		name        string
		fn          func(Record) (Outcome, error)
		wantMessage string
	}{
		{
			name:        "returned error",
			fn:          func(Record) (Outcome, error) { return Outcome{}, errors.New("lookup failed") },
			wantMessage: "validation error: lookup failed",
		},
		{
			name:        "panic with string",
			fn:          func(Record) (Outcome, error) { panic("boom") },
			wantMessage: "validation error: boom",
		},
		{
			name:        "panic with error",
			fn:          func(Record) (Outcome, error) { panic(fmt.Errorf("wrapped: %w", errors.New("inner"))) },
			wantMessage: "validation error: wrapped: inner",
		},
		{
			name: "nil map write",
			fn: func(Record) (Outcome, error) {
				var m map[string]int
				m["x"] = 1
				return Pass(), nil
			},
			wantMessage: "validation error: assignment to entry in nil map",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Declared as a warning: faults still block.
			faulty := &stubRule{info: RuleInfo{ID: "FAULTY", Severity: SeverityWarning}, fn: tc.fn}
			en := newEngine(t, faulty, failing("AFTER", SeverityError, "f", "after"))

			result := en.Validate(Record{"f": 1}, []string{"FAULTY", "AFTER"})

			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 2)
			assert.Equal(t, Error{
				RuleID:   "FAULTY",
				Path:     "",
				Message:  tc.wantMessage,
				Severity: SeverityError,
			}, result.Errors[0])
			assert.Equal(t, "AFTER", result.Errors[1].RuleID)
			assert.Empty(t, result.Warnings)
			assert.Equal(t, []string{"FAULTY", "AFTER"}, result.Metadata.RulesApplied)
		})
	}
}

func TestValidateOrdering(t *testing.T) {
	en := newEngine(t,
		failing("E1", SeverityError, "a", "e1"),
		failing("W1", SeverityWarning, "b", "w1"),
		failing("E2", SeverityError, "c", "e2"),
		failing("W2", SeverityWarning, "d", "w2"),
	)

	result := en.Validate(Record{}, []string{"W2", "E2", "W1", "E1"})

	require.Len(t, result.Errors, 2)
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, "E2", result.Errors[0].RuleID)
	assert.Equal(t, "E1", result.Errors[1].RuleID)
	assert.Equal(t, "W2", result.Warnings[0].RuleID)
	assert.Equal(t, "W1", result.Warnings[1].RuleID)
	assert.Equal(t, []string{"W2", "E2", "W1", "E1"}, result.Metadata.RulesApplied)
}

func TestValidateRepeatedRuleID(t *testing.T) {
	en := newEngine(t, failing("R", SeverityError, "f", "bad"))

	result := en.Validate(Record{}, []string{"R", "R"})

	assert.Len(t, result.Errors, 2)
	assert.Equal(t, []string{"R", "R"}, result.Metadata.RulesApplied)
}

func TestValidateEmptyInputs(t *testing.T) {
	en := newEngine(t, passing("A"))

	t.Run("nil rule ids", func(t *testing.T) {
		result := en.Validate(Record{"x": 1}, nil)
		assert.True(t, result.Valid)
		assert.NotNil(t, result.Errors)
		assert.NotNil(t, result.Warnings)
		assert.NotNil(t, result.Metadata.RulesApplied)
		assert.Empty(t, result.Metadata.RulesApplied)
	})

	t.Run("nil record", func(t *testing.T) {
		result := newEngine(t, failing("R", SeverityError, "f", "bad")).Validate(nil, []string{"R"})
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "f", result.Errors[0].Path)
	})
}

func TestValidateIdempotent(t *testing.T) {
	en := newEngine(t,
		failing("E", SeverityError, "a", "e"),
		failing("W", SeverityWarning, "b", "w"),
		passing("P"),
	)
	record := Record{"a": 1, "b": "two"}
	ids := []string{"E", "W", "P", "MISSING"}

	first := en.Validate(record, ids)
	second := en.Validate(record, ids)

	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, first.Errors, second.Errors)
	assert.Equal(t, first.Warnings, second.Warnings)
	assert.Equal(t, first.Metadata.RulesApplied, second.Metadata.RulesApplied)
}

func TestValidateWithOptionsIsInert(t *testing.T) {
	en := newEngine(t,
		failing("E", SeverityError, "a", "e"),
		failing("W", SeverityWarning, "b", "w"),
	)
	ids := []string{"E", "W"}

	plain := en.Validate(Record{}, ids)
	withOpts := en.ValidateWithOptions(Record{}, ids, Options{
		"stopOnFirstError": true,
		"unknown":          42,
	})

	assert.Equal(t, plain.Valid, withOpts.Valid)
	assert.Equal(t, plain.Errors, withOpts.Errors)
	assert.Equal(t, plain.Warnings, withOpts.Warnings)
	assert.Equal(t, plain.Metadata.RulesApplied, withOpts.Metadata.RulesApplied)
}

func TestValidateDoesNotMutateRecord(t *testing.T) {
	en := newEngine(t, failing("R", SeverityError, "a", "bad"), passing("P"))
	record := Record{"a": 1, "b": []string{"x"}}

	en.Validate(record, []string{"R", "P"})

	assert.Equal(t, Record{"a": 1, "b": []string{"x"}}, record)
}

func TestDependenciesNotEnforced(t *testing.T) {
	dependent := failing("DEPENDENT", SeverityError, "a", "dependent ran")
	dependent.info.Dependencies = []string{"PREREQ"}
	en := newEngine(t, dependent)

	// PREREQ is neither registered nor requested; DEPENDENT still runs.
	result := en.Validate(Record{}, []string{"DEPENDENT"})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "dependent ran", result.Errors[0].Message)
}

func TestConcurrentValidateAndRegister(t *testing.T) {
	en := newEngine(t,
		failing("E", SeverityError, "a", "e"),
		failing("W", SeverityWarning, "b", "w"),
	)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				result := en.Validate(Record{"a": j}, []string{"E", "W"})
				if len(result.Errors) != 1 || len(result.Warnings) != 1 {
					t.Errorf("unexpected result: %d errors, %d warnings", len(result.Errors), len(result.Warnings))
					return
				}
			}
		}()
		go func(i int) {
			defer wg.Done()
			_ = en.RegisterRule(passing(fmt.Sprintf("EXTRA_%d", i)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, en.RuleIDs(), 22)
}

func TestSeverityBlocking(t *testing.T) {
	assert.True(t, SeverityError.Blocking())
	assert.False(t, SeverityWarning.Blocking())
	assert.True(t, Severity("info").Blocking())
}
