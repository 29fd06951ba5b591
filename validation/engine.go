package validation

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liamcoop/recordcheck/internal/logger"
)

var (
	ErrNilRule     = errors.New("rule is nil")
	ErrEmptyRuleID = errors.New("rule id is empty")
)

// Engine owns the rule registry and runs requested rules against records.
// Registration and validation may run concurrently; the registry is guarded
// by an RWMutex and rules execute outside the lock.
type Engine struct {
	rules map[string]Rule // ruleID -> rule
	mu    sync.RWMutex
}

// NewEngine creates an engine with an empty registry
func NewEngine() *Engine {
	return &Engine{
		rules: make(map[string]Rule),
	}
}

// RegisterRule adds rule to the registry, replacing any rule with the same ID
func (en *Engine) RegisterRule(rule Rule) error {
	if rule == nil {
		return ErrNilRule
	}

	id := rule.Info().ID
	if id == "" {
		return ErrEmptyRuleID
	}

	en.mu.Lock()
	en.rules[id] = rule
	en.mu.Unlock()

	logger.Debug("rule registered", "rule_id", id)
	return nil
}

// Lookup returns the rule registered under id
func (en *Engine) Lookup(id string) (Rule, bool) {
	en.mu.RLock()
	defer en.mu.RUnlock()

	rule, ok := en.rules[id]
	return rule, ok
}

// RuleIDs returns the registered rule IDs in sorted order
func (en *Engine) RuleIDs() []string {
	en.mu.RLock()
	ids := make([]string, 0, len(en.rules))
	for id := range en.rules {
		ids = append(ids, id)
	}
	en.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Validate applies the rules named by ruleIDs to record, in order.
// Unknown IDs are skipped. It always returns a result.
func (en *Engine) Validate(record Record, ruleIDs []string) *Result {
	return en.ValidateWithOptions(record, ruleIDs, nil)
}

// ValidateWithOptions is Validate with per-call options.
// No option currently changes behavior.
func (en *Engine) ValidateWithOptions(record Record, ruleIDs []string, _ Options) *Result {
	start := time.Now()
	validationID := uuid.NewString()

	errs := make([]Error, 0)
	warnings := make([]Error, 0)
	applied := make([]string, 0, len(ruleIDs))

	for _, rule := range en.resolve(ruleIDs) {
		info := rule.Info()
		applied = append(applied, info.ID)

		inv := invoke(rule, record)
		if inv.fault != nil {
			logger.RecordRuleFault()
			logger.Error("rule evaluation failed",
				"validation_id", validationID,
				"rule_id", info.ID,
				"error", inv.fault,
			)
			errs = append(errs, Error{
				RuleID:   info.ID,
				Path:     "",
				Message:  "validation error: " + inv.fault.Error(),
				Severity: SeverityError,
			})
			continue
		}

		if inv.outcome.Valid || inv.outcome.Error == nil {
			continue
		}

		fe := inv.outcome.Error
		message := fe.Message
		if message == "" {
			message = info.ErrorMessage
		}

		severity := info.EffectiveSeverity()
		e := Error{
			RuleID:   info.ID,
			Path:     fe.Path,
			Value:    fe.Value,
			Message:  message,
			Severity: severity,
		}
		if severity.Blocking() {
			errs = append(errs, e)
		} else {
			warnings = append(warnings, e)
		}
	}

	elapsed := time.Since(start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	logger.RecordValidation(len(errs), len(warnings))
	logger.Debug("validation finished",
		"validation_id", validationID,
		"rules_requested", len(ruleIDs),
		"rules_applied", len(applied),
		"errors", len(errs),
		"warnings", len(warnings),
		"duration_ms", elapsed,
	)

	return &Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Metadata: Metadata{
			ValidatedAt:  time.Now(),
			Duration:     elapsed,
			RulesApplied: applied,
		},
	}
}

// resolve maps ruleIDs to registered rules under a single read lock,
// dropping unknown IDs and keeping caller order.
func (en *Engine) resolve(ruleIDs []string) []Rule {
	en.mu.RLock()
	defer en.mu.RUnlock()

	resolved := make([]Rule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		if rule, ok := en.rules[id]; ok {
			resolved = append(resolved, rule)
		}
	}
	return resolved
}

// invocation is the result of running one rule: an outcome or a fault, never both
type invocation struct {
	outcome Outcome
	fault   error
}

// invoke runs rule.Validate, converting returned errors and panics into a fault
func invoke(rule Rule, record Record) (inv invocation) {
	defer func() {
		if r := recover(); r != nil {
			inv = invocation{fault: fmt.Errorf("%v", r)}
		}
	}()

	outcome, err := rule.Validate(record)
	if err != nil {
		return invocation{fault: err}
	}
	return invocation{outcome: outcome}
}
