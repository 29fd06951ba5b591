package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/liamcoop/recordcheck/validation"
)

// ExpressionRule validates a record with a CEL expression over the record variable.
// A false result fails the rule at Path; an evaluation error or a non-bool
// result is returned as an error and becomes a rule fault in the engine.
type ExpressionRule struct {
	info       validation.RuleInfo
	path       string
	expression string
	program    cel.Program
}

// NewExpressionRule compiles def with compiler
func NewExpressionRule(compiler *Compiler, def Definition) (*ExpressionRule, error) {
	prog, err := compiler.Compile(def.Expression)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", def.ID, err)
	}

	return &ExpressionRule{
		info:       def.Info(),
		path:       def.Path,
		expression: def.Expression,
		program:    prog,
	}, nil
}

func (r *ExpressionRule) Info() validation.RuleInfo {
	return r.info
}

// Expression returns the CEL source of the rule
func (r *ExpressionRule) Expression() string {
	return r.expression
}

func (r *ExpressionRule) Validate(record validation.Record) (validation.Outcome, error) {
	facts := map[string]any(record)
	if facts == nil {
		facts = map[string]any{}
	}

	out, _, err := r.program.Eval(map[string]any{RecordVariable: facts})
	if err != nil {
		return validation.Outcome{}, fmt.Errorf("evaluate %s: %w", r.info.ID, err)
	}

	passed, ok := out.Value().(bool)
	if !ok {
		return validation.Outcome{}, fmt.Errorf("evaluate %s: %w, got %T", r.info.ID, ErrNotBoolean, out.Value())
	}
	if passed {
		return validation.Pass(), nil
	}

	var value any
	if r.path != "" {
		value = record[r.path]
	}
	return validation.Fail(r.path, value, ""), nil
}
