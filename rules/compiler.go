package rules

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// RecordVariable is the name expressions use to reach the record, e.g. record.patientId
const RecordVariable = "record"

// costLimit stops runaway expressions
const costLimit = 1000000

var ErrNotBoolean = errors.New("expression must evaluate to bool")

// Compiler turns CEL expressions into programs and caches them by expression
// text, so definitions sharing an expression compile once.
// Safe for concurrent use.
type Compiler struct {
	env      *cel.Env
	programs map[string]cel.Program // expression -> compiled program
	mu       sync.RWMutex
}

// NewCompiler creates a compiler whose environment declares record as map(string, dyn)
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable(RecordVariable, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Compiler{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile returns the program for expression, compiling and caching it on first use.
// Expressions whose static type is neither bool nor dyn are rejected.
func (c *Compiler) Compile(expression string) (cel.Program, error) {
	c.mu.RLock()
	prog, ok := c.programs[expression]
	c.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w, got %s", ErrNotBoolean, out)
	}

	prog, err := c.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	c.mu.Lock()
	c.programs[expression] = prog
	c.mu.Unlock()

	return prog, nil
}

// Cached returns the number of compiled programs held
func (c *Compiler) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}
