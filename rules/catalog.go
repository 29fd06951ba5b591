package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/liamcoop/recordcheck/validation"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateRuleID = errors.New("duplicate rule id")

// Registrar is anything rules can be registered with, typically *validation.Engine
type Registrar interface {
	RegisterRule(rule validation.Rule) error
}

// Catalog is a set of expression rule definitions, usually read from YAML:
//
//	rules:
//	  - id: NAME_PRESENT
//	    severity: warning
//	    path: name
//	    expression: has(record.name) && record.name != ""
//	    errorMessage: name should be provided
type Catalog struct {
	Rules []Definition `yaml:"rules"`
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(data))
}

// LoadCatalog decodes and validates a YAML catalog from r.
// Unknown keys are rejected.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rule catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every definition and rejects duplicate IDs
func (c *Catalog) Validate() error {
	if len(c.Rules) > maxDefinitions {
		return fmt.Errorf("catalog contains %d rules, maximum allowed is %d", len(c.Rules), maxDefinitions)
	}

	seen := make(map[string]bool, len(c.Rules))
	for _, def := range c.Rules {
		if err := def.Validate(); err != nil {
			return err
		}
		if seen[def.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateRuleID, def.ID)
		}
		seen[def.ID] = true
	}
	return nil
}

// Active returns the definitions that are not disabled
func (c *Catalog) Active() []Definition {
	active := make([]Definition, 0, len(c.Rules))
	for _, def := range c.Rules {
		if !def.Disabled {
			active = append(active, def)
		}
	}
	return active
}

// Register compiles every active definition and registers the resulting rules.
// Nothing is registered unless all of them compile. Returns the number registered.
func (c *Catalog) Register(reg Registrar, compiler *Compiler) (int, error) {
	active := c.Active()

	compiled := make([]*ExpressionRule, 0, len(active))
	for _, def := range active {
		rule, err := NewExpressionRule(compiler, def)
		if err != nil {
			return 0, fmt.Errorf("failed to compile catalog: %w", err)
		}
		compiled = append(compiled, rule)
	}

	for i, rule := range compiled {
		if err := reg.RegisterRule(rule); err != nil {
			return i, fmt.Errorf("failed to register rule %s: %w", rule.Info().ID, err)
		}
	}

	return len(compiled), nil
}
