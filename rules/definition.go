package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/liamcoop/recordcheck/validation"
)

const (
	maxDefinitions     = 500
	maxIdentifierLen   = 100
	maxExpressionBytes = 4096
)

var (
	ErrInvalidDefinition = errors.New("invalid rule definition")

	ruleIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
	fieldPattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Definition is the declarative form of an expression rule
type Definition struct {
	ID           string              `yaml:"id"`
	Name         string              `yaml:"name"`
	Description  string              `yaml:"description"`
	Category     string              `yaml:"category"`
	Severity     validation.Severity `yaml:"severity"`
	Dependencies []string            `yaml:"dependencies"`
	ErrorMessage string              `yaml:"errorMessage"`
	Version      string              `yaml:"version"`
	Path         string              `yaml:"path"`
	Expression   string              `yaml:"expression"`
	Disabled     bool                `yaml:"disabled"`
}

// Info converts the descriptive fields of d to a RuleInfo
func (d Definition) Info() validation.RuleInfo {
	deps := make([]string, len(d.Dependencies))
	copy(deps, d.Dependencies)

	return validation.RuleInfo{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Category:     d.Category,
		Severity:     d.Severity,
		Dependencies: deps,
		ErrorMessage: d.ErrorMessage,
		Version:      d.Version,
	}
}

// Validate checks the definition's shape. It does not compile the expression.
func (d Definition) Validate() error {
	if err := validateRuleID(d.ID); err != nil {
		return fmt.Errorf("%w: id %q: %v", ErrInvalidDefinition, d.ID, err)
	}

	if d.Path != "" {
		if err := validateField(d.Path); err != nil {
			return fmt.Errorf("%w: rule %s: path %q: %v", ErrInvalidDefinition, d.ID, d.Path, err)
		}
	}

	if strings.TrimSpace(d.Expression) == "" {
		return fmt.Errorf("%w: rule %s: expression cannot be empty", ErrInvalidDefinition, d.ID)
	}
	if len(d.Expression) > maxExpressionBytes {
		return fmt.Errorf("%w: rule %s: expression length %d exceeds maximum of %d bytes",
			ErrInvalidDefinition, d.ID, len(d.Expression), maxExpressionBytes)
	}

	if strings.TrimSpace(string(d.Severity)) != string(d.Severity) {
		return fmt.Errorf("%w: rule %s: severity has leading/trailing whitespace: %q", ErrInvalidDefinition, d.ID, d.Severity)
	}

	for _, dep := range d.Dependencies {
		if err := validateRuleID(dep); err != nil {
			return fmt.Errorf("%w: rule %s: dependency %q: %v", ErrInvalidDefinition, d.ID, dep, err)
		}
	}

	return nil
}

func validateRuleID(id string) error {
	if err := checkLength(id); err != nil {
		return err
	}
	if !ruleIDPattern.MatchString(id) {
		return fmt.Errorf("must match pattern %s", ruleIDPattern)
	}
	return nil
}

// validateField checks a record field name that expressions reach as record.<name>
func validateField(name string) error {
	if err := checkLength(name); err != nil {
		return err
	}
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("must match pattern %s (start with letter or underscore, followed by letters, digits, or underscores)", fieldPattern)
	}
	if isReservedKeyword(name) {
		return fmt.Errorf("cannot use reserved keyword %q as field name", name)
	}
	return nil
}

func checkLength(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(s) > maxIdentifierLen {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(s), maxIdentifierLen)
	}
	return nil
}

// isReservedKeyword reports names CEL cannot select as record.<name>
func isReservedKeyword(name string) bool {
	reservedKeywords := map[string]bool{
		"true":      true,
		"false":     true,
		"null":      true,
		"in":        true,
		"as":        true,
		"break":     true,
		"const":     true,
		"continue":  true,
		"else":      true,
		"for":       true,
		"function":  true,
		"if":        true,
		"import":    true,
		"let":       true,
		"loop":      true,
		"package":   true,
		"namespace": true,
		"return":    true,
		"var":       true,
		"void":      true,
		"while":     true,
	}

	return reservedKeywords[name]
}
