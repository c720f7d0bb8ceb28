package validation

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

// ErrIdentityRejected is returned when an identity does not satisfy the rule
var ErrIdentityRejected = errors.New("identity rejected by validation rule")

// IdentityValidator checks identities against a CEL rule compiled once at startup.
// The rule sees a single string variable named `identity` and must yield a bool.
type IdentityValidator struct {
	rule    string
	program cel.Program
}

// NewIdentityValidator compiles rule. Compilation errors surface at startup, not per request.
func NewIdentityValidator(rule string) (*IdentityValidator, error) {
	env, err := cel.NewEnv(
		cel.Variable("identity", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("identity rule must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &IdentityValidator{
		rule:    rule,
		program: prg,
	}, nil
}

// Validate returns ErrIdentityRejected when identity fails the rule.
// Safe for concurrent use.
func (v *IdentityValidator) Validate(identity string) error {
	out, _, err := v.program.Eval(map[string]interface{}{
		"identity": identity,
	})
	if err != nil {
		// Runtime errors (e.g. an invalid regex) count as rejection
		return fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return ErrIdentityRejected
	}

	return nil
}

// Rule returns the CEL source of the rule
func (v *IdentityValidator) Rule() string {
	return v.rule
}
