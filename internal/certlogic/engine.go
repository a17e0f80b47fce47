package certlogic

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/tbd54566975/dcc-verifier/internal/certlogic Engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tbd54566975/dcc-verifier/internal/hcert"
)

// Engine evaluates business rules against a certificate payload
type Engine interface {
	// Validate returns one result per rule, in rule order. A rule that cannot be decided yields
	// Open for that rule only. The only error is the context's.
	Validate(ctx context.Context, certType hcert.CertificateType, schemaVersion string, rules []Rule,
		external ExternalParameter, payloadJSON string) ([]ValidationResult, error)
}

// CELEngine evaluates rule logic written as CEL expressions
type CELEngine struct {
	env *cel.Env
	// programs caches compiled programs by expression text
	programs sync.Map
}

var _ Engine = (*CELEngine)(nil)

func NewCELEngine() (*CELEngine, error) {
	env, err := Env()
	if err != nil {
		return nil, errors.Wrap(err, "creating cel env")
	}
	return &CELEngine{env: env}, nil
}

// Env is the environment rule expressions are compiled in
func Env() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("payload", cel.DynType),
		cel.Variable("external", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
}

func (e *CELEngine) Validate(ctx context.Context, certType hcert.CertificateType, schemaVersion string, rules []Rule,
	external ExternalParameter, payloadJSON string) ([]ValidationResult, error) {
	if len(rules) == 0 {
		return []ValidationResult{}, nil
	}

	var payload map[string]any
	payloadErr := json.Unmarshal([]byte(payloadJSON), &payload)
	vars := map[string]any{"payload": payload, "external": external.variables()}

	results := make([]ValidationResult, 0, len(rules))
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := ValidationResult{Rule: rule}
		switch {
		case payloadErr != nil:
			result.Result = Open
			result.ValidationErrors = []string{errors.Wrap(payloadErr, "decoding payload").Error()}
		case !sameMajorVersion(rule.SchemaVersion, schemaVersion):
			result.Result = Open
			result.ValidationErrors = []string{fmt.Sprintf("rule schema version %s does not match certificate schema version %s", rule.SchemaVersion, schemaVersion)}
		default:
			result = e.evaluate(rule, vars)
		}
		logrus.WithFields(logrus.Fields{
			"rule":            rule.Identifier,
			"certificateType": certType,
			"result":          result.Result,
		}).Debug("evaluated rule")
		results = append(results, result)
	}
	return results, nil
}

func (e *CELEngine) evaluate(rule Rule, vars map[string]any) ValidationResult {
	result := ValidationResult{Rule: rule, Result: Open}
	program, err := e.program(rule.Logic)
	if err != nil {
		result.ValidationErrors = []string{err.Error()}
		return result
	}
	out, _, err := program.Eval(vars)
	if err != nil {
		result.ValidationErrors = []string{errors.Wrap(err, "evaluating rule").Error()}
		return result
	}
	result.Current = fmt.Sprint(out.Value())
	passed, ok := out.Value().(bool)
	switch {
	case !ok:
		result.ValidationErrors = []string{fmt.Sprintf("rule evaluated to %s, not bool", out.Type().TypeName())}
	case passed:
		result.Result = Passed
	default:
		result.Result = Fail
	}
	return result
}

func (e *CELEngine) program(logic string) (cel.Program, error) {
	if cached, ok := e.programs.Load(logic); ok {
		return cached.(cel.Program), nil
	}
	ast, iss := e.env.Compile(logic)
	if iss.Err() != nil {
		return nil, errors.Wrap(iss.Err(), "compiling rule")
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "creating program from ast")
	}
	actual, _ := e.programs.LoadOrStore(logic, program)
	return actual.(cel.Program), nil
}

func sameMajorVersion(a, b string) bool {
	majorA, _, _ := strings.Cut(strings.TrimSpace(a), ".")
	majorB, _, _ := strings.Cut(strings.TrimSpace(b), ".")
	return majorA != "" && majorA == majorB
}
