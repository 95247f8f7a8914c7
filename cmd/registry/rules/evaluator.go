package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Evaluator evaluates view inclusion rules using CEL (Common Expression
// Language). Rules are opaque boolean expressions over the requirement
// document (`req`) and the selected parameters keyed by group (`params`).
type Evaluator struct {
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new rule evaluator with caching
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]cel.Program),
	}
}

// Evaluate evaluates a rule against one requirement and the selected
// parameters. An empty rule includes everything.
func (e *Evaluator) Evaluate(rule string, requirement map[string]interface{}, params map[string]interface{}) (bool, error) {
	if rule == "" {
		return true, nil
	}

	// Check cache first
	e.mu.RLock()
	prg, exists := e.cache[rule]
	e.mu.RUnlock()

	if !exists {
		var err error
		prg, err = e.compile(rule)
		if err != nil {
			return false, err
		}

		e.mu.Lock()
		e.cache[rule] = prg
		e.mu.Unlock()
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"req":    requirement,
		"params": params,
	})
	if err != nil {
		return false, fmt.Errorf("rule evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule did not return boolean, got %T", out.Value())
	}

	return result, nil
}

// compile compiles a CEL expression
func (e *Evaluator) compile(rule string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("req", cel.DynType),
		cel.Variable("params", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rule compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return prg, nil
}

// Validate compiles a rule without evaluating it, for request validation
func (e *Evaluator) Validate(rule string) error {
	if rule == "" {
		return nil
	}

	e.mu.RLock()
	_, exists := e.cache[rule]
	e.mu.RUnlock()
	if exists {
		return nil
	}

	prg, err := e.compile(rule)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.cache[rule] = prg
	e.mu.Unlock()

	return nil
}

// ClearCache clears the compiled expression cache
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}

// CacheSize returns the number of cached expressions
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
