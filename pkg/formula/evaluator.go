// Package formula evaluates boolean rule conditions against record data.
package formula

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator evaluates a boolean expression against a record-data map.
// Implementations may return an error for malformed expressions; callers
// must treat that as a condition-evaluation failure, not a crash.
type Evaluator interface {
	EvaluateBoolean(expression string, data map[string]any) (bool, error)
}

// ExprEvaluator is the default Evaluator built on expr-lang. Record fields
// are exposed as top-level variables; unknown fields resolve to nil instead
// of failing compilation.
//
// Thread-safe: compiled programs are cached and reused across goroutines.
type ExprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

func (e *ExprEvaluator) EvaluateBoolean(expression string, data map[string]any) (bool, error) {
	if expression == "" {
		return false, fmt.Errorf("empty expression")
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		return false, err
	}

	env := data
	if env == nil {
		env = map[string]any{}
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", expression, err)
	}

	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not evaluate to a boolean (got %T)", expression, out)
	}

	return result, nil
}

// getOrCompile returns a cached compiled program or compiles and caches a new
// one. Programs are compiled without a typed environment so one compilation
// serves records of any shape.
func (e *ExprEvaluator) getOrCompile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	prg, ok := e.cache[expression]
	e.mu.RUnlock()

	if ok {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring the write lock.
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}

	e.cache[expression] = prg

	return prg, nil
}
