package schema

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	pstore "github.com/lucasthevenet/parse-storage"
)

type exprValidator struct {
	source string
	cfg    config
}

// Expr constructs a validator backed by expr-lang/expr. The returned
// value matches the ValidateSync call shape.
func Expr(source string, opts ...Option) pstore.SyncValidator {
	return &exprValidator{source: source, cfg: applyOptions(opts)}
}

// ValidateSync evaluates the program against input and applies the
// verdict rule.
func (v *exprValidator) ValidateSync(input any) (any, error) {
	if v.source == "" {
		return nil, fmt.Errorf("schema: expr source must not be empty")
	}
	env := v.environment(input)
	program, err := v.loadOrCompile()
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("schema: expr: %w", err)
	}
	return verdict(input, result, nil)
}

func (v *exprValidator) loadOrCompile() (*exprvm.Program, error) {
	if v.cfg.cache != nil {
		if cached, ok := v.cfg.cache.Get(v.source); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for name, fn := range v.cfg.funcs {
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(v.source, options...)
	if err != nil {
		return nil, fmt.Errorf("schema: expr: %w", err)
	}
	if v.cfg.cache != nil {
		v.cfg.cache.Set(v.source, program)
	}
	return program, nil
}

func (v *exprValidator) environment(input any) map[string]any {
	env := map[string]any{"value": input}
	for name, fn := range v.cfg.funcs {
		env[name] = fn
	}
	return env
}
