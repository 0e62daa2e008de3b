//go:build js_eval

package schema

import (
	"fmt"

	"github.com/dop251/goja"

	pstore "github.com/lucasthevenet/parse-storage"
)

type jsValidator struct {
	source string
	cfg    config
}

// JS constructs a validator backed by goja. The returned value matches
// the Create call shape.
func JS(source string, opts ...Option) pstore.Creator {
	return &jsValidator{source: source, cfg: applyOptions(opts)}
}

// Create evaluates the program against input and applies the verdict
// rule.
func (v *jsValidator) Create(input any) (any, error) {
	if v.source == "" {
		return nil, fmt.Errorf("schema: js source must not be empty")
	}
	program, err := v.loadOrCompile()
	if err != nil {
		return nil, err
	}
	vm := goja.New()
	vm.Set("value", input)
	for name, fn := range v.cfg.funcs {
		vm.Set(name, fn)
	}
	result, err := vm.RunProgram(program)
	if err != nil {
		return nil, fmt.Errorf("schema: js: %w", err)
	}
	return verdict(input, result.Export(), nil)
}

func (v *jsValidator) loadOrCompile() (*goja.Program, error) {
	if v.cfg.cache != nil {
		if cached, ok := v.cfg.cache.Get(v.source); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", v.wrapSource(), false)
	if err != nil {
		return nil, fmt.Errorf("schema: js: %w", err)
	}
	if v.cfg.cache != nil {
		v.cfg.cache.Set(v.source, program)
	}
	return program, nil
}

func (v *jsValidator) wrapSource() string {
	return fmt.Sprintf("(function(){ return (%s); })()", v.source)
}

func jsValidatorAvailable() bool {
	return true
}
