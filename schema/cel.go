package schema

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	pstore "github.com/lucasthevenet/parse-storage"
)

type celValidator struct {
	source string
	cfg    config
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

// CEL constructs a validator backed by cel-go. The returned value
// matches the Parse call shape.
func CEL(source string, opts ...Option) pstore.Parser {
	return &celValidator{source: source, cfg: applyOptions(opts)}
}

// Parse evaluates the program against input and applies the verdict
// rule.
func (v *celValidator) Parse(input any) (any, error) {
	if v.source == "" {
		return nil, fmt.Errorf("schema: cel source must not be empty")
	}
	program, err := v.loadOrCompile()
	if err != nil {
		return nil, err
	}
	activation := map[string]any{"value": input}
	out, _, err := program.program.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("schema: cel: %w", err)
	}
	return verdict(input, out.Value(), nil)
}

func (v *celValidator) loadOrCompile() (*celProgram, error) {
	if v.cfg.cache != nil {
		if cached, ok := v.cfg.cache.Get(v.source); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := v.buildEnv()
	if err != nil {
		return nil, fmt.Errorf("schema: cel: %w", err)
	}
	ast, issues := env.Parse(v.source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("schema: cel: %w", issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("schema: cel: %w", issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("schema: cel: %w", err)
	}

	bundle := &celProgram{env: env, program: prg}
	if v.cfg.cache != nil {
		v.cfg.cache.Set(v.source, bundle)
	}
	return bundle, nil
}

func (v *celValidator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.DynType),
	}
	if len(v.cfg.funcs) > 0 {
		// cel-go has no variadic overloads, so programs pass arguments
		// as a list: call("double", [value])
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.FunctionBinding(v.callBinding()),
		)))
	}
	return celgo.NewEnv(opts...)
}

func (v *celValidator) call(name string, args ...any) (any, error) {
	fn, ok := v.cfg.funcs[name]
	if !ok {
		return nil, fmt.Errorf("schema: function %q not registered", name)
	}
	return fn(args...)
}

func (v *celValidator) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if len(values) != 2 {
			return types.NewErr("schema: call requires a function name and an argument list")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("schema: call name must be string")
		}
		list, ok := values[1].(traits.Lister)
		if !ok {
			return types.NewErr("schema: call arguments must be a list")
		}
		var args []any
		for it := list.Iterator(); it.HasNext() == types.True; {
			args = append(args, it.Next().Value())
		}
		result, err := v.call(name, args...)
		if err != nil {
			return types.NewErr(err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
