package interp

import (
	"fmt"
	"strings"

	"github.com/midbel/briar/env"
	"github.com/midbel/briar/value"
)

// registerBuiltins binds every built-in under its own name as a
// sentinel Str value (see value.Builtin); the call site in evalCall
// recognizes the sentinel and dispatches through callBuiltin instead of
// treating it as a *value.Function.
func registerBuiltins(globals env.Env[value.Value]) {
	for _, name := range []string{"print", "len", "raise"} {
		globals.Define(name, value.Builtin(name))
	}
}

func (in *Interp) callBuiltin(name string, args []value.Value, line int) (value.Value, error) {
	switch name {
	case "print":
		return in.builtinPrint(args)
	case "len":
		return in.builtinLen(args, line)
	case "raise":
		return in.builtinRaise(args, line)
	default:
		return nil, hostErrf(line, "unknown built-in %q", name)
	}
}

func (in *Interp) builtinPrint(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Display()
	}
	fmt.Fprintln(in.Stdout, strings.Join(parts, " "))
	return value.None, nil
}

func (in *Interp) builtinLen(args []value.Value, line int) (value.Value, error) {
	if len(args) != 1 {
		return nil, hostErr(line, fmt.Errorf("len: want 1 argument, got %d: %w", len(args), ErrArity))
	}
	switch v := args[0].(type) {
	case value.Str:
		return value.Number(len(v)), nil
	case *value.List:
		return value.Number(len(v.Elems)), nil
	case *value.Dict:
		return value.Number(v.Len()), nil
	default:
		return nil, hostErr(line, fmt.Errorf("len: %s has no length: %w", v.Type(), value.ErrIncompatible))
	}
}

// builtinRaise implements the three call shapes: raise(), raise(msg)
// and raise(type_name, msg). One-argument raise uses type "Exception";
// the two-argument form requires the first argument to be a string.
func (in *Interp) builtinRaise(args []value.Value, line int) (value.Value, error) {
	switch len(args) {
	case 0:
		return nil, &RuntimeException{Type: "Exception", Payload: value.None, Message: ""}
	case 1:
		return nil, &RuntimeException{Type: "Exception", Payload: args[0], Message: args[0].Display()}
	case 2:
		typ, ok := args[0].(value.Str)
		if !ok {
			return nil, hostErr(line, fmt.Errorf("raise: type name must be a string, got %s: %w", args[0].Type(), value.ErrIncompatible))
		}
		return nil, &RuntimeException{Type: string(typ), Payload: args[1], Message: args[1].Display()}
	default:
		return nil, hostErr(line, fmt.Errorf("raise: want 0, 1 or 2 arguments, got %d: %w", len(args), ErrArity))
	}
}
