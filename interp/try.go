package interp

import (
	"errors"

	"github.com/midbel/briar/ast"
	"github.com/midbel/briar/env"
	"github.com/midbel/briar/value"
)

// execTry runs the try body; a ReturnSignal always propagates untouched.
// A RuntimeException is matched against Excepts by exact type name (or
// an empty declared type, which matches anything). Any other escaping
// error is treated as a host error and matched against an except
// declared empty or "RuntimeError", with the bound variable receiving
// the error's message as a string. Finally, if present, always runs -
// even when the try body raised a ReturnSignal - and its own error, if
// any, takes precedence over whatever the try/except produced.
func (in *Interp) execTry(t *ast.Try) error {
	result := in.execChildBlock(t.Body)

	if result != nil {
		var ret *ReturnSignal
		if !errors.As(result, &ret) {
			typ, payload := classify(result)
			for _, ec := range t.Excepts {
				if ec.Type == "" || ec.Type == typ {
					result = in.runExcept(ec, payload)
					break
				}
			}
		}
	}

	if t.Finally != nil {
		if err := in.execChildBlock(t.Finally); err != nil {
			return err
		}
	}
	return result
}

// classify reduces an escaping error to the (type-name, payload) pair an
// except clause matches against.
func classify(err error) (string, value.Value) {
	var exc *RuntimeException
	if errors.As(err, &exc) {
		return exc.Type, exc.Payload
	}
	return "RuntimeError", value.Str(err.Error())
}

func (in *Interp) runExcept(ec ast.ExceptClause, payload value.Value) error {
	frame := env.Enclosed(in.current)
	if ec.Name != "" {
		frame.Define(ec.Name, payload)
	}
	return in.execBlockInFrame(ec.Body, frame)
}
