package interp

import (
	"errors"
	"fmt"

	"github.com/midbel/briar/ast"
	"github.com/midbel/briar/env"
	"github.com/midbel/briar/lexer"
	"github.com/midbel/briar/value"
)

func (in *Interp) evalExpr(expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case ast.Number:
		return value.Number(e.Value), nil
	case ast.String:
		return value.Str(e.Value), nil
	case ast.Bool:
		return value.Bool(e.Value), nil
	case ast.None:
		return value.None, nil
	case ast.Ident:
		v, err := in.current.Resolve(e.Name)
		if err != nil {
			return nil, hostErr(e.Line, fmt.Errorf("%s: %w", e.Name, ErrUnbound))
		}
		return v, nil
	case ast.Binary:
		return in.evalBinary(e)
	case ast.Unary:
		return in.evalUnary(e)
	case ast.Call:
		return in.evalCall(e)
	case ast.List:
		elems := make([]value.Value, len(e.Elems))
		for i, x := range e.Elems {
			v, err := in.evalExpr(x)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewList(elems), nil
	case ast.Dict:
		d := value.NewDict()
		for _, entry := range e.Entries {
			k, err := in.evalExpr(entry.Key)
			if err != nil {
				return nil, err
			}
			key, ok := k.(value.Str)
			if !ok {
				return nil, hostErr(e.Line, fmt.Errorf("%s: %w", k.Type(), ErrKeyType))
			}
			v, err := in.evalExpr(entry.Value)
			if err != nil {
				return nil, err
			}
			d.Set(string(key), v)
		}
		return d, nil
	case ast.Index:
		return in.evalIndex(e)
	case ast.Attribute:
		obj, err := in.evalExpr(e.Object)
		if err != nil {
			return nil, err
		}
		return in.lookupAttribute(obj, e.Name, e.Line)
	default:
		return nil, hostErrf(0, "unhandled expression %T", expr)
	}
}

func (in *Interp) evalBinary(e ast.Binary) (value.Value, error) {
	left, err := in.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case lexer.ADD:
		adder, ok := left.(value.Adder)
		if !ok {
			return nil, hostErr(e.Line, fmt.Errorf("%s + %s: %w", left.Type(), right.Type(), value.ErrIncompatible))
		}
		v, err := adder.Add(right)
		if err != nil {
			return nil, hostErr(e.Line, err)
		}
		return v, nil
	case lexer.SUB, lexer.MUL, lexer.DIV, lexer.MOD, lexer.POW:
		arith, ok := left.(value.Arithmetic)
		if !ok {
			return nil, hostErr(e.Line, fmt.Errorf("%s %s %s: %w", left.Type(), opName(e.Op), right.Type(), value.ErrIncompatible))
		}
		var v value.Value
		var err error
		switch e.Op {
		case lexer.SUB:
			v, err = arith.Sub(right)
		case lexer.MUL:
			v, err = arith.Mul(right)
		case lexer.DIV:
			v, err = arith.Div(right)
		case lexer.MOD:
			v, err = arith.Mod(right)
		case lexer.POW:
			v, err = arith.Pow(right)
		}
		if err != nil {
			return nil, hostErr(e.Line, err)
		}
		return v, nil
	case lexer.EQ:
		return value.Bool(value.Equal(left, right)), nil
	case lexer.NE:
		return value.Bool(!value.Equal(left, right)), nil
	case lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		ord, ok := left.(value.Ordered)
		if !ok {
			return nil, hostErr(e.Line, fmt.Errorf("%s %s %s: %w", left.Type(), opName(e.Op), right.Type(), value.ErrIncompatible))
		}
		var result bool
		var err error
		switch e.Op {
		case lexer.LT:
			result, err = ord.Lt(right)
		case lexer.LE:
			result, err = ord.Le(right)
		case lexer.GT:
			result, err = ord.Gt(right)
		case lexer.GE:
			result, err = ord.Ge(right)
		}
		if err != nil {
			return nil, hostErr(e.Line, err)
		}
		return value.Bool(result), nil
	case lexer.AND:
		return value.Bool(left.True() && right.True()), nil
	case lexer.OR:
		return value.Bool(left.True() || right.True()), nil
	default:
		return nil, hostErrf(e.Line, "unhandled operator %s", opName(e.Op))
	}
}

func opName(k lexer.Kind) string {
	return lexer.Token{Kind: k}.String()
}

func (in *Interp) evalUnary(e ast.Unary) (value.Value, error) {
	operand, err := in.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case lexer.NOT:
		return value.Bool(!operand.True()), nil
	case lexer.SUB:
		n, ok := operand.(value.Number)
		if !ok {
			return nil, hostErr(e.Line, fmt.Errorf("-%s: %w", operand.Type(), value.ErrIncompatible))
		}
		return -n, nil
	default:
		return nil, hostErrf(e.Line, "unhandled unary operator %s", opName(e.Op))
	}
}

func (in *Interp) evalIndex(e ast.Index) (value.Value, error) {
	obj, err := in.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	idx, err := in.evalExpr(e.Index)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *value.List:
		n, ok := idx.(value.Number)
		if !ok {
			return nil, hostErr(e.Line, fmt.Errorf("%s: %w", idx.Type(), ErrIndexType))
		}
		i := int(n)
		if i < 0 {
			i += len(o.Elems)
		}
		if i < 0 || i >= len(o.Elems) {
			return nil, hostErr(e.Line, fmt.Errorf("%d: %w", int(n), ErrIndexRange))
		}
		return o.Elems[i], nil
	case *value.Dict:
		s, ok := idx.(value.Str)
		if !ok {
			return nil, hostErr(e.Line, fmt.Errorf("%s: %w", idx.Type(), ErrKeyType))
		}
		v, ok := o.Get(string(s))
		if !ok {
			return nil, hostErr(e.Line, fmt.Errorf("%q: %w", string(s), ErrKeyMissing))
		}
		return v, nil
	default:
		return nil, hostErr(e.Line, fmt.Errorf("%s: %w", obj.Type(), ErrNotIndexable))
	}
}

// lookupAttribute implements `object.name` for the two receiver kinds
// that support it: a module resolves in its own environment; an
// instance checks its own attribute map before falling back to its
// class's methods.
func (in *Interp) lookupAttribute(obj value.Value, name string, line int) (value.Value, error) {
	switch v := obj.(type) {
	case *value.Module:
		val, err := v.Env.Resolve(name)
		if err != nil {
			return nil, hostErr(line, fmt.Errorf("%s.%s: %w", v.Name, name, ErrInvalidAttribute))
		}
		return val, nil
	case *value.Instance:
		if val, ok := v.Attrs[name]; ok {
			return val, nil
		}
		if m, ok := v.Class.Method(name); ok {
			return m, nil
		}
		return nil, hostErr(line, fmt.Errorf("%s.%s: %w", v.Class.Name, name, ErrInvalidAttribute))
	default:
		return nil, hostErr(line, fmt.Errorf("%s.%s: %w", obj.Type(), name, ErrInvalidAttribute))
	}
}

// evalCall implements call semantics, including the method-call rule:
// when the callee expression is an attribute access whose receiver
// evaluates to an instance, that receiver is prepended to the argument
// list before dispatch.
func (in *Interp) evalCall(e ast.Call) (value.Value, error) {
	var callee value.Value
	var args []value.Value

	if attr, ok := e.Callee.(ast.Attribute); ok {
		recv, err := in.evalExpr(attr.Object)
		if err != nil {
			return nil, err
		}
		v, err := in.lookupAttribute(recv, attr.Name, attr.Line)
		if err != nil {
			return nil, err
		}
		callee = v
		if inst, ok := recv.(*value.Instance); ok {
			args = append(args, inst)
		}
	} else {
		v, err := in.evalExpr(e.Callee)
		if err != nil {
			return nil, err
		}
		callee = v
	}

	for _, a := range e.Args {
		v, err := in.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if name, ok := value.BuiltinName(callee); ok {
		return in.callBuiltin(name, args, e.Line)
	}
	switch fn := callee.(type) {
	case *value.Function:
		return in.callFunction(fn, args, e.Line)
	case *value.Class:
		return in.instantiate(fn, args, e.Line)
	default:
		return nil, hostErr(e.Line, fmt.Errorf("%s: %w", callee.Type(), ErrInvalidCallTarget))
	}
}

func (in *Interp) callFunction(fn *value.Function, args []value.Value, line int) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, hostErr(line, fmt.Errorf("%s: want %d argument(s), got %d: %w", fn.Name, len(fn.Params), len(args), ErrArity))
	}
	frame := env.Enclosed(fn.Closure)
	for i, p := range fn.Params {
		frame.Define(p, args[i])
	}
	err := in.execBlockInFrame(fn.Body, frame)
	if err == nil {
		return value.None, nil
	}
	var ret *ReturnSignal
	if errors.As(err, &ret) {
		return ret.Value, nil
	}
	return nil, err
}

func (in *Interp) instantiate(class *value.Class, args []value.Value, line int) (value.Value, error) {
	inst := value.NewInstance(class)
	if init, ok := class.Method("__init__"); ok {
		callArgs := append([]value.Value{inst}, args...)
		if _, err := in.callFunction(init, callArgs, line); err != nil {
			return nil, err
		}
	} else if len(args) != 0 {
		return nil, hostErr(line, fmt.Errorf("%s: want 0 argument(s), got %d: %w", class.Name, len(args), ErrArity))
	}
	return inst, nil
}
