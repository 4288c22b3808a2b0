// Package interp walks an *ast.Program, dispatching recursively on node
// kind. It holds a globals frame that never changes after construction
// and a "current" frame pointer that every scope change saves and
// restores around itself, including on every exceptional exit.
package interp

import (
	"errors"
	"fmt"
	"io"

	"github.com/midbel/briar/ast"
	"github.com/midbel/briar/env"
	"github.com/midbel/briar/value"
)

// Interp is a single, disposable evaluation session: one set of globals,
// one module cache, one pair of output streams.
type Interp struct {
	Globals env.Env[value.Value]
	Stdout  io.Writer
	Stderr  io.Writer

	// SearchPath lists extra directories consulted, in order, by the
	// module loader after the process's working directory.
	SearchPath []string

	current env.Env[value.Value]
	modules map[string]*value.Module
}

// New builds an interpreter with its built-ins already bound.
func New(stdout, stderr io.Writer) *Interp {
	globals := env.New[value.Value]()
	in := &Interp{
		Globals: globals,
		Stdout:  stdout,
		Stderr:  stderr,
		current: globals,
		modules: make(map[string]*value.Module),
	}
	registerBuiltins(globals)
	return in
}

// Run executes every top-level statement of prog in order, stopping at
// the first error.
func (in *Interp) Run(prog *ast.Program) error {
	for _, stmt := range prog.Stmts {
		if err := in.execStmt(stmt); err != nil {
			var ret *ReturnSignal
			if errors.As(err, &ret) {
				return hostErrf(0, "return outside of a function")
			}
			return err
		}
	}
	return nil
}

// ---- statements ----

func (in *Interp) execStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case ast.ExprStmt:
		_, err := in.evalExpr(s.Expr)
		return err
	case ast.Assign:
		v, err := in.evalExpr(s.Value)
		if err != nil {
			return err
		}
		if err := in.current.Assign(s.Name, v); err != nil {
			in.current.Define(s.Name, v)
		}
		return nil
	case ast.AttrAssign:
		obj, err := in.evalExpr(s.Object)
		if err != nil {
			return err
		}
		inst, ok := obj.(*value.Instance)
		if !ok {
			return hostErr(s.Line, fmt.Errorf("%s: %w", obj.Type(), ErrNotAnInstance))
		}
		v, err := in.evalExpr(s.Value)
		if err != nil {
			return err
		}
		inst.Attrs[s.Name] = v
		return nil
	case *ast.If:
		return in.execIf(s)
	case *ast.While:
		return in.execWhile(s)
	case *ast.For:
		return in.execFor(s)
	case ast.Return:
		var v value.Value = value.None
		if s.Value != nil {
			rv, err := in.evalExpr(s.Value)
			if err != nil {
				return err
			}
			v = rv
		}
		return &ReturnSignal{Value: v}
	case *ast.FuncDef:
		in.current.Define(s.Name, &value.Function{
			Name:    s.Name,
			Params:  s.Params,
			Body:    s.Body,
			Closure: in.current,
		})
		return nil
	case *ast.ClassDef:
		return in.execClassDef(s)
	case ast.Import:
		return in.execImport(s)
	case ast.FromImport:
		return in.execFromImport(s)
	case *ast.Try:
		return in.execTry(s)
	default:
		return hostErrf(0, "unhandled statement %T", stmt)
	}
}

func (in *Interp) execIf(s *ast.If) error {
	cond, err := in.evalExpr(s.Cond)
	if err != nil {
		return err
	}
	if cond.True() {
		return in.execChildBlock(s.Then)
	}
	switch e := s.Else.(type) {
	case nil:
		return nil
	case *ast.If:
		return in.execIf(e)
	case *ast.Block:
		return in.execChildBlock(e)
	default:
		return hostErrf(s.Line, "unhandled else clause %T", s.Else)
	}
}

func (in *Interp) execWhile(s *ast.While) error {
	for {
		cond, err := in.evalExpr(s.Cond)
		if err != nil {
			return err
		}
		if !cond.True() {
			return nil
		}
		if err := in.execChildBlock(s.Body); err != nil {
			return err
		}
	}
}

// execFor binds the loop variable in the frame active when the loop
// runs (not a child of it), so it remains visible after the loop ends;
// each iteration's body still runs in its own fresh child frame.
func (in *Interp) execFor(s *ast.For) error {
	iter, err := in.evalExpr(s.Iter)
	if err != nil {
		return err
	}
	switch it := iter.(type) {
	case *value.List:
		for i := 0; i < len(it.Elems); i++ {
			in.current.Define(s.Var, it.Elems[i])
			if err := in.execChildBlock(s.Body); err != nil {
				return err
			}
		}
		return nil
	case *value.Dict:
		keys := append([]string(nil), it.Keys()...)
		for _, k := range keys {
			in.current.Define(s.Var, value.Str(k))
			if err := in.execChildBlock(s.Body); err != nil {
				return err
			}
		}
		return nil
	default:
		return hostErr(s.Line, fmt.Errorf("%s: %w", iter.Type(), ErrNotIterable))
	}
}

// execClassDef runs the class body once, in its own frame, then
// collects every binding whose value is a function into the class's
// method table - including a plain assignment that aliases an existing
// function to a new name, not just a `def` statement.
func (in *Interp) execClassDef(s *ast.ClassDef) error {
	body := env.Enclosed(in.current)
	if err := in.execBlockInFrame(s.Body, body); err != nil {
		return err
	}
	methods := make(map[string]*value.Function)
	for _, name := range body.Keys() {
		v, err := body.Resolve(name)
		if err != nil {
			continue
		}
		if fn, ok := v.(*value.Function); ok {
			methods[name] = fn
		}
	}
	class := &value.Class{Name: s.Name, Methods: methods, Closure: in.current}
	in.current.Define(s.Name, class)
	return nil
}

func (in *Interp) execImport(s ast.Import) error {
	mod, err := in.loadModule(s.Module, s.Line)
	if err != nil {
		return err
	}
	alias := s.Alias
	if alias == "" {
		alias = s.Module
	}
	in.current.Define(alias, mod)
	return nil
}

func (in *Interp) execFromImport(s ast.FromImport) error {
	mod, err := in.loadModule(s.Module, s.Line)
	if err != nil {
		return err
	}
	for _, n := range s.Names {
		v, err := mod.Env.Resolve(n.Name)
		if err != nil {
			return hostErr(s.Line, fmt.Errorf("%s.%s: %w", s.Module, n.Name, ErrImportSymbolMissing))
		}
		alias := n.Alias
		if alias == "" {
			alias = n.Name
		}
		in.current.Define(alias, v)
	}
	return nil
}

// ---- frame plumbing ----

// execBlockInFrame runs b's statements with frame installed as the
// current frame, restoring the previous frame on every exit path.
func (in *Interp) execBlockInFrame(b *ast.Block, frame env.Env[value.Value]) error {
	prev := in.current
	in.current = frame
	defer func() { in.current = prev }()
	for _, stmt := range b.Stmts {
		if err := in.execStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interp) execChildBlock(b *ast.Block) error {
	return in.execBlockInFrame(b, env.Enclosed(in.current))
}
