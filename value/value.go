// Package value defines the runtime value model interp evaluates
// against: the closed set of kinds a briar expression can produce, their
// truthiness, equality, arithmetic and display rules.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/midbel/briar/ast"
	"github.com/midbel/briar/env"
)

// Sentinel errors surfaced by arithmetic and comparison methods. interp
// wraps these into a RuntimeError that carries the offending line.
var (
	ErrIncompatible = errors.New("incompatible operand types")
	ErrUnsupported  = errors.New("unsupported operator")
	ErrDivByZero    = errors.New("division by zero")
)

// Value is the interface every runtime value implements.
type Value interface {
	// Type names the kind for display and for error messages
	// ("number", "string", "list", ...).
	Type() string
	// True reports the value's truthiness per the language's falsy set:
	// False, None, 0, "", [], {}.
	True() bool
	// Display renders the value the way print and the REPL-less CLI show
	// it. Strings render unquoted here; Dict quotes its own keys.
	Display() string
}

// Adder is implemented by kinds `+` accepts: Number, Str and *List. Add
// must reject any operand of a different concrete kind.
type Adder interface {
	Add(Value) (Value, error)
}

// Arithmetic is implemented by Number alone; `-`, `*`, `/`, `%` and `**`
// are number-and-number-only operators.
type Arithmetic interface {
	Sub(Value) (Value, error)
	Mul(Value) (Value, error)
	Div(Value) (Value, error)
	Mod(Value) (Value, error)
	Pow(Value) (Value, error)
}

// Ordered is implemented by Number alone; `<`, `<=`, `>`, `>=` are
// number-and-number-only operators.
type Ordered interface {
	Lt(Value) (bool, error)
	Le(Value) (bool, error)
	Gt(Value) (bool, error)
	Ge(Value) (bool, error)
}

// Number is a double-precision float. Integral numbers display without a
// decimal point.
type Number float64

func (Number) Type() string   { return "number" }
func (n Number) True() bool   { return n != 0 }
func (n Number) Display() string {
	f := float64(n)
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return fmt.Sprintf("%f", f)
}

func (n Number) Add(other Value) (Value, error) {
	o, ok := other.(Number)
	if !ok {
		return nil, fmt.Errorf("number + %s: %w", other.Type(), ErrIncompatible)
	}
	return n + o, nil
}

func (n Number) Sub(other Value) (Value, error) {
	o, ok := other.(Number)
	if !ok {
		return nil, fmt.Errorf("number - %s: %w", other.Type(), ErrIncompatible)
	}
	return n - o, nil
}

func (n Number) Mul(other Value) (Value, error) {
	o, ok := other.(Number)
	if !ok {
		return nil, fmt.Errorf("number * %s: %w", other.Type(), ErrIncompatible)
	}
	return n * o, nil
}

func (n Number) Div(other Value) (Value, error) {
	o, ok := other.(Number)
	if !ok {
		return nil, fmt.Errorf("number / %s: %w", other.Type(), ErrIncompatible)
	}
	if o == 0 {
		return nil, ErrDivByZero
	}
	return n / o, nil
}

func (n Number) Mod(other Value) (Value, error) {
	o, ok := other.(Number)
	if !ok {
		return nil, fmt.Errorf("number %% %s: %w", other.Type(), ErrIncompatible)
	}
	if o == 0 {
		return nil, ErrDivByZero
	}
	return Number(math.Mod(float64(n), float64(o))), nil
}

func (n Number) Pow(other Value) (Value, error) {
	o, ok := other.(Number)
	if !ok {
		return nil, fmt.Errorf("number ** %s: %w", other.Type(), ErrIncompatible)
	}
	return Number(math.Pow(float64(n), float64(o))), nil
}

func (n Number) Lt(other Value) (bool, error) {
	o, ok := other.(Number)
	if !ok {
		return false, fmt.Errorf("number < %s: %w", other.Type(), ErrIncompatible)
	}
	return n < o, nil
}

func (n Number) Le(other Value) (bool, error) {
	o, ok := other.(Number)
	if !ok {
		return false, fmt.Errorf("number <= %s: %w", other.Type(), ErrIncompatible)
	}
	return n <= o, nil
}

func (n Number) Gt(other Value) (bool, error) {
	o, ok := other.(Number)
	if !ok {
		return false, fmt.Errorf("number > %s: %w", other.Type(), ErrIncompatible)
	}
	return n > o, nil
}

func (n Number) Ge(other Value) (bool, error) {
	o, ok := other.(Number)
	if !ok {
		return false, fmt.Errorf("number >= %s: %w", other.Type(), ErrIncompatible)
	}
	return n >= o, nil
}

// Str is a string value. Sentinel built-ins are also represented as Str,
// with content of the form "builtin:<name>" - see Builtin.
type Str string

func (Str) Type() string    { return "string" }
func (s Str) True() bool    { return s != "" }
func (s Str) Display() string { return string(s) }

func (s Str) Add(other Value) (Value, error) {
	o, ok := other.(Str)
	if !ok {
		return nil, fmt.Errorf("string + %s: %w", other.Type(), ErrIncompatible)
	}
	return s + o, nil
}

// BuiltinPrefix marks a Str as a sentinel built-in rather than ordinary
// string data.
const BuiltinPrefix = "builtin:"

// Builtin returns the sentinel Str value naming a built-in function.
func Builtin(name string) Str {
	return Str(BuiltinPrefix + name)
}

// BuiltinName reports the built-in name a sentinel Str carries, and
// whether v is such a sentinel at all.
func BuiltinName(v Value) (string, bool) {
	s, ok := v.(Str)
	if !ok || !strings.HasPrefix(string(s), BuiltinPrefix) {
		return "", false
	}
	return strings.TrimPrefix(string(s), BuiltinPrefix), true
}

// Bool is a boolean value.
type Bool bool

func (Bool) Type() string      { return "bool" }
func (b Bool) True() bool      { return bool(b) }
func (b Bool) Display() string {
	if b {
		return "True"
	}
	return "False"
}

// NoneValue is the language's single null-like value.
type NoneValue struct{}

// None is the shared None instance; equality of two None values is
// therefore also Go identity, though Equal treats every NoneValue as
// equal regardless.
var None = NoneValue{}

func (NoneValue) Type() string    { return "none" }
func (NoneValue) True() bool      { return false }
func (NoneValue) Display() string { return "None" }

// List is a mutable, ordered sequence. Lists are compared and identified
// by reference: two distinct lists with equal elements are not Equal.
type List struct {
	Elems []Value
}

func NewList(elems []Value) *List { return &List{Elems: elems} }

func (*List) Type() string { return "list" }
func (l *List) True() bool { return len(l.Elems) > 0 }
func (l *List) Display() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.Display()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) Add(other Value) (Value, error) {
	o, ok := other.(*List)
	if !ok {
		return nil, fmt.Errorf("list + %s: %w", other.Type(), ErrIncompatible)
	}
	elems := make([]Value, 0, len(l.Elems)+len(o.Elems))
	elems = append(elems, l.Elems...)
	elems = append(elems, o.Elems...)
	return NewList(elems), nil
}

// Dict is a mutable string-keyed map that preserves first-insertion key
// order for display and iteration; re-inserting an existing key updates
// its value in place without moving it to the end. Dicts are compared
// and identified by reference.
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: make(map[string]Value)}
}

func (*Dict) Type() string { return "dict" }
func (d *Dict) True() bool { return len(d.keys) > 0 }

func (d *Dict) Display() string {
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		parts[i] = fmt.Sprintf("'%s': %s", k, d.values[k].Display())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Set inserts or updates the value bound to key, appending key to the
// iteration order only the first time it is seen.
func (d *Dict) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Get looks up key.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the dict's keys in insertion order. The caller must not
// mutate the returned slice.
func (d *Dict) Keys() []string { return d.keys }

func (d *Dict) Len() int { return len(d.keys) }

// Function is a user-defined function or method closing over the frame
// in which it was defined.
type Function struct {
	Name    string
	Params  []string
	Body    *ast.Block
	Closure env.Env[Value]
}

func (*Function) Type() string      { return "function" }
func (*Function) True() bool        { return true }
func (*Function) Display() string   { return "<function>" }

// Class is a callable value produced by executing a class body; Methods
// holds every function value bound in that body, whether by a def or by
// a plain assignment.
type Class struct {
	Name    string
	Methods map[string]*Function
	Closure env.Env[Value]
}

func (*Class) Type() string    { return "class" }
func (*Class) True() bool      { return true }
func (c *Class) Display() string {
	return fmt.Sprintf("<class '%s'>", c.Name)
}

// Method looks up a method by name on the class itself; instances defer
// to their Class for method resolution.
func (c *Class) Method(name string) (*Function, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

// Instance is an object created by calling a Class. Attrs holds
// per-instance fields set via `self.name = value`.
type Instance struct {
	Class *Class
	Attrs map[string]Value
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Attrs: make(map[string]Value)}
}

func (*Instance) Type() string { return "instance" }
func (*Instance) True() bool   { return true }
func (i *Instance) Display() string {
	return fmt.Sprintf("<%s object>", i.Class.Name)
}

// Module is an executed module's namespace, exposed as a Value so it can
// be bound like any other name and its attributes accessed with `.`.
// Program is the module's own parsed tree; retaining it here is what
// keeps every Function.Body pointer obtained from this module's
// top-level def statements reachable for ordinary GC, independent of
// whichever closures happen to still reference those functions.
type Module struct {
	Name    string
	Path    string
	Env     env.Env[Value]
	Program *ast.Program
}

func (*Module) Type() string    { return "module" }
func (*Module) True() bool      { return true }
func (m *Module) Display() string {
	return fmt.Sprintf("<module '%s'>", m.Name)
}

// Equal implements the language's `==`/`!=` semantics: values of
// different kinds are never equal; Number, Str, Bool and NoneValue
// compare by value; every other kind (List, Dict, Function, Class,
// Instance, Module) compares by reference identity.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	case *List:
		bv, ok := b.(*List)
		return ok && av == bv
	case *Dict:
		bv, ok := b.(*Dict)
		return ok && av == bv
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	case *Class:
		bv, ok := b.(*Class)
		return ok && av == bv
	case *Instance:
		bv, ok := b.(*Instance)
		return ok && av == bv
	case *Module:
		bv, ok := b.(*Module)
		return ok && av == bv
	default:
		return false
	}
}
