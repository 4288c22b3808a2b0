package parser

import (
	"testing"

	"github.com/midbel/briar/ast"
	"github.com/midbel/briar/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New([]byte(src)))
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", src, errs)
	}
	return prog
}

func TestParseAssignment(t *testing.T) {
	prog := parse(t, "x = 1 + 2\n")
	if len(prog.Stmts) != 1 {
		t.Fatalf("want 1 statement, got %d", len(prog.Stmts))
	}
	assign, ok := prog.Stmts[0].(ast.Assign)
	if !ok {
		t.Fatalf("want ast.Assign, got %T", prog.Stmts[0])
	}
	if assign.Name != "x" {
		t.Fatalf("want name x, got %s", assign.Name)
	}
	bin, ok := assign.Value.(ast.Binary)
	if !ok || bin.Op != lexer.ADD {
		t.Fatalf("want binary +, got %#v", assign.Value)
	}
}

func TestParseAddAssignDesugarsToBinary(t *testing.T) {
	prog := parse(t, "x += 1\n")
	assign := prog.Stmts[0].(ast.Assign)
	bin, ok := assign.Value.(ast.Binary)
	if !ok || bin.Op != lexer.ADD {
		t.Fatalf("want desugared +, got %#v", assign.Value)
	}
	if _, ok := bin.Left.(ast.Ident); !ok {
		t.Fatalf("want left operand to reread x, got %#v", bin.Left)
	}
}

func TestParseAttrAssign(t *testing.T) {
	prog := parse(t, "self.x = 1\n")
	attr, ok := prog.Stmts[0].(ast.AttrAssign)
	if !ok {
		t.Fatalf("want ast.AttrAssign, got %T", prog.Stmts[0])
	}
	if attr.Name != "x" {
		t.Fatalf("want attr name x, got %s", attr.Name)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	prog := parse(t, "1 + 2 * 3\n")
	stmt := prog.Stmts[0].(ast.ExprStmt)
	top, ok := stmt.Expr.(ast.Binary)
	if !ok || top.Op != lexer.ADD {
		t.Fatalf("want top-level +, got %#v", stmt.Expr)
	}
	right, ok := top.Right.(ast.Binary)
	if !ok || right.Op != lexer.MUL {
		t.Fatalf("want * nested on the right of +, got %#v", top.Right)
	}
}

func TestPowerIsRightAssociative(t *testing.T) {
	prog := parse(t, "2 ** 3 ** 2\n")
	stmt := prog.Stmts[0].(ast.ExprStmt)
	top := stmt.Expr.(ast.Binary)
	if top.Op != lexer.POW {
		t.Fatalf("want top-level **, got %#v", top)
	}
	if _, ok := top.Left.(ast.Number); !ok {
		t.Fatalf("want left operand to be the literal 2, got %#v", top.Left)
	}
	if _, ok := top.Right.(ast.Binary); !ok {
		t.Fatalf("want ** to associate to the right, got %#v", top.Right)
	}
}

func TestUnaryBindsTighterThanBinaryButLooserThanCall(t *testing.T) {
	prog := parse(t, "-a.b\n")
	stmt := prog.Stmts[0].(ast.ExprStmt)
	un, ok := stmt.Expr.(ast.Unary)
	if !ok || un.Op != lexer.SUB {
		t.Fatalf("want unary -, got %#v", stmt.Expr)
	}
	if _, ok := un.Operand.(ast.Attribute); !ok {
		t.Fatalf("want -(a.b), got %#v", un.Operand)
	}
}

func TestIfElifDesugarsToNestedIf(t *testing.T) {
	src := "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n"
	prog := parse(t, src)
	top := prog.Stmts[0].(*ast.If)
	nested, ok := top.Else.(*ast.If)
	if !ok {
		t.Fatalf("want elif to desugar into a nested *ast.If, got %#v", top.Else)
	}
	if _, ok := nested.Else.(*ast.Block); !ok {
		t.Fatalf("want trailing else as a block, got %#v", nested.Else)
	}
}

func TestForLoop(t *testing.T) {
	src := "for n in [1, 2, 3]:\n    print(n)\n"
	prog := parse(t, src)
	loop := prog.Stmts[0].(*ast.For)
	if loop.Var != "n" {
		t.Fatalf("want loop var n, got %s", loop.Var)
	}
	if _, ok := loop.Iter.(ast.List); !ok {
		t.Fatalf("want list literal iterable, got %#v", loop.Iter)
	}
}

func TestFuncDefWithReturn(t *testing.T) {
	src := "def add(a, b):\n    return a + b\n"
	prog := parse(t, src)
	fn := prog.Stmts[0].(*ast.FuncDef)
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected funcdef: %#v", fn)
	}
	ret := fn.Body.Stmts[0].(ast.Return)
	if _, ok := ret.Value.(ast.Binary); !ok {
		t.Fatalf("want return of a binary expr, got %#v", ret.Value)
	}
}

func TestTryExceptFinally(t *testing.T) {
	src := "try:\n    raise(\"E\", \"boom\")\nexcept E as e:\n    print(e)\nfinally:\n    print(\"done\")\n"
	prog := parse(t, src)
	tr := prog.Stmts[0].(*ast.Try)
	if len(tr.Excepts) != 1 || tr.Excepts[0].Type != "E" || tr.Excepts[0].Name != "e" {
		t.Fatalf("unexpected except clause: %#v", tr.Excepts)
	}
	if tr.Finally == nil {
		t.Fatal("want a finally block")
	}
}

func TestTryRequiresExcept(t *testing.T) {
	src := "try:\n    x = 1\n"
	_, errs := New(lexer.New([]byte(src))).Parse()
	if len(errs) == 0 {
		t.Fatal("want an error for a try with no except clause")
	}
}

func TestDictLiteral(t *testing.T) {
	prog := parse(t, "d = {\"a\": 1, \"b\": 2}\n")
	assign := prog.Stmts[0].(ast.Assign)
	dict := assign.Value.(ast.Dict)
	if len(dict.Entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(dict.Entries))
	}
}

func TestSyntaxErrorRecoversAtNextStatement(t *testing.T) {
	src := ")\nx = 1\n"
	prog, errs := New(lexer.New([]byte(src))).Parse()
	if len(errs) == 0 {
		t.Fatal("want a parse error on the stray ')'")
	}
	if len(prog.Stmts) != 1 {
		t.Fatalf("want the following statement to still parse, got %d statements", len(prog.Stmts))
	}
}
