package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/midbel/briar/lexer"
	"github.com/midbel/briar/parser"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	p := parser.New(lexer.New([]byte(src)))
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", src, errs)
	}
	var out bytes.Buffer
	in := New(&out, &out)
	err := in.Run(prog)
	return out.String(), err
}

func TestArithmeticAndAssignment(t *testing.T) {
	out, err := run(t, "x = 10\ny = 20\nprint(x + y)\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "30" {
		t.Fatalf("output = %q, want 30", out)
	}
}

func TestClosures(t *testing.T) {
	src := "def make_adder(n):\n    def add(x):\n        return x + n\n    return add\nadd5 = make_adder(5)\nprint(add5(3))\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "8" {
		t.Fatalf("output = %q, want 8", out)
	}
}

func TestClassWithMethod(t *testing.T) {
	src := "class Point:\n    def __init__(self, x, y):\n        self.x = x\n        self.y = y\n    def sum(self):\n        return self.x + self.y\np = Point(3, 4)\nprint(p.sum())\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("output = %q, want 7", out)
	}
}

func TestClassMethodAliasedByPlainAssignment(t *testing.T) {
	src := "class C:\n    def bar(self):\n        return 1\n    baz = bar\nc = C()\nprint(c.baz())\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("output = %q, want 1", out)
	}
}

func TestListIteration(t *testing.T) {
	src := "total = 0\nfor n in [1, 2, 3, 4]:\n    total = total + n\nprint(total)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "10" {
		t.Fatalf("output = %q, want 10", out)
	}
}

func TestExceptionFlow(t *testing.T) {
	src := "try:\n    raise(\"MyErr\", \"boom\")\nexcept MyErr as e:\n    print(e)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "boom" {
		t.Fatalf("output = %q, want boom", out)
	}
}

func TestUnmatchedExceptReraises(t *testing.T) {
	src := "try:\n    raise(\"MyErr\", \"boom\")\nexcept OtherErr as e:\n    print(e)\n"
	_, err := run(t, src)
	if err == nil {
		t.Fatal("want the unmatched exception to escape")
	}
}

func TestFinallyAlwaysRuns(t *testing.T) {
	src := "try:\n    raise(\"E\", \"x\")\nexcept E as e:\n    print(\"caught\")\nfinally:\n    print(\"cleanup\")\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "caught\ncleanup\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestHostErrorCaughtAsRuntimeError(t *testing.T) {
	src := "try:\n    x = 1 / 0\nexcept RuntimeError as e:\n    print(\"caught\")\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "caught" {
		t.Fatalf("output = %q, want caught", out)
	}
}

func TestUndefinedNameIsHostError(t *testing.T) {
	_, err := run(t, "print(nope)\n")
	if err == nil {
		t.Fatal("want an error for an unbound name")
	}
}

func TestForLoopVariablePersistsAfterLoop(t *testing.T) {
	out, err := run(t, "for n in [1, 2, 3]:\n    x = n\nprint(n)\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("output = %q, want 3", out)
	}
}

func TestNegativeIndexAndOutOfRange(t *testing.T) {
	out, err := run(t, "xs = [1, 2, 3]\nprint(xs[-1])\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("output = %q, want 3", out)
	}

	if _, err := run(t, "xs = [1, 2, 3]\nprint(xs[-4])\n"); err == nil {
		t.Fatal("want out-of-range error for xs[-4]")
	}
}

func TestInstantiationWithNoInitYieldsEmptyAttrs(t *testing.T) {
	src := "class Empty:\n    def greet(self):\n        return \"hi\"\ne = Empty()\nprint(e.greet())\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "hi" {
		t.Fatalf("output = %q, want hi", out)
	}

	if _, err := run(t, "class Empty:\n    def greet(self):\n        return \"hi\"\ne = Empty()\nprint(e.missing)\n"); err == nil {
		t.Fatal("want a host error reading an attribute that was never set")
	}
}

func TestAndOrAreEager(t *testing.T) {
	src := "def sideeffect():\n    print(\"called\")\n    return True\nx = False and sideeffect()\nprint(x)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "called\nFalse\n"
	if out != want {
		t.Fatalf("output = %q, want %q (and/or evaluate both operands eagerly)", out, want)
	}
}

func TestElifChain(t *testing.T) {
	src := "x = 2\nif x == 1:\n    print(\"one\")\nelif x == 2:\n    print(\"two\")\nelse:\n    print(\"other\")\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "two" {
		t.Fatalf("output = %q, want two", out)
	}
}

func TestDictDisplay(t *testing.T) {
	out, err := run(t, "d = {\"a\": 1}\nprint(d)\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "{'a': 1}" {
		t.Fatalf("output = %q, want {'a': 1}", out)
	}
}
