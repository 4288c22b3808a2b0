package interp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/midbel/briar/lexer"
	"github.com/midbel/briar/parser"
)

func runIn(t *testing.T, dir, src string) (string, error) {
	t.Helper()
	p := parser.New(lexer.New([]byte(src)))
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", src, errs)
	}
	var out bytes.Buffer
	in := New(&out, &out)
	in.SearchPath = []string{dir}
	err := in.Run(prog)
	return out.String(), err
}

func TestFromImportBindsSymbol(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte("def greet():\n    return \"hi\"\n"), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	out, err := runIn(t, dir, "from m import greet\nprint(greet())\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "hi" {
		t.Fatalf("output = %q, want hi", out)
	}
}

func TestImportBindsModuleValue(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte("x = 42\n"), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	out, err := runIn(t, dir, "import m\nprint(m.x)\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "42" {
		t.Fatalf("output = %q, want 42", out)
	}
}

func TestImportAliasBinding(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	out, err := runIn(t, dir, "import m as named\nprint(named.x)\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("output = %q, want 1", out)
	}
}

func TestImportingSameModuleTwiceIsIdentityEqual(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	src := "import m\nimport m as also\nprint(m == also)\n"
	out, err := runIn(t, dir, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "True" {
		t.Fatalf("output = %q, want True (same module object both times)", out)
	}
}

func TestLoadModuleRetainsProgram(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	p := parser.New(lexer.New([]byte("import m\n")))
	prog, errs := p.Parse()
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errs)
	}
	var out bytes.Buffer
	in := New(&out, &out)
	in.SearchPath = []string{dir}
	if err := in.Run(prog); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mod, ok := in.modules["m"]
	if !ok {
		t.Fatal("want module m cached")
	}
	if mod.Program == nil {
		t.Fatal("want mod.Program to retain the module's parsed tree")
	}
	if len(mod.Program.Stmts) != 1 {
		t.Fatalf("mod.Program.Stmts = %d, want 1", len(mod.Program.Stmts))
	}
}

func TestModuleNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := runIn(t, dir, "import nope\n"); err == nil {
		t.Fatal("want an error importing a module that does not exist")
	}
}

func TestFromImportMissingSymbol(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}
	if _, err := runIn(t, dir, "from m import missing\n"); err == nil {
		t.Fatal("want an error importing a symbol the module never defines")
	}
}
