package interp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/midbel/briar/env"
	"github.com/midbel/briar/lexer"
	"github.com/midbel/briar/parser"
	"github.com/midbel/briar/value"
)

// loadModule resolves name to a source file, executes it once and
// caches the resulting module under name. A second load of the same
// name returns the cached value without re-executing - the cache is
// populated only after a module finishes executing successfully, so a
// module that imports itself during its own initialization re-enters
// this function and re-reads the file; that case is not hardened
// against, matching the reference interpreter's behavior.
func (in *Interp) loadModule(name string, line int) (*value.Module, error) {
	if mod, ok := in.modules[name]; ok {
		return mod, nil
	}

	path, err := in.resolveModule(name)
	if err != nil {
		return nil, hostErr(line, fmt.Errorf("%s: %w", name, ErrModuleNotFound))
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, hostErr(line, fmt.Errorf("%s: %w", name, ErrModuleNotFound))
	}

	p := parser.New(lexer.New(src))
	prog, errs := p.Parse()
	if len(errs) > 0 {
		return nil, hostErrf(line, "%s: %d parse error(s), first: %s", name, len(errs), errs[0])
	}

	modEnv := env.Enclosed(in.Globals)
	prev := in.current
	in.current = modEnv
	var runErr error
	for _, stmt := range prog.Stmts {
		if runErr = in.execStmt(stmt); runErr != nil {
			break
		}
	}
	in.current = prev
	if runErr != nil {
		return nil, runErr
	}

	mod := &value.Module{Name: name, Path: path, Env: modEnv, Program: prog}
	in.modules[name] = mod
	return mod, nil
}

// resolveModule appends the literal ".py" suffix (kept for compatibility
// with the source language this interpreter targets) and searches the
// working directory first, then each directory in SearchPath in order.
func (in *Interp) resolveModule(name string) (string, error) {
	filename := name + ".py"
	if _, err := os.Stat(filename); err == nil {
		return filename, nil
	}
	for _, dir := range in.SearchPath {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", os.ErrNotExist
}
