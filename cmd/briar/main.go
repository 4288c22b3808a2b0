// Command briar runs a briar script: one optional positional file
// argument, or a built-in demo program when none is given.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/midbel/briar/config"
	"github.com/midbel/briar/history"
	"github.com/midbel/briar/interp"
	"github.com/midbel/briar/lexer"
	"github.com/midbel/briar/parser"
)

const demoProgram = `def make_adder(n):
    def add(x):
        return x + n
    return add

add5 = make_adder(5)
print(add5(3))

class Point:
    def __init__(self, x, y):
        self.x = x
        self.y = y
    def sum(self):
        return self.x + self.y

p = Point(3, 4)
print(p.sum())
`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "history" {
		runHistory(os.Args[2:])
		return
	}
	runScript(os.Args[1:])
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	n := fs.Int("n", 10, "show at most n entries")
	cfgPath := fs.String("c", "briar.toml", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	path := cfg.HistoryPath
	if path == "" {
		path = "briar_history.db"
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()

	recs, err := store.Recent(*n)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, r := range recs {
		status := "ok"
		if !r.OK {
			status = "error: " + r.Message
		}
		fmt.Printf("%s  %-30s  %-10s  %s\n", r.Started.Format(time.RFC3339), r.Script, r.Duration, status)
	}
}

func runScript(args []string) {
	fs := flag.NewFlagSet("briar", flag.ExitOnError)
	cfgPath := fs.String("c", "briar.toml", "path to config file")
	dumpTokens := fs.Bool("tokens", false, "scan and print tokens instead of running")
	dumpAST := fs.Bool("ast", false, "parse and print the AST instead of running")
	fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	name, src, err := sourceFor(fs.Arg(0), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *dumpTokens {
		scanTokens(src)
		return
	}

	prog, errs := parser.New(lexer.New(src)).Parse()
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, "Parse error:", e)
	}
	if *dumpAST {
		fmt.Printf("%+v\n", prog)
		return
	}
	if len(errs) > 0 {
		os.Exit(1)
	}

	start := time.Now()
	in := interp.New(os.Stdout, os.Stderr)
	in.SearchPath = cfg.SearchPath
	runErr := in.Run(prog)
	elapsed := time.Since(start)

	recordRun(cfg, name, start, elapsed, runErr)

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Runtime error:", runErr)
		os.Exit(1)
	}
}

func sourceFor(arg string, cfg config.Config) (string, []byte, error) {
	if arg != "" {
		src, err := os.ReadFile(arg)
		return arg, src, err
	}
	if cfg.Demo != "" {
		src, err := os.ReadFile(cfg.Demo)
		return cfg.Demo, src, err
	}
	return "<demo>", []byte(demoProgram), nil
}

func scanTokens(src []byte) {
	l := lexer.New(src)
	for {
		tok := l.Scan()
		fmt.Println(tok)
		if tok.Kind == lexer.EOF {
			break
		}
	}
}

func recordRun(cfg config.Config, script string, started time.Time, elapsed time.Duration, runErr error) {
	if cfg.HistoryPath == "" {
		return
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return
	}
	defer store.Close()

	rec := history.Record{Script: script, Started: started, Duration: elapsed, OK: runErr == nil}
	if runErr != nil {
		rec.Message = runErr.Error()
	}
	store.Append(rec)
}
