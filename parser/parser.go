// Package parser turns a token stream from package lexer into an
// *ast.Program using recursive descent for statements and
// operator-precedence (Pratt) climbing for expressions.
//
// Unlike a purely streaming parser, Parser buffers the whole token
// stream up front. Statement dispatch needs to look past a name and a
// dot to decide between a name assignment, an attribute assignment and
// an expression statement, and to restore the cursor cleanly when the
// lookahead doesn't match; an index into a fixed slice makes that a
// plain integer save/restore instead of a token-pushback stack.
package parser

import (
	"fmt"
	"strconv"

	"github.com/midbel/briar/ast"
	"github.com/midbel/briar/lexer"
)

// Error is a single parse error, tagged with the source line it was
// reported at.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func errorf(line int, format string, args ...any) error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}

// precedence maps a binary operator token to its binding power. `**` is
// right-associative; every other level is left-associative.
var precedence = map[lexer.Kind]int{
	lexer.OR:    1,
	lexer.AND:   2,
	lexer.EQ:    3,
	lexer.NE:    3,
	lexer.LT:    4,
	lexer.LE:    4,
	lexer.GT:    4,
	lexer.GE:    4,
	lexer.ADD:   5,
	lexer.SUB:   5,
	lexer.MUL:   6,
	lexer.DIV:   6,
	lexer.MOD:   6,
	lexer.POW:   7,
	lexer.LPAREN:  9,
	lexer.LSQUARE: 9,
	lexer.DOT:     9,
}

const (
	precUnary = 8
	precCall  = 9
)

// Parser holds the buffered token stream and the cursor into it.
type Parser struct {
	toks []lexer.Token
	pos  int
	errs []error
}

// New scans l to completion and returns a Parser ready to produce a
// Program.
func New(l *lexer.Lexer) *Parser {
	var toks []lexer.Token
	for {
		t := l.Scan()
		toks = append(toks, t)
		if t.Kind == lexer.EOF {
			break
		}
	}
	return &Parser{toks: toks}
}

// Parse consumes the whole token stream and returns the resulting
// Program together with every parse error encountered. A non-empty
// error slice does not mean prog is nil - malformed statements are
// dropped and parsing resumes after synchronizing.
func (p *Parser) Parse() (*ast.Program, []error) {
	prog := &ast.Program{}
	for !p.atEnd() {
		if p.tok().Kind == lexer.NEWLINE {
			p.advance()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			p.errs = append(p.errs, err)
			p.synchronize()
			continue
		}
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
		p.consumeOptional(lexer.NEWLINE)
	}
	return prog, p.errs
}

// synchronize discards tokens until a NEWLINE has just been consumed or
// the next token begins a statement.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.pos > 0 && p.toks[p.pos-1].Kind == lexer.NEWLINE {
			return
		}
		switch p.tok().Kind {
		case lexer.DEF, lexer.CLASS, lexer.IF, lexer.WHILE, lexer.FOR, lexer.RETURN:
			return
		}
		p.advance()
	}
}

func (p *Parser) tok() lexer.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEnd() bool {
	return p.tok().Kind == lexer.EOF
}

func (p *Parser) consumeOptional(kind lexer.Kind) {
	if p.tok().Kind == kind {
		p.advance()
	}
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	if p.tok().Kind == kind {
		return p.advance(), nil
	}
	return lexer.Token{}, errorf(p.tok().Line, "unexpected %s", p.tok())
}

// ---- statements ----

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.tok().Kind {
	case lexer.INVALID:
		t := p.advance()
		return nil, errorf(t.Line, "%s", t.Literal)
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.DEF:
		return p.parseFuncDef()
	case lexer.CLASS:
		return p.parseClassDef()
	case lexer.IMPORT:
		return p.parseImport()
	case lexer.FROM:
		return p.parseFromImport()
	case lexer.TRY:
		return p.parseTry()
	case lexer.RETURN:
		return p.parseReturn()
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement disambiguates `name = expr`, `expr.name = expr`
// and a bare expression statement, restoring the cursor whenever a
// lookahead attempt fails to match.
func (p *Parser) parseSimpleStatement() (ast.Stmt, error) {
	line := p.tok().Line
	if p.tok().Kind == lexer.IDENT && p.peekAt(1).Kind == lexer.ASSIGN {
		name := p.advance().Literal
		p.advance() // '='
		value, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.Assign{Name: name, Value: value, Line: line}, nil
	}
	if p.tok().Kind == lexer.IDENT && p.peekAt(1).Kind == lexer.ADDASSIGN {
		name := p.advance().Literal
		p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.Assign{Name: name, Value: ast.Binary{Left: ast.Ident{Name: name, Line: line}, Op: lexer.ADD, Right: rhs, Line: line}, Line: line}, nil
	}
	if p.tok().Kind == lexer.IDENT && p.peekAt(1).Kind == lexer.SUBASSIGN {
		name := p.advance().Literal
		p.advance()
		rhs, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return ast.Assign{Name: name, Value: ast.Binary{Left: ast.Ident{Name: name, Line: line}, Op: lexer.SUB, Right: rhs, Line: line}, Line: line}, nil
	}

	mark := p.pos
	if attr, ok := p.tryParseAttrAssign(); ok {
		return attr, nil
	}
	p.pos = mark

	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.ExprStmt{Expr: expr, Line: line}, nil
}

// tryParseAttrAssign attempts `expr '.' IDENT '=' expr`. On any mismatch
// it returns ok=false; the caller is responsible for restoring the
// cursor.
func (p *Parser) tryParseAttrAssign() (ast.Stmt, bool) {
	line := p.tok().Line
	obj, err := p.parseExpr(precCall)
	if err != nil {
		return nil, false
	}
	attr, ok := obj.(ast.Attribute)
	if !ok {
		return nil, false
	}
	if p.tok().Kind != lexer.ASSIGN {
		return nil, false
	}
	p.advance()
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, false
	}
	return ast.AttrAssign{Object: attr.Object, Name: attr.Name, Value: value, Line: line}, true
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return nil, err
	}
	block := &ast.Block{}
	for {
		if p.tok().Kind == lexer.NEWLINE {
			p.advance()
			continue
		}
		if p.tok().Kind == lexer.DEDENT {
			p.advance()
			return block, nil
		}
		if p.atEnd() {
			return nil, errorf(p.tok().Line, "missing dedent, unexpected end of input")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
		p.consumeOptional(lexer.NEWLINE)
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	line := p.advance().Line // 'if'
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Cond: cond, Then: then, Line: line}
	els, err := p.parseElseChain()
	if err != nil {
		return nil, err
	}
	node.Else = els
	return node, nil
}

// parseElseChain handles `elif ...` (desugared into a nested *If sitting
// in the Else slot) and a plain `else:` block.
func (p *Parser) parseElseChain() (ast.Stmt, error) {
	switch p.tok().Kind {
	case lexer.ELIF:
		line := p.advance().Line
		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		then, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		inner := &ast.If{Cond: cond, Then: then, Line: line}
		els, err := p.parseElseChain()
		if err != nil {
			return nil, err
		}
		inner.Else = els
		return inner, nil
	case lexer.ELSE:
		p.advance()
		return p.parseBlock()
	default:
		return nil, nil
	}
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	line := p.advance().Line
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Line: line}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	line := p.advance().Line
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Var: name.Literal, Iter: iter, Body: body, Line: line}, nil
}

func (p *Parser) parseFuncDef() (ast.Stmt, error) {
	line := p.advance().Line
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for p.tok().Kind != lexer.RPAREN {
		if len(params) > 0 {
			if _, err := p.expect(lexer.COMMA); err != nil {
				return nil, err
			}
		}
		id, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, id.Literal)
	}
	p.advance() // ')'
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Name: name.Literal, Params: params, Body: body, Line: line}, nil
}

func (p *Parser) parseClassDef() (ast.Stmt, error) {
	line := p.advance().Line
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ClassDef{Name: name.Literal, Body: body, Line: line}, nil
}

func (p *Parser) parseImport() (ast.Stmt, error) {
	line := p.advance().Line
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.tok().Kind == lexer.AS {
		p.advance()
		id, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		alias = id.Literal
	}
	return ast.Import{Module: name.Literal, Alias: alias, Line: line}, nil
}

func (p *Parser) parseFromImport() (ast.Stmt, error) {
	line := p.advance().Line
	module, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IMPORT); err != nil {
		return nil, err
	}
	var names []ast.ImportName
	for {
		id, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		entry := ast.ImportName{Name: id.Literal}
		if p.tok().Kind == lexer.AS {
			p.advance()
			alias, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			entry.Alias = alias.Literal
		}
		names = append(names, entry)
		if p.tok().Kind != lexer.COMMA {
			break
		}
		p.advance()
	}
	return ast.FromImport{Module: module.Literal, Names: names, Line: line}, nil
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	line := p.advance().Line
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var excepts []ast.ExceptClause
	for p.tok().Kind == lexer.EXCEPT {
		p.advance()
		var typ, name string
		if p.tok().Kind == lexer.IDENT {
			typ = p.advance().Literal
		}
		if p.tok().Kind == lexer.AS {
			p.advance()
			id, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			name = id.Literal
		}
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		excepts = append(excepts, ast.ExceptClause{Type: typ, Name: name, Body: block})
	}
	if len(excepts) == 0 {
		return nil, errorf(line, "try requires at least one except clause")
	}
	var finally *ast.Block
	if p.tok().Kind == lexer.FINALLY {
		p.advance()
		finally, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Try{Body: body, Excepts: excepts, Finally: finally, Line: line}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	line := p.advance().Line
	if p.tok().Kind == lexer.NEWLINE || p.atEnd() {
		return ast.Return{Line: line}, nil
	}
	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return ast.Return{Value: value, Line: line}, nil
}

// ---- expressions ----

func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		kind := p.tok().Kind
		prec, ok := precedence[kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		switch kind {
		case lexer.LPAREN:
			left, err = p.parseCall(left)
		case lexer.LSQUARE:
			left, err = p.parseIndex(left)
		case lexer.DOT:
			left, err = p.parseAttribute(left)
		default:
			left, err = p.parseBinary(left, prec)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseBinary(left ast.Expr, prec int) (ast.Expr, error) {
	line := p.tok().Line
	op := p.advance().Kind
	nextMin := prec + 1
	if op == lexer.POW {
		nextMin = prec
	}
	right, err := p.parseExpr(nextMin)
	if err != nil {
		return nil, err
	}
	return ast.Binary{Left: left, Op: op, Right: right, Line: line}, nil
}

func (p *Parser) parseCall(callee ast.Expr) (ast.Expr, error) {
	line := p.advance().Line // '('
	var args []ast.Expr
	for p.tok().Kind != lexer.RPAREN {
		if len(args) > 0 {
			if _, err := p.expect(lexer.COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance() // ')'
	return ast.Call{Callee: callee, Args: args, Line: line}, nil
}

func (p *Parser) parseIndex(obj ast.Expr) (ast.Expr, error) {
	line := p.advance().Line // '['
	idx, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RSQUARE); err != nil {
		return nil, err
	}
	return ast.Index{Object: obj, Index: idx, Line: line}, nil
}

func (p *Parser) parseAttribute(obj ast.Expr) (ast.Expr, error) {
	line := p.advance().Line // '.'
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	return ast.Attribute{Object: obj, Name: name.Literal, Line: line}, nil
}

func (p *Parser) parsePrefix() (ast.Expr, error) {
	t := p.tok()
	switch t.Kind {
	case lexer.NUMBER:
		p.advance()
		return parseNumberLiteral(t)
	case lexer.STRING:
		p.advance()
		return ast.String{Value: t.Literal, Line: t.Line}, nil
	case lexer.TRUE:
		p.advance()
		return ast.Bool{Value: true, Line: t.Line}, nil
	case lexer.FALSE:
		p.advance()
		return ast.Bool{Value: false, Line: t.Line}, nil
	case lexer.NONE:
		p.advance()
		return ast.None{Line: t.Line}, nil
	case lexer.IDENT:
		p.advance()
		return ast.Ident{Name: t.Literal, Line: t.Line}, nil
	case lexer.LPAREN:
		p.advance()
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.LSQUARE:
		return p.parseListLiteral()
	case lexer.LBRACE:
		return p.parseDictLiteral()
	case lexer.NOT:
		p.advance()
		operand, err := p.parseExpr(precCall)
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: lexer.NOT, Operand: operand, Line: t.Line}, nil
	case lexer.SUB:
		p.advance()
		operand, err := p.parseExpr(precCall)
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: lexer.SUB, Operand: operand, Line: t.Line}, nil
	case lexer.INVALID:
		p.advance()
		return nil, errorf(t.Line, "%s", t.Literal)
	default:
		p.advance()
		return nil, errorf(t.Line, "unexpected %s", t)
	}
}

func (p *Parser) parseListLiteral() (ast.Expr, error) {
	line := p.advance().Line // '['
	var elems []ast.Expr
	for p.tok().Kind != lexer.RSQUARE {
		if len(elems) > 0 {
			if _, err := p.expect(lexer.COMMA); err != nil {
				return nil, err
			}
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	p.advance() // ']'
	return ast.List{Elems: elems, Line: line}, nil
}

func (p *Parser) parseDictLiteral() (ast.Expr, error) {
	line := p.advance().Line // '{'
	var entries []ast.DictEntry
	for p.tok().Kind != lexer.RBRACE {
		if len(entries) > 0 {
			if _, err := p.expect(lexer.COMMA); err != nil {
				return nil, err
			}
		}
		key, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
	}
	p.advance() // '}'
	return ast.Dict{Entries: entries, Line: line}, nil
}

func parseNumberLiteral(t lexer.Token) (ast.Expr, error) {
	v, err := strconv.ParseFloat(t.Literal, 64)
	if err != nil {
		return nil, errorf(t.Line, "invalid number %q", t.Literal)
	}
	return ast.Number{Value: v, Line: t.Line}, nil
}
