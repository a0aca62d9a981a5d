// Package parse implements a recursive-descent parser from RuneScript
// source text to the ast package's tree.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Blunkie/RuneScript/ast"
	"github.com/Blunkie/RuneScript/lex"
	"github.com/Blunkie/RuneScript/types"
)

// Diagnostic is a parse error: unexpected token or missing delimiter.
type Diagnostic struct {
	Range   lex.Range
	Message string
}

// Parser produces one or more Scripts from a token stream, recovering at
// statement boundaries on error so a single mistake doesn't abort the
// whole file.
type Parser struct {
	lx    *lex.Lexer
	table *lex.Table

	tok  lex.Token
	peek lex.Token

	// lastEnd is the end position of the most recently consumed token, used
	// to close a statement's range over a token already advanced past.
	lastEnd lex.Position

	diags []Diagnostic
}

// New creates a parser over source using table for keyword/separator
// lookup (nil selects lex.DefaultTable()).
func New(source string, table *lex.Table) *Parser {
	if table == nil {
		table = lex.DefaultTable()
	}
	p := &Parser{lx: lex.New(source, table), table: table}
	p.advance()
	p.advance()
	return p
}

// Diagnostics returns accumulated parse errors, plus any lexical errors
// surfaced by the underlying lexer.
func (p *Parser) Diagnostics() []Diagnostic {
	all := make([]Diagnostic, 0, len(p.diags))
	for _, d := range p.lx.Diagnostics() {
		all = append(all, Diagnostic{Range: d.Range, Message: d.Message})
	}
	all = append(all, p.diags...)
	return all
}

func (p *Parser) advance() {
	p.lastEnd = p.tok.Range.End
	p.tok = p.peek
	p.peek = p.lx.Next()
}

func (p *Parser) errorf(rng lex.Range, format string, args ...interface{}) {
	p.diags = append(p.diags, Diagnostic{Range: rng, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) isSep(lit string) bool {
	return p.tok.Kind == lex.Separator && p.tok.Lexeme == lit
}

func (p *Parser) isKeyword(word string) bool {
	return p.tok.Kind == lex.Keyword && strings.EqualFold(p.tok.Lexeme, word)
}

func (p *Parser) expectSep(lit string) bool {
	if p.isSep(lit) {
		p.advance()
		return true
	}
	p.errorf(p.tok.Range, "expected %q, got %s", lit, p.tok)
	return false
}

// resyncStatement advances until the next ';' or '}' (consuming a trailing
// ';') or EOF, so parsing can continue at the next statement boundary.
func (p *Parser) resyncStatement() {
	for p.tok.Kind != lex.EOF {
		if p.isSep(";") {
			p.advance()
			return
		}
		if p.isSep("}") {
			return
		}
		p.advance()
	}
}

// ParseFile parses every script in the source, accumulating diagnostics
// and continuing past errors where possible.
func (p *Parser) ParseFile() []*ast.Script {
	var scripts []*ast.Script
	for p.tok.Kind != lex.EOF {
		if !p.isSep("[") {
			p.errorf(p.tok.Range, "expected script header '[', got %s", p.tok)
			p.resyncStatement()
			continue
		}
		s := p.parseScript()
		if s != nil {
			scripts = append(scripts, s)
		}
	}
	return scripts
}

func (p *Parser) parseScript() *ast.Script {
	start := p.tok.Range.Start
	p.advance() // consume '['
	trigger := p.tok.Lexeme
	if p.tok.Kind != lex.Ident && p.tok.Kind != lex.Keyword {
		p.errorf(p.tok.Range, "expected trigger name, got %s", p.tok)
	} else {
		p.advance()
	}
	if !p.expectSep(",") {
		p.resyncStatement()
		return nil
	}
	name := p.tok.Lexeme
	if p.tok.Kind != lex.Ident {
		p.errorf(p.tok.Range, "expected script name, got %s", p.tok)
	} else {
		p.advance()
	}
	if !p.expectSep("]") {
		p.resyncStatement()
		return nil
	}

	params := p.parseParamList()
	retType := p.parseOptionalReturnTypes()

	body := p.parseStmtsUntilNextHeader()

	end := p.tok.Range.Start
	return ast.NewScript(lex.Range{Start: start, End: end}, trigger, name, params, retType, body)
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if !p.expectSep("(") {
		return params
	}
	for !p.isSep(")") && p.tok.Kind != lex.EOF {
		start := p.tok.Range.Start
		prim, ok := p.parseTypeKeyword()
		if !ok {
			p.errorf(p.tok.Range, "expected parameter type, got %s", p.tok)
			p.resyncStatement()
			return params
		}
		if p.tok.Kind != lex.LocalVar {
			p.errorf(p.tok.Range, "expected parameter name, got %s", p.tok)
			break
		}
		pname := p.tok.Lexeme
		end := p.tok.Range.End
		p.advance()
		params = append(params, ast.NewParam(lex.Range{Start: start, End: end}, prim, pname))
		if p.isSep(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectSep(")")
	return params
}

func (p *Parser) parseOptionalReturnTypes() types.Type {
	if !p.isSep("(") {
		return types.Void()
	}
	p.advance()
	var elems []types.Primitive
	for !p.isSep(")") && p.tok.Kind != lex.EOF {
		prim, ok := p.parseTypeKeyword()
		if !ok {
			p.errorf(p.tok.Range, "expected return type, got %s", p.tok)
			break
		}
		elems = append(elems, prim)
		if p.isSep(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectSep(")")
	return types.Tuple(elems...)
}

func (p *Parser) parseTypeKeyword() (types.Primitive, bool) {
	if p.tok.Kind != lex.Keyword {
		return 0, false
	}
	prim, ok := types.LookupPrimitive(p.tok.Lexeme)
	if !ok {
		return 0, false
	}
	p.advance()
	return prim, true
}

// parseStmtsUntilNextHeader parses top-level script-body statements until
// EOF or the start of the next script header ('[').
func (p *Parser) parseStmtsUntilNextHeader() []ast.Stmt {
	var stmts []ast.Stmt
	for p.tok.Kind != lex.EOF && !p.isSep("[") {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.tok.Range.Start
	if !p.expectSep("{") {
		return ast.NewBlockStmt(lex.Range{Start: start, End: start}, nil)
	}
	var stmts []ast.Stmt
	for !p.isSep("}") && p.tok.Kind != lex.EOF {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	end := p.tok.Range.End
	p.expectSep("}")
	return ast.NewBlockStmt(lex.Range{Start: start, End: end}, stmts)
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("switch"):
		return p.parseSwitch()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.tok.Kind == lex.Keyword:
		if _, ok := types.LookupPrimitive(p.tok.Lexeme); ok {
			return p.parseVarDecl()
		}
	}
	return p.parseExprStmt()
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.tok.Range.Start
	p.advance() // if
	p.expectSep("(")
	cond := p.parseExpr()
	p.expectSep(")")
	then := p.parseBlock()
	var els *ast.BlockStmt
	if p.isKeyword("else") {
		p.advance()
		els = p.parseBlock()
	}
	end := p.lastEnd
	return ast.NewIfStmt(lex.Range{Start: start, End: end}, cond, then, els)
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.tok.Range.Start
	p.advance() // while
	p.expectSep("(")
	cond := p.parseExpr()
	p.expectSep(")")
	body := p.parseBlock()
	end := p.lastEnd
	return ast.NewWhileStmt(lex.Range{Start: start, End: end}, cond, body)
}

func (p *Parser) parseSwitch() ast.Stmt {
	start := p.tok.Range.Start
	p.advance() // switch
	p.expectSep("(")
	subject := p.parseExpr()
	p.expectSep(")")
	p.expectSep("{")

	var cases []*ast.Case
	for !p.isSep("}") && p.tok.Kind != lex.EOF {
		cstart := p.tok.Range.Start
		if p.isKeyword("case") {
			p.advance()
			var values []ast.Expr
			values = append(values, p.parseExpr())
			for p.isSep(",") {
				p.advance()
				values = append(values, p.parseExpr())
			}
			p.expectSep(":")
			body := p.parseCaseBody()
			cases = append(cases, ast.NewCase(lex.Range{Start: cstart, End: p.lastEnd}, values, false, body))
			continue
		}
		if p.isKeyword("default") {
			p.advance()
			p.expectSep(":")
			body := p.parseCaseBody()
			cases = append(cases, ast.NewCase(lex.Range{Start: cstart, End: p.lastEnd}, nil, true, body))
			continue
		}
		p.errorf(p.tok.Range, "expected 'case' or 'default', got %s", p.tok)
		p.resyncStatement()
	}
	end := p.tok.Range.End
	p.expectSep("}")
	return ast.NewSwitchStmt(lex.Range{Start: start, End: end}, subject, cases)
}

// parseCaseBody parses statements up to the next case/default/'}'.
func (p *Parser) parseCaseBody() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.isSep("}") && !p.isKeyword("case") && !p.isKeyword("default") && p.tok.Kind != lex.EOF {
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.tok.Range.Start
	p.advance() // return
	var values []ast.Expr
	if p.isSep("(") {
		p.advance()
		if !p.isSep(")") {
			values = append(values, p.parseExpr())
			for p.isSep(",") {
				p.advance()
				values = append(values, p.parseExpr())
			}
		}
		p.expectSep(")")
	}
	end := p.tok.Range.End
	p.expectSep(";")
	return ast.NewReturnStmt(lex.Range{Start: start, End: end}, values)
}

func (p *Parser) parseVarDecl() ast.Stmt {
	start := p.tok.Range.Start
	prim, _ := p.parseTypeKeyword()
	if p.tok.Kind != lex.LocalVar {
		p.errorf(p.tok.Range, "expected local variable name, got %s", p.tok)
		p.resyncStatement()
		return nil
	}
	name := p.tok.Lexeme
	p.advance()
	var init ast.Expr
	if p.isOperator("=") {
		p.advance()
		init = p.parseExpr()
	}
	end := p.tok.Range.End
	p.expectSep(";")
	return ast.NewVarDeclStmt(lex.Range{Start: start, End: end}, prim, name, init)
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.tok.Range.Start
	x := p.parseExpr()
	end := p.tok.Range.End
	if !p.expectSep(";") {
		p.resyncStatement()
	}
	return ast.NewExprStmt(lex.Range{Start: start, End: end}, x)
}

func (p *Parser) isOperator(lit string) bool {
	return p.tok.Kind == lex.Operator && p.tok.Lexeme == lit
}

// ---- Expressions ----
//
// Precedence, low to high: concat(..) < or(|) < and(&) < equality
// (== !=) < relational (< > <= >=) < additive (+ -) < multiplicative
// (* / %) < unary/primary.

func (p *Parser) parseExpr() ast.Expr { return p.parseConcat() }

func (p *Parser) parseConcat() ast.Expr {
	first := p.parseOr()
	if !p.isOperator("..") {
		return first
	}
	parts := []ast.Expr{first}
	start := first.Range().Start
	for p.isOperator("..") {
		p.advance()
		parts = append(parts, p.parseOr())
	}
	end := parts[len(parts)-1].Range().End
	return ast.NewConcatExpr(lex.Range{Start: start, End: end}, parts)
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.isOperator("|") {
		p.advance()
		right := p.parseAnd()
		left = p.binOp(ast.OpOr, left, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.isOperator("&") {
		p.advance()
		right := p.parseEquality()
		left = p.binOp(ast.OpAnd, left, right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for {
		var kind ast.BinOpKind
		switch {
		case p.isOperator("=="):
			kind = ast.OpEq
		case p.isOperator("!="):
			kind = ast.OpNe
		default:
			return left
		}
		p.advance()
		right := p.parseRelational()
		left = p.binOp(kind, left, right)
	}
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for {
		var kind ast.BinOpKind
		switch {
		case p.isOperator("<"):
			kind = ast.OpLt
		case p.isOperator(">"):
			kind = ast.OpGt
		case p.isOperator("<="):
			kind = ast.OpLe
		case p.isOperator(">="):
			kind = ast.OpGe
		default:
			return left
		}
		p.advance()
		right := p.parseAdditive()
		left = p.binOp(kind, left, right)
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for {
		var kind ast.BinOpKind
		switch {
		case p.isOperator("+"):
			kind = ast.OpAdd
		case p.isOperator("-"):
			kind = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		left = p.binOp(kind, left, right)
	}
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parsePrimary()
	for {
		var kind ast.BinOpKind
		switch {
		case p.isOperator("*"):
			kind = ast.OpMul
		case p.isOperator("/"):
			kind = ast.OpDiv
		case p.isOperator("%"):
			kind = ast.OpMod
		default:
			return left
		}
		p.advance()
		right := p.parsePrimary()
		left = p.binOp(kind, left, right)
	}
}

func (p *Parser) binOp(kind ast.BinOpKind, l, r ast.Expr) ast.Expr {
	return ast.NewBinOpExpr(lex.Range{Start: l.Range().Start, End: r.Range().End}, kind, l, r)
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.tok.Range
	switch p.tok.Kind {
	case lex.IntLit:
		lit := p.tok.Lexeme
		p.advance()
		v, err := parseIntLiteral(lit)
		if err != nil {
			p.errorf(start, "malformed int literal %q", lit)
		}
		return ast.NewIntLit(start, v)

	case lex.LongLit:
		lit := p.tok.Lexeme
		p.advance()
		v, err := parseLongLiteral(lit)
		if err != nil {
			p.errorf(start, "malformed long literal %q", lit)
		}
		return ast.NewLongLit(start, v)

	case lex.StringLit:
		lit := p.tok.Lexeme
		p.advance()
		return ast.NewStringLit(start, lit)

	case lex.BoolLit:
		v := p.tok.Lexeme == "true"
		p.advance()
		return ast.NewBoolLit(start, v)

	case lex.LocalVar:
		name := p.tok.Lexeme
		p.advance()
		return ast.NewVarRefExpr(start, ast.VarLocal, name)
	case lex.PlayerVar:
		name := p.tok.Lexeme
		p.advance()
		return ast.NewVarRefExpr(start, ast.VarPlayer, name)
	case lex.PlayerBit:
		name := p.tok.Lexeme
		p.advance()
		return ast.NewVarRefExpr(start, ast.VarPlayerBit, name)
	case lex.ClientInt:
		name := p.tok.Lexeme
		p.advance()
		return ast.NewVarRefExpr(start, ast.VarClientInt, name)
	case lex.ClientStr:
		name := p.tok.Lexeme
		p.advance()
		return ast.NewVarRefExpr(start, ast.VarClientString, name)

	case lex.ConstRef:
		name := p.tok.Lexeme
		p.advance()
		return ast.NewConstRefExpr(start, name)

	case lex.GosubName:
		name := p.tok.Lexeme
		p.advance()
		args := p.parseArgList()
		end := p.lastEnd
		return ast.NewGosubExpr(lex.Range{Start: start.Start, End: end}, name, args)

	case lex.Ident:
		name := p.tok.Lexeme
		p.advance()
		if p.isSep("(") {
			args := p.parseArgList()
			end := p.lastEnd
			return ast.NewCommandExpr(lex.Range{Start: start.Start, End: end}, name, args)
		}
		p.errorf(start, "unexpected identifier %q (expected a command call)", name)
		return ast.NewDynamicExpr(start)

	case lex.Separator:
		if p.tok.Lexeme == "(" {
			p.advance()
			inner := p.parseExpr()
			p.expectSep(")")
			return inner
		}
	}

	p.errorf(p.tok.Range, "unexpected token %s in expression", p.tok)
	tok := p.tok
	if p.tok.Kind != lex.EOF {
		p.advance()
	}
	return ast.NewDynamicExpr(tok.Range)
}

func (p *Parser) parseArgList() []ast.Expr {
	var args []ast.Expr
	if !p.expectSep("(") {
		return args
	}
	if !p.isSep(")") {
		args = append(args, p.parseExpr())
		for p.isSep(",") {
			p.advance()
			args = append(args, p.parseExpr())
		}
	}
	p.expectSep(")")
	return args
}

func parseIntLiteral(lit string) (int32, error) {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		v, err := strconv.ParseInt(lit[2:], 16, 64)
		return int32(v), err
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	return int32(v), err
}

func parseLongLiteral(lit string) (int64, error) {
	return strconv.ParseInt(lit, 10, 64)
}
