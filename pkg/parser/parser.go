// Package parser implements a recursive descent parser for MiniC
package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/layout"
	"github.com/raymyers/minicc/pkg/lexer"
)

// Parser parses MiniC source code into an AST
type Parser struct {
	toks      []lexer.Token
	pos       int
	curToken  lexer.Token
	peekToken lexer.Token
	errors    diag.List
	lastErr   diag.Pos
	classes   map[string]bool // class names usable as bare type names
}

// New creates a new Parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		toks:    l.Tokens(),
		classes: make(map[string]bool),
	}
	// Class names may be used before their declaration
	for i := 0; i+1 < len(p.toks); i++ {
		if p.toks[i].Type == lexer.TokenClass && p.toks[i+1].Type == lexer.TokenIdent {
			p.classes[p.toks[i+1].Literal] = true
		}
	}
	p.curToken = p.tokenAt(0)
	p.peekToken = p.tokenAt(1)
	return p
}

// Parse parses a whole translation unit
func Parse(src string) (*ast.Program, diag.List) {
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	return prog, p.Errors()
}

func (p *Parser) tokenAt(i int) lexer.Token {
	if i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1] // EOF
}

func (p *Parser) nextToken() {
	if p.curToken.Type == lexer.TokenEOF {
		return
	}
	p.pos++
	p.curToken = p.tokenAt(p.pos)
	p.peekToken = p.tokenAt(p.pos + 1)
}

// peekAt returns the token n positions after the current one
func (p *Parser) peekAt(n int) lexer.Token {
	return p.tokenAt(p.pos + n)
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() diag.List {
	return p.errors
}

// addError records a syntax error at the current token. Only the first error
// at a given position is kept, so one mistake does not cascade.
func (p *Parser) addError(msg string) {
	pos := p.curToken.Pos()
	if len(p.errors) > 0 && pos == p.lastErr {
		return
	}
	p.lastErr = pos
	p.errors.Add(diag.SyntaxError, pos, "%s", msg)
}

func (p *Parser) unexpected(what string) {
	tok := p.curToken
	switch tok.Type {
	case lexer.TokenIdent, lexer.TokenInt:
		p.addError(fmt.Sprintf("expected %s, got %s %q", what, tok.Type, tok.Literal))
	case lexer.TokenIllegal:
		p.addError(fmt.Sprintf("illegal token %q", tok.Literal))
	default:
		p.addError(fmt.Sprintf("expected %s, got %s", what, tok.Type))
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.unexpected(t.String())
	return false
}

func (p *Parser) expectIdent() (lexer.Token, bool) {
	tok := p.curToken
	if !p.curTokenIs(lexer.TokenIdent) {
		p.unexpected("identifier")
		return tok, false
	}
	p.nextToken()
	return tok, true
}

// synchronize skips to just after the next ';' or up to the next '}' so
// parsing can resume after an error. It always consumes at least one token
// unless it is already at a '}' or EOF.
func (p *Parser) synchronize(start int) {
	if p.pos == start && !p.curTokenIs(lexer.TokenRBrace) {
		p.nextToken()
	}
	for !p.curTokenIs(lexer.TokenEOF) {
		switch p.curToken.Type {
		case lexer.TokenSemicolon:
			p.nextToken()
			return
		case lexer.TokenRBrace:
			return
		}
		p.nextToken()
	}
}

// ParseProgram parses includes followed by top-level declarations
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.curTokenIs(lexer.TokenInclude) {
		p.nextToken()
		if !p.curTokenIs(lexer.TokenString) {
			p.unexpected("include file name")
			continue
		}
		prog.Includes = append(prog.Includes, p.curToken.Literal)
		p.nextToken()
	}
	for !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenInclude) {
			p.addError("#include must precede all declarations")
			p.nextToken()
			if p.curTokenIs(lexer.TokenString) {
				p.nextToken()
			}
			continue
		}
		start := p.pos
		if d := p.parseTopLevel(); d != nil {
			prog.Decls = append(prog.Decls, d)
			continue
		}
		p.synchronize(start)
		if p.curTokenIs(lexer.TokenRBrace) {
			p.nextToken()
			if p.curTokenIs(lexer.TokenSemicolon) {
				p.nextToken()
			}
		}
	}
	return prog
}

func (p *Parser) parseTopLevel() ast.Decl {
	switch {
	case p.curTokenIs(lexer.TokenStruct) && p.peekTokenIs(lexer.TokenIdent) &&
		p.peekAt(2).Type == lexer.TokenLBrace:
		return p.parseStructDecl()
	case p.curTokenIs(lexer.TokenClass) && p.peekTokenIs(lexer.TokenIdent) &&
		(p.peekAt(2).Type == lexer.TokenLBrace || p.peekAt(2).Type == lexer.TokenExtends):
		return p.parseClassDecl()
	}

	if !p.isTypeStart() {
		p.unexpected("declaration")
		return nil
	}
	typ, ok := p.parseType()
	if !ok {
		return nil
	}
	name, ok := p.expectIdent()
	if !ok {
		return nil
	}
	if p.curTokenIs(lexer.TokenLParen) {
		fn := p.parseFunction(typ, name)
		if fn != nil && fn.Body == nil && !p.expect(lexer.TokenSemicolon) {
			return nil
		}
		return fn
	}
	v := p.parseVarRest(typ, name, ast.Global)
	if v == nil || !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	return &ast.GlobalDecl{Var: v}
}

func (p *Parser) parseStructDecl() ast.Decl {
	pos := p.curToken.Pos()
	p.nextToken() // consume 'struct'
	name := p.curToken.Literal
	p.nextToken()
	p.nextToken() // consume '{'

	d := &ast.StructDecl{Pos: pos, Name: name}
	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		f := p.parseVarDecl(ast.FieldVar)
		if f == nil {
			return nil
		}
		d.Fields = append(d.Fields, f)
	}
	if len(d.Fields) == 0 {
		p.addError(fmt.Sprintf("struct %s has no fields", name))
		return nil
	}
	if !p.expect(lexer.TokenRBrace) || !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	return d
}

func (p *Parser) parseClassDecl() ast.Decl {
	pos := p.curToken.Pos()
	p.nextToken() // consume 'class'
	d := &ast.ClassDecl{Pos: pos, Name: p.curToken.Literal}
	p.nextToken()

	if p.curTokenIs(lexer.TokenExtends) {
		p.nextToken()
		d.ParentPos = p.curToken.Pos()
		parent, ok := p.expectIdent()
		if !ok {
			return nil
		}
		d.Parent = parent.Literal
	}
	if !p.expect(lexer.TokenLBrace) {
		return nil
	}

	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		if !p.isTypeStart() {
			p.unexpected("field or method declaration")
			return nil
		}
		typ, ok := p.parseType()
		if !ok {
			return nil
		}
		name, ok := p.expectIdent()
		if !ok {
			return nil
		}
		if p.curTokenIs(lexer.TokenLParen) {
			m := p.parseFunction(typ, name)
			if m == nil {
				return nil
			}
			if m.Body == nil {
				p.addError(fmt.Sprintf("method %s.%s must have a body", d.Name, m.Name))
				return nil
			}
			m.Class = d.Name
			d.Methods = append(d.Methods, m)
			continue
		}
		f := p.parseVarRest(typ, name, ast.FieldVar)
		if f == nil || !p.expect(lexer.TokenSemicolon) {
			return nil
		}
		d.Fields = append(d.Fields, f)
	}
	if !p.expect(lexer.TokenRBrace) {
		return nil
	}
	// A trailing ';' after the class body is tolerated
	if p.curTokenIs(lexer.TokenSemicolon) {
		p.nextToken()
	}
	return d
}

// parseFunction parses the parameter list and optional body after "type name"
func (p *Parser) parseFunction(ret layout.Type, name lexer.Token) *ast.FunDecl {
	fn := &ast.FunDecl{Pos: name.Pos(), Name: name.Literal, Return: ret}
	p.nextToken() // consume '('
	if !p.curTokenIs(lexer.TokenRParen) {
		for {
			if !p.isTypeStart() {
				p.unexpected("parameter type")
				return nil
			}
			typ, ok := p.parseType()
			if !ok {
				return nil
			}
			pname, ok := p.expectIdent()
			if !ok {
				return nil
			}
			prm := p.parseVarRest(typ, pname, ast.Param)
			if prm == nil {
				return nil
			}
			fn.Params = append(fn.Params, prm)
			if !p.curTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	if p.curTokenIs(lexer.TokenLBrace) {
		fn.Body = p.parseBlock()
	}
	return fn
}

func (p *Parser) isTypeStart() bool {
	switch p.curToken.Type {
	case lexer.TokenInt_, lexer.TokenChar_, lexer.TokenVoid, lexer.TokenStruct, lexer.TokenClass:
		return true
	case lexer.TokenIdent:
		return p.classes[p.curToken.Literal]
	}
	return false
}

// parseType parses a base type followed by any number of '*'
func (p *Parser) parseType() (layout.Type, bool) {
	var typ layout.Type
	switch p.curToken.Type {
	case lexer.TokenInt_:
		typ = layout.Int()
	case lexer.TokenChar_:
		typ = layout.Char()
	case lexer.TokenVoid:
		typ = layout.Void()
	case lexer.TokenStruct, lexer.TokenClass:
		isClass := p.curTokenIs(lexer.TokenClass)
		p.nextToken()
		if !p.curTokenIs(lexer.TokenIdent) {
			p.unexpected("type name")
			return nil, false
		}
		if isClass {
			typ = layout.Class(p.curToken.Literal)
		} else {
			typ = layout.Struct(p.curToken.Literal)
		}
	case lexer.TokenIdent:
		if !p.classes[p.curToken.Literal] {
			p.unexpected("type")
			return nil, false
		}
		typ = layout.Class(p.curToken.Literal)
	default:
		p.unexpected("type")
		return nil, false
	}
	p.nextToken()
	for p.curTokenIs(lexer.TokenStar) {
		typ = layout.Pointer(typ)
		p.nextToken()
	}
	return typ, true
}

// parseVarDecl parses "type name dims ;"
func (p *Parser) parseVarDecl(kind ast.VarKind) *ast.VarDecl {
	typ, ok := p.parseType()
	if !ok {
		return nil
	}
	name, ok := p.expectIdent()
	if !ok {
		return nil
	}
	v := p.parseVarRest(typ, name, kind)
	if v == nil || !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	return v
}

// parseVarRest parses the array dimensions after a declared name
func (p *Parser) parseVarRest(typ layout.Type, name lexer.Token, kind ast.VarKind) *ast.VarDecl {
	var dims []int
	for p.curTokenIs(lexer.TokenLBracket) {
		p.nextToken()
		if !p.curTokenIs(lexer.TokenInt) {
			p.unexpected("array length")
			return nil
		}
		n, err := strconv.Atoi(p.curToken.Literal)
		if err != nil || n <= 0 {
			p.addError(fmt.Sprintf("invalid array length %s", p.curToken.Literal))
			return nil
		}
		dims = append(dims, n)
		p.nextToken()
		if !p.expect(lexer.TokenRBracket) {
			return nil
		}
	}
	for i := len(dims) - 1; i >= 0; i-- {
		typ = layout.Array(typ, dims[i])
	}
	return &ast.VarDecl{Pos: name.Pos(), Name: name.Literal, Type: typ, Kind: kind}
}

func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Pos: p.curToken.Pos()}
	p.nextToken() // consume '{'

	for p.isTypeStart() {
		start := p.pos
		if v := p.parseVarDecl(ast.Local); v != nil {
			block.Decls = append(block.Decls, v)
		} else {
			p.synchronize(start)
		}
	}

	for !p.curTokenIs(lexer.TokenRBrace) && !p.curTokenIs(lexer.TokenEOF) {
		start := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		} else {
			p.synchronize(start)
		}
	}

	p.expect(lexer.TokenRBrace)
	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	pos := p.curToken.Pos()
	switch p.curToken.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenReturn:
		p.nextToken()
		ret := &ast.Return{Pos: pos}
		if !p.curTokenIs(lexer.TokenSemicolon) {
			ret.Value = p.parseExpression()
			if ret.Value == nil {
				return nil
			}
		}
		if !p.expect(lexer.TokenSemicolon) {
			return nil
		}
		return ret
	case lexer.TokenIf:
		p.nextToken()
		cond := p.parseCondition()
		if cond == nil {
			return nil
		}
		then := p.parseStatement()
		if then == nil {
			return nil
		}
		s := &ast.If{Pos: pos, Cond: cond, Then: then}
		if p.curTokenIs(lexer.TokenElse) {
			p.nextToken()
			if s.Else = p.parseStatement(); s.Else == nil {
				return nil
			}
		}
		return s
	case lexer.TokenWhile:
		p.nextToken()
		cond := p.parseCondition()
		if cond == nil {
			return nil
		}
		body := p.parseStatement()
		if body == nil {
			return nil
		}
		return &ast.While{Pos: pos, Cond: cond, Body: body}
	case lexer.TokenBreak, lexer.TokenContinue:
		isBreak := p.curTokenIs(lexer.TokenBreak)
		p.nextToken()
		if !p.expect(lexer.TokenSemicolon) {
			return nil
		}
		if isBreak {
			return &ast.Break{Pos: pos}
		}
		return &ast.Continue{Pos: pos}
	}

	if p.isTypeStart() {
		p.addError("declarations must precede statements in a block")
		return nil
	}
	x := p.parseExpression()
	if x == nil || !p.expect(lexer.TokenSemicolon) {
		return nil
	}
	return &ast.ExprStmt{X: x}
}

// parseCondition parses "( exp )"
func (p *Parser) parseCondition() ast.Expr {
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil || !p.expect(lexer.TokenRParen) {
		return nil
	}
	return cond
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseBinary(0)
	if left == nil || !p.curTokenIs(lexer.TokenAssign) {
		return left
	}
	pos := p.curToken.Pos()
	p.nextToken()
	right := p.parseAssignment()
	if right == nil {
		return nil
	}
	return at(&ast.Assign{Target: left, Value: right}, pos)
}

// binaryLevels lists binary operators from lowest to highest precedence
var binaryLevels = []map[lexer.TokenType]ast.BinaryOp{
	{lexer.TokenOr: ast.OpOr},
	{lexer.TokenAnd: ast.OpAnd},
	{lexer.TokenEq: ast.OpEq, lexer.TokenNe: ast.OpNe},
	{lexer.TokenLt: ast.OpLt, lexer.TokenLe: ast.OpLe, lexer.TokenGt: ast.OpGt, lexer.TokenGe: ast.OpGe},
	{lexer.TokenPlus: ast.OpAdd, lexer.TokenMinus: ast.OpSub},
	{lexer.TokenStar: ast.OpMul, lexer.TokenSlash: ast.OpDiv, lexer.TokenPercent: ast.OpMod},
}

// parseBinary parses left-associative binary operators at the given level
func (p *Parser) parseBinary(level int) ast.Expr {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left := p.parseBinary(level + 1)
	for left != nil {
		op, ok := binaryLevels[level][p.curToken.Type]
		if !ok {
			break
		}
		pos := p.curToken.Pos()
		p.nextToken()
		right := p.parseBinary(level + 1)
		if right == nil {
			return nil
		}
		left = at(&ast.Binary{Op: op, Left: left, Right: right}, pos)
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.curToken.Pos()
	switch p.curToken.Type {
	case lexer.TokenMinus, lexer.TokenStar, lexer.TokenAmpersand:
		var op ast.UnaryOp
		switch p.curToken.Type {
		case lexer.TokenMinus:
			op = ast.OpNeg
		case lexer.TokenStar:
			op = ast.OpDeref
		default:
			op = ast.OpAddrOf
		}
		p.nextToken()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return at(&ast.Unary{Op: op, Operand: operand}, pos)
	case lexer.TokenPlus:
		p.nextToken()
		return p.parseUnary()
	case lexer.TokenSizeof:
		p.nextToken()
		if !p.expect(lexer.TokenLParen) {
			return nil
		}
		typ, ok := p.parseType()
		if !ok || !p.expect(lexer.TokenRParen) {
			return nil
		}
		return at(&ast.Sizeof{Of: typ}, pos)
	case lexer.TokenLParen:
		if p.isTypeAt(1) {
			p.nextToken()
			typ, ok := p.parseType()
			if !ok || !p.expect(lexer.TokenRParen) {
				return nil
			}
			operand := p.parseUnary()
			if operand == nil {
				return nil
			}
			return at(&ast.Cast{To: typ, Expr: operand}, pos)
		}
	}
	return p.parsePostfix()
}

// isTypeAt reports whether the token n positions ahead starts a type
func (p *Parser) isTypeAt(n int) bool {
	tok := p.peekAt(n)
	switch tok.Type {
	case lexer.TokenInt_, lexer.TokenChar_, lexer.TokenVoid, lexer.TokenStruct, lexer.TokenClass:
		return true
	case lexer.TokenIdent:
		return p.classes[tok.Literal]
	}
	return false
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for x != nil {
		switch p.curToken.Type {
		case lexer.TokenLBracket:
			pos := p.curToken.Pos()
			p.nextToken()
			idx := p.parseExpression()
			if idx == nil || !p.expect(lexer.TokenRBracket) {
				return nil
			}
			x = at(&ast.Index{Array: x, Index: idx}, pos)
		case lexer.TokenDot:
			p.nextToken()
			name, ok := p.expectIdent()
			if !ok {
				return nil
			}
			if p.curTokenIs(lexer.TokenLParen) {
				args, ok := p.parseArgs()
				if !ok {
					return nil
				}
				x = at(&ast.MethodCall{Receiver: x, Name: name.Literal, Args: args}, name.Pos())
			} else {
				x = at(&ast.FieldAccess{Receiver: x, Name: name.Literal}, name.Pos())
			}
		default:
			return x
		}
	}
	return x
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.curToken
	switch tok.Type {
	case lexer.TokenIdent:
		p.nextToken()
		if p.curTokenIs(lexer.TokenLParen) {
			args, ok := p.parseArgs()
			if !ok {
				return nil
			}
			return at(&ast.Call{Name: tok.Literal, Args: args}, tok.Pos())
		}
		return at(&ast.VarRef{Name: tok.Literal}, tok.Pos())
	case lexer.TokenInt:
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil || v > math.MaxInt32 {
			p.addError(fmt.Sprintf("integer literal %s out of range", tok.Literal))
			return nil
		}
		p.nextToken()
		return at(&ast.IntLit{Value: int32(v)}, tok.Pos())
	case lexer.TokenChar:
		p.nextToken()
		return at(&ast.CharLit{Value: tok.Literal[0]}, tok.Pos())
	case lexer.TokenString:
		p.nextToken()
		return at(&ast.StringLit{Value: tok.Literal}, tok.Pos())
	case lexer.TokenLParen:
		p.nextToken()
		x := p.parseExpression()
		if x == nil || !p.expect(lexer.TokenRParen) {
			return nil
		}
		return x
	}
	p.unexpected("expression")
	return nil
}

// parseArgs parses "( [exp {, exp}] )"
func (p *Parser) parseArgs() ([]ast.Expr, bool) {
	p.nextToken() // consume '('
	var args []ast.Expr
	if p.curTokenIs(lexer.TokenRParen) {
		p.nextToken()
		return args, true
	}
	for {
		a := p.parseExpression()
		if a == nil {
			return nil, false
		}
		args = append(args, a)
		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	return args, p.expect(lexer.TokenRParen)
}

func at[E ast.Expr](e E, pos diag.Pos) E {
	e.SetPos(pos)
	return e
}
