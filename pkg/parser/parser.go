// Package parser implements the setker recursive-descent parser: it
// turns a token stream into an AST per the precedence ladder
// assignment > or > and > equality > comparison > additive >
// multiplicative > unary > call > primary.
package parser

import (
	"github.com/thomasrohde/setker/pkg/ast"
	"github.com/thomasrohde/setker/pkg/diagnostics"
	"github.com/thomasrohde/setker/pkg/lexer"

	"fortio.org/log"
)

// parser carries its cursor as an explicit field so scanning is
// reentrant and test-friendly.
type parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse consumes a token stream and returns the program AST. The first
// syntax error halts parsing immediately: the returned diagnostics slice
// has at most one entry.
func Parse(tokens []lexer.Token) (*ast.Program, []diagnostics.Diagnostic) {
	p := &parser{tokens: tokens}
	var stmts []ast.Stmt
	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, []diagnostics.Diagnostic{toDiagnostic(err)}
		}
		stmts = append(stmts, stmt)
	}
	log.LogVf("parsed %d top-level statements", len(stmts))
	return &ast.Program{Statements: stmts}, nil
}

func toDiagnostic(err error) diagnostics.Diagnostic {
	if d, ok := err.(diagnostics.Diagnostic); ok {
		return d
	}
	return diagnostics.New(diagnostics.ESyntax, 0, err.Error())
}

// --- cursor helpers ---

func (p *parser) current() lexer.Token { return p.tokens[p.pos] }

func (p *parser) atEnd() bool { return p.current().Type == lexer.EOF }

func (p *parser) check(t lexer.TokenType) bool { return p.current().Type == t }

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *parser) previous() lexer.Token { return p.tokens[p.pos-1] }

func (p *parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) expect(t lexer.TokenType, expectation string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorAt(p.current(), expectation)
}

func (p *parser) errorAt(tok lexer.Token, expectation string) error {
	if tok.Type == lexer.EOF {
		return diagnostics.New(diagnostics.ESyntax, tok.Line, "Error at end: "+expectation)
	}
	return diagnostics.New(diagnostics.ESyntax, tok.Line, "Error at '"+tok.Lexeme+"': "+expectation)
}

// --- statements ---

// parseStatement dispatches every statement form. setker's grammar has
// no separate declaration production: var/fun are ordinary statements
// usable anywhere a statement is, including as an if/while body. The
// one exception is a `for` loop's body, checked explicitly in
// parseForStatement.
func (p *parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.match(lexer.Return):
		return p.parseReturnStatement()
	case p.match(lexer.Fun):
		return p.parseFunDecl()
	case p.match(lexer.For):
		return p.parseForStatement()
	case p.match(lexer.If):
		return p.parseIfStatement()
	case p.match(lexer.While):
		return p.parseWhileStatement()
	case p.match(lexer.LeftBrace):
		return p.parseBlock()
	case p.match(lexer.Var):
		return p.parseVarDecl()
	case p.match(lexer.Print):
		return p.parsePrintStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *parser) parseBlock() (*ast.Block, error) {
	line := p.previous().Line
	var stmts []ast.Stmt
	for !p.check(lexer.RightBrace) && !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(lexer.RightBrace, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return &ast.Block{Statements: stmts, Ln: line}, nil
}

func (p *parser) parseVarDecl() (ast.Stmt, error) {
	line := p.previous().Line
	name, err := p.expect(lexer.Identifier, "Expect variable name.")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.match(lexer.Equal) {
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Semicolon, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Name: name.Lexeme, Init: init, Ln: line}, nil
}

func (p *parser) parsePrintStatement() (ast.Stmt, error) {
	line := p.previous().Line
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Expr: expr, Ln: line}, nil
}

func (p *parser) parseReturnStatement() (ast.Stmt, error) {
	line := p.previous().Line
	var value ast.Expr
	if !p.check(lexer.Semicolon) {
		var err error
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Semicolon, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: value, Ln: line}, nil
}

func (p *parser) parseFunDecl() (ast.Stmt, error) {
	line := p.previous().Line
	name, err := p.expect(lexer.Identifier, "Expect function name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LeftParen, "Expect '(' after function name."); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(lexer.RightParen) {
		for {
			param, err := p.expect(lexer.Identifier, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Lexeme)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.RightParen, "Expect ')' after parameters."); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LeftBrace, "Expect '{' before function body."); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunStmt{Name: name.Lexeme, Params: params, Body: body, Ln: line}, nil
}

func (p *parser) parseIfStatement() (ast.Stmt, error) {
	line := p.previous().Line
	if _, err := p.expect(lexer.LeftParen, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RightParen, "Expect ')' after if condition."); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var elseBranch ast.Stmt
	if p.match(lexer.Else) {
		elseBranch, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBranch, Ln: line}, nil
}

func (p *parser) parseWhileStatement() (ast.Stmt, error) {
	line := p.previous().Line
	if _, err := p.expect(lexer.LeftParen, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RightParen, "Expect ')' after while condition."); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Ln: line}, nil
}

// parseForStatement desugars `for (init; cond; incr) body` into an outer
// block holding init followed by a WhileStmt whose body wraps incr. The
// body must not itself be a bare VarDecl.
func (p *parser) parseForStatement() (ast.Stmt, error) {
	line := p.previous().Line
	if _, err := p.expect(lexer.LeftParen, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var init ast.Stmt
	if !p.match(lexer.Semicolon) {
		var err error
		init, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}

	var cond ast.Expr
	if !p.check(lexer.Semicolon) {
		var err error
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	} else {
		cond = &ast.BoolLit{Value: true, Ln: line}
	}
	if _, err := p.expect(lexer.Semicolon, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var incr ast.Expr
	if !p.check(lexer.RightParen) {
		var err error
		incr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RightParen, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, ok := body.(*ast.VarDecl); ok {
		return nil, diagnostics.New(diagnostics.ESyntax, line, "Error: for loop body must not be a variable declaration.")
	}

	if incr != nil {
		body = &ast.Block{Statements: []ast.Stmt{body, &ast.ExprStmt{Expr: incr, Ln: line}}, Ln: line}
	}
	loop := ast.Stmt(&ast.WhileStmt{Cond: cond, Body: body, Ln: line})
	if init == nil {
		return loop, nil
	}
	return &ast.Block{Statements: []ast.Stmt{init, loop}, Ln: line}, nil
}

func (p *parser) parseExpressionStatement() (ast.Stmt, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	line := expr.Line()
	p.match(lexer.Semicolon) // trailing ';' is optional for bare expression statements
	return &ast.ExprStmt{Expr: expr, Ln: line}, nil
}

// --- expressions ---

func (p *parser) parseExpression() (ast.Expr, error) { return p.parseAssignment() }

func (p *parser) parseAssignment() (ast.Expr, error) {
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.Equal) {
		eq := p.previous()
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		target, ok := expr.(*ast.Variable)
		if !ok {
			return nil, diagnostics.New(diagnostics.ESyntax, eq.Line, "Error: Invalid assignment target.")
		}
		return &ast.Assign{Name: target.Name, Value: value, Ln: eq.Line}, nil
	}
	return expr, nil
}

func (p *parser) parseOr() (ast.Expr, error) {
	expr, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.Or) {
		op := p.previous()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Op: "or", Left: expr, Right: right, Ln: op.Line}
	}
	return expr, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.And) {
		op := p.previous()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Op: "and", Left: expr, Right: right, Ln: op.Line}
	}
	return expr, nil
}

func (p *parser) parseEquality() (ast.Expr, error) {
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.EqualEqual) || p.check(lexer.BangEqual) {
		op := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Ln: op.Line}
	}
	return expr, nil
}

func (p *parser) parseComparison() (ast.Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.Less) || p.check(lexer.LessEqual) || p.check(lexer.Greater) || p.check(lexer.GreaterEqual) {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Ln: op.Line}
	}
	return expr, nil
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.Plus) || p.check(lexer.Minus) {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Ln: op.Line}
	}
	return expr, nil
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.Star) || p.check(lexer.Slash) || p.check(lexer.Percent) {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op.Lexeme, Left: expr, Right: right, Ln: op.Line}
	}
	return expr, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.check(lexer.Bang) || p.check(lexer.Minus) {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op.Lexeme, Operand: operand, Ln: op.Line}, nil
	}
	return p.parseCall()
}

// parseCall handles zero or more call layers chained onto a primary
// expression. Each '(' layer's callee name is taken from the preceding
// node's lexical name — a call target must resolve to a bare identifier,
// so `(getFunc())()` is not supported.
func (p *parser) parseCall() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.LeftParen) {
		line := p.previous().Line
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		expr = &ast.Call{Callee: calleeName(expr), Args: args, Ln: line}
	}
	return expr, nil
}

func calleeName(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.Variable:
		return v.Name
	case *ast.Call:
		return v.Callee
	default:
		return ""
	}
}

func (p *parser) parseArguments() ([]ast.Expr, error) {
	var args []ast.Expr
	if !p.check(lexer.RightParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.RightParen, "Expect ')' after arguments."); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()
	switch tok.Type {
	case lexer.Number:
		p.advance()
		return &ast.NumberLit{Value: tok.Literal.(float64), Ln: tok.Line}, nil
	case lexer.String:
		p.advance()
		return &ast.StringLit{Value: tok.Literal.(string), Ln: tok.Line}, nil
	case lexer.True:
		p.advance()
		return &ast.BoolLit{Value: true, Ln: tok.Line}, nil
	case lexer.False:
		p.advance()
		return &ast.BoolLit{Value: false, Ln: tok.Line}, nil
	case lexer.Nil:
		p.advance()
		return &ast.NilLit{Ln: tok.Line}, nil
	case lexer.Identifier:
		p.advance()
		return &ast.Variable{Name: tok.Lexeme, Ln: tok.Line}, nil
	case lexer.LeftParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RightParen, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.Group{Inner: inner, Ln: tok.Line}, nil
	default:
		return nil, p.errorAt(tok, "Expect expression.")
	}
}
