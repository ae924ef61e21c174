// Package parser turns a token sequence into an AST, resolving
// operator precedence and recovering from errors in panic mode so
// that one invocation can surface more than one diagnostic.
package parser

import (
	"github.com/skx/signalc/ast"
	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/token"
)

// precedence lists binary operators from tightest-binding to
// loosest-binding; within a level, reduction is strictly left to
// right, including the slightly unusual grouping of comparisons ahead
// of bitwise and/or/xor.
var precedence = [][]ast.BinaryOperator{
	{ast.Power, ast.ShiftLeft, ast.ShiftRight},
	{ast.Multiply, ast.Divide, ast.Remainder},
	{ast.Add, ast.Subtract},
	{ast.Equal, ast.NotEqual, ast.GreaterThan, ast.GreaterThanOrEqual, ast.LessThan, ast.LessThanOrEqual},
	{ast.And, ast.Or, ast.Xor},
}

// ParseModule parses every function in a module, resynchronizing at
// `int`/`void` after a function-level error so that later functions
// can still be discovered.
func ParseModule(tokens []token.Token) ([]ast.Function, diag.Diagnostics) {
	it := newTokenIterator(tokens)

	var module []ast.Function
	var errs diag.Diagnostics

	for it.consume().Type != token.EOF {
		it.moveBack()

		fn, fnErrs := parseFunction(it)
		if fnErrs != nil {
			errs = errs.Append(fnErrs)

		resync:
			for {
				switch it.consume().Type {
				case token.Int, token.Void, token.EOF:
					it.moveBack()
					break resync
				}
			}
			continue
		}
		module = append(module, fn)
	}

	if errs != nil {
		return nil, errs
	}
	return module, nil
}

func parseFunction(it *tokenIterator) (ast.Function, diag.Diagnostics) {
	var fn ast.Function

	switch it.consume().Type {
	case token.Void:
		fn.ReturnsValue = false
	case token.Int:
		fn.ReturnsValue = true
	default:
		return fn, prevErr(it, "Expected function return type: `int` or `void`")
	}

	nameTok := it.consume()
	if nameTok.Type != token.Identifier {
		return fn, prevErr(it, "Expected function name")
	}
	fn.Name = nameTok.Literal
	fn.NameLoc = it.prevLoc()

	if it.consume().Type != token.OpenParen {
		return fn, prevErr(it, "Expected `(`")
	}

	for {
		tok := it.consume()
		if tok.Type != token.Identifier {
			it.moveBack()
			break
		}
		fn.ArgumentNames = append(fn.ArgumentNames, tok.Literal)

		if it.consume().Type != token.Comma {
			it.moveBack()
			break
		}
	}

	if it.consume().Type != token.CloseParen {
		return fn, prevErr(it, "Expected `)`")
	}

	body, errs := parseBlock(it)
	if errs != nil {
		return fn, errs
	}
	fn.Body = body
	return fn, nil
}

// parseBlock parses a `{ ... }` sequence of statements, recovering
// from a bad statement by skipping to the next `;` (for simple
// statements) or `}` (for if/while, which are block-headed), then
// continuing to parse whatever follows.
func parseBlock(it *tokenIterator) ([]ast.Statement, diag.Diagnostics) {
	if it.consume().Type != token.OpenBrace {
		return nil, prevErr(it, "Expected `{`")
	}

	var statements []ast.Statement
	var errs diag.Diagnostics

loop:
	for {
		tok := it.consume()
		isBlockStatement := false
		switch tok.Type {
		case token.CloseBrace, token.EOF:
			break loop
		case token.If, token.While:
			isBlockStatement = true
		}
		it.moveBack()

		stmt, stmtErrs := parseStatement(it)
		if stmtErrs != nil {
			errs = errs.Append(stmtErrs)

			// The failing statement may already have consumed its own
			// terminator; only skip ahead if it has not.
			t := it.tokenOrEOF(it.position - 1).Type
			for !(t == token.EOF ||
				(t == token.CloseBrace && isBlockStatement) ||
				(t == token.Semicolon && !isBlockStatement)) {
				t = it.consume().Type
			}
			continue
		}
		statements = append(statements, stmt)
	}

	if errs != nil {
		return nil, errs
	}
	return statements, nil
}

func parseIfStatement(it *tokenIterator) (ast.Statement, diag.Diagnostics) {
	stmt := &ast.If{}

	cond, errs := parseExpression(it)
	if errs != nil {
		return nil, errs
	}
	body, errs := parseBlock(it)
	if errs != nil {
		return nil, errs
	}
	stmt.Segments = append(stmt.Segments, ast.IfSegment{Condition: cond, Body: body})

	for {
		if it.consume().Type != token.Else {
			it.moveBack()
			return stmt, nil
		}

		if it.consume().Type == token.If {
			cond, errs := parseExpression(it)
			if errs != nil {
				return nil, errs
			}
			body, errs := parseBlock(it)
			if errs != nil {
				return nil, errs
			}
			stmt.Segments = append(stmt.Segments, ast.IfSegment{Condition: cond, Body: body})
			continue
		}

		it.moveBack()
		body, errs := parseBlock(it)
		if errs != nil {
			return nil, errs
		}
		stmt.Else = body
		return stmt, nil
	}
}

func parseModifyInPlace(it *tokenIterator, ident string, identLoc diag.Location, op ast.BinaryOperator) (ast.Statement, diag.Diagnostics) {
	if it.consume().Type != token.Equals {
		return nil, prevErr(it, "Expected `=`")
	}

	rhs, errs := parseExpression(it)
	if errs != nil {
		return nil, errs
	}

	return &ast.Assignment{
		Name:    ident,
		NameLoc: identLoc,
		Value: &ast.Binary{
			Left:     &ast.Variable{Name: ident, Pos: identLoc},
			Right:    rhs,
			Operator: op,
		},
	}, nil
}

func expectSemicolon(it *tokenIterator) diag.Diagnostics {
	if it.consume().Type != token.Semicolon {
		return prevErr(it, "Expected `;`")
	}
	return nil
}

// parseStatement parses a single statement, dispatching on the first token.
func parseStatement(it *tokenIterator) (ast.Statement, diag.Diagnostics) {
	first := it.consume()

	switch first.Type {
	case token.If:
		return parseIfStatement(it)

	case token.While:
		cond, errs := parseExpression(it)
		if errs != nil {
			return nil, errs
		}
		body, errs := parseBlock(it)
		if errs != nil {
			return nil, errs
		}
		return &ast.While{Condition: cond, Body: body}, nil

	case token.Continue:
		loc := it.prevLoc()
		if errs := expectSemicolon(it); errs != nil {
			return nil, errs
		}
		return &ast.Continue{KeywordLoc: loc}, nil

	case token.Break:
		loc := it.prevLoc()
		if errs := expectSemicolon(it); errs != nil {
			return nil, errs
		}
		return &ast.Break{KeywordLoc: loc}, nil

	case token.Return:
		if it.consume().Type == token.Semicolon {
			return &ast.Return{KeywordLoc: it.tokens[it.position-2].Pos}, nil
		}
		it.moveBack()

		idxBeforeExpr := it.nextIndex()
		expr, errs := parseExpression(it)
		if errs != nil {
			return nil, errs
		}
		exprLoc := it.locRange(idxBeforeExpr, it.prevIndex())

		if it.consume().Type != token.Semicolon {
			return nil, prevErr(it, "Expected `;`")
		}
		return &ast.ReturnValue{Value: expr, ValueLoc: exprLoc}, nil

	case token.Identifier:
		// fallthrough to the assignment/call dispatch below.

	default:
		return nil, prevErr(it, "Expected statement")
	}

	ident := first.Literal
	identLoc := it.prevLoc()

	var stmt ast.Statement
	var errs diag.Diagnostics

	switch it.consume().Type {
	case token.Equals:
		value, exprErrs := parseExpression(it)
		if exprErrs != nil {
			return nil, exprErrs
		}
		stmt = &ast.Assignment{Name: ident, NameLoc: identLoc, Value: value}

	case token.Plus:
		stmt, errs = parseModifyInPlace(it, ident, identLoc, ast.Add)
	case token.Minus:
		stmt, errs = parseModifyInPlace(it, ident, identLoc, ast.Subtract)
	case token.Star:
		stmt, errs = parseModifyInPlace(it, ident, identLoc, ast.Multiply)
	case token.ForwardSlash:
		stmt, errs = parseModifyInPlace(it, ident, identLoc, ast.Divide)
	case token.Carat:
		stmt, errs = parseModifyInPlace(it, ident, identLoc, ast.Power)
	case token.Ampersand:
		stmt, errs = parseModifyInPlace(it, ident, identLoc, ast.And)
	case token.Bar:
		stmt, errs = parseModifyInPlace(it, ident, identLoc, ast.Or)

	case token.OpenParen:
		it.moveBack()
		it.moveBack()
		call, callErrs := parseCall(it)
		if callErrs != nil {
			return nil, callErrs
		}
		stmt = &ast.CallStatement{Call: call}

	default:
		return nil, prevErr(it, "Expected valid statement")
	}

	if errs != nil {
		return nil, errs
	}

	if it.consume().Type != token.Semicolon {
		return nil, prevErr(it, "Expected `;`")
	}
	return stmt, nil
}

func parseCall(it *tokenIterator) (ast.Call, diag.Diagnostics) {
	var call ast.Call

	nameTok := it.consume()
	if nameTok.Type != token.Identifier {
		return call, prevErr(it, "Expected identifier")
	}
	call.FunctionName = nameTok.Literal
	call.FunctionNameLoc = it.prevLoc()

	if it.consume().Type != token.OpenParen {
		return call, prevErr(it, "Expected `(`")
	}

	beforeArgs := it.nextIndex()

	for {
		checkpoint := it.position
		expr, errs := parseExpression(it)
		if errs != nil {
			it.position = checkpoint
			break
		}
		call.Arguments = append(call.Arguments, expr)

		if it.consume().Type != token.Comma {
			it.moveBack()
			break
		}
	}

	afterArgs := it.prevIndex()

	if it.consume().Type != token.CloseParen {
		return call, prevErr(it, "Expected `)`")
	}
	call.ArgumentsLoc = it.locRange(beforeArgs, afterArgs)
	return call, nil
}

// parseUnaryExpression parses the unary level of the grammar: unary
// `-`/`~`, a parenthesized sub-expression, an identifier (variable or
// call), or an integer literal.
func parseUnaryExpression(it *tokenIterator) (ast.Expression, diag.Diagnostics) {
	switch it.consume().Type {
	case token.Minus:
		inner, errs := parseUnaryExpression(it)
		if errs != nil {
			return nil, errs
		}
		return &ast.Unary{Value: inner, Operator: ast.Negate}, nil

	case token.Tilda:
		inner, errs := parseUnaryExpression(it)
		if errs != nil {
			return nil, errs
		}
		return &ast.Unary{Value: inner, Operator: ast.Not}, nil

	case token.Identifier:
		ident := it.tokenOrEOF(it.position - 1).Literal
		if it.consume().Type == token.OpenParen {
			it.moveBack()
			it.moveBack()
			call, errs := parseCall(it)
			if errs != nil {
				return nil, errs
			}
			return &ast.CallExpression{Call: call}, nil
		}
		it.moveBack()
		return &ast.Variable{Name: ident, Pos: it.prevLoc()}, nil

	case token.Number:
		return &ast.Literal{Value: it.tokenOrEOF(it.position - 1).Number}, nil

	case token.OpenParen:
		inner, errs := parseExpression(it)
		if errs != nil {
			return nil, errs
		}
		if it.consume().Type != token.CloseParen {
			return nil, prevErr(it, "Expected `)`")
		}
		return inner, nil

	default:
		return nil, prevErr(it, "Expected unary expression")
	}
}

// parseBinaryOperator matches the next one or two tokens against the
// multi-token operator table. If no binary operator matches, the
// iterator is restored to where it was before the call and ok is false.
func parseBinaryOperator(it *tokenIterator) (ast.BinaryOperator, bool) {
	switch it.consume().Type {
	case token.Plus:
		return ast.Add, true
	case token.Minus:
		return ast.Subtract, true
	case token.Star:
		return ast.Multiply, true
	case token.ForwardSlash:
		return ast.Divide, true
	case token.Ampersand:
		return ast.And, true
	case token.Percent:
		return ast.Remainder, true
	case token.Bar:
		return ast.Or, true
	case token.Carat:
		return ast.Power, true

	case token.Equals:
		if it.consume().Type == token.Equals {
			return ast.Equal, true
		}
		it.moveBack()
		it.moveBack()
		return 0, false

	case token.LeftArrow:
		if it.consume().Type == token.Equals {
			return ast.LessThanOrEqual, true
		}
		it.moveBack()
		return ast.LessThan, true

	case token.RightArrow:
		if it.consume().Type == token.Equals {
			return ast.GreaterThanOrEqual, true
		}
		it.moveBack()
		return ast.GreaterThan, true

	case token.Bang:
		if it.consume().Type == token.Equals {
			return ast.NotEqual, true
		}
		it.moveBack()
		it.moveBack()
		return 0, false

	default:
		it.moveBack()
		return 0, false
	}
}

// parseExpression parses a flat alternation of unary expressions and
// binary operators, then reduces it level by level according to
// `precedence`, left-associatively within a level.
func parseExpression(it *tokenIterator) (ast.Expression, diag.Diagnostics) {
	var expressions []ast.Expression
	var operators []ast.BinaryOperator

	for {
		expr, errs := parseUnaryExpression(it)
		if errs != nil {
			return nil, errs
		}
		expressions = append(expressions, expr)

		op, ok := parseBinaryOperator(it)
		if !ok {
			break
		}
		operators = append(operators, op)
	}

	for _, level := range precedence {
		inLevel := func(op ast.BinaryOperator) bool {
			for _, o := range level {
				if o == op {
					return true
				}
			}
			return false
		}

		reducedExprs := expressions[:1:1]
		var reducedOps []ast.BinaryOperator

		for i, op := range operators {
			next := expressions[i+1]
			if inLevel(op) {
				prev := reducedExprs[len(reducedExprs)-1]
				reducedExprs[len(reducedExprs)-1] = &ast.Binary{Left: prev, Right: next, Operator: op}
				continue
			}
			reducedOps = append(reducedOps, op)
			reducedExprs = append(reducedExprs, next)
		}

		expressions = reducedExprs
		operators = reducedOps
	}

	if len(expressions) != 1 {
		panic("operator precedence failed to reduce an expression to one binary operation; every operator must have an assigned precedence level")
	}
	return expressions[0], nil
}

func prevErr(it *tokenIterator, format string, args ...interface{}) diag.Diagnostics {
	return diag.Diagnostics{diag.At(it.prevLoc(), format, args...)}
}
