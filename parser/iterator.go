package parser

import (
	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/token"
)

// tokenIterator walks a fixed token slice with one-token lookahead via
// consume/moveBack. Every parse function either returns a node or a
// diagnostics batch; nothing here panics on malformed input.
type tokenIterator struct {
	tokens   []token.Token
	position int
}

func newTokenIterator(tokens []token.Token) *tokenIterator {
	return &tokenIterator{tokens: tokens}
}

// tokenOrEOF returns tokens[i], clamped to the trailing EOF token if i
// runs past the end (which should not normally happen, since EOF never
// advances the iterator further, but keeps this total just in case).
func (it *tokenIterator) tokenOrEOF(i int) token.Token {
	if i < len(it.tokens) {
		return it.tokens[i]
	}
	return it.tokens[len(it.tokens)-1]
}

// consume returns the next token and advances the iterator.
func (it *tokenIterator) consume() token.Token {
	it.position++
	return it.tokenOrEOF(it.position - 1)
}

// moveBack steps the iterator back one token.
func (it *tokenIterator) moveBack() {
	it.position--
}

// prevLoc is the location of the token just consumed.
func (it *tokenIterator) prevLoc() diag.Location {
	return it.tokenOrEOF(it.position - 1).Pos
}

// nextIndex / prevIndex expose raw token indices, used to capture the
// span of a parsed sub-sequence (e.g. a call's argument list, or a
// return expression) for diagnostics.
func (it *tokenIterator) nextIndex() int { return it.position }
func (it *tokenIterator) prevIndex() int { return it.position - 1 }

// locRange builds a Location spanning tokens[from..to] inclusive.
func (it *tokenIterator) locRange(from, to int) diag.Location {
	return diag.Range(it.tokens[from].Pos, it.tokens[to].Pos)
}
