// Package lexer turns source text into a sequence of tokens.
//
// It performs a single left-to-right scan over the input. Whitespace
// separates tokens but is otherwise ignored; newlines advance a line
// counter used to tag every token with its source location.
package lexer

import (
	"unicode"

	"github.com/skx/signalc/diag"
	"github.com/skx/signalc/token"
)

// Lexer holds our object-state: current character, current/next
// position, and the input as a rune slice.
type Lexer struct {
	file         *diag.SourceFile
	characters   []rune
	position     int  // current character position
	readPosition int  // next character position
	ch           rune // current character

	line      int // zero-indexed line of the current character
	lineStart int // rune index where the current line began
}

// New creates a Lexer over the given source file.
func New(file *diag.SourceFile) *Lexer {
	l := &Lexer{file: file, characters: []rune(file.Text)}
	l.readChar()
	return l
}

// readChar advances to the next character, tracking line/column as it goes.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.lineStart = l.readPosition
	}
	if l.readPosition >= len(l.characters) {
		l.ch = rune(0)
	} else {
		l.ch = l.characters[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) column() int {
	return l.position - l.lineStart
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// Tokenize scans the whole file and returns the full token list, whose
// final element is always token.EOF, or a batch of diagnostics if any
// invalid characters were found. No partial token list is ever
// returned alongside an error.
func Tokenize(file *diag.SourceFile) ([]token.Token, diag.Diagnostics) {
	l := New(file)

	var tokens []token.Token
	var errs diag.Diagnostics

	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}

		if l.ch == rune(0) {
			break
		}

		startCol := l.column()
		startLine := l.line
		startPos := l.position

		switch {
		case isDigit(l.ch):
			value := l.readNumber()
			pos := diag.Location{File: l.file, Line: startLine, BeginColumn: startCol, Length: l.position - startPos}
			tokens = append(tokens, token.Token{Type: token.Number, Number: value, Pos: pos})

		case isIdentStart(l.ch):
			ident := l.readIdentifier()
			pos := diag.Location{File: l.file, Line: startLine, BeginColumn: startCol, Length: l.position - startPos}
			if kw, ok := token.Lookup(ident); ok {
				tokens = append(tokens, token.Token{Type: kw, Pos: pos})
			} else {
				tokens = append(tokens, token.Token{Type: token.Identifier, Literal: ident, Pos: pos})
			}

		default:
			pos := diag.Location{File: l.file, Line: startLine, BeginColumn: startCol, Length: 1}
			if t, ok := token.LookupPunctuation(l.ch); ok {
				tokens = append(tokens, token.Token{Type: t, Pos: pos})
				l.readChar()
			} else {
				errs = append(errs, diag.At(pos, "Invalid character"))
				l.readChar()
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	tokens = append(tokens, token.Token{
		Type: token.EOF,
		Pos:  diag.Location{File: l.file, Line: l.line + 1, BeginColumn: 0, Length: 5},
	})
	return tokens, nil
}

// readNumber consumes a run of base-10 digits and returns their value
// as a wrapping 32-bit signed integer; overflow silently wraps rather
// than producing a diagnostic.
func (l *Lexer) readNumber() int32 {
	var current int32
	for isDigit(l.ch) {
		current = current*10 + int32(l.ch-'0')
		l.readChar()
	}
	return current
}

// readIdentifier consumes `[alphanumeric_]+`, already knowing the
// first character is a valid identifier start.
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return string(l.characters[start:l.position])
}
