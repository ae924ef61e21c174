// Package token contains the token categories the lexer produces.
//
// Multi-character operators (==, !=, <=, >=) are NOT produced here;
// the lexer only ever emits single-symbol operator tokens, and the
// parser assembles the multi-token operators itself by looking ahead.
package token

import "github.com/skx/signalc/diag"

// Type identifies the category of a Token.
type Type int

// The complete set of token categories.
const (
	EOF Type = iota

	// Punctuation.
	OpenParen
	CloseParen
	OpenBrace
	CloseBrace
	Semicolon
	Comma

	// Single-symbol operators. `==`, `!=`, `<=` and `>=` are
	// synthesized by the parser out of pairs of these.
	Plus
	Minus
	Star
	ForwardSlash
	Percent
	Ampersand
	Bar
	Carat
	LeftArrow
	RightArrow
	Equals
	Bang
	Tilda

	// Keywords.
	If
	Else
	While
	Return
	Continue
	Break
	Int
	Void

	// Identifier and number carry a payload; see Token.Literal / Token.Number.
	Identifier
	Number
)

// keywords maps reserved identifier spellings to their keyword Type.
var keywords = map[string]Type{
	"if":       If,
	"else":     Else,
	"while":    While,
	"return":   Return,
	"continue": Continue,
	"break":    Break,
	"int":      Int,
	"void":     Void,
}

// Lookup returns the keyword Type for ident, and ok=true, or
// (Identifier, false) if ident is not a reserved word.
func Lookup(ident string) (Type, bool) {
	if t, ok := keywords[ident]; ok {
		return t, true
	}
	return Identifier, false
}

// punctuation maps single visible characters to their Type. Anything
// not present here (and not alphanumeric/underscore/digit) is an
// invalid character.
var punctuation = map[rune]Type{
	'(': OpenParen,
	')': CloseParen,
	'{': OpenBrace,
	'}': CloseBrace,
	';': Semicolon,
	',': Comma,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': ForwardSlash,
	'%': Percent,
	'&': Ampersand,
	'|': Bar,
	'^': Carat,
	'<': LeftArrow,
	'>': RightArrow,
	'=': Equals,
	'!': Bang,
	'~': Tilda,
}

// LookupPunctuation returns the Type for a single punctuation/operator
// character, and ok=true, or (0, false) if ch is not recognized.
func LookupPunctuation(ch rune) (Type, bool) {
	t, ok := punctuation[ch]
	return t, ok
}

// Token is one lexical unit together with the source span it came
// from. Identifier carries its text in Literal; Number carries its
// value in Number.
type Token struct {
	Type    Type
	Literal string
	Number  int32
	Pos     diag.Location
}

// String renders a token for debugging / error messages.
func (t Type) String() string {
	switch t {
	case EOF:
		return "end of file"
	case OpenParen:
		return "`(`"
	case CloseParen:
		return "`)`"
	case OpenBrace:
		return "`{`"
	case CloseBrace:
		return "`}`"
	case Semicolon:
		return "`;`"
	case Comma:
		return "`,`"
	case Plus:
		return "`+`"
	case Minus:
		return "`-`"
	case Star:
		return "`*`"
	case ForwardSlash:
		return "`/`"
	case Percent:
		return "`%`"
	case Ampersand:
		return "`&`"
	case Bar:
		return "`|`"
	case Carat:
		return "`^`"
	case LeftArrow:
		return "`<`"
	case RightArrow:
		return "`>`"
	case Equals:
		return "`=`"
	case Bang:
		return "`!`"
	case Tilda:
		return "`~`"
	case If:
		return "`if`"
	case Else:
		return "`else`"
	case While:
		return "`while`"
	case Return:
		return "`return`"
	case Continue:
		return "`continue`"
	case Break:
		return "`break`"
	case Int:
		return "`int`"
	case Void:
		return "`void`"
	case Identifier:
		return "identifier"
	case Number:
		return "number"
	default:
		return "unknown token"
	}
}
