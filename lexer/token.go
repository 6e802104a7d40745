// Package lexer implements the byte-position-preserving tokenizer for
// MCDOC schema source. Tokens borrow their text from the
// input buffer; the lexer never allocates per token.
package lexer

import "fmt"

// Kind enumerates the token categories.
type Kind int

const (
	EOF Kind = iota
	Unknown

	Identifier
	StringLiteral
	IntegerLiteral
	FloatLiteral
	PercentIdent // %unknown
	BracketPlaceholder // [[ ... ]] consumed verbatim

	// Punctuation
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	LParen    // (
	RParen    // )
	Comma     // ,
	Semicolon // ;
	Colon     // :
	DoubleColon // ::
	Pipe      // |
	Question  // ?
	Equals    // =
	Dot       // .
	DotDot    // ..
	At        // @
	Lt        // <
	Gt        // >
	AnnotationOpen // #[
	Spread    // ...

	// Keywords
	KwStruct
	KwEnum
	KwDispatch
	KwTo
	KwUse
	KwAs
	KwType
)

var keywords = map[string]Kind{
	"struct":   KwStruct,
	"enum":     KwEnum,
	"dispatch": KwDispatch,
	"to":       KwTo,
	"use":      KwUse,
	"as":       KwAs,
	"type":     KwType,
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Unknown:
		return "Unknown"
	case Identifier:
		return "Identifier"
	case StringLiteral:
		return "StringLiteral"
	case IntegerLiteral:
		return "IntegerLiteral"
	case FloatLiteral:
		return "FloatLiteral"
	case PercentIdent:
		return "PercentIdent"
	case BracketPlaceholder:
		return "BracketPlaceholder"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Comma:
		return "','"
	case Semicolon:
		return "';'"
	case Colon:
		return "':'"
	case DoubleColon:
		return "'::'"
	case Pipe:
		return "'|'"
	case Question:
		return "'?'"
	case Equals:
		return "'='"
	case Dot:
		return "'.'"
	case DotDot:
		return "'..'"
	case At:
		return "'@'"
	case Lt:
		return "'<'"
	case Gt:
		return "'>'"
	case AnnotationOpen:
		return "'#['"
	case Spread:
		return "'...'"
	case KwStruct:
		return "'struct'"
	case KwEnum:
		return "'enum'"
	case KwDispatch:
		return "'dispatch'"
	case KwTo:
		return "'to'"
	case KwUse:
		return "'use'"
	case KwAs:
		return "'as'"
	case KwType:
		return "'type'"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Span is a (byte, line, column) location range within the source
// buffer. Line and column are 1-based and are computed for every
// token as the lexer advances, not derived on demand; End is exclusive.
type Span struct {
	Start, End   int
	Line, Column int
}

// Token is a single lexeme. Text borrows a subslice of the original
// source buffer — valid only as long as that buffer is alive.
type Token struct {
	Kind Kind
	Text string
	Span Span

	// Err holds a lexer-level diagnostic (e.g. unterminated string).
	// The lexer is infallible: it still emits a token, but callers
	// that want to surface the problem check Err.
	Err string
}
