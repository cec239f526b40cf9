package lexer

import "github.com/raymyers/minicc/pkg/diag"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdent  // main, foo, x
	TokenInt    // 42
	TokenChar   // 'a'
	TokenString // "hello"

	// Keywords
	TokenInt_     // int
	TokenChar_    // char
	TokenVoid     // void
	TokenStruct   // struct
	TokenClass    // class
	TokenExtends  // extends
	TokenIf       // if
	TokenElse     // else
	TokenWhile    // while
	TokenReturn   // return
	TokenSizeof   // sizeof
	TokenBreak    // break
	TokenContinue // continue

	// Operators
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenAssign    // =
	TokenEq        // ==
	TokenNe        // !=
	TokenLt        // <
	TokenLe        // <=
	TokenGt        // >
	TokenGe        // >=
	TokenAnd       // &&
	TokenOr        // ||
	TokenAmpersand // &

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenSemicolon // ;
	TokenComma     // ,
	TokenDot       // .

	// Preprocessor
	TokenInclude // #include
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenIllegal:   "ILLEGAL",
	TokenIdent:     "IDENT",
	TokenInt:       "INT",
	TokenChar:      "CHAR",
	TokenString:    "STRING",
	TokenInt_:      "int",
	TokenChar_:     "char",
	TokenVoid:      "void",
	TokenStruct:    "struct",
	TokenClass:     "class",
	TokenExtends:   "extends",
	TokenIf:        "if",
	TokenElse:      "else",
	TokenWhile:     "while",
	TokenReturn:    "return",
	TokenSizeof:    "sizeof",
	TokenBreak:     "break",
	TokenContinue:  "continue",
	TokenPlus:      "+",
	TokenMinus:     "-",
	TokenStar:      "*",
	TokenSlash:     "/",
	TokenPercent:   "%",
	TokenAssign:    "=",
	TokenEq:        "==",
	TokenNe:        "!=",
	TokenLt:        "<",
	TokenLe:        "<=",
	TokenGt:        ">",
	TokenGe:        ">=",
	TokenAnd:       "&&",
	TokenOr:        "||",
	TokenAmpersand: "&",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLBrace:    "{",
	TokenRBrace:    "}",
	TokenLBracket:  "[",
	TokenRBracket:  "]",
	TokenSemicolon: ";",
	TokenComma:     ",",
	TokenDot:       ".",
	TokenInclude:   "#include",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string // decoded value for CHAR and STRING tokens
	Line    int
	Column  int
}

// Pos returns the token's source position
func (t Token) Pos() diag.Pos {
	return diag.Pos{Line: t.Line, Column: t.Column}
}

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"int":      TokenInt_,
	"char":     TokenChar_,
	"void":     TokenVoid,
	"struct":   TokenStruct,
	"class":    TokenClass,
	"extends":  TokenExtends,
	"if":       TokenIf,
	"else":     TokenElse,
	"while":    TokenWhile,
	"return":   TokenReturn,
	"sizeof":   TokenSizeof,
	"break":    TokenBreak,
	"continue": TokenContinue,
}

// LookupIdent returns the token type for an identifier (keyword or IDENT)
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
