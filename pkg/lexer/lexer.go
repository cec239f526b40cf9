// Package lexer turns MiniC source text into tokens
package lexer

import (
	"strings"
)

// Lexer tokenizes MiniC source code
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// Tokens lexes the whole input, including the trailing EOF token
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
		tok.Literal = ""
		return tok
	case '+':
		tok = l.newToken(TokenPlus, "+")
	case '-':
		tok = l.newToken(TokenMinus, "-")
	case '*':
		tok = l.newToken(TokenStar, "*")
	case '/':
		tok = l.newToken(TokenSlash, "/")
	case '%':
		tok = l.newToken(TokenPercent, "%")
	case '=':
		tok = l.twoChar('=', TokenAssign, TokenEq)
	case '!':
		tok = l.twoChar('=', TokenIllegal, TokenNe)
	case '<':
		tok = l.twoChar('=', TokenLt, TokenLe)
	case '>':
		tok = l.twoChar('=', TokenGt, TokenGe)
	case '&':
		tok = l.twoChar('&', TokenAmpersand, TokenAnd)
	case '|':
		tok = l.twoChar('|', TokenIllegal, TokenOr)
	case '(':
		tok = l.newToken(TokenLParen, "(")
	case ')':
		tok = l.newToken(TokenRParen, ")")
	case '{':
		tok = l.newToken(TokenLBrace, "{")
	case '}':
		tok = l.newToken(TokenRBrace, "}")
	case '[':
		tok = l.newToken(TokenLBracket, "[")
	case ']':
		tok = l.newToken(TokenRBracket, "]")
	case ';':
		tok = l.newToken(TokenSemicolon, ";")
	case ',':
		tok = l.newToken(TokenComma, ",")
	case '.':
		tok = l.newToken(TokenDot, ".")
	case '#':
		return l.readInclude(tok)
	case '\'':
		return l.readCharLiteral(tok)
	case '"':
		return l.readString(tok)
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			return tok
		} else if isDigit(l.ch) {
			tok.Type = TokenInt
			tok.Literal = l.readNumber()
			return tok
		}
		tok = l.newToken(TokenIllegal, string(l.ch))
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(tokenType TokenType, lit string) Token {
	return Token{Type: tokenType, Literal: lit, Line: l.line, Column: l.column}
}

// twoChar lexes a token that becomes `double` when followed by next
func (l *Lexer) twoChar(next byte, single, double TokenType) Token {
	tok := l.newToken(single, string(l.ch))
	if l.peekChar() == next {
		first := l.ch
		l.readChar()
		tok.Type = double
		tok.Literal = string([]byte{first, next})
	}
	return tok
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume /
			l.readChar() // consume *
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar() // consume *
				l.readChar() // consume /
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

func (l *Lexer) readNumber() string {
	pos := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readInclude lexes `#include`; anything else after '#' is illegal
func (l *Lexer) readInclude(tok Token) Token {
	l.readChar() // consume #
	word := l.readIdentifier()
	if word != "include" {
		tok.Type = TokenIllegal
		tok.Literal = "#" + word
		return tok
	}
	tok.Type = TokenInclude
	tok.Literal = "#include"
	return tok
}

// readEscape decodes the character after a backslash
func readEscape(ch byte) (byte, bool) {
	switch ch {
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	case '0':
		return 0, true
	}
	return 0, false
}

func (l *Lexer) readCharLiteral(tok Token) Token {
	l.readChar() // consume opening quote
	var c byte
	ok := true
	switch l.ch {
	case '\\':
		l.readChar()
		c, ok = readEscape(l.ch)
	case '\'', '\n', 0:
		ok = false
	default:
		c = l.ch
	}
	if l.ch != 0 && l.ch != '\n' {
		l.readChar()
	}
	if !ok || l.ch != '\'' {
		tok.Type = TokenIllegal
		tok.Literal = "'"
		return tok
	}
	l.readChar() // consume closing quote
	tok.Type = TokenChar
	tok.Literal = string([]byte{c})
	return tok
}

func (l *Lexer) readString(tok Token) Token {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != '"' {
		if l.ch == 0 || l.ch == '\n' {
			tok.Type = TokenIllegal
			tok.Literal = "\""
			return tok
		}
		if l.ch == '\\' {
			l.readChar()
			c, ok := readEscape(l.ch)
			if !ok {
				tok.Type = TokenIllegal
				tok.Literal = "\\" + string(l.ch)
				return tok
			}
			sb.WriteByte(c)
		} else {
			sb.WriteByte(l.ch)
		}
		l.readChar()
	}
	l.readChar() // consume closing quote
	tok.Type = TokenString
	tok.Literal = sb.String()
	return tok
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
