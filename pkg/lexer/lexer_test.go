package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `int main() { return 42; }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenInt, "42"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `+ - * / % = == != < <= > >= && || & . , ;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenAssign, "="},
		{TokenEq, "=="},
		{TokenNe, "!="},
		{TokenLt, "<"},
		{TokenLe, "<="},
		{TokenGt, ">"},
		{TokenGe, ">="},
		{TokenAnd, "&&"},
		{TokenOr, "||"},
		{TokenAmpersand, "&"},
		{TokenDot, "."},
		{TokenComma, ","},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"int", TokenInt_},
		{"char", TokenChar_},
		{"void", TokenVoid},
		{"struct", TokenStruct},
		{"class", TokenClass},
		{"extends", TokenExtends},
		{"sizeof", TokenSizeof},
		{"break", TokenBreak},
		{"continue", TokenContinue},
		{"classy", TokenIdent},
		{"_x1", TokenIdent},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.want {
				t.Errorf("got %s, want %s", tok.Type, tt.want)
			}
		})
	}
}

func TestCharAndStringLiterals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		typ     TokenType
		literal string
	}{
		{"plain char", `'a'`, TokenChar, "a"},
		{"newline escape", `'\n'`, TokenChar, "\n"},
		{"nul escape", `'\0'`, TokenChar, "\x00"},
		{"quote escape", `'\''`, TokenChar, "'"},
		{"empty char", `''`, TokenIllegal, "'"},
		{"string", `"hi there"`, TokenString, "hi there"},
		{"string escapes", `"a\tb\n"`, TokenString, "a\tb\n"},
		{"unterminated string", `"abc`, TokenIllegal, "\""},
		{"bad escape", `"\q"`, TokenIllegal, `\q`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("type = %s, want %s", tok.Type, tt.typ)
			}
			if tok.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.literal)
			}
		})
	}
}

func TestCommentsAndInclude(t *testing.T) {
	input := "#include \"minic-stdlib.h\"\n// line comment\nint /* block\ncomment */ x;"
	want := []TokenType{TokenInclude, TokenString, TokenInt_, TokenIdent, TokenSemicolon, TokenEOF}

	toks := New(input).Tokens()
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token %d = %s, want %s", i, toks[i].Type, typ)
		}
	}
}

func TestPositions(t *testing.T) {
	input := "int x;\n  char y;"
	toks := New(input).Tokens()

	tests := []struct {
		idx          int
		line, column int
	}{
		{0, 1, 1}, // int
		{1, 1, 5}, // x
		{2, 1, 6}, // ;
		{3, 2, 3}, // char
		{4, 2, 8}, // y
	}
	for _, tt := range tests {
		tok := toks[tt.idx]
		if tok.Line != tt.line || tok.Column != tt.column {
			t.Errorf("token %d (%q) at %d:%d, want %d:%d",
				tt.idx, tok.Literal, tok.Line, tok.Column, tt.line, tt.column)
		}
	}
}

func TestIllegalCharacters(t *testing.T) {
	for _, input := range []string{"!", "|", "@", "#define"} {
		t.Run(input, func(t *testing.T) {
			tok := New(input).NextToken()
			if tok.Type != TokenIllegal {
				t.Errorf("%q lexed as %s, want ILLEGAL", input, tok.Type)
			}
		})
	}
}
