package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func kinds(tokens []Token) []Kind {
	var out []Kind
	for _, t := range tokens {
		out = append(out, t.Kind)
	}
	return out
}

func texts(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		out = append(out, t.Text)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		dialect   types.Dialect
		wantTexts []string
		wantKinds []Kind
	}{
		{
			name:      "simple select",
			sql:       "SELECT id, name FROM users WHERE id >= 10;",
			wantTexts: []string{"SELECT", "id", ",", "name", "FROM", "users", "WHERE", "id", ">=", "10", ";"},
			wantKinds: []Kind{Word, Word, Comma, Word, Word, Word, Word, Word, Operator, Number, Semicolon},
		},
		{
			name:      "comments are skipped",
			sql:       "SELECT /* where */ a -- from\nFROM t",
			wantTexts: []string{"SELECT", "a", "FROM", "t"},
			wantKinds: []Kind{Word, Word, Word, Word},
		},
		{
			name:      "escaped quote inside string",
			sql:       "SELECT 'it''s WHERE' FROM t",
			wantTexts: []string{"SELECT", "'it''s WHERE'", "FROM", "t"},
			wantKinds: []Kind{Word, String, Word, Word},
		},
		{
			name:      "qualified names and quoted identifiers",
			sql:       `SELECT u."order" FROM public.users u`,
			wantTexts: []string{"SELECT", "u", ".", `"order"`, "FROM", "public", ".", "users", "u"},
			wantKinds: []Kind{Word, Word, Dot, QuotedIdent, Word, Word, Dot, Word, Word},
		},
		{
			name:      "mysql double quotes are strings and hash starts a comment",
			sql:       "SELECT \"x\" FROM t # trailing",
			dialect:   types.Dialect_MYSQL,
			wantTexts: []string{"SELECT", `"x"`, "FROM", "t"},
			wantKinds: []Kind{Word, String, Word, Word},
		},
		{
			name:      "mssql bracket identifiers",
			sql:       "SELECT [first name] FROM [dbo].[users]",
			dialect:   types.Dialect_MSSQL,
			wantTexts: []string{"SELECT", "[first name]", "FROM", "[dbo]", ".", "[users]"},
			wantKinds: []Kind{Word, QuotedIdent, Word, QuotedIdent, Dot, QuotedIdent},
		},
		{
			name:      "placeholders and casts",
			sql:       "SELECT $1::int, ?, :name, @v",
			dialect:   types.Dialect_POSTGRES,
			wantTexts: []string{"SELECT", "$1", "::", "int", ",", "?", ",", ":name", ",", "@v"},
			wantKinds: []Kind{Word, Placeholder, Operator, Word, Comma, Placeholder, Comma, Placeholder, Comma, Placeholder},
		},
		{
			name:      "dollar quoted string",
			sql:       "SELECT $$a ) b$$",
			dialect:   types.Dialect_POSTGRES,
			wantTexts: []string{"SELECT", "$$a ) b$$"},
			wantKinds: []Kind{Word, String},
		},
		{
			name:      "numbers",
			sql:       "SELECT 1.5, .5, 1e10, 0xFF",
			wantTexts: []string{"SELECT", "1.5", ",", ".5", ",", "1e10", ",", "0xFF"},
			wantKinds: []Kind{Word, Number, Comma, Number, Comma, Number, Comma, Number},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, errs := Tokenize(tt.sql, tt.dialect)
			require.Empty(t, errs)
			assert.Equal(t, tt.wantTexts, texts(tokens))
			assert.Equal(t, tt.wantKinds, kinds(tokens))
		})
	}
}

func TestTokenize_Depth(t *testing.T) {
	tokens, errs := Tokenize("SELECT a FROM t WHERE id IN (SELECT x FROM (SELECT 1) s)", types.Dialect_DIALECT_UNSPECIFIED)
	require.Empty(t, errs)

	depths := map[string][]int{}
	for _, tok := range tokens {
		if tok.Is("SELECT") {
			depths["SELECT"] = append(depths["SELECT"], tok.Depth)
		}
		if tok.Kind == LParen || tok.Kind == RParen {
			depths[tok.Text] = append(depths[tok.Text], tok.Depth)
		}
	}
	assert.Equal(t, []int{0, 1, 2}, depths["SELECT"])
	assert.Equal(t, []int{0, 1}, depths["("])
	assert.Equal(t, []int{1, 0}, depths[")"])
}

func TestTokenize_Positions(t *testing.T) {
	tokens, errs := Tokenize("SELECT a\n  FROM t", types.Dialect_DIALECT_UNSPECIFIED)
	require.Empty(t, errs)
	require.Len(t, tokens, 4)

	from := tokens[2]
	assert.Equal(t, "FROM", from.Upper)
	assert.Equal(t, 2, from.Line)
	assert.Equal(t, 3, from.Col)
	assert.Equal(t, 11, from.Pos)
	assert.Equal(t, 15, from.End)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantMsg string
		line    int32
		column  int32
	}{
		{
			name:    "unterminated string",
			sql:     "SELECT * FROM t WHERE name = 'abc",
			wantMsg: "unterminated string literal",
			line:    1,
			column:  30,
		},
		{
			name:    "unterminated quoted identifier",
			sql:     `SELECT "abc FROM t`,
			wantMsg: "unterminated quoted identifier",
			line:    1,
			column:  8,
		},
		{
			name:    "unterminated block comment",
			sql:     "SELECT 1 /* oops",
			wantMsg: "unterminated block comment",
			line:    1,
			column:  10,
		},
		{
			name:    "unexpected closing parenthesis",
			sql:     "SELECT a) FROM t",
			wantMsg: "unexpected ')' without a matching '('",
			line:    1,
			column:  9,
		},
		{
			name:    "unclosed parenthesis",
			sql:     "SELECT COUNT(id FROM t",
			wantMsg: "unbalanced parentheses: '(' is never closed",
			line:    1,
			column:  13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Tokenize(tt.sql, types.Dialect_DIALECT_UNSPECIFIED)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantMsg, errs[0].Message)
			require.NotNil(t, errs[0].Position)
			assert.Equal(t, tt.line, errs[0].Position.Line)
			assert.Equal(t, tt.column, errs[0].Position.Column)
		})
	}
}

func TestToken_Is(t *testing.T) {
	tok := Token{Kind: Word, Text: "select", Upper: "SELECT"}
	assert.True(t, tok.Is("FROM", "SELECT"))
	assert.False(t, tok.Is("FROM"))

	str := Token{Kind: String, Text: "'SELECT'"}
	assert.False(t, str.Is("SELECT"))

	op := Token{Kind: Operator, Text: "<>"}
	assert.True(t, op.IsComparison())
	assert.False(t, Token{Kind: Operator, Text: "+"}.IsComparison())
}
