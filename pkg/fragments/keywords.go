package fragments

import (
	"strings"

	"github.com/nsxbet/sql-optimizer/pkg/tokenizer"
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var aggregateFunctions = wordSet(
	"COUNT", "SUM", "AVG", "MIN", "MAX",
	"GROUP_CONCAT", "STRING_AGG", "ARRAY_AGG", "LISTAGG", "JSON_AGG", "JSONB_AGG",
	"JSON_ARRAYAGG", "JSON_OBJECTAGG", "BIT_AND", "BIT_OR", "BIT_XOR", "BOOL_AND", "BOOL_OR",
	"EVERY", "STDDEV", "STDDEV_POP", "STDDEV_SAMP", "VARIANCE", "VAR_POP", "VAR_SAMP",
	"COUNT_BIG", "PERCENTILE_CONT", "PERCENTILE_DISC", "MEDIAN",
)

// notFunctions are words that may be directly followed by "(" without being a call.
var notFunctions = wordSet(
	"IN", "EXISTS", "VALUES", "VALUE", "AS", "ON", "USING", "AND", "OR", "NOT", "SELECT",
	"FROM", "WHERE", "JOIN", "OVER", "FILTER", "WITHIN", "ANY", "ALL", "SOME", "INTO",
	"TABLE", "BY", "THEN", "ELSE", "WHEN", "CASE", "IS", "LIKE", "ILIKE", "BETWEEN", "HAVING",
	"UNION", "EXCEPT", "INTERSECT", "MINUS", "RETURNING", "SET", "LATERAL", "KEY", "PRIMARY",
	"UNIQUE", "CHECK", "REFERENCES", "DISTINCT", "TOP", "LIMIT", "OFFSET", "PARTITION",
	"WINDOW", "MATERIALIZED", "RECURSIVE", "WITH", "UPDATE", "DELETE", "INSERT", "APPLY",
	"OPTION", "GROUP", "ORDER", "ROWS", "RANGE", "GROUPS", "ARRAY", "ROW",
)

// nonColumns are words that never name a column in a predicate: keywords, literals,
// type names and date parts.
var nonColumns = wordSet(
	"SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "NULL", "TRUE", "FALSE", "UNKNOWN", "IS",
	"IN", "EXISTS", "LIKE", "ILIKE", "BETWEEN", "AS", "ON", "USING", "CASE", "WHEN", "THEN",
	"ELSE", "END", "ANY", "ALL", "SOME", "DISTINCT", "ESCAPE", "INTERVAL", "COLLATE",
	"CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "LOCALTIME", "LOCALTIMESTAMP",
	"SYSDATE", "ROWNUM", "LEVEL", "SIMILAR", "REGEXP", "RLIKE", "GLOB", "MATCH", "AGAINST",
	"ASC", "DESC", "NULLS", "FIRST", "LAST", "BINARY",
	"DATE", "TIME", "TIMESTAMP", "DATETIME", "INT", "INTEGER", "BIGINT", "SMALLINT",
	"TINYINT", "VARCHAR", "NVARCHAR", "CHAR", "NCHAR", "TEXT", "DECIMAL", "NUMERIC", "NUMBER",
	"FLOAT", "REAL", "DOUBLE", "PRECISION", "BOOLEAN", "BOOL", "SIGNED", "UNSIGNED", "JSON",
	"JSONB", "UUID", "VARCHAR2", "NVARCHAR2", "CLOB", "BLOB", "BYTEA",
	"YEAR", "MONTH", "DAY", "HOUR", "MINUTE", "SECOND", "WEEK", "QUARTER", "EPOCH", "DOW",
	"DOY", "ISODOW", "MILLISECOND", "MICROSECOND", "DAYOFWEEK", "DAYOFYEAR",
	"YY", "YYYY", "MM", "DD", "HH", "MI", "SS", "WK", "QQ", "DW", "DY",
)

// setOperators start a new query branch.
var setOperators = wordSet("UNION", "INTERSECT", "EXCEPT", "MINUS")

// IsFunctionCall reports whether tokens[i] names a function invoked with "(".
func IsFunctionCall(tokens []tokenizer.Token, i int) bool {
	t := tokens[i]
	if t.Kind != tokenizer.Word || i+1 >= len(tokens) || tokens[i+1].Kind != tokenizer.LParen {
		return false
	}
	if notFunctions[t.Upper] {
		return false
	}
	if i > 0 && tokens[i-1].Is("INTO", "TABLE", "JOIN", "FROM", "UPDATE", "WITH", "RECURSIVE", "REFERENCES") {
		return false
	}
	return true
}

// IsAggregate reports whether tokens[i] is a call to an aggregate function.
func IsAggregate(tokens []tokenizer.Token, i int) bool {
	return IsFunctionCall(tokens, i) && aggregateFunctions[tokens[i].Upper]
}

// ContainsAggregate reports whether tokens contain an aggregate call outside subqueries.
func ContainsAggregate(tokens []tokenizer.Token) bool {
	skip := SubqueryMask(tokens)
	for i := range tokens {
		if !skip[i] && IsAggregate(tokens, i) {
			return true
		}
	}
	return false
}

// IsIdentifier reports whether t can name a column or table.
func IsIdentifier(t tokenizer.Token) bool {
	switch t.Kind {
	case tokenizer.QuotedIdent:
		return true
	case tokenizer.Word:
		return !nonColumns[t.Upper]
	default:
		return false
	}
}

// IsSubqueryStart reports whether tokens[i] is a "(" opening a subquery.
func IsSubqueryStart(tokens []tokenizer.Token, i int) bool {
	return tokens[i].Kind == tokenizer.LParen && i+1 < len(tokens) && tokens[i+1].Is("SELECT", "WITH")
}

// MatchingParen returns the index of the ")" closing the "(" at tokens[open], or -1.
func MatchingParen(tokens []tokenizer.Token, open int) int {
	depth := tokens[open].Depth
	for j := open + 1; j < len(tokens); j++ {
		if tokens[j].Kind == tokenizer.RParen && tokens[j].Depth == depth {
			return j
		}
	}
	return -1
}

// SubqueryMask marks every token that sits inside a parenthesized subquery,
// parentheses included.
func SubqueryMask(tokens []tokenizer.Token) []bool {
	mask := make([]bool, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if !IsSubqueryStart(tokens, i) {
			continue
		}
		end := MatchingParen(tokens, i)
		if end < 0 {
			end = len(tokens) - 1
		}
		for j := i; j <= end; j++ {
			mask[j] = true
		}
		i = end
	}
	return mask
}

// SplitItems splits tokens at commas sitting at the given depth.
func SplitItems(tokens []tokenizer.Token, level int) [][]tokenizer.Token {
	var items [][]tokenizer.Token
	start := 0
	for i, t := range tokens {
		if t.Kind == tokenizer.Comma && t.Depth == level {
			items = append(items, tokens[start:i])
			start = i + 1
		}
	}
	return append(items, tokens[start:])
}

// ColumnBefore returns the possibly qualified identifier ending right before tokens[i].
func ColumnBefore(tokens []tokenizer.Token, i int) (string, bool) {
	j := i - 1
	if j < 0 || !IsIdentifier(tokens[j]) {
		return "", false
	}
	parts := []string{tokens[j].Text}
	for j >= 2 && tokens[j-1].Kind == tokenizer.Dot &&
		(tokens[j-2].Kind == tokenizer.Word || tokens[j-2].Kind == tokenizer.QuotedIdent) {
		parts = append([]string{tokens[j-2].Text}, parts...)
		j -= 2
	}
	return strings.Join(parts, "."), true
}

// ColumnAt returns the possibly qualified identifier starting at tokens[i] and the
// index right after it.
func ColumnAt(tokens []tokenizer.Token, i int) (string, int, bool) {
	if i >= len(tokens) || !IsIdentifier(tokens[i]) {
		return "", i, false
	}
	parts := []string{tokens[i].Text}
	j := i + 1
	for j+1 < len(tokens) && tokens[j].Kind == tokenizer.Dot &&
		(tokens[j+1].Kind == tokenizer.Word || tokens[j+1].Kind == tokenizer.QuotedIdent) {
		parts = append(parts, tokens[j+1].Text)
		j += 2
	}
	if j < len(tokens) && tokens[j].Kind == tokenizer.LParen {
		return "", i, false
	}
	return strings.Join(parts, "."), j, true
}

// Unquote strips string literal quotes.
func Unquote(t tokenizer.Token) string {
	s := t.Text
	if t.Kind != tokenizer.String || len(s) < 2 {
		return s
	}
	if s[0] == '$' {
		tagEnd := strings.IndexByte(s[1:], '$') + 2
		return s[tagEnd : len(s)-tagEnd]
	}
	q := s[:1]
	return strings.ReplaceAll(s[1:len(s)-1], q+q, q)
}
