package rules

import (
	"strings"

	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/tokenizer"
)

// dateFunctions convert or extract parts of a date, or cast a value.
var dateFunctions = map[string]bool{
	"YEAR": true, "MONTH": true, "DAY": true, "DAYOFMONTH": true, "DAYOFWEEK": true,
	"DAYOFYEAR": true, "HOUR": true, "WEEK": true, "QUARTER": true, "DATE": true,
	"DATEPART": true, "DATENAME": true, "DATE_FORMAT": true, "DATE_TRUNC": true,
	"TRUNC": true, "EXTRACT": true, "TO_CHAR": true, "TO_DATE": true, "CONVERT": true,
	"CAST": true, "STRFTIME": true, "JULIANDAY": true,
}

// call is a function or cast applied to a column in a predicate.
type call struct {
	name   string
	column string
	// compared is set when the call is an operand of a comparison, on either side.
	compared bool
}

// likeMatch is a LIKE predicate whose pattern starts with a wildcard.
type likeMatch struct {
	column  string
	pattern string
}

// predicates holds what the index rules read from a WHERE clause. Tokens inside
// subqueries are ignored.
type predicates struct {
	calls     []call
	wildcards []likeMatch
	columns   []string
}

func analyzePredicates(where *fragments.Clause) *predicates {
	p := &predicates{}
	if where == nil {
		return p
	}
	tokens := where.Tokens
	mask := fragments.SubqueryMask(tokens)
	seen := map[string]bool{}

	for i, t := range tokens {
		if mask[i] {
			continue
		}

		if fragments.IsFunctionCall(tokens, i) && !fragments.IsAggregate(tokens, i) {
			if end := fragments.MatchingParen(tokens, i+1); end > 0 {
				if col := wrappedColumn(tokens[i+2 : end]); col != "" {
					p.calls = append(p.calls, call{
						name:     t.Upper,
						column:   col,
						compared: isComparedBy(tokens, end+1) || followsComparison(tokens, i),
					})
				}
			}
		}

		if t.IsOperator("::") && i+1 < len(tokens) {
			if col, ok := fragments.ColumnBefore(tokens, i); ok {
				end := i + 2
				if end < len(tokens) && tokens[end].Kind == tokenizer.LParen {
					end = fragments.MatchingParen(tokens, end) + 1
				}
				start := i - 2*strings.Count(col, ".") - 1
				if end > 0 && (isComparedBy(tokens, end) || followsComparison(tokens, start)) {
					p.calls = append(p.calls, call{
						name:     "::" + strings.ToUpper(tokens[i+1].Text),
						column:   col,
						compared: true,
					})
				}
			}
		}

		if t.Is("LIKE", "ILIKE") && i+1 < len(tokens) && tokens[i+1].Kind == tokenizer.String {
			pattern := fragments.Unquote(tokens[i+1])
			if strings.HasPrefix(pattern, "%") || strings.HasPrefix(pattern, "_") {
				col, _ := fragments.ColumnBefore(tokens, operandEnd(tokens, i))
				p.wildcards = append(p.wildcards, likeMatch{column: col, pattern: tokens[i+1].Text})
			}
		}

		if t.IsComparison() || t.Is("BETWEEN", "IN", "LIKE", "ILIKE", "IS") {
			if col, ok := fragments.ColumnBefore(tokens, operandEnd(tokens, i)); ok && !seen[strings.ToLower(col)] {
				seen[strings.ToLower(col)] = true
				p.columns = append(p.columns, col)
			}
		}
	}
	return p
}

// operandEnd steps back over a NOT in "x NOT LIKE", "x NOT IN" and "x NOT BETWEEN".
func operandEnd(tokens []tokenizer.Token, i int) int {
	if i > 0 && tokens[i-1].Is("NOT") {
		return i - 1
	}
	return i
}

func isComparedBy(tokens []tokenizer.Token, i int) bool {
	if i >= len(tokens) {
		return false
	}
	t := tokens[i]
	if t.Is("NOT") && i+1 < len(tokens) {
		t = tokens[i+1]
	}
	return t.IsComparison() || t.Is("LIKE", "ILIKE", "BETWEEN", "IN")
}

// followsComparison reports whether the operand starting at tokens[i] is the right
// side of a comparison.
func followsComparison(tokens []tokenizer.Token, i int) bool {
	if i <= 0 {
		return false
	}
	t := tokens[i-1]
	return t.IsComparison() || t.Is("LIKE", "ILIKE", "BETWEEN", "IN")
}

// wrappedColumn returns the first column referenced by a call's arguments.
func wrappedColumn(args []tokenizer.Token) string {
	for k := 0; k < len(args); k++ {
		t := args[k]
		switch {
		case t.Is("SELECT"), t.Is("AS"):
			return ""
		case t.Kind == tokenizer.Word && k+1 < len(args) && args[k+1].Kind == tokenizer.LParen:
			continue
		case t.Kind == tokenizer.Dot:
			continue
		}
		if col, _, ok := fragments.ColumnAt(args, k); ok {
			return col
		}
	}
	return ""
}

// nonSargable returns the calls that are compared against a value.
func (p *predicates) nonSargable() []call {
	var out []call
	for _, c := range p.calls {
		if c.compared {
			out = append(out, c)
		}
	}
	return out
}

// dateCalls returns the date or conversion calls wrapping a column.
func (p *predicates) dateCalls() []call {
	var out []call
	for _, c := range p.calls {
		if dateFunctions[c.name] || strings.HasPrefix(c.name, "::") {
			out = append(out, c)
		}
	}
	return out
}

// indexCandidates returns the filtered columns that no other index rule reported.
func (p *predicates) indexCandidates() []string {
	flagged := map[string]bool{}
	for _, c := range p.nonSargable() {
		flagged[strings.ToLower(c.column)] = true
	}
	for _, c := range p.dateCalls() {
		flagged[strings.ToLower(c.column)] = true
	}
	for _, w := range p.wildcards {
		flagged[strings.ToLower(w.column)] = true
	}

	var out []string
	for _, col := range p.columns {
		if !flagged[strings.ToLower(col)] {
			out = append(out, col)
		}
	}
	return out
}

// hasInSubquery reports whether the WHERE clause tests membership with IN (SELECT ...).
func hasInSubquery(where *fragments.Clause) bool {
	if where == nil {
		return false
	}
	tokens := where.Tokens
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Is("IN") && fragments.IsSubqueryStart(tokens, i+1) {
			return true
		}
	}
	return false
}

// sortColumns lists the ORDER BY expressions without direction modifiers. Ordinal
// positions are skipped.
func sortColumns(orderBy *fragments.Clause, src string) []string {
	var out []string
	for _, item := range orderBy.Items() {
		item = trimSortModifiers(item)
		if len(item) == 0 || (len(item) == 1 && item[0].Kind == tokenizer.Number) {
			continue
		}
		out = append(out, strings.TrimSpace(src[item[0].Pos:item[len(item)-1].End]))
	}
	return out
}

func trimSortModifiers(item []tokenizer.Token) []tokenizer.Token {
	for len(item) > 0 {
		last := item[len(item)-1]
		if !last.Is("ASC", "DESC", "NULLS", "FIRST", "LAST") {
			break
		}
		item = item[:len(item)-1]
	}
	return item
}

// ordinalItems returns the items of c that are bare column positions.
func ordinalItems(c *fragments.Clause) []string {
	var out []string
	for _, item := range c.Items() {
		item = trimSortModifiers(item)
		if len(item) == 1 && item[0].Kind == tokenizer.Number {
			out = append(out, item[0].Text)
		}
	}
	return out
}
