// Package fragments builds a light structural view of a single SQL statement.
//
// Fragments is not a parse tree. Clause boundaries are found by scanning for
// top-level keywords in the token stream: a keyword counts only when it sits at the
// statement's parenthesis level and outside string literals and comments, so a WHERE
// inside a subquery or a quoted 'ORDER BY' never splits the outer statement. The
// scanner also reports representative structural defects (empty clauses, clauses out
// of order, dangling operators). It is a best-effort heuristic, not a validating parser.
package fragments

import (
	"strings"

	"github.com/nsxbet/sql-optimizer/pkg/tokenizer"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// StatementKind is the statement verb.
type StatementKind string

const (
	KindSelect StatementKind = "SELECT"
	KindInsert StatementKind = "INSERT"
	KindUpdate StatementKind = "UPDATE"
	KindDelete StatementKind = "DELETE"
)

// Limit keywords recorded in Fragments.LimitKeyword.
const (
	LimitKeywordLimit  = "LIMIT"
	LimitKeywordTop    = "TOP"
	LimitKeywordRownum = "ROWNUM"
	LimitKeywordFetch  = "FETCH FIRST"
)

// Clause is the body of one top-level clause.
type Clause struct {
	// Keyword is the normalized clause keyword, e.g. "GROUP BY".
	Keyword string
	// Text is the body as written in the source, without the keyword.
	Text string
	// Tokens holds the body tokens at every depth.
	Tokens []tokenizer.Token
	// Level is the parenthesis depth of the clause keyword.
	Level int
}

// Items splits the clause body at top-level commas.
func (c *Clause) Items() [][]tokenizer.Token {
	if c == nil {
		return nil
	}
	return SplitItems(c.Tokens, c.Level)
}

// Join is one explicit join in a FROM chain.
type Join struct {
	// Type is the normalized join keyword sequence, e.g. "LEFT OUTER JOIN".
	Type  string
	Table string
	// Condition is the ON predicate or USING column list.
	Condition    string
	HasCondition bool
	Using        bool
}

// NeedsCondition reports whether the join type requires an ON or USING condition.
func (j Join) NeedsCondition() bool {
	return !strings.Contains(j.Type, "CROSS") &&
		!strings.Contains(j.Type, "NATURAL") &&
		!strings.Contains(j.Type, "APPLY")
}

// Fragments is the structural view of one statement. It is read-only once built.
type Fragments struct {
	Text    string
	Dialect types.Dialect
	Kind    StatementKind
	// Tokens is the flat token stream without the statement terminator.
	Tokens []tokenizer.Token

	// Target is the table written to by INSERT, UPDATE and DELETE.
	Target   string
	CTECount int

	Distinct   bool
	SelectList *Clause
	From       *Clause
	// Tables lists the comma-separated table references of the FROM clause,
	// without the explicit joins attached to them.
	Tables  []string
	Joins   []Join
	Where   *Clause
	GroupBy *Clause
	Having  *Clause
	OrderBy *Clause
	Limit   *Clause
	// LimitKeyword names the row-limiting idiom in use, empty when unbounded.
	LimitKeyword string
	// Locking is the row locking clause, e.g. "FOR UPDATE".
	Locking string
	// TableHints lists SQL Server table hints such as NOLOCK.
	TableHints   []string
	SetOperators []string
}

// HasFrom reports whether the statement reads from at least one table.
func (f *Fragments) HasFrom() bool {
	return f.From != nil
}

// HasWhere reports whether the statement has a WHERE clause.
func (f *Fragments) HasWhere() bool {
	return f.Where != nil
}

// HasLimit reports whether any LIMIT-equivalent bounds the result.
func (f *Fragments) HasLimit() bool {
	return f.LimitKeyword != ""
}

// ImplicitJoinCount is the number of comma joins in the FROM clause.
func (f *Fragments) ImplicitJoinCount() int {
	if len(f.Tables) < 2 {
		return 0
	}
	return len(f.Tables) - 1
}

// HasJoin reports whether the statement joins tables explicitly or with commas.
func (f *Fragments) HasJoin() bool {
	return len(f.Joins) > 0 || f.ImplicitJoinCount() > 0
}

// HasAggregate reports whether the statement groups rows or selects an aggregate.
func (f *Fragments) HasAggregate() bool {
	if f.GroupBy != nil {
		return true
	}
	if f.SelectList == nil {
		return false
	}
	return ContainsAggregate(f.SelectList.Tokens)
}

// SelectsStar reports whether the select list is exactly "*".
func (f *Fragments) SelectsStar() bool {
	if f.SelectList == nil || len(f.SelectList.Tokens) != 1 {
		return false
	}
	return f.SelectList.Tokens[0].IsOperator("*")
}

// textOf returns the source text covered by tokens.
func textOf(src string, tokens []tokenizer.Token) string {
	if len(tokens) == 0 {
		return ""
	}
	return strings.TrimSpace(src[tokens[0].Pos:tokens[len(tokens)-1].End])
}

func newClause(src, keyword string, tokens []tokenizer.Token, level int) *Clause {
	return &Clause{
		Keyword: keyword,
		Text:    textOf(src, tokens),
		Tokens:  tokens,
		Level:   level,
	}
}
