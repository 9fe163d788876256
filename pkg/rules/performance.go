package rules

import (
	"context"
	"fmt"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func init() {
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleSelectStar,
		Code:        advisor.SelectStar,
		Category:    types.Category_PERFORMANCE,
		Severity:    types.Severity_MEDIUM,
		Title:       "Avoid SELECT *",
		Description: "The select list is exactly '*'.",
	}, &SelectStarAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleMissingWhere,
		Code:        advisor.MissingWhere,
		Category:    types.Category_PERFORMANCE,
		Severity:    types.Severity_HIGH,
		Title:       "Missing WHERE clause",
		Description: "The statement reads or modifies a table without a WHERE clause.",
	}, &MissingWhereAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleMissingLimit,
		Code:        advisor.MissingLimit,
		Category:    types.Category_PERFORMANCE,
		Severity:    types.Severity_MEDIUM,
		Title:       "Consider adding LIMIT clause",
		Description: "The query has no LIMIT, TOP, ROWNUM or FETCH FIRST bound.",
	}, &MissingLimitAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleRedundantDistinct,
		Code:        advisor.RedundantDistinct,
		Category:    types.Category_PERFORMANCE,
		Severity:    types.Severity_LOW,
		Title:       "Review DISTINCT usage",
		Description: "DISTINCT on a single-table query without aggregation.",
	}, &RedundantDistinctAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleExistsOverIn,
		Code:        advisor.ExistsOverIn,
		Category:    types.Category_PERFORMANCE,
		Severity:    types.Severity_LOW,
		Title:       "Consider EXISTS instead of IN",
		Description: "WHERE tests membership with IN (SELECT ...).",
	}, &ExistsOverInAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleUnboundedSort,
		Code:        advisor.UnboundedSort,
		Category:    types.Category_PERFORMANCE,
		Severity:    types.Severity_LOW,
		Title:       "ORDER BY without LIMIT",
		Description: "The whole result set is sorted but never bounded.",
	}, &UnboundedSortAdvisor{})
}

// SelectStarAdvisor flags SELECT *.
type SelectStarAdvisor struct{}

// Check implements advisor.Advisor.
func (*SelectStarAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	if !checkCtx.Fragments.SelectsStar() {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		"Using SELECT * retrieves all columns, which can impact performance",
		"Specify only the columns you need in the SELECT clause",
		"SELECT id, name, email FROM users; -- Instead of SELECT * FROM users;",
	)}, nil
}

// MissingWhereAdvisor flags unfiltered reads and writes.
type MissingWhereAdvisor struct{}

// Check implements advisor.Advisor.
func (*MissingWhereAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	if !f.HasFrom() || f.HasWhere() {
		return nil, nil
	}

	switch f.Kind {
	case fragments.KindUpdate, fragments.KindDelete:
		return []*types.Suggestion{advisor.NewSuggestion(
			checkCtx.Rule,
			fmt.Sprintf("%s without a WHERE clause affects every row of %s", f.Kind, f.Target),
			"Add a WHERE clause that restricts the rows to change",
			fmt.Sprintf("%s ... WHERE id = 42;", f.Kind),
		)}, nil
	default:
		return []*types.Suggestion{advisor.NewSuggestion(
			checkCtx.Rule,
			"Queries without WHERE clauses scan entire tables",
			"Add a WHERE clause to filter rows or use LIMIT for testing",
			"SELECT * FROM users WHERE status = 'active' "+limitIdiom(checkCtx.Dialect, 100)+";",
		)}, nil
	}
}

// MissingLimitAdvisor flags unbounded queries.
type MissingLimitAdvisor struct{}

// Check implements advisor.Advisor.
func (*MissingLimitAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	if f.Kind != fragments.KindSelect || !f.HasFrom() || f.HasLimit() {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		"Queries without LIMIT can return large result sets",
		"Add "+limitKeyword(checkCtx.Dialect)+" when you don't need all results",
		limitExample(checkCtx.Dialect, "SELECT id, name FROM users", 100),
	)}, nil
}

// RedundantDistinctAdvisor flags DISTINCT that is unlikely to remove anything.
type RedundantDistinctAdvisor struct{}

// Check implements advisor.Advisor.
func (*RedundantDistinctAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	if !f.Distinct || f.HasJoin() || f.HasAggregate() {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		"DISTINCT can be expensive and may not be necessary on a single-table query",
		"Ensure DISTINCT is actually needed or consider using GROUP BY",
		"-- Only use DISTINCT when you actually have duplicates to remove",
	)}, nil
}

// ExistsOverInAdvisor suggests EXISTS for IN subqueries.
type ExistsOverInAdvisor struct{}

// Check implements advisor.Advisor.
func (*ExistsOverInAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	if !hasInSubquery(checkCtx.Fragments.Where) {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		"EXISTS can be faster than IN for subqueries",
		"Use EXISTS when checking for existence rather than specific values",
		`-- Instead of:
WHERE id IN (SELECT user_id FROM orders)
-- Use:
WHERE EXISTS (SELECT 1 FROM orders WHERE orders.user_id = users.id)`,
	)}, nil
}

// UnboundedSortAdvisor flags sorting a result that is never bounded.
type UnboundedSortAdvisor struct{}

// Check implements advisor.Advisor.
func (*UnboundedSortAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	if f.Kind != fragments.KindSelect || f.OrderBy == nil || f.HasLimit() {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		"Sorting entire result sets can be expensive",
		"Consider adding "+limitKeyword(checkCtx.Dialect)+" when using ORDER BY if you don't need all sorted results",
		limitExample(checkCtx.Dialect, "SELECT id, name FROM users ORDER BY created_at DESC", 50),
	)}, nil
}

// limitKeyword names the row-limiting idiom of a dialect.
func limitKeyword(d types.Dialect) string {
	switch d {
	case types.Dialect_MSSQL:
		return "TOP"
	case types.Dialect_ORACLE:
		return "FETCH FIRST"
	default:
		return "LIMIT"
	}
}

func limitIdiom(d types.Dialect, n int) string {
	switch d {
	case types.Dialect_ORACLE:
		return fmt.Sprintf("FETCH FIRST %d ROWS ONLY", n)
	case types.Dialect_MSSQL:
		return fmt.Sprintf("ORDER BY id OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY", n)
	default:
		return fmt.Sprintf("LIMIT %d", n)
	}
}

// limitExample bounds a SELECT the way the dialect does it.
func limitExample(d types.Dialect, query string, n int) string {
	if d == types.Dialect_MSSQL {
		return fmt.Sprintf("SELECT TOP %d%s;", n, query[len("SELECT"):])
	}
	return fmt.Sprintf("%s %s;", query, limitIdiom(d, n))
}
