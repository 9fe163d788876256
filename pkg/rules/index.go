package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func init() {
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleNonSargable,
		Code:        advisor.NonSargable,
		Category:    types.Category_INDEX,
		Severity:    types.Severity_HIGH,
		Title:       "Non-SARGable condition detected",
		Description: "A function or cast is applied to a column before it is compared.",
	}, &NonSargableAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleLeadingWildcard,
		Code:        advisor.LeadingWildcard,
		Category:    types.Category_INDEX,
		Severity:    types.Severity_MEDIUM,
		Title:       "Leading wildcard in LIKE",
		Description: "A LIKE pattern in WHERE starts with a wildcard.",
	}, &LeadingWildcardAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleFilterColumns,
		Code:        advisor.FilterColumns,
		Category:    types.Category_INDEX,
		Severity:    types.Severity_MEDIUM,
		Title:       "Consider adding indexes",
		Description: "Columns filtered in WHERE of an unbounded query.",
	}, &FilterColumnsAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleSortColumns,
		Code:        advisor.SortColumns,
		Category:    types.Category_INDEX,
		Severity:    types.Severity_LOW,
		Title:       "Consider index for ORDER BY",
		Description: "ORDER BY columns of an unbounded query.",
	}, &SortColumnsAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleDateFunction,
		Code:        advisor.DateFunction,
		Category:    types.Category_INDEX,
		Severity:    types.Severity_MEDIUM,
		Title:       "Function in WHERE clause prevents index usage",
		Description: "A date or conversion function wraps a column in WHERE.",
	}, &DateFunctionAdvisor{})
}

// NonSargableAdvisor flags predicates that hide a column behind a function or cast.
type NonSargableAdvisor struct{}

// Check implements advisor.Advisor.
func (*NonSargableAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	calls := analyzePredicates(checkCtx.Fragments.Where).nonSargable()
	if len(calls) == 0 {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		fmt.Sprintf("Functions on columns in WHERE clause prevent index usage: %s", describeCalls(calls)),
		"Avoid functions on indexed columns in WHERE clauses",
		`-- Instead of:
WHERE UPPER(name) = 'JOHN'
-- Use:
WHERE name = 'John' -- or create a functional index`,
	)}, nil
}

// LeadingWildcardAdvisor flags LIKE patterns that start with a wildcard.
type LeadingWildcardAdvisor struct{}

// Check implements advisor.Advisor.
func (*LeadingWildcardAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	var out []*types.Suggestion
	for _, w := range analyzePredicates(checkCtx.Fragments.Where).wildcards {
		subject := "LIKE " + w.pattern
		if w.column != "" {
			subject = w.column + " " + subject
		}
		out = append(out, advisor.NewSuggestion(
			checkCtx.Rule,
			fmt.Sprintf("LIKE patterns starting with wildcards cannot use indexes efficiently: %s", subject),
			"Avoid leading wildcards or consider full-text search",
			`-- Instead of:
WHERE name LIKE '%john%'
-- Use:
WHERE name LIKE 'john%' -- or use full-text search`,
		))
	}
	return out, nil
}

// FilterColumnsAdvisor suggests indexes on the columns an unbounded query filters on.
type FilterColumnsAdvisor struct{}

// Check implements advisor.Advisor.
func (*FilterColumnsAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	if f.HasLimit() {
		return nil, nil
	}
	columns := analyzePredicates(f.Where).indexCandidates()
	if len(columns) == 0 {
		return nil, nil
	}
	list := advisor.JoinColumns(columns, 3)
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		fmt.Sprintf("Columns used in WHERE clause could benefit from indexes: %s", list),
		"Create indexes on frequently queried columns",
		fmt.Sprintf("CREATE INDEX idx_%s ON %s (%s);", indexName(columns), tableName(f.Tables, f.Target), list),
	)}, nil
}

// SortColumnsAdvisor suggests an index that serves the ORDER BY of an unbounded query.
type SortColumnsAdvisor struct{}

// Check implements advisor.Advisor.
func (*SortColumnsAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	if f.OrderBy == nil || f.HasLimit() {
		return nil, nil
	}
	columns := sortColumns(f.OrderBy, f.Text)
	description := "ORDER BY clauses can benefit from indexes"
	example := "CREATE INDEX idx_created_at ON users (created_at);"
	if len(columns) > 0 {
		list := advisor.JoinColumns(columns, 3)
		description = fmt.Sprintf("ORDER BY clauses can benefit from indexes: %s", list)
		example = fmt.Sprintf("CREATE INDEX idx_%s ON %s (%s);", indexName(columns), tableName(f.Tables, f.Target), list)
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		description,
		"Consider creating an index on ORDER BY columns",
		example,
	)}, nil
}

// DateFunctionAdvisor flags date and conversion functions wrapping a column.
type DateFunctionAdvisor struct{}

// Check implements advisor.Advisor.
func (*DateFunctionAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	calls := analyzePredicates(checkCtx.Fragments.Where).dateCalls()
	if len(calls) == 0 {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		fmt.Sprintf("Functions like YEAR(), MONTH(), CONVERT() in WHERE clause prevent index usage: %s", describeCalls(calls)),
		"Use range conditions instead of functions on columns",
		`-- Instead of:
WHERE YEAR(created_at) = 2023
-- Use:
WHERE created_at >= '2023-01-01' AND created_at < '2024-01-01'`,
	)}, nil
}

func describeCalls(calls []call) string {
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		if strings.HasPrefix(c.name, "::") {
			parts = append(parts, c.column+c.name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", c.name, c.column))
	}
	return advisor.JoinColumns(parts, 3)
}

// indexName derives an index name from column references.
func indexName(columns []string) string {
	if len(columns) > 3 {
		columns = columns[:3]
	}
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		if i := strings.LastIndex(col, "."); i >= 0 {
			col = col[i+1:]
		}
		if word := firstWord(strings.Trim(col, "`\"[]")); word != "" {
			parts = append(parts, strings.ToLower(word))
		}
	}
	if len(parts) == 0 {
		return "column_name"
	}
	return strings.Join(parts, "_")
}

// tableName picks the table an index example refers to.
func tableName(tables []string, target string) string {
	if len(tables) > 0 {
		if name := firstWord(tables[0]); name != "" {
			return name
		}
	}
	if name := firstWord(target); name != "" {
		return name
	}
	return "table_name"
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
