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
		Type:        advisor.RuleHavingWithoutAggregate,
		Code:        advisor.HavingWithoutAggregate,
		Category:    types.Category_STRUCTURE,
		Severity:    types.Severity_MEDIUM,
		Title:       "Move HAVING condition to WHERE",
		Description: "HAVING filters on a condition without an aggregate.",
	}, &HavingWithoutAggregateAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleUnionDistinct,
		Code:        advisor.UnionDistinct,
		Category:    types.Category_STRUCTURE,
		Severity:    types.Severity_LOW,
		Title:       "Consider UNION ALL",
		Description: "UNION removes duplicates with an extra sort or hash step.",
	}, &UnionDistinctAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RulePositionalReference,
		Code:        advisor.PositionalReference,
		Category:    types.Category_STRUCTURE,
		Severity:    types.Severity_LOW,
		Title:       "Avoid positional column references",
		Description: "ORDER BY or GROUP BY refers to a column by its position.",
	}, &PositionalReferenceAdvisor{})
}

// HavingWithoutAggregateAdvisor flags HAVING predicates that belong in WHERE.
type HavingWithoutAggregateAdvisor struct{}

// Check implements advisor.Advisor.
func (*HavingWithoutAggregateAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	having := checkCtx.Fragments.Having
	if having == nil || fragments.ContainsAggregate(having.Tokens) {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		fmt.Sprintf("HAVING %s does not use an aggregate, so rows are filtered only after grouping", having.Text),
		"Filter non-aggregated conditions in WHERE so fewer rows are grouped",
		`-- Instead of:
SELECT status, COUNT(*) FROM orders GROUP BY status HAVING status <> 'void'
-- Use:
SELECT status, COUNT(*) FROM orders WHERE status <> 'void' GROUP BY status`,
	)}, nil
}

// UnionDistinctAdvisor flags UNION without ALL.
type UnionDistinctAdvisor struct{}

// Check implements advisor.Advisor.
func (*UnionDistinctAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	for _, op := range checkCtx.Fragments.SetOperators {
		if op != "UNION" {
			continue
		}
		return []*types.Suggestion{advisor.NewSuggestion(
			checkCtx.Rule,
			"UNION removes duplicate rows, which requires sorting or hashing the combined result",
			"Use UNION ALL when the branches cannot overlap or duplicates are acceptable",
			`SELECT id FROM active_users
UNION ALL
SELECT id FROM archived_users`,
		)}, nil
	}
	return nil, nil
}

// PositionalReferenceAdvisor flags ORDER BY 1 and GROUP BY 1.
type PositionalReferenceAdvisor struct{}

// Check implements advisor.Advisor.
func (*PositionalReferenceAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	var out []*types.Suggestion
	for _, c := range []*fragments.Clause{f.GroupBy, f.OrderBy} {
		positions := ordinalItems(c)
		if len(positions) == 0 {
			continue
		}
		out = append(out, advisor.NewSuggestion(
			checkCtx.Rule,
			fmt.Sprintf("%s refers to select list positions %s, which silently change when the select list changes", c.Keyword, advisor.JoinColumns(positions, 0)),
			"Name the columns or expressions explicitly",
			fmt.Sprintf("%s created_at DESC -- instead of %s %s", c.Keyword, c.Keyword, positions[0]),
		))
	}
	return out, nil
}
