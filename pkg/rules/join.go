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
		Type:        advisor.RuleImplicitJoin,
		Code:        advisor.ImplicitJoin,
		Category:    types.Category_JOIN,
		Severity:    types.Severity_MEDIUM,
		Title:       "Use explicit JOINs",
		Description: "FROM lists comma-separated tables.",
	}, &ImplicitJoinAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleMissingJoinCondition,
		Code:        advisor.MissingJoinCondition,
		Category:    types.Category_JOIN,
		Severity:    types.Severity_HIGH,
		Title:       "Missing JOIN conditions",
		Description: "An explicit JOIN has no ON or USING condition.",
	}, &MissingJoinConditionAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleSubqueryToJoin,
		Code:        advisor.SubqueryToJoin,
		Category:    types.Category_JOIN,
		Severity:    types.Severity_MEDIUM,
		Title:       "Consider replacing subquery with JOIN",
		Description: "WHERE tests membership with IN (SELECT ...).",
	}, &SubqueryToJoinAdvisor{})
	advisor.Register(advisor.Rule{
		Type:        advisor.RuleCrossJoin,
		Code:        advisor.CrossJoin,
		Category:    types.Category_JOIN,
		Severity:    types.Severity_MEDIUM,
		Title:       "Review CROSS JOIN",
		Description: "An explicit CROSS JOIN produces a Cartesian product.",
	}, &CrossJoinAdvisor{})
}

// ImplicitJoinAdvisor flags comma joins in FROM.
type ImplicitJoinAdvisor struct{}

// Check implements advisor.Advisor.
func (*ImplicitJoinAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	f := checkCtx.Fragments
	if f.ImplicitJoinCount() == 0 {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		fmt.Sprintf("Implicit joins (comma-separated tables) are less readable and more error-prone: %s", strings.Join(f.Tables, ", ")),
		"Use explicit JOIN syntax",
		`-- Instead of:
FROM users u, orders o WHERE u.id = o.user_id
-- Use:
FROM users u JOIN orders o ON u.id = o.user_id`,
	)}, nil
}

// MissingJoinConditionAdvisor flags explicit joins that need a condition and have none.
type MissingJoinConditionAdvisor struct{}

// Check implements advisor.Advisor.
func (*MissingJoinConditionAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	var out []*types.Suggestion
	for _, j := range checkCtx.Fragments.Joins {
		if j.HasCondition || !j.NeedsCondition() {
			continue
		}
		out = append(out, advisor.NewSuggestion(
			checkCtx.Rule,
			fmt.Sprintf("%s %s has no ON or USING condition, which can produce a Cartesian product", j.Type, j.Table),
			"Ensure all JOINs have proper ON conditions",
			fmt.Sprintf("%s %s ON <left>.id = %s.<column>", j.Type, j.Table, joinAlias(j.Table)),
		))
	}
	return out, nil
}

// SubqueryToJoinAdvisor suggests rewriting IN (SELECT ...) as a join.
type SubqueryToJoinAdvisor struct{}

// Check implements advisor.Advisor.
func (*SubqueryToJoinAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	if !hasInSubquery(checkCtx.Fragments.Where) {
		return nil, nil
	}
	return []*types.Suggestion{advisor.NewSuggestion(
		checkCtx.Rule,
		"Subqueries in WHERE clauses can often be replaced with JOINs for better performance",
		"Convert IN subqueries to JOINs when possible",
		`-- Instead of:
SELECT * FROM users WHERE id IN (SELECT user_id FROM orders)
-- Use:
SELECT DISTINCT u.* FROM users u JOIN orders o ON u.id = o.user_id`,
	)}, nil
}

// CrossJoinAdvisor flags explicit CROSS JOIN.
type CrossJoinAdvisor struct{}

// Check implements advisor.Advisor.
func (*CrossJoinAdvisor) Check(_ context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
	var out []*types.Suggestion
	for _, j := range checkCtx.Fragments.Joins {
		if !strings.Contains(j.Type, "CROSS JOIN") {
			continue
		}
		out = append(out, advisor.NewSuggestion(
			checkCtx.Rule,
			fmt.Sprintf("CROSS JOIN %s returns every combination of rows", j.Table),
			"Make sure the Cartesian product is intended, otherwise use an INNER JOIN with a condition",
			fmt.Sprintf("JOIN %s ON <left>.id = %s.<column>", j.Table, joinAlias(j.Table)),
		))
	}
	return out, nil
}

// joinAlias returns the alias of a table reference, or its name.
func joinAlias(table string) string {
	fields := strings.Fields(table)
	if len(fields) == 0 {
		return "t"
	}
	return fields[len(fields)-1]
}
