// Package advisor defines the rule framework: rule descriptors, the Advisor
// interface every rule implements, the registry rules add themselves to, and the
// ordered Catalog the analyzer evaluates.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Type is the identifier of a rule, e.g. "performance.select-star".
type Type string

const (
	// RuleSelectStar flags a select list that is exactly '*'.
	RuleSelectStar Type = "performance.select-star"
	// RuleMissingWhere flags statements that read or modify a table without a WHERE clause.
	RuleMissingWhere Type = "performance.missing-where"
	// RuleMissingLimit flags queries with no LIMIT-equivalent.
	RuleMissingLimit Type = "performance.missing-limit"
	// RuleRedundantDistinct flags DISTINCT on a single-table query without aggregation.
	RuleRedundantDistinct Type = "performance.redundant-distinct"
	// RuleExistsOverIn suggests EXISTS for IN (SELECT ...) membership tests.
	RuleExistsOverIn Type = "performance.exists-over-in"
	// RuleUnboundedSort flags ORDER BY without a LIMIT-equivalent.
	RuleUnboundedSort Type = "performance.unbounded-sort"

	// RuleNonSargable flags functions or casts applied to a column before a comparison.
	RuleNonSargable Type = "index.non-sargable"
	// RuleLeadingWildcard flags LIKE patterns that start with a wildcard.
	RuleLeadingWildcard Type = "index.leading-wildcard"
	// RuleFilterColumns suggests indexes on filtered columns.
	RuleFilterColumns Type = "index.filter-columns"
	// RuleSortColumns suggests an index on ORDER BY columns.
	RuleSortColumns Type = "index.sort-columns"
	// RuleDateFunction flags date and conversion functions wrapping a column in WHERE.
	RuleDateFunction Type = "index.date-function"

	// RuleImplicitJoin flags comma-separated tables in FROM.
	RuleImplicitJoin Type = "join.implicit"
	// RuleMissingJoinCondition flags explicit joins without ON or USING.
	RuleMissingJoinCondition Type = "join.missing-condition"
	// RuleSubqueryToJoin suggests rewriting IN (SELECT ...) as a join.
	RuleSubqueryToJoin Type = "join.subquery-to-join"
	// RuleCrossJoin flags explicit CROSS JOIN.
	RuleCrossJoin Type = "join.cross-join"

	// RuleHavingWithoutAggregate flags HAVING predicates that could be WHERE predicates.
	RuleHavingWithoutAggregate Type = "structure.having-without-aggregate"
	// RuleUnionDistinct flags UNION where UNION ALL may do.
	RuleUnionDistinct Type = "structure.union-distinct"
	// RulePositionalReference flags ORDER BY or GROUP BY by column position.
	RulePositionalReference Type = "structure.positional-reference"
)

// Rule describes a catalog entry. Category and severity are fixed properties of the rule.
type Rule struct {
	Type        Type           `json:"type"        yaml:"type"`
	Code        Code           `json:"code"        yaml:"code"`
	Category    types.Category `json:"category"    yaml:"category"`
	Severity    types.Severity `json:"severity"    yaml:"severity"`
	Title       string         `json:"title"       yaml:"title"`
	Description string         `json:"description" yaml:"description"`
}

// Context is what a rule inspects.
type Context struct {
	Fragments *fragments.Fragments
	Dialect   types.Dialect
	Rule      *Rule
}

// Advisor is the interface for advisor.
type Advisor interface {
	Check(ctx context.Context, checkCtx Context) ([]*types.Suggestion, error)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(ctx context.Context, checkCtx Context) ([]*types.Suggestion, error)

// Check calls fn.
func (fn AdvisorFunc) Check(ctx context.Context, checkCtx Context) ([]*types.Suggestion, error) {
	return fn(ctx, checkCtx)
}

// Entry binds a rule descriptor to its implementation.
type Entry struct {
	Rule    Rule
	Advisor Advisor
}

var (
	advisorMu sync.RWMutex
	advisors  = make(map[Type]Advisor)
	entries   []Entry
)

// Register makes an advisor available for the provided rule.
// If Register is called twice with the same rule type or if advisor is nil,
// it panics.
func Register(rule Rule, f Advisor) {
	advisorMu.Lock()
	defer advisorMu.Unlock()
	if f == nil {
		panic("advisor: Register advisor is nil")
	}
	if _, dup := advisors[rule.Type]; dup {
		panic(fmt.Sprintf("advisor: Register called twice for advisor %v", rule.Type))
	}
	advisors[rule.Type] = f
	entries = append(entries, Entry{Rule: rule, Advisor: f})
}

// Registered returns the registered entries in registration order.
func Registered() []Entry {
	advisorMu.RLock()
	defer advisorMu.RUnlock()
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Check runs the advisor and returns its suggestions. A panicking advisor is
// recovered and reported as an error.
func Check(ctx context.Context, f Advisor, checkCtx Context) (suggestions []*types.Suggestion, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panicErr, ok := panicErr.(error)
			if !ok {
				panicErr = errors.Errorf("%v", panicErr)
			}
			ruleType := Type("")
			if checkCtx.Rule != nil {
				ruleType = checkCtx.Rule.Type
			}
			suggestions = nil
			err = errors.Errorf("advisor check PANIC RECOVER, type: %v, err: %v", ruleType, panicErr)
		}
	}()

	if checkCtx.Fragments == nil {
		return nil, errors.New("advisor: no statement fragments to check")
	}
	return f.Check(ctx, checkCtx)
}

// NewSuggestion builds a suggestion for rule. Type, code, category, severity and
// title always come from the rule.
func NewSuggestion(rule *Rule, description, recommendation, example string) *types.Suggestion {
	return &types.Suggestion{
		Type:           string(rule.Type),
		Code:           int32(rule.Code),
		Category:       rule.Category,
		Severity:       rule.Severity,
		Title:          rule.Title,
		Description:    description,
		Recommendation: recommendation,
		Example:        example,
	}
}

// sortEntries orders entries by category, keeping registration order within a category.
func sortEntries(list []Entry) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Rule.Category < list[j].Rule.Category
	})
}

// logger returns l or the default slog logger.
func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
