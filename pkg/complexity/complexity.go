// Package complexity scores how structurally complex a statement is.
package complexity

import (
	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/tokenizer"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Factor weights.
const (
	WeightJoin         = 2
	WeightImplicitJoin = 2
	WeightSubquery     = 3
	WeightSetOperator  = 2
	WeightCase         = 1
	WeightGroupBy      = 1
	WeightOrderBy      = 1
	WeightHaving       = 2
	WeightFunction     = 1
)

// Factors counts the structural features that contribute to the score.
type Factors struct {
	Joins         int `json:"joins"          yaml:"joins"`
	ImplicitJoins int `json:"implicit_joins" yaml:"implicit_joins"`
	Subqueries    int `json:"subqueries"     yaml:"subqueries"`
	SetOperators  int `json:"set_operators"  yaml:"set_operators"`
	CaseBranches  int `json:"case"           yaml:"case"`
	GroupBy       int `json:"group_by"       yaml:"group_by"`
	OrderBy       int `json:"order_by"       yaml:"order_by"`
	Having        int `json:"having"         yaml:"having"`
	Functions     int `json:"functions"      yaml:"functions"`
}

// Total is the weighted sum of the factors, clamped to [0, MaxComplexityScore].
func (f Factors) Total() int {
	score := f.Joins*WeightJoin +
		f.ImplicitJoins*WeightImplicitJoin +
		f.Subqueries*WeightSubquery +
		f.SetOperators*WeightSetOperator +
		f.CaseBranches*WeightCase +
		f.GroupBy*WeightGroupBy +
		f.OrderBy*WeightOrderBy +
		f.Having*WeightHaving +
		f.Functions*WeightFunction
	return clamp(score)
}

// Breakdown counts every scoring factor of f.
func Breakdown(f *fragments.Fragments) Factors {
	var out Factors
	if f == nil {
		return out
	}

	tokens := f.Tokens
	for i, t := range tokens {
		switch {
		case t.Is("JOIN", "STRAIGHT_JOIN", "APPLY"):
			out.Joins++
		case t.Is("UNION", "INTERSECT", "EXCEPT", "MINUS"):
			out.SetOperators++
		case t.Is("CASE"):
			out.CaseBranches++
		case t.Kind == tokenizer.LParen && fragments.IsSubqueryStart(tokens, i):
			out.Subqueries++
		case fragments.IsFunctionCall(tokens, i):
			out.Functions++
		}
	}

	out.ImplicitJoins = f.ImplicitJoinCount()
	if f.GroupBy != nil {
		out.GroupBy = 1
	}
	if f.OrderBy != nil {
		out.OrderBy = 1
	}
	if f.Having != nil {
		out.Having = 1
	}
	return out
}

// Score returns the complexity score of f in [0, MaxComplexityScore].
func Score(f *fragments.Fragments) int {
	return Breakdown(f).Total()
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > types.MaxComplexityScore {
		return types.MaxComplexityScore
	}
	return score
}
