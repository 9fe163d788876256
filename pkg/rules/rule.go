// Package rules holds the optimization rules. Each rule registers itself with the
// advisor package in init, in the order its suggestions are reported within its
// category.
package rules

import (
	"sync"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
)

var (
	defaultOnce    sync.Once
	defaultCatalog *advisor.Catalog
)

// Default returns the catalog of every registered rule. It is built once and
// shared read-only.
func Default() *advisor.Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = advisor.NewCatalog(Entries())
	})
	return defaultCatalog
}

// New returns a catalog of the registered rules without the disabled ones.
func New(disabled ...advisor.Type) *advisor.Catalog {
	if len(disabled) == 0 {
		return Default()
	}
	return advisor.NewCatalog(Entries(), disabled...)
}

// Entries returns the optimization rules in registration order.
func Entries() []advisor.Entry {
	var out []advisor.Entry
	for _, e := range advisor.Registered() {
		if known[e.Rule.Type] {
			out = append(out, e)
		}
	}
	return out
}

// Types returns the types of every optimization rule.
func Types() []advisor.Type {
	out := make([]advisor.Type, 0, len(known))
	for _, e := range Entries() {
		out = append(out, e.Rule.Type)
	}
	return out
}

var known = map[advisor.Type]bool{
	advisor.RuleSelectStar:             true,
	advisor.RuleMissingWhere:           true,
	advisor.RuleMissingLimit:           true,
	advisor.RuleRedundantDistinct:      true,
	advisor.RuleExistsOverIn:           true,
	advisor.RuleUnboundedSort:          true,
	advisor.RuleNonSargable:            true,
	advisor.RuleLeadingWildcard:        true,
	advisor.RuleFilterColumns:          true,
	advisor.RuleSortColumns:            true,
	advisor.RuleDateFunction:           true,
	advisor.RuleImplicitJoin:           true,
	advisor.RuleMissingJoinCondition:   true,
	advisor.RuleSubqueryToJoin:         true,
	advisor.RuleCrossJoin:              true,
	advisor.RuleHavingWithoutAggregate: true,
	advisor.RuleUnionDistinct:          true,
	advisor.RulePositionalReference:    true,
}
