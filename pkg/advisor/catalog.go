package advisor

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Catalog is an ordered, immutable set of rules. Rules run in category order
// (performance, index, join, structure) and in registration order within a category.
type Catalog struct {
	entries []Entry
}

// NewCatalog builds a catalog from entries, leaving out the disabled rule types.
func NewCatalog(list []Entry, disabled ...Type) *Catalog {
	skip := make(map[Type]bool, len(disabled))
	for _, t := range disabled {
		skip[t] = true
	}

	kept := make([]Entry, 0, len(list))
	for _, e := range list {
		if e.Advisor == nil || skip[e.Rule.Type] {
			continue
		}
		kept = append(kept, e)
	}
	sortEntries(kept)
	return &Catalog{entries: kept}
}

// Without returns a new catalog without the given rule types.
func (c *Catalog) Without(disabled ...Type) *Catalog {
	if len(disabled) == 0 {
		return c
	}
	return NewCatalog(c.entries, disabled...)
}

// Len returns the number of rules in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Rules returns the rule descriptors in evaluation order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Rule)
	}
	return out
}

// Rule looks up a rule descriptor by type.
func (c *Catalog) Rule(t Type) (Rule, bool) {
	for _, e := range c.entries {
		if e.Rule.Type == t {
			return e.Rule, true
		}
	}
	return Rule{}, false
}

// RunOptions tunes Catalog.Run.
type RunOptions struct {
	// Parallelism bounds the number of rules evaluated concurrently. Values below 2
	// evaluate sequentially.
	Parallelism int
	Logger      *slog.Logger
}

// Run evaluates every rule against f and returns the suggestions in catalog order.
// A rule that fails or panics is logged and skipped; it never aborts the run.
func (c *Catalog) Run(ctx context.Context, f *fragments.Fragments, opts RunOptions) []*types.Suggestion {
	log := logger(opts.Logger)
	results := make([][]*types.Suggestion, len(c.entries))

	eval := func(i int) {
		e := c.entries[i]
		rule := e.Rule
		list, err := Check(ctx, e.Advisor, Context{
			Fragments: f,
			Dialect:   f.Dialect,
			Rule:      &rule,
		})
		if err != nil {
			log.Warn("rule evaluation failed, skipping rule",
				slog.String("rule", string(rule.Type)),
				slog.Int("code", int(Internal)),
				slog.String("error", err.Error()),
			)
			return
		}
		for _, s := range list {
			if s == nil {
				continue
			}
			// category and severity are fixed per rule
			s.Type = string(rule.Type)
			s.Code = rule.Code.Int32()
			s.Category = rule.Category
			s.Severity = rule.Severity
			if s.Title == "" {
				s.Title = rule.Title
			}
			results[i] = append(results[i], s)
		}
	}

	if opts.Parallelism > 1 && len(c.entries) > 1 {
		p := pool.New().WithMaxGoroutines(opts.Parallelism)
		for i := range c.entries {
			i := i
			p.Go(func() { eval(i) })
		}
		p.Wait()
	} else {
		for i := range c.entries {
			eval(i)
		}
	}

	var out []*types.Suggestion
	for _, list := range results {
		out = append(out, list...)
	}
	return out
}
