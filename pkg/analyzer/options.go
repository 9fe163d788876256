package analyzer

import (
	"log/slog"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
	"github.com/nsxbet/sql-optimizer/pkg/config"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Option is a functional option for customizing an Analyzer.
type Option func(*Analyzer)

// WithCatalog replaces the default rule catalog.
//
// Example:
//
//	c := advisor.NewCatalog(rules.Entries(), advisor.RuleSelectStar)
//	a := analyzer.New(analyzer.WithCatalog(c))
func WithCatalog(c *advisor.Catalog) Option {
	return func(a *Analyzer) {
		a.catalog = c
	}
}

// WithDisabledRules removes rules from the catalog by type.
//
// Example:
//
//	a := analyzer.New(analyzer.WithDisabledRules("performance.missing-limit", "index.sort-columns"))
func WithDisabledRules(ruleTypes ...string) Option {
	return func(a *Analyzer) {
		for _, t := range ruleTypes {
			a.disabled = append(a.disabled, advisor.Type(t))
		}
	}
}

// WithDialect sets the dialect used when Analyze receives an empty dialect tag.
func WithDialect(d types.Dialect) Option {
	return func(a *Analyzer) {
		a.dialect = d
	}
}

// WithParallelism evaluates up to n rules concurrently per statement. Suggestion
// order does not depend on n.
func WithParallelism(n int) Option {
	return func(a *Analyzer) {
		a.parallelism = n
	}
}

// WithStrictGrammar also validates MySQL and PostgreSQL statements against their
// full ANTLR grammar.
func WithStrictGrammar(strict bool) Option {
	return func(a *Analyzer) {
		a.strict = strict
	}
}

// WithLogger sets the logger rule faults and debug traces go to.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithConfigObject applies a configuration: dialect, strict mode, parallelism and
// disabled rules.
//
// Example:
//
//	cfg := config.DefaultConfig("ci")
//	cfg.Rules = []*config.RuleConfig{{Type: "performance.missing-limit", Level: config.RuleLevelDisabled}}
//	a := analyzer.New(analyzer.WithConfigObject(cfg))
func WithConfigObject(cfg *config.Config) Option {
	return func(a *Analyzer) {
		if cfg == nil {
			return
		}
		a.dialect = cfg.Dialect
		a.strict = cfg.Strict
		a.parallelism = cfg.Parallelism
		WithDisabledRules(cfg.DisabledRules()...)(a)
	}
}
