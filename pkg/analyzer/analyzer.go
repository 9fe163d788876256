// Package analyzer provides the high-level API for SQL analysis.
//
// An Analyzer turns one SQL statement into an AnalysisResult: optimization
// suggestions, a complexity score, execution-plan tips, or the syntax errors that make
// the statement impossible to analyze.
//
// # Quick Start
//
//	result := analyzer.AnalyzeQuery("SELECT * FROM users WHERE UPPER(name) = 'JOHN'", "mysql")
//	for _, s := range result.Suggestions {
//	    fmt.Printf("[%s] %s\n", s.Severity, s.Title)
//	}
//
// # Custom Analyzer
//
//	a := analyzer.New(
//	    analyzer.WithDisabledRules("performance.missing-limit"),
//	    analyzer.WithStrictGrammar(true),
//	)
//	result, err := a.Analyze(ctx, query, "postgres")
//
// # Using Configuration Files
//
//	a, err := analyzer.NewFromConfigFile("sql-optimizer.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// An Analyzer is immutable once built and safe for concurrent use by multiple goroutines.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
	"github.com/nsxbet/sql-optimizer/pkg/complexity"
	"github.com/nsxbet/sql-optimizer/pkg/config"
	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/grammar"
	"github.com/nsxbet/sql-optimizer/pkg/rules"
	"github.com/nsxbet/sql-optimizer/pkg/tips"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Analyzer runs the analysis pipeline: fragments, rules, score and tips.
type Analyzer struct {
	catalog     *advisor.Catalog
	disabled    []advisor.Type
	dialect     types.Dialect
	strict      bool
	parallelism int
	logger      *slog.Logger
	fingerprint string
}

// New creates an Analyzer with every rule enabled unless options say otherwise.
//
// Example:
//
//	a := analyzer.New(analyzer.WithParallelism(4))
//	result, err := a.Analyze(ctx, "SELECT * FROM users", "mysql")
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	if a.catalog == nil {
		a.catalog = rules.Default()
	}
	a.catalog = a.catalog.Without(a.disabled...)
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.fingerprint = fingerprint(a.catalog.Rules(), a.strict)
	return a
}

// NewFromConfigFile creates an Analyzer configured from a YAML or JSON file. Options
// are applied after the file.
func NewFromConfigFile(filename string, opts ...Option) (*Analyzer, error) {
	cfg, err := config.LoadFromFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", filename)
	}
	if err := cfg.Validate(typeNames(rules.Types())); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", filename)
	}
	return New(append([]Option{WithConfigObject(cfg)}, opts...)...), nil
}

// Rules returns the enabled rules in evaluation order.
func (a *Analyzer) Rules() []advisor.Rule {
	return a.catalog.Rules()
}

// Dialect returns the dialect used when Analyze receives an empty dialect tag.
func (a *Analyzer) Dialect() types.Dialect {
	return a.dialect
}

// Fingerprint identifies the settings that change results: the enabled rule types and
// strict grammar. Two analyzers with the same fingerprint give the same result for the
// same statement and dialect.
func (a *Analyzer) Fingerprint() string {
	return a.fingerprint
}

// Analyze analyzes one statement. The dialect tag is matched case-insensitively; an
// empty tag selects the analyzer's configured dialect and an unrecognized one the
// generic dialect.
//
// Syntax errors are part of the result, not an error: the result then carries the
// errors, no suggestions, no tips and a score of 0. The only error returned is the
// context's, in which case the result is nil.
func (a *Analyzer) Analyze(ctx context.Context, text, dialect string) (*types.AnalysisResult, error) {
	d := a.dialect
	if strings.TrimSpace(dialect) != "" {
		d = types.ParseDialect(dialect)
	}
	return a.AnalyzeDialect(ctx, text, d)
}

// AnalyzeDialect is Analyze with a parsed dialect.
func (a *Analyzer) AnalyzeDialect(ctx context.Context, text string, dialect types.Dialect) (*types.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &types.AnalysisResult{
		Query:             text,
		Dialect:           dialect,
		Suggestions:       []*types.Suggestion{},
		ExecutionPlanTips: []string{},
	}

	f, errs := fragments.Build(text, dialect)
	if len(errs) == 0 && a.strict {
		if grammar.Supported(dialect) {
			errs = grammar.Validate(dialect, text)
		} else {
			a.logger.Debug("no grammar for dialect, strict validation skipped",
				slog.String("dialect", dialect.String()),
			)
		}
	}
	if len(errs) > 0 {
		for _, e := range errs {
			e.Code = advisor.StatementSyntaxError.Int32()
		}
		a.logger.Debug("statement rejected",
			slog.String("dialect", dialect.String()),
			slog.Int("syntax_errors", len(errs)),
			slog.String("statement", advisor.NormalizeStatement(text)),
		)
		result.SyntaxErrors = errs
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if suggestions := a.catalog.Run(ctx, f, advisor.RunOptions{
		Parallelism: a.parallelism,
		Logger:      a.logger,
	}); len(suggestions) > 0 {
		result.Suggestions = suggestions
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.ComplexityScore = complexity.Score(f)
	if list := tips.Generate(dialect, f); len(list) > 0 {
		result.ExecutionPlanTips = list
	}

	a.logger.Debug("statement analyzed",
		slog.String("dialect", dialect.String()),
		slog.Int("suggestions", len(result.Suggestions)),
		slog.Int("complexity_score", result.ComplexityScore),
	)
	return result, nil
}

var defaultAnalyzer = sync.OnceValue(func() *Analyzer {
	return New()
})

// AnalyzeQuery analyzes a statement with the default analyzer.
func AnalyzeQuery(text, dialect string) *types.AnalysisResult {
	// a background context is never cancelled, so there is no error
	result, _ := defaultAnalyzer().Analyze(context.Background(), text, dialect)
	return result
}

func fingerprint(enabled []advisor.Rule, strict bool) string {
	names := make([]string, 0, len(enabled))
	for _, r := range enabled {
		names = append(names, string(r.Type))
	}
	slices.Sort(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}
	h.Write([]byte("strict=" + strconv.FormatBool(strict)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func typeNames(list []advisor.Type) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, string(t))
	}
	return out
}
