// Package pkg provides SQL query analysis and optimization advice for Go applications.
//
// SQL Optimizer reads one SQL statement at a time, without a database connection,
// and reports optimization suggestions, a complexity score and execution-plan tips.
//
// # Package Structure
//
// The pkg directory contains several specialized packages:
//
//   - analyzer: High-level API (recommended starting point)
//   - advisor: Rule framework, registration and the ordered rule catalog
//   - rules: The built-in optimization rules
//   - fragments: Clause extraction from a tokenized statement
//   - tokenizer: Dialect-aware SQL tokenizer
//   - complexity: Complexity scoring
//   - tips: Execution-plan tips per dialect
//   - grammar: Optional full-grammar validation for MySQL and PostgreSQL
//   - types: Core type definitions and data structures
//   - config: Configuration loading and management
//   - cache: Redis result cache for the HTTP API
//   - server: HTTP API
//   - logger: Logging abstraction layer
//
// # Getting Started
//
//	import "github.com/nsxbet/sql-optimizer/pkg/analyzer"
//
//	func main() {
//	    result := analyzer.AnalyzeQuery("SELECT * FROM users WHERE UPPER(name) = 'JOHN'", "mysql")
//	    for _, s := range result.Suggestions {
//	        fmt.Printf("[%s] %s: %s\n", s.Severity, s.Title, s.Recommendation)
//	    }
//	}
//
// # Rule Categories
//
// Performance: SELECT *, missing WHERE, missing LIMIT, DISTINCT, IN vs EXISTS,
// unbounded sorts.
//
// Index: non-SARGable predicates, leading wildcards, date functions on columns,
// index candidates for filter and sort columns.
//
// Join: implicit joins, joins without a condition, IN subqueries, CROSS JOIN.
//
// Structure: HAVING without aggregates, UNION vs UNION ALL, positional references.
//
// # Configuration
//
// Rules can be switched off via YAML/JSON files or programmatically:
//
//	a, err := analyzer.NewFromConfigFile("sql-optimizer.yaml")
//	a := analyzer.New(analyzer.WithDisabledRules("performance.missing-limit"))
//
// # Custom Rules
//
// Implement custom rules by satisfying the Advisor interface:
//
//	type MyRule struct{}
//
//	func (r *MyRule) Check(ctx context.Context, checkCtx advisor.Context) ([]*types.Suggestion, error) {
//	    // Inspect checkCtx.Fragments
//	    return suggestions, nil
//	}
//
//	entries := append(rules.Entries(), advisor.Entry{Rule: myRule, Advisor: &MyRule{}})
//	a := analyzer.New(analyzer.WithCatalog(advisor.NewCatalog(entries)))
//
// # Thread Safety
//
// All public APIs are safe for concurrent use by multiple goroutines.
// Analyzer instances can be reused across any number of queries.
//
// # Error Handling
//
// Analysis distinguishes between:
//   - Syntax errors (returned in AnalysisResult.SyntaxErrors, with no suggestions)
//   - Cancellation (returned as error from Analyze)
//
// Individual rule failures are logged and skipped, so one faulty rule never hides
// the suggestions of the others.
package pkg
