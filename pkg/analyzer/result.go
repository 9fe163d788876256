package analyzer

import (
	"fmt"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Summary provides aggregate statistics about an analysis result.
type Summary struct {
	// Total number of suggestions (high + medium + low)
	Total  int
	High   int
	Medium int
	Low    int

	// SyntaxErrors is the number of syntax errors. When it is non-zero there are no
	// suggestions.
	SyntaxErrors int

	ComplexityScore int
	ComplexityLevel string
}

// Summarize computes aggregate statistics from a result.
func Summarize(r *types.AnalysisResult) Summary {
	summary := Summary{
		SyntaxErrors:    len(r.SyntaxErrors),
		ComplexityScore: r.ComplexityScore,
		ComplexityLevel: types.ComplexityLevel(r.ComplexityScore),
	}
	for _, s := range r.Suggestions {
		summary.Total++
		switch s.Severity {
		case types.Severity_HIGH:
			summary.High++
		case types.Severity_MEDIUM:
			summary.Medium++
		case types.Severity_LOW:
			summary.Low++
		}
	}
	return summary
}

// String returns a human-readable summary.
//
// Example output:
//
//	Analysis Results: 3 suggestions (1 high, 2 medium, 0 low), complexity 5 (Simple)
func (s Summary) String() string {
	if s.SyntaxErrors > 0 {
		return fmt.Sprintf("Analysis Results: %d syntax errors", s.SyntaxErrors)
	}
	return fmt.Sprintf(
		"Analysis Results: %d suggestions (%d high, %d medium, %d low), complexity %d (%s)",
		s.Total,
		s.High,
		s.Medium,
		s.Low,
		s.ComplexityScore,
		s.ComplexityLevel,
	)
}

// HasHighSeverity reports whether the statement has a syntax error or a high-severity
// suggestion.
//
// This is useful for CI pipelines that should fail on serious findings:
//
//	if analyzer.HasHighSeverity(result) {
//	    os.Exit(1)
//	}
func HasHighSeverity(r *types.AnalysisResult) bool {
	if len(r.SyntaxErrors) > 0 {
		return true
	}
	for _, s := range r.Suggestions {
		if s.Severity == types.Severity_HIGH {
			return true
		}
	}
	return false
}

// FilterBySeverity returns the suggestions with the given severity, in result order.
func FilterBySeverity(r *types.AnalysisResult, severity types.Severity) []*types.Suggestion {
	filtered := make([]*types.Suggestion, 0)
	for _, s := range r.Suggestions {
		if s.Severity == severity {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// FilterByCategory returns the suggestions of the given category, in result order.
//
//	for _, s := range analyzer.FilterByCategory(result, types.Category_INDEX) {
//	    fmt.Println(s.Recommendation)
//	}
func FilterByCategory(r *types.AnalysisResult, category types.Category) []*types.Suggestion {
	filtered := make([]*types.Suggestion, 0)
	for _, s := range r.Suggestions {
		if s.Category == category {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
