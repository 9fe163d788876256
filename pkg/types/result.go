package types

// MaxComplexityScore is the upper bound of AnalysisResult.ComplexityScore.
const MaxComplexityScore = 100

// AnalysisResult is the diagnosis returned for one query.
//
// When SyntaxErrors is non-empty, Suggestions and ExecutionPlanTips are empty and
// ComplexityScore is 0.
type AnalysisResult struct {
	Query             string         `json:"query"                  yaml:"query"`
	Dialect           Dialect        `json:"dialect"                yaml:"dialect"`
	Suggestions       []*Suggestion  `json:"suggestions"            yaml:"suggestions"`
	ComplexityScore   int            `json:"complexity_score"       yaml:"complexity_score"`
	ExecutionPlanTips []string       `json:"execution_plan_tips"    yaml:"execution_plan_tips"`
	SyntaxErrors      []*SyntaxError `json:"syntax_errors,omitempty" yaml:"syntax_errors,omitempty"`
}

// ComplexityLevel labels a complexity score with the reference thresholds:
// 0-20 Simple, 21-40 Moderate, 41-70 Complex, 71-100 Very Complex.
func ComplexityLevel(score int) string {
	switch {
	case score <= 20:
		return "Simple"
	case score <= 40:
		return "Moderate"
	case score <= 70:
		return "Complex"
	default:
		return "Very Complex"
	}
}
