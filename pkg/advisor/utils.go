package advisor

import (
	"regexp"
	"strings"
)

var (
	blankRun   = regexp.MustCompile(`[\t ]+`)
	newlineRun = regexp.MustCompile(`\n\s*`)
)

// NormalizeStatement collapses whitespace and limits the length of a statement
// for logging.
func NormalizeStatement(statement string) string {
	statement = strings.TrimSpace(statement)
	statement = blankRun.ReplaceAllString(statement, " ")
	statement = newlineRun.ReplaceAllString(statement, "\n")

	maxLength := 1000
	if strings.Contains(statement, "\n") {
		maxLength = 2000
	}
	if len(statement) <= maxLength {
		return statement
	}

	truncated := statement[:maxLength]
	if lastNewline := strings.LastIndex(truncated, "\n"); lastNewline > maxLength-200 {
		truncated = truncated[:lastNewline]
	}
	return truncated + "..."
}

// JoinColumns formats a column list for messages, keeping at most limit entries.
func JoinColumns(columns []string, limit int) string {
	if limit > 0 && len(columns) > limit {
		columns = columns[:limit]
	}
	return strings.Join(columns, ", ")
}
