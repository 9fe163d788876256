package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the impact level of a suggestion. Higher values are more severe.
type Severity int32

const (
	Severity_SEVERITY_UNSPECIFIED Severity = 0
	Severity_LOW                  Severity = 1
	Severity_MEDIUM               Severity = 2
	Severity_HIGH                 Severity = 3
)

func (s Severity) String() string {
	switch s {
	case Severity_LOW:
		return "low"
	case Severity_MEDIUM:
		return "medium"
	case Severity_HIGH:
		return "high"
	default:
		return "unspecified"
	}
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "low":
		return Severity_LOW
	case "medium":
		return Severity_MEDIUM
	case "high":
		return Severity_HIGH
	default:
		return Severity_SEVERITY_UNSPECIFIED
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseSeverity(str)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Severity
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Category groups rules by the kind of problem they detect.
type Category int32

// Categories are declared in catalog evaluation order.
const (
	Category_CATEGORY_UNSPECIFIED Category = 0
	Category_PERFORMANCE          Category = 1
	Category_INDEX                Category = 2
	Category_JOIN                 Category = 3
	Category_STRUCTURE            Category = 4
)

func (c Category) String() string {
	switch c {
	case Category_PERFORMANCE:
		return "performance"
	case Category_INDEX:
		return "index"
	case Category_JOIN:
		return "join"
	case Category_STRUCTURE:
		return "structure"
	default:
		return "unspecified"
	}
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) Category {
	switch strings.ToLower(s) {
	case "performance":
		return Category_PERFORMANCE
	case "index":
		return Category_INDEX
	case "join":
		return Category_JOIN
	case "structure":
		return Category_STRUCTURE
	default:
		return Category_CATEGORY_UNSPECIFIED
	}
}

// MarshalJSON implements json.Marshaler for Category
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler for Category
func (c *Category) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*c = ParseCategory(str)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Category
func (c Category) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// Suggestion is a single optimization finding. Suggestions are values and are
// never modified after a rule produced them.
type Suggestion struct {
	Type           string   `json:"type"              yaml:"type"`
	Code           int32    `json:"code"              yaml:"code"`
	Category       Category `json:"category"          yaml:"category"`
	Severity       Severity `json:"severity"          yaml:"severity"`
	Title          string   `json:"title"             yaml:"title"`
	Description    string   `json:"description"       yaml:"description"`
	Recommendation string   `json:"suggestion"        yaml:"suggestion"`
	Example        string   `json:"example,omitempty" yaml:"example,omitempty"`
}

// Position is a 1-based location in the query text.
type Position struct {
	Line   int32 `json:"line"   yaml:"line"`
	Column int32 `json:"column" yaml:"column"`
}

// SyntaxError describes one structural defect found while tokenizing a query.
type SyntaxError struct {
	Message  string    `json:"message"            yaml:"message"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
	// Code is the advisor code of the failure, set by the analyzer.
	Code int32 `json:"code,omitempty" yaml:"code,omitempty"`
}

// Error returns the error message.
func (e *SyntaxError) Error() string {
	if e.Position != nil {
		return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Position.Line, e.Position.Column, e.Message)
	}
	return fmt.Sprintf("syntax error: %s", e.Message)
}
