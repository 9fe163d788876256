package tokenizer

// Kind classifies a token.
type Kind int

const (
	// Word is an unquoted identifier or keyword.
	Word Kind = iota + 1
	// QuotedIdent is a delimited identifier: "x", `x` or [x].
	QuotedIdent
	// String is a string literal, including dollar-quoted bodies.
	String
	Number
	Operator
	Comma
	Dot
	LParen
	RParen
	Semicolon
	// Placeholder is a bind parameter or variable: ?, $1, :name, @var.
	Placeholder
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "Word"
	case QuotedIdent:
		return "QuotedIdent"
	case String:
		return "String"
	case Number:
		return "Number"
	case Operator:
		return "Operator"
	case Comma:
		return "Comma"
	case Dot:
		return "Dot"
	case LParen:
		return "LParen"
	case RParen:
		return "RParen"
	case Semicolon:
		return "Semicolon"
	case Placeholder:
		return "Placeholder"
	default:
		return "Unknown"
	}
}

// Token is a single lexical unit of the query text.
type Token struct {
	Kind Kind
	// Text is the exact source text of the token.
	Text string
	// Upper is the upper-cased text for Word tokens and empty otherwise.
	Upper string
	// Pos and End are the byte offsets of the token in the source.
	Pos int
	End int
	// Line and Col are 1-based.
	Line int
	Col  int
	// Depth is the parenthesis nesting level the token sits at. An opening
	// parenthesis and its matching closing parenthesis share the outer level.
	Depth int
}

// Is reports whether the token is a Word equal to one of the given upper-case keywords.
func (t Token) Is(keywords ...string) bool {
	if t.Kind != Word {
		return false
	}
	for _, k := range keywords {
		if t.Upper == k {
			return true
		}
	}
	return false
}

// IsOperator reports whether the token is one of the given operators.
func (t Token) IsOperator(ops ...string) bool {
	if t.Kind != Operator {
		return false
	}
	for _, op := range ops {
		if t.Text == op {
			return true
		}
	}
	return false
}

// IsComparison reports whether the token is a comparison operator.
func (t Token) IsComparison() bool {
	return t.IsOperator("=", "==", "<", ">", "<=", ">=", "<>", "!=", "<=>")
}
