package grammar

import (
	"fmt"

	"github.com/antlr4-go/antlr/v4"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// parseErrorListener records the first error reported by an ANTLR lexer or parser.
type parseErrorListener struct {
	*antlr.DefaultErrorListener
	err *types.SyntaxError
}

func newParseErrorListener() *parseErrorListener {
	return &parseErrorListener{DefaultErrorListener: antlr.NewDefaultErrorListener()}
}

// SyntaxError implements antlr.ErrorListener.
func (l *parseErrorListener) SyntaxError(
	_ antlr.Recognizer,
	token any,
	line, column int,
	message string,
	_ antlr.RecognitionException,
) {
	if l.err != nil {
		return
	}

	related := ""
	if token, ok := token.(*antlr.CommonToken); ok {
		stream := token.GetInputStream()
		start := token.GetStart() - 40
		if start < 0 {
			start = 0
		}
		stop := token.GetStop()
		if stop >= stream.Size() {
			stop = stream.Size() - 1
		}
		if stop >= start {
			related = fmt.Sprintf(" (related text: %s)", stream.GetTextFromInterval(antlr.NewInterval(start, stop)))
		}
	}

	l.err = &types.SyntaxError{
		Message: message + related,
		Position: &types.Position{
			Line:   int32(line),
			Column: int32(column + 1),
		},
	}
}
