package grammar

import (
	"github.com/antlr4-go/antlr/v4"
	parser "github.com/bytebase/parser/postgresql"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func validatePostgres(statement string) *types.SyntaxError {
	lexer := parser.NewPostgreSQLLexer(antlr.NewInputStream(statement))
	lexerErrorListener := newParseErrorListener()
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(lexerErrorListener)

	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)
	p := parser.NewPostgreSQLParser(stream)
	p.BuildParseTrees = true

	parserErrorListener := newParseErrorListener()
	p.RemoveErrorListeners()
	p.AddErrorListener(parserErrorListener)

	p.Root()

	if lexerErrorListener.err != nil {
		return lexerErrorListener.err
	}
	return parserErrorListener.err
}
