package grammar

import (
	"strings"

	"github.com/antlr4-go/antlr/v4"
	mysql "github.com/gedhean/mysql-parser"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func validateMySQL(statement string) *types.SyntaxError {
	statement = mysqlAddSemicolonIfNeeded(statement)

	lexer := mysql.NewMySQLLexer(antlr.NewInputStream(statement))
	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)
	p := mysql.NewMySQLParser(stream)

	lexerErrorListener := newParseErrorListener()
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(lexerErrorListener)

	parserErrorListener := newParseErrorListener()
	p.RemoveErrorListeners()
	p.AddErrorListener(parserErrorListener)

	p.BuildParseTrees = true
	p.Script()

	if lexerErrorListener.err != nil {
		return lexerErrorListener.err
	}
	return parserErrorListener.err
}

// mysqlAddSemicolonIfNeeded terminates the last statement, which the MySQL grammar
// requires before EOF.
func mysqlAddSemicolonIfNeeded(sql string) string {
	lexer := mysql.NewMySQLLexer(antlr.NewInputStream(sql))
	lexerErrorListener := newParseErrorListener()
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(lexerErrorListener)
	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)
	stream.Fill()
	if lexerErrorListener.err != nil {
		// the parse reports the lexer error again
		return sql
	}
	tokens := stream.GetAllTokens()
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].GetChannel() != antlr.TokenDefaultChannel || tokens[i].GetTokenType() == mysql.MySQLParserEOF {
			continue
		}

		if tokens[i].GetTokenType() == mysql.MySQLParserSEMICOLON_SYMBOL {
			return sql
		}

		var result []string
		result = append(result, stream.GetTextFromInterval(antlr.NewInterval(0, tokens[i].GetTokenIndex())))
		result = append(result, ";")
		result = append(result, stream.GetTextFromInterval(antlr.NewInterval(tokens[i].GetTokenIndex()+1, tokens[len(tokens)-1].GetTokenIndex())))
		return strings.Join(result, "")
	}
	return sql
}
