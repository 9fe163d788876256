// Package grammar validates a statement against the full ANTLR grammar of its
// dialect. It complements the lightweight clause scanner with complete syntax checks
// for the dialects that have a grammar: MySQL and PostgreSQL.
package grammar

import (
	"github.com/pkg/errors"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

type validator func(statement string) *types.SyntaxError

var validators = map[types.Dialect]validator{
	types.Dialect_MYSQL:    validateMySQL,
	types.Dialect_POSTGRES: validatePostgres,
}

// Supported reports whether dialect has a grammar.
func Supported(dialect types.Dialect) bool {
	_, ok := validators[dialect]
	return ok
}

// Validate parses statement with the grammar of dialect and returns the first syntax
// error. Dialects without a grammar always validate.
func Validate(dialect types.Dialect, statement string) (errs []*types.SyntaxError) {
	v, ok := validators[dialect]
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = errors.Errorf("%v", r)
			}
			errs = []*types.SyntaxError{{Message: errors.Wrapf(err, "%s grammar failed", dialect).Error()}}
		}
	}()

	if err := v(statement); err != nil {
		return []*types.SyntaxError{err}
	}
	return nil
}
