package fragments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func mustBuild(t *testing.T, sql string, dialect types.Dialect) *Fragments {
	t.Helper()
	f, errs := Build(sql, dialect)
	require.Empty(t, errs, "unexpected syntax errors for %q", sql)
	require.NotNil(t, f)
	return f
}

func TestBuild_Select(t *testing.T) {
	f := mustBuild(t, "SELECT DISTINCT u.name, COUNT(*) FROM users u WHERE u.active = 1 GROUP BY u.name HAVING COUNT(*) > 1 ORDER BY u.name LIMIT 10;", types.Dialect_DIALECT_UNSPECIFIED)

	assert.Equal(t, KindSelect, f.Kind)
	assert.True(t, f.Distinct)
	assert.Equal(t, "u.name, COUNT(*)", f.SelectList.Text)
	assert.Equal(t, "users u", f.From.Text)
	assert.Equal(t, []string{"users u"}, f.Tables)
	assert.Equal(t, "u.active = 1", f.Where.Text)
	assert.Equal(t, "u.name", f.GroupBy.Text)
	assert.Equal(t, "COUNT(*) > 1", f.Having.Text)
	assert.Equal(t, "u.name", f.OrderBy.Text)
	assert.Equal(t, "10", f.Limit.Text)
	assert.Equal(t, LimitKeywordLimit, f.LimitKeyword)
	assert.True(t, f.HasAggregate())
	assert.False(t, f.HasJoin())
	assert.NotEqual(t, ";", f.Tokens[len(f.Tokens)-1].Text)
}

func TestBuild_KeywordsInsideStringsAndSubqueries(t *testing.T) {
	f := mustBuild(t, "SELECT 'ORDER BY x' AS label FROM t WHERE id IN (SELECT id FROM s WHERE x = 1 ORDER BY id)", types.Dialect_DIALECT_UNSPECIFIED)

	assert.Nil(t, f.OrderBy)
	assert.Equal(t, "id IN (SELECT id FROM s WHERE x = 1 ORDER BY id)", f.Where.Text)
	assert.False(t, f.HasLimit())
}

func TestBuild_Joins(t *testing.T) {
	f := mustBuild(t, `SELECT * FROM users u
		LEFT OUTER JOIN orders o ON o.user_id = u.id
		JOIN items i USING (order_id)
		CROSS JOIN regions
		JOIN products p`, types.Dialect_DIALECT_UNSPECIFIED)

	require.Len(t, f.Joins, 4)
	assert.Equal(t, []string{"users u"}, f.Tables)

	assert.Equal(t, "LEFT OUTER JOIN", f.Joins[0].Type)
	assert.Equal(t, "orders o", f.Joins[0].Table)
	assert.Equal(t, "o.user_id = u.id", f.Joins[0].Condition)
	assert.True(t, f.Joins[0].HasCondition)

	assert.True(t, f.Joins[1].Using)
	assert.Equal(t, "(order_id)", f.Joins[1].Condition)

	assert.Equal(t, "CROSS JOIN", f.Joins[2].Type)
	assert.False(t, f.Joins[2].NeedsCondition())

	assert.Equal(t, "products p", f.Joins[3].Table)
	assert.False(t, f.Joins[3].HasCondition)
	assert.True(t, f.Joins[3].NeedsCondition())
}

func TestBuild_ImplicitJoin(t *testing.T) {
	f := mustBuild(t, "SELECT u.name FROM users u, orders o, products p WHERE u.id = o.user_id", types.Dialect_DIALECT_UNSPECIFIED)

	assert.Equal(t, []string{"users u", "orders o", "products p"}, f.Tables)
	assert.Equal(t, 2, f.ImplicitJoinCount())
	assert.True(t, f.HasJoin())
}

func TestBuild_LimitEquivalents(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		dialect types.Dialect
		want    string
	}{
		{"limit", "SELECT a FROM t LIMIT 5 OFFSET 10", types.Dialect_POSTGRES, LimitKeywordLimit},
		{"top", "SELECT TOP 10 a FROM t", types.Dialect_MSSQL, LimitKeywordTop},
		{"top with parens", "SELECT DISTINCT TOP (5) PERCENT a FROM t", types.Dialect_MSSQL, LimitKeywordTop},
		{"rownum", "SELECT a FROM t WHERE ROWNUM <= 10", types.Dialect_ORACLE, LimitKeywordRownum},
		{"fetch first", "SELECT a FROM t ORDER BY a FETCH FIRST 10 ROWS ONLY", types.Dialect_ORACLE, LimitKeywordFetch},
		{"offset fetch", "SELECT a FROM t ORDER BY a OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY", types.Dialect_MSSQL, LimitKeywordFetch},
		{"unbounded", "SELECT a FROM t OFFSET 10", types.Dialect_POSTGRES, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustBuild(t, tt.sql, tt.dialect)
			assert.Equal(t, tt.want, f.LimitKeyword)
		})
	}
}

func TestBuild_TopIsNotPartOfSelectList(t *testing.T) {
	f := mustBuild(t, "SELECT TOP 10 * FROM t", types.Dialect_MSSQL)
	assert.True(t, f.SelectsStar())
}

func TestBuild_CompoundStatement(t *testing.T) {
	f := mustBuild(t, "SELECT a FROM t WHERE x = 1 UNION SELECT a FROM s UNION ALL SELECT a FROM r ORDER BY a LIMIT 3", types.Dialect_DIALECT_UNSPECIFIED)

	assert.Equal(t, []string{"UNION", "UNION ALL"}, f.SetOperators)
	assert.Equal(t, []string{"t"}, f.Tables)
	assert.Equal(t, "x = 1", f.Where.Text)
	assert.Equal(t, "a", f.OrderBy.Text)
	assert.True(t, f.HasLimit())
}

func TestBuild_ParenthesizedQuery(t *testing.T) {
	f := mustBuild(t, "(SELECT a FROM t WHERE b = 1) UNION (SELECT a FROM s) ORDER BY a", types.Dialect_MYSQL)

	assert.Equal(t, KindSelect, f.Kind)
	assert.Equal(t, []string{"t"}, f.Tables)
	assert.Equal(t, "b = 1", f.Where.Text)
	assert.Equal(t, []string{"UNION"}, f.SetOperators)
	assert.Equal(t, "a", f.OrderBy.Text)
}

func TestBuild_With(t *testing.T) {
	f := mustBuild(t, "WITH recent AS (SELECT * FROM orders WHERE d > '2024-01-01'), big AS MATERIALIZED (SELECT 1) SELECT r.id FROM recent r", types.Dialect_POSTGRES)

	assert.Equal(t, KindSelect, f.Kind)
	assert.Equal(t, 2, f.CTECount)
	assert.Equal(t, "r.id", f.SelectList.Text)
	assert.Nil(t, f.Where)
}

func TestBuild_Locking(t *testing.T) {
	f := mustBuild(t, "SELECT * FROM t WHERE id = 1 FOR UPDATE", types.Dialect_POSTGRES)
	assert.Equal(t, "FOR UPDATE", f.Locking)

	f = mustBuild(t, "SELECT * FROM t WHERE id = 1 LOCK IN SHARE MODE", types.Dialect_MYSQL)
	assert.Equal(t, "LOCK IN SHARE MODE", f.Locking)

	f = mustBuild(t, "SELECT * FROM t WITH (NOLOCK) WHERE id = 1", types.Dialect_MSSQL)
	assert.Equal(t, []string{"NOLOCK"}, f.TableHints)
}

func TestBuild_DML(t *testing.T) {
	f := mustBuild(t, "UPDATE users SET active = 0 WHERE last_login < '2020-01-01'", types.Dialect_DIALECT_UNSPECIFIED)
	assert.Equal(t, KindUpdate, f.Kind)
	assert.Equal(t, "users", f.Target)
	assert.Equal(t, "last_login < '2020-01-01'", f.Where.Text)

	f = mustBuild(t, "DELETE FROM sessions", types.Dialect_DIALECT_UNSPECIFIED)
	assert.Equal(t, KindDelete, f.Kind)
	assert.Equal(t, "sessions", f.Target)
	assert.True(t, f.HasFrom())
	assert.False(t, f.HasWhere())

	f = mustBuild(t, "INSERT INTO archive (id, name) VALUES (1, 'a')", types.Dialect_DIALECT_UNSPECIFIED)
	assert.Equal(t, KindInsert, f.Kind)
	assert.Equal(t, "archive", f.Target)
	assert.Nil(t, f.SelectList)

	f = mustBuild(t, "INSERT INTO archive SELECT * FROM users WHERE active = 0", types.Dialect_DIALECT_UNSPECIFIED)
	assert.Equal(t, KindInsert, f.Kind)
	assert.True(t, f.SelectsStar())
	assert.Equal(t, []string{"users"}, f.Tables)
}

func TestBuild_InsertSources(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		tables   []string
		ctes     int
		hasWhere bool
	}{
		{"select", "INSERT INTO t SELECT * FROM x WHERE id > 1", []string{"x"}, 0, true},
		{"parenthesized select", "INSERT INTO t (SELECT * FROM x)", []string{"x"}, 0, false},
		{"with", "INSERT INTO t WITH x AS (SELECT 1) SELECT * FROM x", []string{"x"}, 1, false},
		{"parenthesized with", "INSERT INTO t (WITH x AS (SELECT 1) SELECT * FROM x)", []string{"x"}, 1, false},
		{"parenthesized with and columns", "INSERT INTO t (a, b) (WITH x AS (SELECT 1, 2), y AS (SELECT 3, 4) SELECT * FROM x WHERE a > 0)", []string{"x"}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustBuild(t, tt.sql, types.Dialect_DIALECT_UNSPECIFIED)
			assert.Equal(t, KindInsert, f.Kind)
			assert.Equal(t, "t", f.Target)
			assert.True(t, f.SelectsStar())
			assert.Equal(t, tt.tables, f.Tables)
			assert.Equal(t, tt.ctes, f.CTECount)
			assert.Equal(t, tt.hasWhere, f.HasWhere())
		})
	}

	_, errs := Build("INSERT INTO t (WITH x AS (SELECT 1) DELETE FROM x)", types.Dialect_DIALECT_UNSPECIFIED)
	require.NotEmpty(t, errs)
	assert.Equal(t, "INSERT ... WITH must be followed by a SELECT", errs[0].Message)
}

func TestBuild_IsDistinctFromIsNotAClause(t *testing.T) {
	f := mustBuild(t, "SELECT a FROM t WHERE a IS DISTINCT FROM b", types.Dialect_POSTGRES)
	assert.Equal(t, []string{"t"}, f.Tables)
	assert.Equal(t, "a IS DISTINCT FROM b", f.Where.Text)
}

func TestBuild_WithinGroupIsNotAClause(t *testing.T) {
	f := mustBuild(t, "SELECT PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY x) FROM t", types.Dialect_POSTGRES)
	assert.Nil(t, f.GroupBy)
	assert.True(t, f.HasAggregate())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantMsg string
	}{
		{"empty", "   ", "query text is empty"},
		{"only a comment", "-- nothing here", "query contains no SQL statement"},
		{"misspelled keyword", "selet * from users;", `unrecognized statement keyword "selet", did you mean SELECT?`},
		{"unknown keyword", "foo bar", `unrecognized statement keyword "foo"`},
		{"unsupported statement", "DROP TABLE users", "unsupported statement type DROP: only SELECT, INSERT, UPDATE, DELETE and WITH queries can be analyzed"},
		{"not a keyword", "42", `statement must begin with a SQL keyword, found "42"`},
		{"empty select list", "SELECT FROM users", "SELECT list is empty"},
		{"empty from", "SELECT * FROM WHERE id = 1", "FROM clause has no table"},
		{"empty where", "SELECT * FROM users WHERE", "WHERE clause has no condition"},
		{"dangling operator", "SELECT * FROM users WHERE id =", `WHERE condition ends with a dangling "="`},
		{"dangling and", "SELECT * FROM users WHERE id = 1 AND", `WHERE condition ends with a dangling "AND"`},
		{"leading and", "SELECT * FROM users WHERE AND id = 1", `WHERE condition starts with a dangling "AND"`},
		{"group without by", "SELECT a FROM t GROUP a", "expected BY after GROUP"},
		{"order without by", "SELECT a FROM t ORDER a", "expected BY after ORDER"},
		{"clause out of order", "SELECT a FROM t GROUP BY a WHERE a > 1", "WHERE clause cannot appear after GROUP BY"},
		{"duplicate clause", "SELECT a FROM t WHERE a > 1 WHERE a < 5", "duplicate WHERE clause"},
		{"join without table", "SELECT * FROM a JOIN ON a.id = 1", "JOIN without a table"},
		{"join without preceding table", "SELECT * FROM JOIN b ON b.id = 1", "JOIN without a preceding table"},
		{"empty on", "SELECT * FROM a LEFT JOIN b ON", "ON clause has no condition"},
		{"join outside from", "SELECT a JOIN b", "JOIN must follow a FROM clause"},
		{"trailing comma", "SELECT a, FROM t", "SELECT list has an empty item"},
		{"empty limit", "SELECT a FROM t LIMIT", "LIMIT clause has no row count"},
		{"multiple statements", "SELECT 1; SELECT 2", `multiple statements are not supported: unexpected "SELECT" after ';'`},
		{"union without query", "SELECT a FROM t UNION", "UNION must be followed by a query"},
		{"order by before union", "SELECT a FROM t ORDER BY a UNION SELECT a FROM s", "UNION cannot follow ORDER BY or LIMIT of a query branch"},
		{"with without statement", "WITH x AS (SELECT 1)", "WITH clause must be followed by a SELECT, INSERT, UPDATE or DELETE statement"},
		{"update without set", "UPDATE users WHERE id = 1", "UPDATE statement has no SET clause"},
		{"delete without table", "DELETE WHERE id = 1", "DELETE statement has no target table"},
		{"insert without values", "INSERT INTO users", "INSERT statement has no VALUES or SELECT"},
		{"unterminated string", "SELECT * FROM t WHERE a = 'x", "unterminated string literal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, errs := Build(tt.sql, types.Dialect_DIALECT_UNSPECIFIED)
			assert.Nil(t, f)
			require.NotEmpty(t, errs)
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, e.Message)
			}
			assert.Contains(t, messages, tt.wantMsg)
		})
	}
}

func TestBuild_ErrorPosition(t *testing.T) {
	_, errs := Build("SELECT *\nFROM users\nWHERE", types.Dialect_DIALECT_UNSPECIFIED)
	require.Len(t, errs, 1)
	require.NotNil(t, errs[0].Position)
	assert.Equal(t, int32(3), errs[0].Position.Line)
	assert.Equal(t, int32(1), errs[0].Position.Column)
}

func TestClosestKeyword(t *testing.T) {
	assert.Equal(t, "SELECT", closestKeyword("SELET", analyzableStatements))
	assert.Equal(t, "DELETE", closestKeyword("DELTE", analyzableStatements))
	assert.Equal(t, "UPDATE", closestKeyword("UPDTAE", analyzableStatements))
	assert.Equal(t, "", closestKeyword("FOO", analyzableStatements))
	assert.Equal(t, "", closestKeyword("SE", analyzableStatements))
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("SELECT", "SELECT"))
	assert.Equal(t, 1, editDistance("SELET", "SELECT"))
	assert.Equal(t, 3, editDistance("", "ABC"))
}

func TestHelpers(t *testing.T) {
	f := mustBuild(t, "SELECT a FROM t WHERE UPPER(t.name) = 'X' AND id IN (SELECT COUNT(*) FROM s)", types.Dialect_DIALECT_UNSPECIFIED)
	tokens := f.Where.Tokens

	assert.True(t, IsFunctionCall(tokens, 0))
	assert.False(t, IsFunctionCall(tokens, 2))

	name, next, ok := ColumnAt(tokens, 2)
	require.True(t, ok)
	assert.Equal(t, "t.name", name)
	assert.Equal(t, 5, next)

	mask := SubqueryMask(tokens)
	assert.False(t, ContainsAggregate(tokens))
	assert.True(t, mask[len(tokens)-1])
	assert.False(t, mask[0])
}
