// Package tips generates execution-plan tips for an analyzed statement.
//
// Tips come in two groups. Structural tips depend only on the statement shape (joins,
// grouping, sorting, pattern matching). Dialect tips describe how the target database
// shows its plan, bounds and pages results, locks rows and accepts optimizer hints.
// Unknown dialects get a dialect-neutral set.
package tips

import (
	"github.com/nsxbet/sql-optimizer/pkg/fragments"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Structural tips.
const (
	TipJoin            = "Ensure JOIN conditions use indexed columns for better performance"
	TipGroupBy         = "Consider adding indexes on GROUP BY columns"
	TipOrderBy         = "Indexes on ORDER BY columns can eliminate sort operations"
	TipLike            = "Consider full-text search for complex text searches"
	TipStraightforward = "Query looks straightforward - ensure your tables have appropriate indexes"
)

// dialectTips is the tip set of one database family. Empty entries are skipped.
type dialectTips struct {
	explain string
	// bound is reported for a SELECT without a LIMIT-equivalent.
	bound string
	// paginate is reported for a SELECT that already bounds its result.
	paginate string
	locking  string
	hints    string
}

var byDialect = map[types.Dialect]dialectTips{
	types.Dialect_MYSQL: {
		explain:  "Run EXPLAIN FORMAT=TREE, or EXPLAIN ANALYZE on MySQL 8.0.18+, to see the chosen access paths",
		bound:    "Bound large reads with LIMIT n; combine it with ORDER BY so the rows returned are deterministic",
		paginate: "For deep pages prefer keyset pagination (WHERE id > :last_id ORDER BY id LIMIT n) over a large OFFSET",
		locking:  "SELECT ... FOR UPDATE locks every index record the plan scans in InnoDB; filter on an indexed column to keep the locked range small",
		hints:    "Index hints (USE INDEX, FORCE INDEX) and optimizer hints (/*+ ... */) can steer the plan when statistics mislead the optimizer",
	},
	types.Dialect_POSTGRES: {
		explain:  "Run EXPLAIN (ANALYZE, BUFFERS) to compare estimated and actual row counts",
		bound:    "Bound large reads with LIMIT n, or FETCH FIRST n ROWS ONLY",
		paginate: "For deep pages prefer keyset pagination (WHERE id > $1 ORDER BY id LIMIT n) over a large OFFSET",
		locking:  "Row locks are held until commit; use FOR UPDATE SKIP LOCKED for queue-style consumers and NOWAIT to fail fast",
	},
	types.Dialect_ORACLE: {
		explain:  "Run EXPLAIN PLAN FOR the query, then SELECT * FROM TABLE(DBMS_XPLAN.DISPLAY)",
		bound:    "Bound large reads with FETCH FIRST n ROWS ONLY (12c+) or a ROWNUM filter",
		paginate: "Use OFFSET m ROWS FETCH NEXT n ROWS ONLY (12c+) instead of nested ROWNUM subqueries",
		locking:  "Add NOWAIT or SKIP LOCKED to FOR UPDATE to avoid waiting on rows locked by other sessions",
		hints:    "Optimizer hints such as /*+ INDEX(table index_name) */ go right after the SELECT keyword",
	},
	types.Dialect_MSSQL: {
		explain:  "Use SET STATISTICS IO ON and the actual execution plan (SET STATISTICS XML ON) to inspect reads",
		bound:    "Bound large reads with TOP (n), or OFFSET m ROWS FETCH NEXT n ROWS ONLY with ORDER BY",
		paginate: "Page with ORDER BY ... OFFSET m ROWS FETCH NEXT n ROWS ONLY; for deep pages filter on the last key instead",
		locking:  "Table hints like NOLOCK read uncommitted data; prefer READ COMMITTED SNAPSHOT isolation to avoid blocking",
		hints:    "Query hints go in OPTION (...), e.g. OPTION (RECOMPILE) for parameter-sensitive plans",
	},
	types.Dialect_SQLITE: {
		explain:  "Run EXPLAIN QUERY PLAN to check whether SQLite uses an index or scans the table",
		bound:    "Bound large reads with LIMIT n",
		paginate: "For deep pages prefer keyset pagination (WHERE rowid > ? ORDER BY rowid LIMIT n) over a large OFFSET",
		locking:  "SQLite locks the whole database file for writes; keep write transactions short instead of relying on row locks",
		hints:    "INDEXED BY index_name forces an index; run ANALYZE so the planner has statistics",
	},
}

var generic = dialectTips{
	explain:  "Use your database's EXPLAIN command to review the execution plan before running the query on large tables",
	bound:    "Bound large reads with your database's row-limiting clause (LIMIT, TOP or FETCH FIRST)",
	paginate: "For deep pages prefer keyset pagination (filter on the last seen key) over a large OFFSET",
	locking:  "Row locks are held until the transaction ends; keep locking transactions short",
}

const tipRownumOrder = "ROWNUM is assigned before ORDER BY is applied; sort in a subquery and filter ROWNUM outside it, or use FETCH FIRST"

// Generate returns the execution-plan tips for f in a fixed order: structural tips
// first, then the tips of dialect.
func Generate(dialect types.Dialect, f *fragments.Fragments) []string {
	if f == nil {
		return nil
	}
	out := structural(f)

	d, ok := byDialect[dialect]
	if !ok {
		d = generic
	}
	add := func(tip string) {
		if tip != "" {
			out = append(out, tip)
		}
	}

	add(d.explain)
	if f.Kind == fragments.KindSelect {
		if f.HasLimit() {
			add(d.paginate)
		} else {
			add(d.bound)
		}
	}
	if f.LimitKeyword == fragments.LimitKeywordRownum && f.OrderBy != nil {
		add(tipRownumOrder)
	}
	if f.Locking != "" || len(f.TableHints) > 0 {
		add(d.locking)
	}
	add(d.hints)
	return out
}

func structural(f *fragments.Fragments) []string {
	var out []string
	if f.HasJoin() {
		out = append(out, TipJoin)
	}
	if f.GroupBy != nil {
		out = append(out, TipGroupBy)
	}
	if f.OrderBy != nil {
		out = append(out, TipOrderBy)
	}
	if hasLike(f) {
		out = append(out, TipLike)
	}
	if len(out) == 0 {
		out = append(out, TipStraightforward)
	}
	return out
}

func hasLike(f *fragments.Fragments) bool {
	for _, t := range f.Tokens {
		if t.Is("LIKE", "ILIKE") {
			return true
		}
	}
	return false
}
