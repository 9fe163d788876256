package fragments

import (
	"fmt"
	"strings"

	"github.com/nsxbet/sql-optimizer/pkg/tokenizer"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// analyzableStatements are the leading keywords Build accepts.
var analyzableStatements = []string{"SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "REPLACE"}

// unsupportedStatements are valid SQL verbs that cannot be analyzed.
var unsupportedStatements = wordSet(
	"CREATE", "ALTER", "DROP", "TRUNCATE", "RENAME", "GRANT", "REVOKE", "EXPLAIN", "SHOW",
	"DESCRIBE", "DESC", "USE", "SET", "BEGIN", "START", "COMMIT", "ROLLBACK", "SAVEPOINT",
	"CALL", "EXEC", "EXECUTE", "MERGE", "LOCK", "UNLOCK", "ANALYZE", "VACUUM", "OPTIMIZE",
	"COPY", "LOAD", "DECLARE", "PREPARE", "DEALLOCATE", "VALUES", "PRAGMA", "COMMENT",
)

var selectRanks = map[string]int{
	"SELECT":    1,
	"FROM":      3,
	"WHERE":     4,
	"GROUP BY":  5,
	"HAVING":    6,
	"WINDOW":    7,
	"ORDER BY":  8,
	"LIMIT":     9,
	"OFFSET":    9,
	"FETCH":     9,
	"RETURNING": 12,
}

var updateRanks = map[string]int{
	"SET":       1,
	"FROM":      2,
	"WHERE":     3,
	"ORDER BY":  4,
	"LIMIT":     5,
	"RETURNING": 6,
}

var deleteRanks = map[string]int{
	"FROM":      1,
	"USING":     2,
	"WHERE":     3,
	"ORDER BY":  4,
	"LIMIT":     5,
	"RETURNING": 6,
}

// section is a clause keyword and the tokens up to the next clause keyword.
// The first section of a split is the prelude and has no keyword.
type section struct {
	name  string
	kw    tokenizer.Token
	hasKw bool
	body  []tokenizer.Token
}

type recognizer func(tokens []tokenizer.Token, i int) (name string, width int)

// splitSections cuts tokens at the clause keywords recognized at the given depth.
func splitSections(tokens []tokenizer.Token, level int, recognize recognizer) []section {
	var sections []section
	cur := section{}
	start := 0
	for i := 0; i < len(tokens); {
		t := tokens[i]
		if t.Depth == level && t.Kind == tokenizer.Word {
			if name, width := recognize(tokens, i); width > 0 {
				cur.body = tokens[start:i]
				sections = append(sections, cur)
				cur = section{name: name, kw: t, hasKw: true}
				start = i + width
				i += width
				continue
			}
		}
		i++
	}
	cur.body = tokens[start:]
	return append(sections, cur)
}

func at(tokens []tokenizer.Token, i int) tokenizer.Token {
	if i >= 0 && i < len(tokens) {
		return tokens[i]
	}
	return tokenizer.Token{}
}

func isDistinctFrom(tokens []tokenizer.Token, i int) bool {
	return at(tokens, i-1).Is("DISTINCT") && at(tokens, i-2).Is("IS", "NOT")
}

func orderKeyword(tokens []tokenizer.Token, i int) (string, int) {
	if at(tokens, i+1).Is("BY") {
		return "ORDER BY", 2
	}
	if at(tokens, i+1).Is("SIBLINGS") && at(tokens, i+2).Is("BY") {
		return "ORDER BY", 3
	}
	return "ORDER", 1
}

func selectKeyword(tokens []tokenizer.Token, i int) (string, int) {
	t := tokens[i]
	switch t.Upper {
	case "SELECT", "INTO", "WHERE", "HAVING", "LIMIT", "OFFSET", "RETURNING":
		return t.Upper, 1
	case "FROM":
		if isDistinctFrom(tokens, i) {
			return "", 0
		}
		return "FROM", 1
	case "GROUP":
		if at(tokens, i-1).Is("WITHIN") {
			return "", 0
		}
		if at(tokens, i+1).Is("BY") {
			return "GROUP BY", 2
		}
		return "GROUP", 1
	case "ORDER":
		return orderKeyword(tokens, i)
	case "WINDOW":
		if at(tokens, i+2).Is("AS") {
			return "WINDOW", 1
		}
	case "FETCH":
		if at(tokens, i+1).Is("FIRST", "NEXT") {
			return "FETCH", 1
		}
	case "FOR":
		if at(tokens, i+1).Is("UPDATE", "SHARE", "NO", "KEY", "READ", "XML", "JSON", "BROWSE") {
			return "FOR", 1
		}
	case "LOCK":
		if at(tokens, i+1).Is("IN") {
			return "LOCK", 1
		}
	case "OPTION":
		if at(tokens, i+1).Kind == tokenizer.LParen {
			return "OPTION", 1
		}
	case "UNION", "INTERSECT", "EXCEPT", "MINUS":
		if at(tokens, i+1).Is("ALL") {
			return t.Upper + " ALL", 2
		}
		if at(tokens, i+1).Is("DISTINCT") {
			return t.Upper, 2
		}
		return t.Upper, 1
	}
	return "", 0
}

func updateKeyword(tokens []tokenizer.Token, i int) (string, int) {
	t := tokens[i]
	switch t.Upper {
	case "SET", "WHERE", "LIMIT", "RETURNING":
		return t.Upper, 1
	case "FROM":
		if isDistinctFrom(tokens, i) {
			return "", 0
		}
		return "FROM", 1
	case "ORDER":
		return orderKeyword(tokens, i)
	}
	return "", 0
}

func deleteKeyword(tokens []tokenizer.Token, i int) (string, int) {
	t := tokens[i]
	switch t.Upper {
	case "WHERE", "LIMIT", "RETURNING":
		return t.Upper, 1
	case "FROM":
		if isDistinctFrom(tokens, i) {
			return "", 0
		}
		return "FROM", 1
	case "USING":
		// JOIN ... USING (col) belongs to the join
		if at(tokens, i+1).Kind == tokenizer.LParen {
			return "", 0
		}
		return "USING", 1
	case "ORDER":
		return orderKeyword(tokens, i)
	}
	return "", 0
}

// joinKeyword matches a join keyword sequence starting at tokens[i].
func joinKeyword(tokens []tokenizer.Token, i int) (string, int) {
	if tokens[i].Is("STRAIGHT_JOIN") {
		return "STRAIGHT_JOIN", 1
	}
	var words []string
	j := i
	for j < len(tokens) && tokens[j].Is("NATURAL", "INNER", "CROSS", "LEFT", "RIGHT", "FULL", "OUTER", "SEMI", "ANTI") {
		words = append(words, tokens[j].Upper)
		j++
	}
	next := at(tokens, j)
	switch {
	case next.Is("JOIN"):
		return strings.Join(append(words, "JOIN"), " "), j - i + 1
	case next.Is("APPLY") && len(words) == 1 && (words[0] == "CROSS" || words[0] == "OUTER"):
		return words[0] + " APPLY", 2
	}
	return "", 0
}

// clauseOrder tracks clause order and duplicates within one query branch.
type clauseOrder struct {
	ranks    map[string]int
	seen     map[string]bool
	lastRank int
	lastName string
}

func newClauseOrder(ranks map[string]int) *clauseOrder {
	return &clauseOrder{ranks: ranks, seen: map[string]bool{}}
}

func (o *clauseOrder) reset() {
	o.seen = map[string]bool{}
	o.lastRank, o.lastName = 0, ""
}

func (o *clauseOrder) check(b *builder, s section) {
	rank := o.ranks[s.name]
	switch {
	case o.seen[s.name]:
		b.errorAt(s.kw, "duplicate %s clause", s.name)
	case rank > 0 && rank < o.lastRank:
		b.errorAt(s.kw, "%s clause cannot appear after %s", s.name, o.lastName)
	}
	o.seen[s.name] = true
	if rank > 0 && rank >= o.lastRank {
		o.lastRank, o.lastName = rank, s.name
	}
}

type builder struct {
	src  string
	f    *Fragments
	errs []*types.SyntaxError
}

// Build tokenizes text and splits it into statement fragments. Malformed input
// yields syntax errors and no fragments.
func Build(text string, dialect types.Dialect) (*Fragments, []*types.SyntaxError) {
	if strings.TrimSpace(text) == "" {
		return nil, []*types.SyntaxError{{Message: "query text is empty"}}
	}

	tokens, errs := tokenizer.Tokenize(text, dialect)
	if len(errs) > 0 {
		return nil, errs
	}

	b := &builder{
		src: text,
		f: &Fragments{
			Text:    text,
			Dialect: dialect,
		},
	}
	tokens = b.trimTerminator(tokens)
	if len(b.errs) == 0 {
		if len(tokens) == 0 {
			b.errs = append(b.errs, &types.SyntaxError{Message: "query contains no SQL statement"})
		} else {
			b.f.Tokens = tokens
			b.dispatch(tokens)
		}
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return b.f, nil
}

func (b *builder) errorAt(t tokenizer.Token, format string, args ...any) {
	b.errs = append(b.errs, &types.SyntaxError{
		Message:  fmt.Sprintf(format, args...),
		Position: &types.Position{Line: int32(t.Line), Column: int32(t.Col)},
	})
}

func (b *builder) text(tokens []tokenizer.Token) string {
	return textOf(b.src, tokens)
}

// trimTerminator drops the statement terminator and rejects anything after it.
func (b *builder) trimTerminator(tokens []tokenizer.Token) []tokenizer.Token {
	for i, t := range tokens {
		if t.Kind != tokenizer.Semicolon || t.Depth != 0 {
			continue
		}
		for _, rest := range tokens[i+1:] {
			if rest.Kind != tokenizer.Semicolon {
				b.errorAt(rest, "multiple statements are not supported: unexpected %q after ';'", rest.Text)
				break
			}
		}
		return tokens[:i]
	}
	return tokens
}

func (b *builder) dispatch(tokens []tokenizer.Token) {
	first := tokens[0]
	switch {
	case first.Kind == tokenizer.LParen:
		b.f.Kind = KindSelect
		b.buildParenthesized(tokens)
	case first.Is("SELECT"):
		b.f.Kind = KindSelect
		b.scanSelect(tokens, first.Depth, 0)
	case first.Is("WITH"):
		if main := b.cteMain(tokens); main >= 0 {
			b.dispatch(tokens[main:])
		}
	case first.Is("INSERT", "REPLACE"):
		b.buildInsert(tokens)
	case first.Is("UPDATE"):
		b.buildUpdate(tokens)
	case first.Is("DELETE"):
		b.buildDelete(tokens)
	case first.Kind == tokenizer.Word:
		b.unknownStatement(first)
	default:
		b.errorAt(first, "statement must begin with a SQL keyword, found %q", first.Text)
	}
}

func (b *builder) unknownStatement(t tokenizer.Token) {
	if unsupportedStatements[t.Upper] {
		b.errorAt(t, "unsupported statement type %s: only SELECT, INSERT, UPDATE, DELETE and WITH queries can be analyzed", t.Upper)
		return
	}
	if hint := closestKeyword(t.Upper, analyzableStatements); hint != "" {
		b.errorAt(t, "unrecognized statement keyword %q, did you mean %s?", t.Text, hint)
		return
	}
	b.errorAt(t, "unrecognized statement keyword %q", t.Text)
}

// cteMain counts the common table expressions of a WITH clause and returns the index
// of the statement keyword that follows them, or -1.
func (b *builder) cteMain(tokens []tokenizer.Token) int {
	level := tokens[0].Depth
	i := 1
	if at(tokens, i).Is("RECURSIVE") {
		i++
	}
	for j := i; j < len(tokens); j++ {
		t := tokens[j]
		if t.Depth != level {
			continue
		}
		if t.Kind == tokenizer.LParen && tokens[j-1].Is("AS", "MATERIALIZED") {
			b.f.CTECount++
			continue
		}
		if t.Is("SELECT", "INSERT", "UPDATE", "DELETE", "REPLACE") {
			if b.f.CTECount == 0 {
				b.errorAt(tokens[0], "WITH clause defines no common table expression")
				return -1
			}
			return j
		}
	}
	b.errorAt(tokens[0], "WITH clause must be followed by a SELECT, INSERT, UPDATE or DELETE statement")
	return -1
}

// buildParenthesized handles "(SELECT ...) [UNION ...] [ORDER BY ...]".
func (b *builder) buildParenthesized(tokens []tokenizer.Token) {
	end := MatchingParen(tokens, 0)
	if end < 0 {
		b.errorAt(tokens[0], "unbalanced parentheses: '(' is never closed")
		return
	}
	inner := tokens[1:end]
	switch {
	case len(inner) > 0 && inner[0].Kind == tokenizer.LParen:
		b.buildParenthesized(inner)
	case len(inner) > 0 && inner[0].Is("SELECT"):
		b.scanSelect(inner, inner[0].Depth, 0)
	default:
		b.errorAt(tokens[0], "expected SELECT after '('")
		return
	}
	b.scanSelect(tokens[end+1:], tokens[0].Depth, 1)
}

// scanSelect splits a SELECT statement, or the tail of a compound statement whose
// first branch was parenthesized.
func (b *builder) scanSelect(tokens []tokenizer.Token, level, branch int) {
	sections := splitSections(tokens, level, selectKeyword)
	if prelude := sections[0].body; len(prelude) > 0 {
		b.errorAt(prelude[0], "unexpected %q", prelude[0].Text)
	}

	order := newClauseOrder(selectRanks)
	branchSorted := false
	for k, s := range sections[1:] {
		if op := strings.Fields(s.name)[0]; setOperators[op] {
			if branchSorted {
				b.errorAt(s.kw, "%s cannot follow ORDER BY or LIMIT of a query branch", op)
			}
			b.f.SetOperators = append(b.f.SetOperators, s.name)
			branch++
			order.reset()
			branchSorted = false

			nextIsSelect := k+2 < len(sections) && sections[k+2].name == "SELECT"
			switch {
			case len(s.body) == 0 && !nextIsSelect:
				b.errorAt(s.kw, "%s must be followed by a query", op)
			case len(s.body) > 0 && !IsSubqueryStart(s.body, 0):
				b.errorAt(s.body[0], "unexpected %q after %s", s.body[0].Text, op)
			}
			continue
		}

		if s.name == "GROUP" || s.name == "ORDER" {
			b.errorAt(s.kw, "expected BY after %s", s.name)
			continue
		}
		order.check(b, s)
		switch s.name {
		case "ORDER BY", "LIMIT", "OFFSET", "FETCH":
			branchSorted = true
		case "FROM":
		default:
			b.checkStrayJoin(s.body, level)
		}
		b.selectSection(s, level, branch)
	}
}

func (b *builder) checkStrayJoin(body []tokenizer.Token, level int) {
	for i, t := range body {
		if t.Depth != level || t.Kind != tokenizer.Word {
			continue
		}
		if typ, _ := joinKeyword(body, i); typ != "" {
			b.errorAt(t, "%s must follow a FROM clause", typ)
			return
		}
	}
}

func (b *builder) selectSection(s section, level, branch int) {
	f := b.f
	first := branch == 0
	switch s.name {
	case "SELECT":
		b.selectList(s, level, first)
	case "INTO":
		if len(s.body) == 0 {
			b.errorAt(s.kw, "INTO clause has no target")
		}
	case "FROM":
		if len(s.body) == 0 {
			b.errorAt(s.kw, "FROM clause has no table")
			return
		}
		tables, joins, hints := b.fromChain(s.kw, s.body, level)
		if first {
			f.From = newClause(b.src, "FROM", s.body, level)
			f.Tables, f.Joins, f.TableHints = tables, joins, hints
		}
	case "WHERE":
		b.checkCondition(s.kw, "WHERE", s.body)
		if first {
			f.Where = newClause(b.src, "WHERE", s.body, level)
			if hasRownumBound(s.body, level) && f.LimitKeyword == "" {
				f.LimitKeyword = LimitKeywordRownum
			}
		}
	case "GROUP BY":
		b.checkItems(s.kw, "GROUP BY", s.body, level)
		if first {
			f.GroupBy = newClause(b.src, "GROUP BY", s.body, level)
		}
	case "HAVING":
		b.checkCondition(s.kw, "HAVING", s.body)
		if first {
			f.Having = newClause(b.src, "HAVING", s.body, level)
		}
	case "ORDER BY":
		b.checkItems(s.kw, "ORDER BY", s.body, level)
		f.OrderBy = newClause(b.src, "ORDER BY", s.body, level)
	case "LIMIT":
		if len(s.body) == 0 {
			b.errorAt(s.kw, "LIMIT clause has no row count")
			return
		}
		f.Limit = newClause(b.src, "LIMIT", s.body, level)
		f.LimitKeyword = LimitKeywordLimit
	case "OFFSET":
		if len(s.body) == 0 {
			b.errorAt(s.kw, "OFFSET clause has no row count")
		}
	case "FETCH":
		if f.Limit == nil {
			f.Limit = newClause(b.src, "FETCH", s.body, level)
		}
		if f.LimitKeyword == "" || f.LimitKeyword == LimitKeywordRownum {
			f.LimitKeyword = LimitKeywordFetch
		}
	case "FOR":
		if first {
			if locking := lockingClause(s.body); locking != "" {
				f.Locking = locking
			}
		}
	case "LOCK":
		if first {
			f.Locking = "LOCK IN SHARE MODE"
		}
	}
}

func (b *builder) selectList(s section, level int, first bool) {
	body := s.body
	i := 0
	distinct := false
	top := false
	switch {
	case at(body, i).Is("DISTINCT", "DISTINCTROW"):
		distinct = true
		i++
		if at(body, i).Is("ON") && at(body, i+1).Kind == tokenizer.LParen {
			if end := MatchingParen(body, i+1); end > 0 {
				i = end + 1
			}
		}
	case at(body, i).Is("ALL"):
		i++
	}
	if at(body, i).Is("TOP") {
		top = true
		i++
		switch next := at(body, i); {
		case next.Kind == tokenizer.LParen:
			if end := MatchingParen(body, i); end > 0 {
				i = end + 1
			}
		case next.Kind == tokenizer.Number || next.Kind == tokenizer.Placeholder:
			i++
		}
		if at(body, i).Is("PERCENT") {
			i++
		}
		if at(body, i).Is("WITH") && at(body, i+1).Is("TIES") {
			i += 2
		}
	}

	list := body[min(i, len(body)):]
	if len(list) == 0 {
		b.errorAt(s.kw, "SELECT list is empty")
		return
	}
	b.checkItems(s.kw, "SELECT list", list, level)
	if !first {
		return
	}
	b.f.Distinct = distinct
	b.f.SelectList = newClause(b.src, "SELECT", list, level)
	if top {
		b.f.LimitKeyword = LimitKeywordTop
	}
}

// fromChain splits a FROM body into comma-separated table references and the
// explicit joins attached to them.
func (b *builder) fromChain(kw tokenizer.Token, body []tokenizer.Token, level int) ([]string, []Join, []string) {
	var (
		tables []string
		joins  []Join
		hints  []string
	)
	for _, item := range SplitItems(body, level) {
		if len(item) == 0 {
			b.errorAt(kw, "%s clause has an empty table reference", kw.Upper)
			continue
		}
		hints = append(hints, tableHints(item, level)...)

		type mark struct {
			typ       string
			at, width int
		}
		var marks []mark
		for i := 0; i < len(item); i++ {
			if item[i].Depth != level || item[i].Kind != tokenizer.Word {
				continue
			}
			if typ, width := joinKeyword(item, i); width > 0 {
				marks = append(marks, mark{typ: typ, at: i, width: width})
				i += width - 1
			}
		}

		base := item
		if len(marks) > 0 {
			base = item[:marks[0].at]
		}
		if len(base) == 0 {
			b.errorAt(item[0], "%s without a preceding table", marks[0].typ)
		} else {
			for _, t := range base {
				if t.Depth == level && t.Is("ON") {
					b.errorAt(t, "ON clause without a JOIN")
					break
				}
			}
			tables = append(tables, b.text(base))
		}

		for k, m := range marks {
			end := len(item)
			if k+1 < len(marks) {
				end = marks[k+1].at
			}
			joins = append(joins, b.join(item[m.at], m.typ, item[m.at+m.width:end], level))
		}
	}
	return tables, joins, hints
}

func (b *builder) join(kw tokenizer.Token, typ string, seg []tokenizer.Token, level int) Join {
	j := Join{Type: typ}
	cond := -1
	for i, t := range seg {
		if t.Depth == level && t.Is("ON", "USING") {
			cond = i
			break
		}
	}

	table := seg
	if cond >= 0 {
		table = seg[:cond]
	}
	if len(table) == 0 {
		b.errorAt(kw, "%s without a table", typ)
	}
	j.Table = b.text(table)

	if cond >= 0 {
		on := seg[cond]
		body := seg[cond+1:]
		j.HasCondition = true
		j.Using = on.Is("USING")
		j.Condition = b.text(body)
		if j.Using {
			if len(body) == 0 {
				b.errorAt(on, "USING clause has no columns")
			}
		} else {
			b.checkCondition(on, "ON", body)
		}
	}
	return j
}

var danglingOperators = []string{
	"=", "==", "<", ">", "<=", ">=", "<>", "!=", "<=>",
	"+", "-", "*", "/", "%", "||", "&&", "|", "&", "^", "::", "->", "->>",
}

// checkCondition reports an empty predicate or one that starts or ends mid-expression.
func (b *builder) checkCondition(kw tokenizer.Token, label string, body []tokenizer.Token) {
	if len(body) == 0 {
		b.errorAt(kw, "%s clause has no condition", label)
		return
	}
	first, last := body[0], body[len(body)-1]
	if first.Is("AND", "OR") || first.IsComparison() {
		b.errorAt(first, "%s condition starts with a dangling %q", label, first.Text)
	}
	if last.Is("AND", "OR", "NOT") || last.IsOperator(danglingOperators...) {
		b.errorAt(last, "%s condition ends with a dangling %q", label, last.Text)
	}
}

// checkItems reports an empty list or an empty comma-separated item.
func (b *builder) checkItems(kw tokenizer.Token, label string, body []tokenizer.Token, level int) {
	if len(body) == 0 {
		b.errorAt(kw, "%s clause has no expression", label)
		return
	}
	for _, item := range SplitItems(body, level) {
		if len(item) == 0 {
			b.errorAt(kw, "%s has an empty item", label)
			return
		}
	}
}

func (b *builder) buildUpdate(tokens []tokenizer.Token) {
	f := b.f
	f.Kind = KindUpdate
	level := tokens[0].Depth
	sections := splitSections(tokens[1:], level, updateKeyword)

	target := skipWords(sections[0].body, "LOW_PRIORITY", "IGNORE", "ONLY")
	if len(target) == 0 {
		b.errorAt(tokens[0], "UPDATE statement has no target table")
	} else {
		f.From = newClause(b.src, "UPDATE", target, level)
		f.Tables, f.Joins, f.TableHints = b.fromChain(tokens[0], target, level)
		if len(f.Tables) > 0 {
			f.Target = f.Tables[0]
		}
	}

	order := newClauseOrder(updateRanks)
	hasSet := false
	for _, s := range sections[1:] {
		if s.name == "ORDER" {
			b.errorAt(s.kw, "expected BY after ORDER")
			continue
		}
		order.check(b, s)
		switch s.name {
		case "SET":
			hasSet = true
			if len(s.body) == 0 {
				b.errorAt(s.kw, "SET clause has no assignment")
			}
		case "FROM":
			if len(s.body) == 0 {
				b.errorAt(s.kw, "FROM clause has no table")
			}
		default:
			b.dmlSection(s, level)
		}
	}
	if !hasSet {
		b.errorAt(tokens[0], "UPDATE statement has no SET clause")
	}
}

func (b *builder) buildDelete(tokens []tokenizer.Token) {
	f := b.f
	f.Kind = KindDelete
	level := tokens[0].Depth
	sections := splitSections(tokens[1:], level, deleteKeyword)

	target := skipWords(sections[0].body, "LOW_PRIORITY", "QUICK", "IGNORE")
	targetKw := tokens[0]
	order := newClauseOrder(deleteRanks)
	for _, s := range sections[1:] {
		if s.name == "ORDER" {
			b.errorAt(s.kw, "expected BY after ORDER")
			continue
		}
		order.check(b, s)
		switch s.name {
		case "FROM":
			if len(s.body) == 0 {
				b.errorAt(s.kw, "FROM clause has no table")
				return
			}
			target, targetKw = s.body, s.kw
		case "USING":
			if len(s.body) == 0 {
				b.errorAt(s.kw, "USING clause has no table")
			}
		default:
			b.dmlSection(s, level)
		}
	}

	if len(target) == 0 {
		b.errorAt(tokens[0], "DELETE statement has no target table")
		return
	}
	f.From = newClause(b.src, "FROM", target, level)
	f.Tables, f.Joins, f.TableHints = b.fromChain(targetKw, target, level)
	if len(f.Tables) > 0 {
		f.Target = f.Tables[0]
	}
}

// dmlSection handles the clauses UPDATE and DELETE share with SELECT.
func (b *builder) dmlSection(s section, level int) {
	f := b.f
	switch s.name {
	case "WHERE":
		b.checkCondition(s.kw, "WHERE", s.body)
		f.Where = newClause(b.src, "WHERE", s.body, level)
	case "ORDER BY":
		b.checkItems(s.kw, "ORDER BY", s.body, level)
		f.OrderBy = newClause(b.src, "ORDER BY", s.body, level)
	case "LIMIT":
		if len(s.body) == 0 {
			b.errorAt(s.kw, "LIMIT clause has no row count")
			return
		}
		f.Limit = newClause(b.src, "LIMIT", s.body, level)
		f.LimitKeyword = LimitKeywordLimit
	}
}

func (b *builder) buildInsert(tokens []tokenizer.Token) {
	f := b.f
	f.Kind = KindInsert
	verb := tokens[0].Upper
	level := tokens[0].Depth

	i := 1
	for at(tokens, i).Is("LOW_PRIORITY", "DELAYED", "HIGH_PRIORITY", "IGNORE", "OR", "REPLACE", "ABORT", "FAIL", "ROLLBACK") {
		i++
	}
	if at(tokens, i).Is("INTO") {
		i++
	}

	source := -1
	for j := i; j < len(tokens); j++ {
		t := tokens[j]
		if t.Depth != level {
			continue
		}
		if t.Is("VALUES", "VALUE", "SELECT", "WITH", "SET", "DEFAULT") || (j > i && IsSubqueryStart(tokens, j)) {
			source = j
			break
		}
	}

	end := len(tokens)
	if source >= 0 {
		end = source
	}
	target := tokens[min(i, end):end]
	for k, t := range target {
		if t.Kind == tokenizer.LParen {
			target = target[:k]
			break
		}
	}
	if len(target) == 0 {
		b.errorAt(tokens[0], "%s statement has no target table", verb)
	} else {
		f.Target = b.text(target)
	}
	if source < 0 {
		b.errorAt(tokens[0], "%s statement has no VALUES or SELECT", verb)
		return
	}

	src := tokens[source]
	switch {
	case src.Is("VALUES", "VALUE"):
		rest := tokens[source+1:]
		if len(rest) == 0 || rest[0].Kind != tokenizer.LParen {
			b.errorAt(src, "VALUES clause has no row")
		}
	case src.Is("SET"):
		if len(tokens[source+1:]) == 0 {
			b.errorAt(src, "SET clause has no assignment")
		}
	case src.Is("DEFAULT"):
	case src.Is("SELECT"):
		b.scanSelect(tokens[source:], level, 0)
	case src.Is("WITH"):
		b.insertCTE(tokens[source:], verb)
	default:
		closing := MatchingParen(tokens, source)
		if closing < 0 {
			return
		}
		inner := tokens[source+1 : closing]
		if inner[0].Is("WITH") {
			b.insertCTE(inner, verb)
			return
		}
		b.scanSelect(inner, inner[0].Depth, 0)
	}
}

// insertCTE scans the "WITH ... SELECT" source of an INSERT.
func (b *builder) insertCTE(tokens []tokenizer.Token, verb string) {
	main := b.cteMain(tokens)
	if main < 0 {
		return
	}
	rest := tokens[main:]
	if !rest[0].Is("SELECT") {
		b.errorAt(rest[0], "%s ... WITH must be followed by a SELECT", verb)
		return
	}
	b.scanSelect(rest, tokens[0].Depth, 0)
}

func skipWords(tokens []tokenizer.Token, words ...string) []tokenizer.Token {
	for len(tokens) > 0 && tokens[0].Is(words...) {
		tokens = tokens[1:]
	}
	return tokens
}

func hasRownumBound(body []tokenizer.Token, level int) bool {
	for i, t := range body {
		if t.Depth != level || !t.Is("ROWNUM") {
			continue
		}
		if at(body, i+1).IsComparison() || at(body, i-1).IsComparison() || at(body, i+1).Is("BETWEEN") {
			return true
		}
	}
	return false
}

func lockingClause(body []tokenizer.Token) string {
	switch {
	case at(body, 0).Is("UPDATE"):
		return "FOR UPDATE"
	case at(body, 0).Is("SHARE"):
		return "FOR SHARE"
	case at(body, 0).Is("NO") && at(body, 1).Is("KEY"):
		return "FOR NO KEY UPDATE"
	case at(body, 0).Is("KEY") && at(body, 1).Is("SHARE"):
		return "FOR KEY SHARE"
	}
	return ""
}

// tableHints collects SQL Server WITH (...) table hints.
func tableHints(item []tokenizer.Token, level int) []string {
	var hints []string
	for i, t := range item {
		if t.Depth != level || !t.Is("WITH") || at(item, i+1).Kind != tokenizer.LParen {
			continue
		}
		end := MatchingParen(item, i+1)
		if end < 0 {
			continue
		}
		for _, h := range item[i+2 : end] {
			if h.Kind == tokenizer.Word {
				hints = append(hints, h.Upper)
			}
		}
	}
	return hints
}
