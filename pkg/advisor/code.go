package advisor

// Code is the numeric code of a rule.
type Code int

// Rule codes, grouped by category.
const (
	// 1 ~ 99 general advisor error.
	Internal             Code = 1
	StatementSyntaxError Code = 4

	// 101 ~ 199 performance rules.
	SelectStar        Code = 101
	MissingWhere      Code = 102
	MissingLimit      Code = 103
	RedundantDistinct Code = 104
	ExistsOverIn      Code = 105
	UnboundedSort     Code = 106

	// 201 ~ 299 index rules.
	NonSargable     Code = 201
	LeadingWildcard Code = 202
	FilterColumns   Code = 203
	SortColumns     Code = 204
	DateFunction    Code = 205

	// 301 ~ 399 join rules.
	ImplicitJoin         Code = 301
	MissingJoinCondition Code = 302
	SubqueryToJoin       Code = 303
	CrossJoin            Code = 304

	// 401 ~ 499 structure rules.
	HavingWithoutAggregate Code = 401
	UnionDistinct          Code = 402
	PositionalReference    Code = 403
)

// Int32 returns the code as int32.
func (c Code) Int32() int32 {
	return int32(c)
}
