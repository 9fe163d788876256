package types

import (
	"encoding/json"
	"strings"
)

// Dialect represents the target database family of a query
type Dialect int32

const (
	Dialect_DIALECT_UNSPECIFIED Dialect = 0
	Dialect_MYSQL               Dialect = 1
	Dialect_POSTGRES            Dialect = 2
	Dialect_ORACLE              Dialect = 3
	Dialect_MSSQL               Dialect = 4
	Dialect_SQLITE              Dialect = 5
)

// Dialects lists the recognized dialects in declaration order.
var Dialects = []Dialect{
	Dialect_MYSQL,
	Dialect_POSTGRES,
	Dialect_ORACLE,
	Dialect_MSSQL,
	Dialect_SQLITE,
}

func (d Dialect) String() string {
	switch d {
	case Dialect_MYSQL:
		return "mysql"
	case Dialect_POSTGRES:
		return "postgres"
	case Dialect_ORACLE:
		return "oracle"
	case Dialect_MSSQL:
		return "mssql"
	case Dialect_SQLITE:
		return "sqlite"
	default:
		return "generic"
	}
}

// ParseDialect maps a dialect tag to a Dialect. Matching is case-insensitive and
// any unrecognized tag yields Dialect_DIALECT_UNSPECIFIED.
func ParseDialect(s string) Dialect {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb", "tidb":
		return Dialect_MYSQL
	case "postgres", "postgresql", "pg", "pgsql":
		return Dialect_POSTGRES
	case "oracle", "plsql":
		return Dialect_ORACLE
	case "mssql", "sqlserver", "sql_server", "tsql", "t-sql":
		return Dialect_MSSQL
	case "sqlite", "sqlite3":
		return Dialect_SQLITE
	default:
		return Dialect_DIALECT_UNSPECIFIED
	}
}

// MarshalJSON implements json.Marshaler for Dialect
func (d Dialect) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler for Dialect
func (d *Dialect) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParseDialect(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Dialect
func (d Dialect) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Dialect
func (d *Dialect) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*d = ParseDialect(s)
	return nil
}
