package repository

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"item-catalog/internal/domain"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
)

// sqliteTimeLayout is fixed width so stored timestamps sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteFoldFunc lowercases text with Unicode rules. SQLite's built-in
// LOWER only folds ASCII.
const sqliteFoldFunc = "item_fold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(sqliteFoldFunc, 1, foldCase); err != nil {
		panic(fmt.Sprintf("register sqlite function %s: %v", sqliteFoldFunc, err))
	}
}

func foldCase(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Dialect captures the SQL differences between supported databases
type Dialect struct {
	Name string

	placeholder func(n int) string
	search      func(column, param string) string
	orderExprs  map[domain.OrderField]string
	bindTime    func(t time.Time) driver.Value
	bindPrice   func(p decimal.Decimal) driver.Value
}

// Postgres is the dialect for PostgreSQL through pgx
var Postgres = Dialect{
	Name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	search: func(column, param string) string {
		return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, param)
	},
	orderExprs: map[domain.OrderField]string{
		domain.OrderByName:      "name",
		domain.OrderByPrice:     "price",
		domain.OrderByCreatedAt: "created_at",
	},
	bindTime:  func(t time.Time) driver.Value { return t.UTC() },
	bindPrice: func(p decimal.Decimal) driver.Value { return domain.FormatPrice(p) },
}

// SQLite is the dialect for the pure Go modernc.org/sqlite driver
var SQLite = Dialect{
	Name:        "sqlite",
	placeholder: func(int) string { return "?" },
	search: func(column, param string) string {
		return fmt.Sprintf(`%[3]s(%[1]s) LIKE %[3]s(%[2]s) ESCAPE '\'`, column, param, sqliteFoldFunc)
	},
	orderExprs: map[domain.OrderField]string{
		domain.OrderByName:      "name",
		domain.OrderByPrice:     "CAST(price AS REAL)",
		domain.OrderByCreatedAt: "created_at",
	},
	bindTime:  func(t time.Time) driver.Value { return t.UTC().Format(sqliteTimeLayout) },
	bindPrice: func(p decimal.Decimal) driver.Value { return domain.FormatPrice(p) },
}

// DialectFor returns the dialect registered under name
func DialectFor(name string) (Dialect, error) {
	switch name {
	case Postgres.Name, "pgx":
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported dialect %q", name)
}

// argList accumulates positional query arguments
type argList struct {
	dialect Dialect
	args    []interface{}
}

func (a *argList) add(v interface{}) string {
	a.args = append(a.args, v)
	return a.dialect.placeholder(len(a.args))
}

// likePattern wraps term for a substring LIKE match with wildcards escaped.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// timestamp scans the driver representations of a stored instant
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return fmt.Errorf("timestamp is null")
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
