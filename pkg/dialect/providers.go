package dialect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lib/pq"
)

// Built-in dialect providers.
var (
	DuckDB = &Base{
		name:  "duckdb",
		quote: doubleQuote,
	}

	SQLite = &Base{
		name:  "sqlite",
		quote: doubleQuote,
		placeholder: func(_ int, name string) string {
			return ":" + name
		},
		named: true,
	}

	Postgres = &Base{
		name:  "postgres",
		quote: pq.QuoteIdentifier,
		placeholder: func(n int, _ string) string {
			return fmt.Sprintf("$%d", n)
		},
	}

	MySQL = &Base{
		name:  "mysql",
		quote: backtick,
	}

	Snowflake = &Base{
		name:  "snowflake",
		quote: doubleQuote,
	}

	// Firebird stores booleans as CHAR(1) and limits rows with SELECT FIRST n.
	Firebird = &Base{
		name:   "firebird",
		quote:  doubleQuote,
		firstN: true,
		fieldHook: func(raw any, t reflect.Type) (any, bool, error) {
			if t.Kind() != reflect.Bool {
				return nil, false, nil
			}
			s, ok := raw.(string)
			if !ok {
				return nil, false, nil
			}
			switch strings.TrimSpace(strings.ToUpper(s)) {
			case "1", "T", "Y":
				return reflect.ValueOf(true).Convert(t).Interface(), true, nil
			case "0", "F", "N", "":
				return reflect.ValueOf(false).Convert(t).Interface(), true, nil
			}
			return nil, false, nil
		},
	}
)

var byDriver = map[string]Provider{
	"duckdb":      DuckDB,
	"sqlite":      SQLite,
	"sqlite3":     SQLite,
	"postgres":    Postgres,
	"postgresql":  Postgres,
	"pgx":         Postgres,
	"mysql":       MySQL,
	"snowflake":   Snowflake,
	"firebird":    Firebird,
	"firebirdsql": Firebird,
}

// ForDriver returns the provider registered for a database/sql driver or dialect name.
func ForDriver(name string) (Provider, error) {
	if p, ok := byDriver[strings.ToLower(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("dialect: no provider for driver %q", name)
}
