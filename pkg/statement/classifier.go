// Package statement classifies SQL text by its leading keyword, so callers can route
// a statement to the reader or the non-query path without parsing it.
package statement

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind is the category of a SQL statement.
type Kind int

// Statement kinds.
const (
	KindOther       Kind = iota
	KindQuery            // SELECT, WITH, SHOW, DESCRIBE, EXPLAIN, VALUES, PRAGMA
	KindDML              // INSERT, UPDATE, DELETE, MERGE, REPLACE, COPY
	KindDDL              // CREATE, DROP, ALTER, TRUNCATE
	KindTransaction      // BEGIN, START TRANSACTION, COMMIT, ROLLBACK, SAVEPOINT
)

var kindNames = [...]string{
	KindOther:       "other",
	KindQuery:       "query",
	KindDML:         "dml",
	KindDDL:         "ddl",
	KindTransaction: "transaction",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

var keywordKinds = map[string]Kind{
	"SELECT":    KindQuery,
	"WITH":      KindQuery,
	"SHOW":      KindQuery,
	"DESCRIBE":  KindQuery,
	"DESC":      KindQuery,
	"EXPLAIN":   KindQuery,
	"VALUES":    KindQuery,
	"PRAGMA":    KindQuery,
	"TABLE":     KindQuery,
	"INSERT":    KindDML,
	"UPDATE":    KindDML,
	"DELETE":    KindDML,
	"MERGE":     KindDML,
	"REPLACE":   KindDML,
	"UPSERT":    KindDML,
	"COPY":      KindDML,
	"CREATE":    KindDDL,
	"DROP":      KindDDL,
	"ALTER":     KindDDL,
	"TRUNCATE":  KindDDL,
	"BEGIN":     KindTransaction,
	"START":     KindTransaction,
	"COMMIT":    KindTransaction,
	"ROLLBACK":  KindTransaction,
	"SAVEPOINT": KindTransaction,
	"RELEASE":   KindTransaction,
	"END":       KindTransaction,
}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

// Result is the classification of one statement.
type Result struct {
	Kind Kind
	// Keyword is the upper-case leading keyword, or empty for blank input.
	Keyword string
	// Query reports whether the statement produces rows. DML with a RETURNING
	// clause counts as a query.
	Query bool
}

// Classify classifies sql. Leading whitespace, comments and opening parentheses are
// skipped.
func Classify(sql string) Result {
	body := skipPreamble(sql)
	keyword := strings.ToUpper(leadingWord(body))

	kind := keywordKinds[keyword]
	r := Result{Kind: kind, Keyword: keyword, Query: kind == KindQuery}
	if kind == KindDML && returningClause.MatchString(body) {
		r.Query = true
	}
	return r
}

// IsQuery reports whether sql produces rows.
func IsQuery(sql string) bool {
	return Classify(sql).Query
}

// IsDDL reports whether sql is a schema statement.
func IsDDL(sql string) bool {
	return Classify(sql).Kind == KindDDL
}

// IsTransaction reports whether sql is a transaction control statement.
func IsTransaction(sql string) bool {
	return Classify(sql).Kind == KindTransaction
}

func skipPreamble(sql string) string {
	s := sql
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		case strings.HasPrefix(s, "("):
			s = s[1:]
		default:
			return s
		}
	}
}

func leadingWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		return s
	}
	return s[:end]
}
