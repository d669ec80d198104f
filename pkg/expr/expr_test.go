package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

func TestBuilder(t *testing.T) {
	b := From(dialect.Postgres, "people").
		Select("id", "name").
		Where("age", ">=", 21).
		Where("city", "", "Oslo").
		OrderBy("name").
		Limit(5)

	want := `SELECT "id", "name" FROM "people" WHERE "age" >= $1 AND "city" = $2 ORDER BY "name" LIMIT 5`
	if got := b.ToSelectStatement(); got != want {
		t.Errorf("ToSelectStatement() = %q, want %q", got, want)
	}

	params := b.Params()
	if len(params) != 2 {
		t.Fatalf("len(Params()) = %d, want 2", len(params))
	}
	if params[1].Value != "Oslo" {
		t.Errorf("Params()[1].Value = %v, want Oslo", params[1].Value)
	}
	if again := b.Params(); again[0] != params[0] {
		t.Error("Params() returned new instances without modification")
	}
	if diff := cmp.Diff([]string{"id", "name"}, FieldsOf(b)); diff != "" {
		t.Errorf("FieldsOf() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_ModificationRerenders(t *testing.T) {
	b := From(dialect.DuckDB, "t")
	if got := b.ToSelectStatement(); got != `SELECT * FROM "t"` {
		t.Errorf("ToSelectStatement() = %q", got)
	}
	if FieldsOf(b) != nil {
		t.Errorf("FieldsOf() = %v, want nil", FieldsOf(b))
	}

	b.Where("id", "=", 1)
	if got := b.ToSelectStatement(); got != `SELECT * FROM "t" WHERE "id" = ?` {
		t.Errorf("ToSelectStatement() = %q", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantFields []string
	}{
		{
			name:       "Columns",
			sql:        "SELECT id, name FROM people",
			wantFields: []string{"id", "name"},
		},
		{
			name:       "Aliases",
			sql:        "SELECT p.id AS person_id, count(*) AS n FROM people p WHERE p.city = :city GROUP BY p.id",
			wantFields: []string{"person_id", "n"},
		},
		{
			name:       "Star",
			sql:        "SELECT * FROM people",
			wantFields: nil,
		},
		{
			name:       "Union",
			sql:        "SELECT id FROM a UNION SELECT id FROM b",
			wantFields: []string{"id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := param.New("city", "Oslo")
			got, err := Parse(tt.sql, p)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got.ToSelectStatement() != tt.sql {
				t.Errorf("ToSelectStatement() = %q, want %q", got.ToSelectStatement(), tt.sql)
			}
			if diff := cmp.Diff(tt.wantFields, got.Fields()); diff != "" {
				t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
			}
			if len(got.Params()) != 1 || got.Params()[0] != p {
				t.Errorf("Params() = %v, want [%v]", got.Params(), p)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse("DELETE FROM people WHERE id = 1"); !errors.Is(err, ErrNotSelect) {
		t.Errorf("Parse(DELETE) error = %v, want ErrNotSelect", err)
	}
	if _, err := Parse("   "); err == nil {
		t.Error("Parse(empty) error = nil")
	}
	if _, err := Parse("SELEC id FROM"); err == nil {
		t.Error("Parse(garbage) error = nil")
	}
}
