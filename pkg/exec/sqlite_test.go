package exec

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nnnkkk7/sqlexec/pkg/connection"
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/expr"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

func setupTestSQLite(t *testing.T) *connection.Manager {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open SQLite: %v", err)
	}
	// every connection of an in-memory database is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close DB: %v", err)
		}
	})

	mgr := connection.NewManager(db, connection.WithDialect(dialect.SQLite), connection.WithExclusiveParameters())
	for _, stmt := range []string{
		"CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, city TEXT)",
		"INSERT INTO people (id, name, city) VALUES (1, 'Ann', 'Oslo'), (2, 'Bob', 'Rome'), (3, 'Cid', 'Oslo')",
	} {
		if _, err := mgr.Exec(context.Background(), stmt); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	return mgr
}

type resident struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	City string `db:"city"`
}

func TestSQLite_EndToEnd(t *testing.T) {
	ctx := context.Background()
	mgr := setupTestSQLite(t)
	e := New()

	t.Run("ListWithNamedParameter", func(t *testing.T) {
		got, err := ListExpr[resident](ctx, e, mgr.NewCommand(""),
			"SELECT id, name, city FROM people WHERE city = :city ORDER BY id",
			[]*param.Parameter{param.New("city", "Oslo")})
		if err != nil {
			t.Fatalf("ListExpr() error = %v", err)
		}
		want := []resident{{ID: 1, Name: "Ann", City: "Oslo"}, {ID: 3, Name: "Cid", City: "Oslo"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListExpr() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("SharedParameterAcrossCommands", func(t *testing.T) {
		city := param.New("city", "Oslo")
		first, err := ScalarParams[int](ctx, e, mgr.NewCommand(""), "SELECT COUNT(*) FROM people WHERE city = :city",
			[]*param.Parameter{city})
		if err != nil {
			t.Fatalf("ScalarParams() error = %v", err)
		}
		// the first command still owns city, so the second binds a clone
		second, err := ScalarParams[int](ctx, e, mgr.NewCommand(""), "SELECT COUNT(*) FROM people WHERE city = :city",
			[]*param.Parameter{city})
		if err != nil {
			t.Fatalf("ScalarParams() error = %v", err)
		}
		if first != 2 || second != 2 {
			t.Errorf("counts = %d, %d, want 2, 2", first, second)
		}
	})

	t.Run("Dictionary", func(t *testing.T) {
		got, err := Dictionary[int64, string](ctx, e, mgr.NewCommand(""), "SELECT id, name FROM people")
		if err != nil {
			t.Fatalf("Dictionary() error = %v", err)
		}
		if diff := cmp.Diff(map[int64]string{1: "Ann", 2: "Bob", 3: "Cid"}, got); diff != "" {
			t.Errorf("Dictionary() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		got, err := Lookup[string, string](ctx, e, mgr.NewCommand(""), "SELECT city, name FROM people ORDER BY id")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if diff := cmp.Diff([]string{"Oslo", "Rome"}, got.Keys()); diff != "" {
			t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"Ann", "Cid"}, got.Get("Oslo")); diff != "" {
			t.Errorf("Get(Oslo) mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ListFromBuilder", func(t *testing.T) {
		x := expr.From(dialect.SQLite, "people").Select("name").Where("id", ">", 1).OrderBy("id")
		got, err := ListFrom[resident](ctx, e, mgr.NewCommand(""), x)
		if err != nil {
			t.Fatalf("ListFrom() error = %v", err)
		}
		want := []resident{{Name: "Bob"}, {Name: "Cid"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListFrom() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ExecNonQueryStruct", func(t *testing.T) {
		args := struct {
			City string `db:"city"`
			ID   int64  `db:"id"`
		}{City: "Bergen", ID: 2}
		n, err := e.ExecNonQuery(ctx, mgr.NewCommand(""), "UPDATE people SET city = :city WHERE id = :id", args)
		if err != nil || n != 1 {
			t.Fatalf("ExecNonQuery() = %d, %v, want 1, nil", n, err)
		}
		city, err := Scalar[string](ctx, e, mgr.NewCommand(""), "SELECT city FROM people WHERE id = 2")
		if err != nil || city != "Bergen" {
			t.Errorf("Scalar() = %q, %v, want Bergen", city, err)
		}
	})

	t.Run("LongScalar", func(t *testing.T) {
		n, err := e.LongScalar(ctx, mgr.NewCommand(""), "SELECT COUNT(*) FROM people")
		if err != nil || n != 3 {
			t.Errorf("LongScalar() = %d, %v, want 3, nil", n, err)
		}
	})

	t.Run("SingleNoRows", func(t *testing.T) {
		got, err := Single[resident](ctx, e, mgr.NewCommand(""), "SELECT id, name, city FROM people WHERE id = 99")
		if err != nil {
			t.Fatalf("Single() error = %v", err)
		}
		if got != (resident{}) {
			t.Errorf("Single() = %+v, want zero value", got)
		}
	})
}
