// Example: Using sqlexec as an embedded library
//
// This example opens an in-memory DuckDB database, runs statements through the
// executor and materializes the results into structs, maps, dictionaries and
// lookups. It then swaps in a canned results filter to show how tests can run the
// same code without a database.
//
// Run this example:
//
//	go run ./example/embedded
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/nnnkkk7/sqlexec/pkg/connection"
	"github.com/nnnkkk7/sqlexec/pkg/exec"
	"github.com/nnnkkk7/sqlexec/pkg/expr"
	"github.com/nnnkkk7/sqlexec/pkg/filter"
	"github.com/nnnkkk7/sqlexec/pkg/logging"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

type employee struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	Department string `db:"department"`
}

func main() {
	fmt.Println("=== sqlexec Embedded Example ===")
	fmt.Println()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		log.Fatalf("Failed to open DuckDB: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	mgr := connection.NewManager(db)
	executor := exec.New(exec.WithLogger(logging.NewText(os.Stderr, os.Getenv("SQLEXEC_DEBUG") != "")))

	fmt.Println("1. Creating table and inserting data...")
	setup := []string{
		"CREATE TABLE employees (id INTEGER, name VARCHAR, department VARCHAR)",
		"INSERT INTO employees VALUES (1, 'Alice', 'Engineering'), (2, 'Bob', 'Sales'), (3, 'Carol', 'Engineering')",
	}
	for _, stmt := range setup {
		if _, err := executor.ExecNonQuery(ctx, mgr.NewCommand(""), stmt, nil); err != nil {
			log.Fatalf("Failed to execute %q: %v", stmt, err)
		}
	}

	n, err := executor.ExecNonQuery(ctx, mgr.NewCommand(""), "INSERT INTO employees VALUES (?, ?, ?)",
		employee{ID: 4, Name: "Dave", Department: "Sales"})
	if err != nil {
		log.Fatalf("Failed to insert from struct: %v", err)
	}
	fmt.Printf("   Inserted %d row from a struct\n\n", n)

	fmt.Println("2. Materializing rows into structs...")
	people, err := exec.List[employee](ctx, executor, mgr.NewCommand(""), "SELECT id, name, department FROM employees ORDER BY id")
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	for _, p := range people {
		fmt.Printf("   %d %-6s %s\n", p.ID, p.Name, p.Department)
	}
	fmt.Println()

	fmt.Println("3. Scalars with parameters...")
	count, err := exec.ScalarParams[int64](ctx, executor, mgr.NewCommand(""),
		"SELECT count(*) FROM employees WHERE department = ?", []*param.Parameter{param.New("dept", "Engineering")})
	if err != nil {
		log.Fatalf("Scalar failed: %v", err)
	}
	fmt.Printf("   Engineering headcount: %d\n\n", count)

	fmt.Println("4. Dictionary and lookup...")
	names, err := exec.Dictionary[int64, string](ctx, executor, mgr.NewCommand(""), "SELECT id, name FROM employees")
	if err != nil {
		log.Fatalf("Dictionary failed: %v", err)
	}
	fmt.Printf("   id 3 is %s\n", names[3])

	byDept, err := exec.Lookup[string, string](ctx, executor, mgr.NewCommand(""),
		"SELECT department, name FROM employees ORDER BY department, id")
	if err != nil {
		log.Fatalf("Lookup failed: %v", err)
	}
	byDept.Each(func(dept string, members []string) {
		fmt.Printf("   %s: %v\n", dept, members)
	})
	fmt.Println()

	fmt.Println("5. Expressions...")
	x, err := expr.Parse("SELECT name FROM employees WHERE id > ?", param.New("min", 2))
	if err != nil {
		log.Fatalf("Parse failed: %v", err)
	}
	later, err := exec.ListFrom[string](ctx, executor, mgr.NewCommand(""), x)
	if err != nil {
		log.Fatalf("ListFrom failed: %v", err)
	}
	fmt.Printf("   Employees after id 2: %v\n\n", later)

	fmt.Println("6. Canned results filter (no database)...")
	canned := &filter.Canned{Results: []employee{{ID: 99, Name: "Fixture", Department: "Test"}}}
	restore := executor.SetResultsFilter(canned)
	fake, err := exec.List[employee](ctx, executor, mgr.NewCommand(""), "SELECT * FROM employees")
	restore()
	if err != nil {
		log.Fatalf("Canned List failed: %v", err)
	}
	fmt.Printf("   Filter returned %+v for %q\n", fake, canned.LastSQL())

	fmt.Println()
	fmt.Println("=== Example Complete ===")
}
