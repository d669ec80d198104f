// Example: Using the sqlexec statement API
//
// This example talks to a running sqlexec server over HTTP. It creates a table,
// inserts rows with bound parameters and reads them back in several result shapes.
//
// Start the server:
//
//	go run ./cmd/sqlexec serve
//
// Then run this example:
//
//	go run ./example/restapi
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

var baseURL = getBaseURL()

func getBaseURL() string {
	host := os.Getenv("SQLEXEC_HOST")
	if host == "" {
		host = "localhost:8080"
	}
	return fmt.Sprintf("http://%s/v1", host)
}

// StatementRequest is the body of POST /v1/statements.
type StatementRequest struct {
	SQL    string         `json:"sql"`
	Params map[string]any `json:"params,omitempty"`
	Shape  string         `json:"shape,omitempty"`
}

func main() {
	fmt.Println("=== sqlexec Statement API Example ===")
	fmt.Println()

	fmt.Println("1. Creating table...")
	submit(StatementRequest{SQL: "CREATE TABLE IF NOT EXISTS cities (id INTEGER, name VARCHAR, country VARCHAR)"})

	fmt.Println("2. Inserting rows with parameters...")
	rows := []StatementRequest{
		{SQL: "INSERT INTO cities VALUES (?, ?, ?)", Params: map[string]any{"a": 1, "b": "Oslo", "c": "NO"}},
		{SQL: "INSERT INTO cities VALUES (?, ?, ?)", Params: map[string]any{"a": 2, "b": "Bergen", "c": "NO"}},
		{SQL: "INSERT INTO cities VALUES (?, ?, ?)", Params: map[string]any{"a": 3, "b": "Rome", "c": "IT"}},
	}
	for _, r := range rows {
		submit(r)
	}

	fmt.Println("3. Reading rows...")
	list := submit(StatementRequest{SQL: "SELECT id, name FROM cities ORDER BY id"})
	printJSON(list["rows"])

	fmt.Println("4. Scalar...")
	count := submit(StatementRequest{SQL: "SELECT count(*) FROM cities", Shape: "scalar"})
	fmt.Printf("   %v cities\n", count["value"])

	fmt.Println("5. Lookup by country...")
	groups := submit(StatementRequest{SQL: "SELECT country, name FROM cities ORDER BY country, id", Shape: "lookup"})
	printJSON(groups["groups"])

	fmt.Println("6. Fetching the statement record...")
	id, _ := groups["statementId"].(string)
	printJSON(get("/statements/" + id))

	fmt.Println()
	fmt.Println("=== Example Complete ===")
}

func submit(req StatementRequest) map[string]any {
	body, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Failed to marshal request: %v", err)
	}
	resp, err := http.Post(baseURL+"/statements", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	return decode(resp)
}

func get(path string) map[string]any {
	resp, err := http.Get(baseURL + path)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	return decode(resp)
}

func decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Fatalf("Failed to decode response %s: %v", raw, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Statement failed (%d): %v", resp.StatusCode, out["message"])
	}
	return out
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "   ", "  ")
	fmt.Printf("   %s\n", b)
}
