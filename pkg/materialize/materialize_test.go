package materialize

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/nnnkkk7/sqlexec/pkg/command/commandtest"
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
)

type person struct {
	ID        int64
	FullName  string `db:"name"`
	CreatedAt time.Time
	Nickname  *string
}

type tagged struct {
	Labels []string
	Meta   map[string]any
}

func TestIsScalar(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{name: "Int", v: 0, want: true},
		{name: "String", v: "", want: true},
		{name: "Bool", v: false, want: true},
		{name: "Float", v: 0.0, want: true},
		{name: "Time", v: time.Time{}, want: true},
		{name: "Bytes", v: []byte(nil), want: true},
		{name: "UUID", v: uuid.UUID{}, want: true},
		{name: "NullString", v: sql.NullString{}, want: true},
		{name: "PointerToInt", v: new(int), want: true},
		{name: "Struct", v: person{}, want: false},
		{name: "PointerToStruct", v: &person{}, want: false},
		{name: "Map", v: map[string]any{}, want: false},
		{name: "Slice", v: []any{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScalar(reflect.TypeOf(tt.v)); got != tt.want {
				t.Errorf("IsScalar(%T) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}

	if !IsScalar(reflect.TypeOf((*any)(nil)).Elem()) {
		t.Error("IsScalar(any) = false, want true")
	}
}

func TestList_ZeroRowsIsEmptyNotNil(t *testing.T) {
	rows := commandtest.NewRows([]string{"id"})

	got, err := List[int](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", got)
	}
	if !rows.Closed() {
		t.Error("rows not closed")
	}
}

func TestList_ScalarPreservesCursorOrder(t *testing.T) {
	rows := commandtest.NewRows([]string{"id", "ignored"},
		[]any{int64(3), "c"}, []any{int64(1), "a"}, []any{int64(2), "b"})

	got, err := List[int](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]int{3, 1, 2}, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestList_CompositeMapsColumnsByName(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	nick := "annie"
	rows := commandtest.NewRows([]string{"ID", "NAME", "created_at", "nickname", "extra"},
		[]any{int64(1), "Ann", ts, "annie", "x"},
		[]any{int64(2), []byte("Bob"), ts, nil, "y"},
	)

	got, err := List[person](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []person{
		{ID: 1, FullName: "Ann", CreatedAt: ts, Nickname: &nick},
		{ID: 2, FullName: "Bob", CreatedAt: ts},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestList_FieldSubset(t *testing.T) {
	rows := commandtest.NewRows([]string{"id", "name"}, []any{int64(1), "Ann"})

	got, err := List[person](rows, dialect.DuckDB, "fullname")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]person{{FullName: "Ann"}}, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestList_FieldSubsetMatchesAnyFieldKey(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	cols := []string{"id", "name", "created_at"}

	tests := []struct {
		name string
		only []string
		want person
	}{
		{name: "SnakeCaseOfTaggedField", only: []string{"full_name"}, want: person{FullName: "Ann"}},
		{name: "TagOfField", only: []string{"NAME"}, want: person{FullName: "Ann"}},
		{name: "FieldNameOfSnakeColumn", only: []string{"CreatedAt"}, want: person{CreatedAt: ts}},
		{name: "SnakeCaseOfSnakeColumn", only: []string{"created_at", "id"}, want: person{ID: 1, CreatedAt: ts}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := commandtest.NewRows(cols, []any{int64(1), "Ann", ts})
			got, err := List[person](rows, dialect.DuckDB, tt.only...)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if diff := cmp.Diff([]person{tt.want}, got); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestList_PointerAndMapTargets(t *testing.T) {
	rows := commandtest.NewRows([]string{"id", "name"}, []any{int64(1), "Ann"})
	ptrs, err := List[*person](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("List[*person]() error = %v", err)
	}
	if len(ptrs) != 1 || ptrs[0].ID != 1 || ptrs[0].FullName != "Ann" {
		t.Errorf("List[*person]() = %+v", ptrs)
	}

	rows = commandtest.NewRows([]string{"id", "name"}, []any{int64(1), "Ann"})
	maps, err := List[map[string]any](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("List[map]() error = %v", err)
	}
	if diff := cmp.Diff([]map[string]any{{"id": int64(1), "name": "Ann"}}, maps); diff != "" {
		t.Errorf("List[map]() mismatch (-want +got):\n%s", diff)
	}

	rows = commandtest.NewRows([]string{"id", "name"}, []any{int64(1), "Ann"})
	tuples, err := List[[]any](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("List[[]any]() error = %v", err)
	}
	if diff := cmp.Diff([][]any{{int64(1), "Ann"}}, tuples); diff != "" {
		t.Errorf("List[[]any]() mismatch (-want +got):\n%s", diff)
	}
}

func TestList_CompositeFieldsDecodeJSON(t *testing.T) {
	rows := commandtest.NewRows([]string{"labels", "meta"}, []any{`["a","b"]`, []byte(`{"k":"v"}`)})

	got, err := List[tagged](rows, dialect.SQLite)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []tagged{{Labels: []string{"a", "b"}, Meta: map[string]any{"k": "v"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestList_ClosesRowsWhenConversionFails(t *testing.T) {
	rows := commandtest.NewRows([]string{"id"}, []any{int64(1)}, []any{"not a number"}, []any{int64(3)})

	_, err := List[int](rows, dialect.DuckDB)
	if !errors.Is(err, dialect.ErrConversion) {
		t.Fatalf("List() error = %v, want ErrConversion", err)
	}
	if !rows.Closed() {
		t.Error("rows not closed after conversion failure")
	}
}

func TestList_ClosesRowsWhenScanFails(t *testing.T) {
	scanErr := errors.New("scan failed")
	rows := commandtest.NewRows([]string{"id"}, []any{int64(1)})
	rows.ScanErr = scanErr

	_, err := List[person](rows, dialect.DuckDB)
	if !errors.Is(err, scanErr) {
		t.Fatalf("List() error = %v, want %v", err, scanErr)
	}
	if !rows.Closed() {
		t.Error("rows not closed after scan failure")
	}
}

func TestList_IterationErrorIsReturned(t *testing.T) {
	iterErr := errors.New("connection reset")
	rows := commandtest.NewRows([]string{"id"}, []any{int64(1)})
	rows.IterErr = iterErr

	if _, err := List[int](rows, dialect.DuckDB); !errors.Is(err, iterErr) {
		t.Errorf("List() error = %v, want %v", err, iterErr)
	}
}

func TestSingle(t *testing.T) {
	rows := commandtest.NewRows([]string{"id", "name"}, []any{int64(1), "Ann"}, []any{int64(2), "Bob"})
	got, err := Single[person](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("Single() error = %v", err)
	}
	if diff := cmp.Diff(person{ID: 1, FullName: "Ann"}, got); diff != "" {
		t.Errorf("Single() mismatch (-want +got):\n%s", diff)
	}
	if !rows.Closed() {
		t.Error("rows not closed")
	}

	empty := commandtest.NewRows([]string{"id", "name"})
	none, err := Single[*person](empty, dialect.DuckDB)
	if err != nil {
		t.Fatalf("Single() error = %v", err)
	}
	if none != nil {
		t.Errorf("Single() = %+v, want nil", none)
	}
}

func TestListOfAndSingleOf(t *testing.T) {
	rows := commandtest.NewRows([]string{"id", "name"}, []any{int64(1), "Ann"}, []any{int64(2), "Bob"})
	got, err := ListOf(rows, dialect.DuckDB, reflect.TypeOf(person{}))
	if err != nil {
		t.Fatalf("ListOf() error = %v", err)
	}
	want := []person{{ID: 1, FullName: "Ann"}, {ID: 2, FullName: "Bob"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListOf() mismatch (-want +got):\n%s", diff)
	}

	rows = commandtest.NewRows([]string{"n"})
	one, err := SingleOf(rows, dialect.DuckDB, reflect.TypeOf(0))
	if err != nil {
		t.Fatalf("SingleOf() error = %v", err)
	}
	if one != 0 {
		t.Errorf("SingleOf() = %v, want 0", one)
	}
}

func TestColumn(t *testing.T) {
	rows := commandtest.NewRows([]string{"name", "id"}, []any{"Ann", int64(1)}, []any{[]byte("Bob"), int64(2)})

	got, err := Column[string](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Ann", "Bob"}, got); diff != "" {
		t.Errorf("Column() mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnDistinct(t *testing.T) {
	rows := commandtest.NewRows([]string{"city"},
		[]any{"Oslo"}, []any{"Rome"}, []any{"Oslo"}, []any{"Rome"}, []any{"Lima"})

	got, err := ColumnDistinct[string](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("ColumnDistinct() error = %v", err)
	}
	want := map[string]struct{}{"Oslo": {}, "Rome": {}, "Lima": {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ColumnDistinct() mismatch (-want +got):\n%s", diff)
	}
}

func TestScalar(t *testing.T) {
	rows := commandtest.NewRows([]string{"count"}, []any{int64(42)}, []any{int64(7)})
	got, err := Scalar[int](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("Scalar() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Scalar() = %d, want 42", got)
	}

	empty := commandtest.NewRows([]string{"count"})
	zero, err := Scalar[string](empty, dialect.DuckDB)
	if err != nil {
		t.Fatalf("Scalar() error = %v", err)
	}
	if zero != "" {
		t.Errorf("Scalar() = %q, want empty", zero)
	}

	noCols := commandtest.NewRows(nil, []any{})
	if _, err := Scalar[int](noCols, dialect.DuckDB); !errors.Is(err, ErrNoColumns) {
		t.Errorf("Scalar() error = %v, want ErrNoColumns", err)
	}
}

func TestDictionary_LastRowWins(t *testing.T) {
	rows := commandtest.NewRows([]string{"id", "name"},
		[]any{int64(1), "a"}, []any{int64(2), "b"}, []any{int64(1), "c"})

	got, err := Dictionary[int, string](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("Dictionary() error = %v", err)
	}
	if diff := cmp.Diff(map[int]string{1: "c", 2: "b"}, got); diff != "" {
		t.Errorf("Dictionary() mismatch (-want +got):\n%s", diff)
	}
}

func TestDictionary_NeedsTwoColumns(t *testing.T) {
	rows := commandtest.NewRows([]string{"id"}, []any{int64(1)})

	_, err := Dictionary[int, string](rows, dialect.DuckDB)
	if !errors.Is(err, ErrColumnCount) {
		t.Fatalf("Dictionary() error = %v, want ErrColumnCount", err)
	}
	if !rows.Closed() {
		t.Error("rows not closed")
	}
}

func TestToLookup_PreservesOrder(t *testing.T) {
	rows := commandtest.NewRows([]string{"k", "v"},
		[]any{int64(1), "a"}, []any{int64(2), "b"}, []any{int64(1), "c"})

	got, err := ToLookup[int, string](rows, dialect.DuckDB)
	if err != nil {
		t.Fatalf("ToLookup() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, got.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int][]string{1: {"a", "c"}, 2: {"b"}}, got.Map()); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}

	var visited []int
	got.Each(func(k int, values []string) { visited = append(visited, k) })
	if diff := cmp.Diff([]int{1, 2}, visited); diff != "" {
		t.Errorf("Each() order mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup_ZeroValue(t *testing.T) {
	var l Lookup[string, int]
	l.Add("x", 1)
	l.Add("x", 2)

	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
	if diff := cmp.Diff([]int{1, 2}, l.Get("x")); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
	if l.Get("missing") != nil {
		t.Error("Get(missing) != nil")
	}
}

func TestLookup_GetReturnsCopy(t *testing.T) {
	l := NewLookup[string, int]()
	for i := 1; i <= 3; i++ {
		l.Add("x", i)
	}

	got := l.Get("x")
	got[0] = 100
	_ = append(got[:1], 200)
	l.Add("x", 4)

	if diff := cmp.Diff([]int{1, 2, 3, 4}, l.Get("x")); diff != "" {
		t.Errorf("Get() after caller mutation mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShape(t *testing.T) {
	for _, s := range []Shape{ShapeScalar, ShapeSingle, ShapeList, ShapeColumn, ShapeDistinctColumn, ShapeDictionary, ShapeLookup} {
		got, err := ParseShape(s.String())
		if err != nil {
			t.Fatalf("ParseShape(%q) error = %v", s, err)
		}
		if got != s {
			t.Errorf("ParseShape(%q) = %v, want %v", s, got, s)
		}
	}
	if _, err := ParseShape("matrix"); err == nil {
		t.Error("ParseShape(matrix) error = nil")
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ID":        "id",
		"CreatedAt": "created_at",
		"UserID":    "user_id",
		"HTTPCode":  "http_code",
		"name":      "name",
	}
	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
