package filter

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/command/commandtest"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

func newCommand(t *testing.T, sql string, params ...*param.Parameter) *commandtest.Command {
	t.Helper()
	cmd := commandtest.New()
	cmd.SetText(sql)
	for _, p := range params {
		if err := cmd.Parameters().Add(p); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	return cmd
}

func TestUnsupported_EveryCapabilityFails(t *testing.T) {
	var f ResultsFilter = Unsupported{}
	cmd := newCommand(t, "SELECT 1")
	intType := reflect.TypeOf(0)

	calls := map[string]func() error{
		"ExecuteSQL":        func() error { _, err := f.ExecuteSQL(cmd); return err },
		"GetScalar":         func() error { _, err := f.GetScalar(cmd, nil); return err },
		"GetLongScalar":     func() error { _, err := f.GetLongScalar(cmd); return err },
		"GetSingle":         func() error { _, err := f.GetSingle(cmd, intType); return err },
		"GetList":           func() error { _, err := f.GetList(cmd, intType); return err },
		"GetColumn":         func() error { _, err := f.GetColumn(cmd, intType); return err },
		"GetColumnDistinct": func() error { _, err := f.GetColumnDistinct(cmd, intType); return err },
		"GetDictionary":     func() error { _, err := f.GetDictionary(cmd, intType, intType); return err },
		"GetLookup":         func() error { _, err := f.GetLookup(cmd, intType, intType); return err },
		"GetRefSingle":      func() error { _, err := f.GetRefSingle(cmd, intType); return err },
		"GetRefList":        func() error { _, err := f.GetRefList(cmd, intType); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			if !errors.Is(err, ErrUnsupported) {
				t.Fatalf("error = %v, want ErrUnsupported", err)
			}
		})
	}
}

type countOnly struct {
	Unsupported
}

func (countOnly) GetLongScalar(command.Command) (int64, error) { return 42, nil }

func TestUnsupported_Embedding(t *testing.T) {
	var f ResultsFilter = countOnly{}
	cmd := newCommand(t, "SELECT COUNT(*) FROM t")

	n, err := f.GetLongScalar(cmd)
	if err != nil || n != 42 {
		t.Errorf("GetLongScalar() = %d, %v, want 42, nil", n, err)
	}
	if _, err := f.GetList(cmd, reflect.TypeOf("")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("GetList() error = %v, want ErrUnsupported", err)
	}
}

func TestCanned_RecordsStatements(t *testing.T) {
	var observedSQL []string
	var observedCmds int
	f := &Canned{
		ExecuteSQLResult: 3,
		SQLFilter:        func(sql string) { observedSQL = append(observedSQL, sql) },
		CommandFilter:    func(command.Command) { observedCmds++ },
	}

	n, err := f.ExecuteSQL(newCommand(t, "DELETE FROM t WHERE id = ?", param.New("id", int64(9))))
	if err != nil {
		t.Fatalf("ExecuteSQL() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ExecuteSQL() = %d, want 3", n)
	}
	if _, err := f.GetScalar(newCommand(t, "SELECT 1"), nil); err != nil {
		t.Fatalf("GetScalar() error = %v", err)
	}

	want := []Statement{
		{SQL: "DELETE FROM t WHERE id = ?", Params: []param.Parameter{{Name: "id", Type: param.DBTypeInt64, Value: int64(9)}}},
		{SQL: "SELECT 1", Params: []param.Parameter{}},
	}
	if diff := cmp.Diff(want, f.Statements(), cmpopts.IgnoreUnexported(param.Parameter{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Statements() mismatch (-want +got):\n%s", diff)
	}
	if got := f.LastSQL(); got != "SELECT 1" {
		t.Errorf("LastSQL() = %q, want %q", got, "SELECT 1")
	}
	if diff := cmp.Diff([]string{"DELETE FROM t WHERE id = ?", "SELECT 1"}, observedSQL); diff != "" {
		t.Errorf("SQLFilter mismatch (-want +got):\n%s", diff)
	}
	if observedCmds != 2 {
		t.Errorf("CommandFilter calls = %d, want 2", observedCmds)
	}

	f.Reset()
	if got := len(f.Statements()); got != 0 {
		t.Errorf("len(Statements()) after Reset = %d, want 0", got)
	}
	if got := f.LastSQL(); got != "" {
		t.Errorf("LastSQL() after Reset = %q, want empty", got)
	}
}

func TestCanned_FunctionsWinOverValues(t *testing.T) {
	f := &Canned{
		Results:            []int{1},
		ResultsFn:          func(command.Command, reflect.Type) any { return []int{7, 8} },
		ScalarResult:       "fixed",
		ScalarResultFn:     func(cmd command.Command, _ reflect.Type) any { return cmd.Text() },
		LongScalarResult:   1,
		LongScalarResultFn: func(command.Command) int64 { return 99 },
	}
	cmd := newCommand(t, "SELECT x")

	list, _ := f.GetList(cmd, reflect.TypeOf(0))
	if diff := cmp.Diff([]int{7, 8}, list); diff != "" {
		t.Errorf("GetList() mismatch (-want +got):\n%s", diff)
	}
	scalar, _ := f.GetScalar(cmd, nil)
	if scalar != "SELECT x" {
		t.Errorf("GetScalar() = %v, want SELECT x", scalar)
	}
	long, _ := f.GetLongScalar(cmd)
	if long != 99 {
		t.Errorf("GetLongScalar() = %d, want 99", long)
	}
}

func TestCanned_Fallbacks(t *testing.T) {
	cmd := newCommand(t, "SELECT name FROM people")
	strType := reflect.TypeOf("")

	tests := []struct {
		name   string
		filter *Canned
		call   func(f *Canned) (any, error)
		want   any
	}{
		{
			name:   "SingleFromFirstResult",
			filter: &Canned{Results: []string{"Ann", "Bob"}},
			call:   func(f *Canned) (any, error) { return f.GetSingle(cmd, strType) },
			want:   "Ann",
		},
		{
			name:   "SingleFromEmptyResults",
			filter: &Canned{Results: []string{}},
			call:   func(f *Canned) (any, error) { return f.GetSingle(cmd, strType) },
			want:   nil,
		},
		{
			name:   "DistinctFromColumn",
			filter: &Canned{ColumnResults: []string{"a", "a"}},
			call:   func(f *Canned) (any, error) { return f.GetColumnDistinct(cmd, strType) },
			want:   []string{"a", "a"},
		},
		{
			name:   "RefListFromResults",
			filter: &Canned{Results: []string{"x"}},
			call:   func(f *Canned) (any, error) { return f.GetRefList(cmd, strType) },
			want:   []string{"x"},
		},
		{
			name:   "RefListPrefersRefResults",
			filter: &Canned{Results: []string{"x"}, RefResults: []string{"y"}},
			call:   func(f *Canned) (any, error) { return f.GetRefList(cmd, strType) },
			want:   []string{"y"},
		},
		{
			name:   "RefSingleFromSingle",
			filter: &Canned{SingleResult: "one"},
			call:   func(f *Canned) (any, error) { return f.GetRefSingle(cmd, strType) },
			want:   "one",
		},
		{
			name:   "RefSingleFromRefResults",
			filter: &Canned{RefResults: []string{"first", "second"}},
			call:   func(f *Canned) (any, error) { return f.GetRefSingle(cmd, strType) },
			want:   "first",
		},
		{
			name:   "DictionaryValue",
			filter: &Canned{DictionaryResults: map[int]string{1: "a"}},
			call:   func(f *Canned) (any, error) { return f.GetDictionary(cmd, reflect.TypeOf(0), strType) },
			want:   map[int]string{1: "a"},
		},
		{
			name:   "LookupValue",
			filter: &Canned{LookupResults: map[int][]string{1: {"a", "c"}}},
			call:   func(f *Canned) (any, error) { return f.GetLookup(cmd, reflect.TypeOf(0), strType) },
			want:   map[int][]string{1: {"a", "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call(tt.filter)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCanned_ConcurrentRecording(t *testing.T) {
	f := &Canned{}

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd := commandtest.New()
			cmd.SetText("SELECT 1")
			_, _ = f.GetScalar(cmd, nil)
		}()
	}
	wg.Wait()

	if got := len(f.Statements()); got != goroutines {
		t.Errorf("len(Statements()) = %d, want %d", got, goroutines)
	}
}
