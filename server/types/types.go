// Package types provides request and response types of the HTTP statement API.
package types

import (
	"encoding/json"
	"io"

	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// Result shapes accepted in StatementRequest.Shape besides the materializer shapes.
const (
	ShapeAuto = "auto"
	ShapeExec = "exec"
)

// StatementRequest is the body of POST /v1/statements.
type StatementRequest struct {
	SQL    string         `json:"sql"`
	Params map[string]any `json:"params,omitempty"`
	Shape  string         `json:"shape,omitempty"` // auto (default), exec, scalar, single, list, column, distinct, dictionary, lookup
}

// DecodeStatementRequest reads a request body. Numeric parameters decode as int64
// when integral and float64 otherwise.
func DecodeStatementRequest(r io.Reader) (*StatementRequest, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var req StatementRequest
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	for k, v := range req.Params {
		req.Params[k] = normalize(v)
	}
	if req.Shape == "" {
		req.Shape = ShapeAuto
	}
	return &req, nil
}

// Parameters returns the request parameters ordered by name.
func (r *StatementRequest) Parameters() []*param.Parameter {
	if r.Params == nil {
		return nil
	}
	return param.FromMap(r.Params)
}

func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// StatementResponse is the body of a successful statement call. Exactly one of the
// result fields is set, depending on Shape.
type StatementResponse struct {
	Success      bool          `json:"success"`
	StatementID  string        `json:"statementId"`
	Shape        string        `json:"shape"`
	RowsAffected *int64        `json:"rowsAffected,omitempty"`
	Value        any           `json:"value,omitempty"`
	Row          any           `json:"row,omitempty"`
	Rows         any           `json:"rows,omitempty"`
	Values       any           `json:"values,omitempty"`
	Entries      any           `json:"entries,omitempty"`
	Groups       []LookupGroup `json:"groups,omitempty"`
}

// LookupGroup is one key of a lookup result.
type LookupGroup struct {
	Key    string `json:"key"`
	Values []any  `json:"values"`
}

// StatementStatusResponse is the body of GET /v1/statements/{id}.
type StatementStatusResponse struct {
	Success     bool   `json:"success"`
	StatementID string `json:"statementId"`
	SQL         string `json:"sql"`
	Shape       string `json:"shape"`
	Status      string `json:"status"`
	CreatedOn   int64  `json:"createdOn"`
	CompletedOn int64  `json:"completedOn,omitempty"`
	Message     string `json:"message,omitempty"`
	Result      any    `json:"result,omitempty"`
}
