package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/exec"
	"github.com/nnnkkk7/sqlexec/pkg/materialize"
	"github.com/nnnkkk7/sqlexec/pkg/statement"
	"github.com/nnnkkk7/sqlexec/server/apierror"
	"github.com/nnnkkk7/sqlexec/server/types"
)

// StatementHandler handles the statement API.
type StatementHandler struct {
	newCommand func() command.Command
	executor   *exec.Executor
	store      *statement.Store
}

// NewStatementHandler creates a statement handler. newCommand returns a fresh command
// for every request.
func NewStatementHandler(newCommand func() command.Command, executor *exec.Executor, store *statement.Store) *StatementHandler {
	return &StatementHandler{
		newCommand: newCommand,
		executor:   executor,
		store:      store,
	}
}

// Submit handles POST /v1/statements.
func (h *StatementHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := types.DecodeStatementRequest(r.Body)
	if err != nil {
		h.sendError(w, apierror.NewInvalidRequestError("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		h.sendError(w, apierror.NewInvalidRequestError("sql is required"))
		return
	}

	shape, apiErr := resolveShape(req)
	if apiErr != nil {
		h.sendError(w, apiErr)
		return
	}

	rec := h.store.Create(req.SQL, shape)

	cmd := h.newCommand()
	if err := h.executor.SetParameters(cmd, req.Parameters()); err != nil {
		_ = h.store.Fail(rec.ID, err)
		h.sendError(w, apierror.FromExecError(err).WithData("statementId", rec.ID))
		return
	}

	resp, err := h.run(r.Context(), cmd, req.SQL, shape)
	if err != nil {
		_ = h.store.Fail(rec.ID, err)
		h.sendError(w, apierror.FromExecError(err).WithData("statementId", rec.ID))
		return
	}
	resp.Success = true
	resp.StatementID = rec.ID
	resp.Shape = shape
	_ = h.store.Complete(rec.ID, resp)

	h.sendJSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/statements/{id}.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.Get(id)
	if err != nil {
		h.sendJSON(w, http.StatusNotFound, apierror.NewInvalidRequestError("Statement not found").
			WithData("statementId", id).ToResponse())
		return
	}

	resp := types.StatementStatusResponse{
		Success:     rec.Status != statement.StatusFailed,
		StatementID: rec.ID,
		SQL:         rec.SQL,
		Shape:       rec.Shape,
		Status:      string(rec.Status),
		CreatedOn:   rec.CreatedOn.Unix(),
	}
	if rec.CompletedOn != nil {
		resp.CompletedOn = rec.CompletedOn.Unix()
	}
	if rec.Err != nil {
		resp.Message = rec.Err.Error()
	}
	if result, ok := rec.Result.(*types.StatementResponse); ok {
		resp.Result = result
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// resolveShape maps the requested shape onto exec or a materializer shape name.
// auto picks list for statements that return rows and exec otherwise.
func resolveShape(req *types.StatementRequest) (string, *apierror.APIError) {
	switch strings.ToLower(req.Shape) {
	case types.ShapeAuto:
		if statement.IsQuery(req.SQL) {
			return materialize.ShapeList.String(), nil
		}
		return types.ShapeExec, nil
	case types.ShapeExec:
		return types.ShapeExec, nil
	}

	s, err := materialize.ParseShape(req.Shape)
	if err != nil {
		return "", apierror.NewUnsupportedShapeError(req.Shape)
	}
	return s.String(), nil
}

func (h *StatementHandler) run(ctx context.Context, cmd command.Command, sql, shape string) (*types.StatementResponse, error) {
	resp := &types.StatementResponse{}
	if shape == types.ShapeExec {
		n, err := h.executor.ExecNonQuery(ctx, cmd, sql, nil)
		if err != nil {
			return nil, err
		}
		resp.RowsAffected = &n
		return resp, nil
	}

	s, err := materialize.ParseShape(shape)
	if err != nil {
		return nil, apierror.NewUnsupportedShapeError(shape)
	}

	switch s {
	case materialize.ShapeScalar:
		resp.Value, err = h.executor.ScalarValue(ctx, cmd, sql)
	case materialize.ShapeSingle:
		var row map[string]any
		row, err = exec.Single[map[string]any](ctx, h.executor, cmd, sql)
		if row != nil {
			resp.Row = row
		}
	case materialize.ShapeList:
		var rows []map[string]any
		rows, err = exec.List[map[string]any](ctx, h.executor, cmd, sql)
		resp.Rows = rows
	case materialize.ShapeColumn:
		var values []any
		values, err = exec.Column[any](ctx, h.executor, cmd, sql)
		resp.Values = values
	case materialize.ShapeDistinctColumn:
		var set map[string]struct{}
		set, err = exec.ColumnDistinct[string](ctx, h.executor, cmd, sql)
		resp.Values = sortedSet(set)
	case materialize.ShapeDictionary:
		var entries map[string]any
		entries, err = exec.Dictionary[string, any](ctx, h.executor, cmd, sql)
		resp.Entries = entries
	case materialize.ShapeLookup:
		var l *materialize.Lookup[string, any]
		l, err = exec.Lookup[string, any](ctx, h.executor, cmd, sql)
		if l != nil {
			resp.Groups = lookupGroups(l)
		}
	default:
		return nil, fmt.Errorf("handlers: shape %s has no handler", s)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func lookupGroups(l *materialize.Lookup[string, any]) []types.LookupGroup {
	groups := make([]types.LookupGroup, 0, l.Len())
	l.Each(func(k string, values []any) {
		groups = append(groups, types.LookupGroup{Key: k, Values: values})
	})
	return groups
}

// sendError sends an error response.
func (h *StatementHandler) sendError(w http.ResponseWriter, err *apierror.APIError) {
	h.sendJSON(w, err.HTTPStatus(), err.ToResponse())
}

func (h *StatementHandler) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
