// Package exec runs commands and materializes their results, routing every call
// either to the database driver or to an installed results filter.
//
// An Executor carries the results filter slot and the log sink. The generic entry
// points are free functions that take the Executor as their first argument. A nil
// *Executor is valid and behaves as one with no filter and a discarding logger.
package exec

import (
	"sync"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/filter"
	"github.com/nnnkkk7/sqlexec/pkg/logging"
)

// Executor is the execution context of the pipeline.
type Executor struct {
	mu     sync.RWMutex
	filter filter.ResultsFilter
	log    logging.Sink
}

// Option configures an Executor.
type Option func(*Executor)

// WithResultsFilter installs f at construction time.
func WithResultsFilter(f filter.ResultsFilter) Option {
	return func(e *Executor) {
		e.filter = f
	}
}

// WithLogger sets the log sink.
func WithLogger(s logging.Sink) Option {
	return func(e *Executor) {
		e.log = s
	}
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	return e
}

// SetResultsFilter installs f, replacing the current filter, and returns a function
// that restores the previous one. Passing nil removes the filter.
//
//	restore := e.SetResultsFilter(&filter.Canned{Results: rows})
//	defer restore()
func (e *Executor) SetResultsFilter(f filter.ResultsFilter) (restore func()) {
	e.mu.Lock()
	prev := e.filter
	e.filter = f
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		e.filter = prev
		e.mu.Unlock()
	}
}

// ResultsFilter returns the installed filter, or nil.
func (e *Executor) ResultsFilter() filter.ResultsFilter {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filter
}

// With returns a new Executor that shares e's logger and uses f as its filter.
func (e *Executor) With(f filter.ResultsFilter) *Executor {
	return New(WithLogger(e.Logger()), WithResultsFilter(f))
}

// Logger returns the log sink.
func (e *Executor) Logger() logging.Sink {
	if e == nil || e.log == nil {
		return logging.Discard()
	}
	return e.log
}

// prepare sets the statement text when sql is non-empty, logs the bound command and
// returns the filter to route the call to. The filter is read once per call.
func (e *Executor) prepare(cmd command.Command, sql string) filter.ResultsFilter {
	if sql != "" {
		cmd.SetText(sql)
	}
	if log := e.Logger(); log.DebugEnabled() {
		log.DebugCommand(cmd)
	}
	return e.ResultsFilter()
}
