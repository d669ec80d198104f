package statement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown statement ids.
var ErrNotFound = errors.New("statement: not found")

// Status represents the status of a recorded statement.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Record is one statement submitted through the HTTP API.
type Record struct {
	ID          string
	SQL         string
	Shape       string
	Status      Status
	CreatedOn   time.Time
	CompletedOn *time.Time
	Result      any
	Err         error
}

// Store keeps recently executed statements so their outcome can be fetched by id.
// Completed records are dropped after the TTL.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store. Call Run to expire old records.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		records: make(map[string]*Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create records a running statement and returns a copy of the record.
func (s *Store) Create(sql, shape string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Record{
		ID:        uuid.NewString(),
		SQL:       sql,
		Shape:     shape,
		Status:    StatusRunning,
		CreatedOn: s.now(),
	}
	s.records[r.ID] = r
	return *r
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *r, nil
}

// Complete marks the statement successful with its result.
func (s *Store) Complete(id string, result any) error {
	return s.finish(id, func(r *Record) {
		r.Status = StatusSuccess
		r.Result = result
	})
}

// Fail marks the statement failed.
func (s *Store) Fail(id string, err error) error {
	return s.finish(id, func(r *Record) {
		r.Status = StatusFailed
		r.Err = err
	})
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Run expires completed records every half TTL until ctx is done.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Expire()
		}
	}
}

// Expire removes records that completed longer than the TTL ago.
func (s *Store) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, r := range s.records {
		if r.CompletedOn != nil && now.Sub(*r.CompletedOn) > s.ttl {
			delete(s.records, id)
		}
	}
}

func (s *Store) finish(id string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(r)
	now := s.now()
	r.CompletedOn = &now
	return nil
}
