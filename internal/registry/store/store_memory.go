package store

import (
	"context"
	"sync"
	"time"

	"sentry/internal/registry/models"
	"sentry/pkg/platform/sentinel"
)

// InMemoryStore keeps registry records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Record
	now     func() time.Time
}

// NewInMemoryStore creates an empty in-memory registry.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	cfg := newOptions(opts)
	return &InMemoryStore{
		records: make(map[string]models.Record),
		now:     cfg.now,
	}
}

// FindByNPI returns a copy of the record for npi or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByNPI(_ context.Context, npi string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[npi]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// RecordScan upserts the provider and stores scan as its latest outcome.
func (s *InMemoryStore) RecordScan(_ context.Context, p models.Provider, scan models.Scan) (*models.Record, error) {
	if err := validate(p, scan); err != nil {
		return nil, err
	}
	if scan.At.IsZero() {
		scan.At = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[p.NPI]
	if !ok {
		rec = *models.NewRecord(models.Provider{NPI: p.NPI}, scan.At)
	}
	rec.Apply(p, scan)
	s.records[p.NPI] = rec
	out := rec
	return &out, nil
}
