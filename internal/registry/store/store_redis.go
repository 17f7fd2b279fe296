package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sentry/internal/registry/models"
	"sentry/pkg/platform/sentinel"
)

// maxWatchAttempts bounds optimistic-lock retries when concurrent scans of the
// same NPI race on RecordScan.
const maxWatchAttempts = 8

// RedisStore keeps registry records as JSON documents, one key per NPI.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisStore constructs a Redis-backed registry.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	cfg := newOptions(opts)
	return &RedisStore{
		client:    client,
		keyPrefix: cfg.keyPrefix,
		ttl:       cfg.ttl,
		now:       cfg.now,
	}
}

func (s *RedisStore) key(npi string) string {
	return s.keyPrefix + npi
}

// FindByNPI loads the record for npi or returns sentinel.ErrNotFound.
func (s *RedisStore) FindByNPI(ctx context.Context, npi string) (*models.Record, error) {
	raw, err := s.client.Get(ctx, s.key(npi)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registry record: %w", err)
	}
	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode registry record: %w", err)
	}
	return &rec, nil
}

// RecordScan upserts the provider under WATCH so concurrent scans of the same
// NPI never lose a scan count increment.
func (s *RedisStore) RecordScan(ctx context.Context, p models.Provider, scan models.Scan) (*models.Record, error) {
	if err := validate(p, scan); err != nil {
		return nil, err
	}
	if scan.At.IsZero() {
		scan.At = s.now()
	}
	key := s.key(p.NPI)

	var saved *models.Record
	txf := func(tx *redis.Tx) error {
		rec, err := s.load(ctx, tx, key, p.NPI, scan.At)
		if err != nil {
			return err
		}
		rec.Apply(p, scan)
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode registry record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err == nil {
			saved = rec
		}
		return err
	}

	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("record scan: %w", err)
		}
		return saved, nil
	}
	return nil, fmt.Errorf("record scan: %w", redis.TxFailedErr)
}

func (s *RedisStore) load(ctx context.Context, tx *redis.Tx, key, npi string, now time.Time) (*models.Record, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewRecord(models.Provider{NPI: npi}, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load registry record: %w", err)
	}
	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode registry record: %w", err)
	}
	return &rec, nil
}
