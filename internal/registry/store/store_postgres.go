package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sentry/internal/registry/models"
	scanmodels "sentry/internal/scan/models"
	"sentry/pkg/platform/sentinel"
	"sentry/pkg/platform/tx"
)

// Schema creates the registry table. Migrate applies it.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS provider_registry (
		npi          TEXT PRIMARY KEY,
		name         TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT '',
		city         TEXT NOT NULL DEFAULT '',
		zip          TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		risk_score   INTEGER NOT NULL DEFAULT 0,
		risk_level   TEXT NOT NULL DEFAULT '',
		status_label TEXT NOT NULL DEFAULT '',
		scan_count   INTEGER NOT NULL DEFAULT 0,
		last_scan_at TIMESTAMPTZ,
		last_result  JSONB,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS provider_registry_risk_level_idx ON provider_registry (risk_level)`,
}

const recordColumns = `npi, name, url, city, zip, email, phone, risk_score, risk_level,
	status_label, scan_count, last_scan_at, last_result, created_at, updated_at`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresStore persists registry records in PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore constructs a PostgreSQL-backed registry.
func NewPostgresStore(db *sql.DB, opts ...Option) *PostgresStore {
	cfg := newOptions(opts)
	return &PostgresStore{db: db, now: cfg.now}
}

func (s *PostgresStore) conn(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Migrate creates the registry schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		for _, stmt := range Schema {
			if _, err := s.conn(ctx).ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate registry: %w", err)
			}
		}
		return nil
	})
}

// FindByNPI loads the record for npi or returns sentinel.ErrNotFound.
func (s *PostgresStore) FindByNPI(ctx context.Context, npi string) (*models.Record, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM provider_registry WHERE npi = $1`, npi)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registry record: %w", err)
	}
	return rec, nil
}

// RecordScan upserts the provider in one statement. Empty profile fields never
// overwrite stored ones and scan_count is incremented in the database.
func (s *PostgresStore) RecordScan(ctx context.Context, p models.Provider, scan models.Scan) (*models.Record, error) {
	if err := validate(p, scan); err != nil {
		return nil, err
	}
	if scan.At.IsZero() {
		scan.At = s.now()
	}
	payload, err := json.Marshal(scan.Result)
	if err != nil {
		return nil, fmt.Errorf("encode scan result: %w", err)
	}
	url := p.URL
	if scan.Result.URL != "" {
		url = scan.Result.URL
	}

	row := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO provider_registry (
			npi, name, url, city, zip, email, phone, risk_score, risk_level,
			status_label, scan_count, last_scan_at, last_result, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12, $11, $11)
		ON CONFLICT (npi) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), provider_registry.name),
			url = COALESCE(NULLIF(EXCLUDED.url, ''), provider_registry.url),
			city = COALESCE(NULLIF(EXCLUDED.city, ''), provider_registry.city),
			zip = COALESCE(NULLIF(EXCLUDED.zip, ''), provider_registry.zip),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), provider_registry.email),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), provider_registry.phone),
			risk_score = EXCLUDED.risk_score,
			risk_level = EXCLUDED.risk_level,
			status_label = EXCLUDED.status_label,
			scan_count = provider_registry.scan_count + 1,
			last_scan_at = EXCLUDED.last_scan_at,
			last_result = EXCLUDED.last_result,
			updated_at = EXCLUDED.updated_at
		RETURNING `+recordColumns,
		p.NPI, p.Name, url, p.City, p.Zip, p.Email, p.Phone,
		scan.Result.RiskScore, string(scan.Result.RiskLevel), scan.StatusLabel,
		scan.At, payload,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	return rec, nil
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec        models.Record
		riskLevel  string
		lastScanAt sql.NullTime
		lastResult []byte
	)
	err := row.Scan(
		&rec.NPI, &rec.Name, &rec.URL, &rec.City, &rec.Zip, &rec.Email, &rec.Phone,
		&rec.RiskScore, &riskLevel, &rec.StatusLabel, &rec.ScanCount,
		&lastScanAt, &lastResult, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.RiskLevel = scanmodels.RiskLevel(riskLevel)
	if lastScanAt.Valid {
		rec.LastScanAt = lastScanAt.Time
	}
	if len(lastResult) > 0 {
		var result scanmodels.ScanResult
		if err := json.Unmarshal(lastResult, &result); err != nil {
			return nil, fmt.Errorf("decode last result: %w", err)
		}
		rec.LastResult = &result
	}
	return &rec, nil
}
