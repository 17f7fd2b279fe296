package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentry/internal/scan/models"
)

type fakeScanner struct {
	got    models.ScanRequest
	result *models.ScanResult
	err    error
}

func (f *fakeScanner) Scan(_ context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	f.got = req
	return f.result, f.err
}

func violationResult() *models.ScanResult {
	return &models.ScanResult{
		NPI:              "1234567893",
		URL:              "https://clinic.example.com",
		RiskScore:        20,
		RiskLevel:        models.RiskHigh,
		ComplianceStatus: models.TierViolation,
		EngineVersion:    models.EngineVersion,
		CategoryScores: models.CategoryScores{
			DataSovereignty: models.CategoryScore{Name: "Data Sovereignty & Residency", Percentage: 10, Level: models.TierViolation},
		},
		TopIssues: []models.Finding{{ID: "DR-01", Name: "Primary Domain Residency", Severity: models.SeverityCritical, Detail: "hosted abroad"}},
	}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *exitErr
	require.True(t, errors.As(err, &ee), "expected exitErr, got %v", err)
	return ee.code
}

func TestRunScanNormalizesURL(t *testing.T) {
	fs := &fakeScanner{result: violationResult()}
	var out bytes.Buffer

	require.NoError(t, runScan(context.Background(), &out, fs, scanFlags{npi: "1234567893", url: "clinic.example.com"}))

	assert.Equal(t, "https://clinic.example.com", fs.got.URL)
	assert.Contains(t, out.String(), "Score 20  Violation")
	assert.Contains(t, out.String(), "[critical] DR-01")
}

func TestRunScanJSON(t *testing.T) {
	fs := &fakeScanner{result: violationResult()}
	var out bytes.Buffer

	require.NoError(t, runScan(context.Background(), &out, fs, scanFlags{npi: "1234567893", url: "https://clinic.example.com", json: true}))

	var decoded models.ScanResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 20, decoded.RiskScore)
}

func TestRunScanExitCodes(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	err := runScan(ctx, &out, &fakeScanner{}, scanFlags{npi: "12345", url: "x.com"})
	assert.Equal(t, 3, exitCode(t, err))

	err = runScan(ctx, &out, &fakeScanner{}, scanFlags{npi: "1234567890", url: "x.com", strict: true})
	assert.Equal(t, 3, exitCode(t, err))

	err = runScan(ctx, &out, &fakeScanner{err: errors.New("scan failed: boom")}, scanFlags{npi: "1234567893", url: "x.com"})
	assert.Equal(t, 4, exitCode(t, err))

	err = runScan(ctx, &out, &fakeScanner{result: violationResult()}, scanFlags{npi: "1234567893", url: "x.com", failOnViolation: true})
	assert.Equal(t, 2, exitCode(t, err))
}

func TestTokenRequiresSigningKey(t *testing.T) {
	t.Setenv("SENTRY_JWT_SIGNING_KEY", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"token", "--subject", "ops"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	assert.Equal(t, 3, exitCode(t, err))
}

func TestTokenMintsJWT(t *testing.T) {
	t.Setenv("SENTRY_JWT_SIGNING_KEY", "test-key")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"token", "--subject", "ops", "--scope", "registry:read", "--scope", "scan:bulk"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte(".")))
}
