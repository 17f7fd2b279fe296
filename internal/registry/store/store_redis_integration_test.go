//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sentry/internal/registry/models"
	"sentry/internal/registry/store"
	scanmodels "sentry/internal/scan/models"
	"sentry/pkg/platform/sentinel"
	"sentry/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedisStore(s.redis.Client, store.WithTTL(time.Hour))
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestFindMissing() {
	_, err := s.store.FindByNPI(context.Background(), "1234567893")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestRecordScanRoundTrip() {
	ctx := context.Background()
	result := &scanmodels.ScanResult{URL: "https://clinic.example.com", RiskScore: 70, RiskLevel: scanmodels.RiskLow}

	_, err := s.store.RecordScan(ctx, models.Provider{NPI: "1234567893", Name: "Clinic"},
		models.Scan{Result: result, StatusLabel: "Drift Detected"})
	s.Require().NoError(err)

	found, err := s.store.FindByNPI(ctx, "1234567893")
	s.Require().NoError(err)
	s.Equal("Clinic", found.Name)
	s.Equal(70, found.RiskScore)
	s.Equal("Drift Detected", found.StatusLabel)
	s.Equal(1, found.ScanCount)

	ttl, err := s.redis.Client.TTL(ctx, "registry:npi:1234567893").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStoreSuite) TestConcurrentScansCountEveryWrite() {
	ctx := context.Background()
	const goroutines = 5

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.RecordScan(ctx, models.Provider{NPI: "1234567893"},
				models.Scan{Result: &scanmodels.ScanResult{}})
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByNPI(ctx, "1234567893")
	s.Require().NoError(err)
	s.Equal(goroutines, found.ScanCount)
}
