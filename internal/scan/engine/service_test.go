package engine_test

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sentry/internal/scan/engine"
	"sentry/internal/scan/engine/mocks"
	"sentry/internal/scan/fetch"
	"sentry/internal/scan/metrics"
	"sentry/internal/scan/models"
	"sentry/internal/scan/probe"
	dErrors "sentry/pkg/domain-errors"
)

const intakeHTML = `<html><head><title>New Patient Registration</title></head>
<body>
<form action="/submit"><input name="first_name"><input name="dob"></form>
<p>We offer nutrition counseling and weight management.</p>
</body></html>`

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	geo     *mocks.MockGeoResolver
	mx      *mocks.MockMXResolver
	headers *mocks.MockHeaderProber
	fetcher *mocks.MockPageFetcher
	npi     *mocks.MockNPIVerifier
	service *engine.Service
	clock   time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.geo = mocks.NewMockGeoResolver(s.ctrl)
	s.mx = mocks.NewMockMXResolver(s.ctrl)
	s.headers = mocks.NewMockHeaderProber(s.ctrl)
	s.fetcher = mocks.NewMockPageFetcher(s.ctrl)
	s.npi = mocks.NewMockNPIVerifier(s.ctrl)
	s.clock = time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	s.service = engine.New(s.geo, s.mx, s.headers, s.fetcher, s.npi,
		engine.WithMetrics(metrics.New(prometheus.NewRegistry())),
		engine.WithClock(func() time.Time { return s.clock }),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func usGeo(ip string) *probe.GeoInfo {
	return &probe.GeoInfo{IP: ip, Country: "United States", CountryCode: "US", City: "Austin", Org: "Example Hosting", IsSovereign: true}
}

func fetchedPage(url, html string) fetch.Page {
	return fetch.Page{URL: url, FinalURL: url, HTML: html, Text: fetch.StripMarkup(html), Fetched: true, StatusCode: 200, Size: len(html)}
}

func countNodes(nodes []models.DataBorderNode, t models.NodeType) int {
	n := 0
	for _, node := range nodes {
		if node.Type == t {
			n++
		}
	}
	return n
}

func (s *ServiceSuite) TestScanWorkedExample() {
	ctx := context.Background()
	target := "https://austinfamilycare.com/new-patient"

	s.npi.EXPECT().Verify(gomock.Any(), "1234567893").Return(models.NPIVerification{Valid: true, Name: "AUSTIN FAMILY CARE PLLC"})
	s.fetcher.EXPECT().Fetch(gomock.Any(), target).Return(fetchedPage(target, intakeHTML))
	s.geo.EXPECT().Resolve(gomock.Any(), "austinfamilycare.com").Return(usGeo("203.0.113.10"))
	s.headers.EXPECT().Probe(gomock.Any(), target).Return(map[string]string{"server": "nginx"})
	s.mx.EXPECT().Resolve(gomock.Any(), "austinfamilycare.com").Return([]probe.MXRecord{{Exchange: "mx1.mail.example", Preference: 10}})
	s.geo.EXPECT().Resolve(gomock.Any(), "mx1.mail.example").Return(usGeo("192.0.2.25"))

	result, err := s.service.Scan(ctx, models.ScanRequest{NPI: "1234567893", URL: "austinfamilycare.com/new-patient"})
	s.Require().NoError(err)
	s.Require().NotNil(result)

	s.Equal(target, result.URL)
	s.Equal(100, result.CategoryScores.DataSovereignty.Percentage)
	s.Equal(70, result.CategoryScores.AITransparency.Percentage)
	s.Equal(70, result.CategoryScores.ClinicalIntegrity.Percentage)
	s.Equal(84, result.RiskScore)
	s.Equal(models.TierSovereign, result.ComplianceStatus)
	s.Equal(models.TierSovereign, result.RiskMeterLevel)
	s.Equal(models.RiskLow, result.RiskLevel)

	s.Require().Len(result.TopIssues, 2)
	s.Equal("AI-01", result.TopIssues[0].ID)
	s.Equal("ER-01", result.TopIssues[1].ID)

	s.Len(result.Findings, 12)
	s.Equal(1, countNodes(result.DataBorderMap, models.NodePrimary))
	s.Equal(1, countNodes(result.DataBorderMap, models.NodeMail))

	s.Equal(models.PageIntake, result.PageContext.Type)
	s.True(result.NPIVerification.Valid)
	s.Equal(models.EngineVersion, result.EngineVersion)
	s.Equal(s.clock.UnixMilli(), result.ScanTimestamp)

	s.Equal(12, result.Meta.ChecksRun)
	s.Equal(10, result.Meta.ChecksPass)
	s.Equal(2, result.Meta.ChecksFail)
	s.Equal(0, result.Meta.ChecksWarn)
	s.Equal("0ms", result.Meta.Duration)
	s.True(result.Meta.PageContentFetched)
	s.Equal(len(intakeHTML), result.Meta.PageSize)
	s.NotEmpty(result.Meta.ScanID)
}

func (s *ServiceSuite) TestScanDegradesWhenEverythingFails() {
	target := "https://unreachable.example"

	s.npi.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.NPIVerification{Valid: false})
	s.fetcher.EXPECT().Fetch(gomock.Any(), target).Return(fetch.Page{URL: target})
	s.geo.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil)
	s.headers.EXPECT().Probe(gomock.Any(), target).Return(nil)
	s.mx.EXPECT().Resolve(gomock.Any(), "unreachable.example").Return([]probe.MXRecord{})

	result, err := s.service.Scan(context.Background(), models.ScanRequest{NPI: "1234567893", URL: target})
	s.Require().NoError(err)

	s.Equal(models.PageUnknown, result.PageContext.Type)
	s.Equal("Unknown", result.PageContext.PageTitle)
	s.False(result.Meta.PageContentFetched)
	s.Empty(result.DataBorderMap)

	for _, f := range result.Findings[4:] {
		s.Equal(models.StatusWarn, f.Status, f.ID)
		s.Contains(f.Detail, "Manual audit required.", f.ID)
	}
	s.Equal(models.StatusWarn, result.Findings[0].Status)
	s.Equal(models.SeverityMedium, result.Findings[0].Severity)

	// DS 90, AI 88, CI 96.
	s.Equal(90, result.CategoryScores.DataSovereignty.Percentage)
	s.Equal(88, result.CategoryScores.AITransparency.Percentage)
	s.Equal(96, result.CategoryScores.ClinicalIntegrity.Percentage)
	s.Equal(91, result.RiskScore)
	s.Empty(result.TopIssues)
}

func (s *ServiceSuite) TestScanRecoversFromProbePanic() {
	s.npi.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.NPIVerification{}).AnyTimes()
	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(fetch.Page{}).AnyTimes()
	s.geo.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) *probe.GeoInfo {
		panic("geo provider exploded")
	}).AnyTimes()
	s.headers.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.mx.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	result, err := s.service.Scan(context.Background(), models.ScanRequest{NPI: "1234567893", URL: "clinic.example"})
	s.Nil(result)
	s.Require().Error(err)
	s.ErrorIs(err, engine.ErrScanFailed)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	var scanErr *engine.ScanError
	s.Require().True(errors.As(err, &scanErr))
	s.Equal(models.EngineVersion, scanErr.EngineVersion)
	s.Contains(scanErr.Cause, "geo provider exploded")
}

func (s *ServiceSuite) TestScanRecoversFromFetcherPanic() {
	s.npi.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.NPIVerification{}).AnyTimes()
	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, string) fetch.Page {
		panic(fmt.Errorf("decoder bug"))
	})

	result, err := s.service.Scan(context.Background(), models.ScanRequest{NPI: "1234567893", URL: "clinic.example"})
	s.Nil(result)
	s.ErrorIs(err, engine.ErrScanFailed)
}

func (s *ServiceSuite) TestSubProcessorResolutionIsCapped() {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := range 12 {
		fmt.Fprintf(&b, `<a href="https://vendor%d.example.net/page">v</a>`, i)
	}
	b.WriteString("</body></html>")
	target := "https://clinic.example"

	var geoCalls atomic.Int32
	s.npi.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(models.NPIVerification{})
	s.fetcher.EXPECT().Fetch(gomock.Any(), target).Return(fetchedPage(target, b.String()))
	s.geo.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, host string) *probe.GeoInfo {
		geoCalls.Add(1)
		return usGeo("192.0.2.1")
	}).AnyTimes()
	s.headers.EXPECT().Probe(gomock.Any(), target).Return(map[string]string{})
	s.mx.EXPECT().Resolve(gomock.Any(), "clinic.example").Return(nil)

	result, err := s.service.Scan(context.Background(), models.ScanRequest{NPI: "1234567893", URL: target})
	s.Require().NoError(err)

	s.Equal(int32(1+10), geoCalls.Load())
	s.Equal(10, countNodes(result.DataBorderMap, models.NodeSubProcessor))
	s.Equal(1, countNodes(result.DataBorderMap, models.NodePrimary))
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"clinic.example":          "https://clinic.example",
		"  clinic.example/path  ": "https://clinic.example/path",
		"http://clinic.example":   "http://clinic.example",
		"HTTPS://clinic.example":  "HTTPS://clinic.example",
		"//clinic.example":        "https://clinic.example",
	}
	for in, want := range tests {
		assert.Equal(t, want, engine.NormalizeURL(in), in)
	}
}

func TestScanErrorMatchesSentinel(t *testing.T) {
	err := error(&engine.ScanError{EngineVersion: models.EngineVersion, Cause: "x"})
	require.ErrorIs(t, err, engine.ErrScanFailed)
	assert.Equal(t, "scan failed: x", err.Error())
}
