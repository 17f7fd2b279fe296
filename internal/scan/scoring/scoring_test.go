package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentry/internal/scan/models"
)

func finding(id string, c models.Category, s models.Status, sev models.Severity) models.Finding {
	return models.Finding{ID: id, Category: c, Status: s, Severity: sev}
}

func TestDeduction(t *testing.T) {
	tests := []struct {
		status   models.Status
		severity models.Severity
		want     int
	}{
		{models.StatusFail, models.SeverityCritical, 30},
		{models.StatusFail, models.SeverityHigh, 20},
		{models.StatusFail, models.SeverityMedium, 10},
		{models.StatusFail, models.SeverityLow, 5},
		{models.StatusFail, models.SeverityInfo, 0},
		{models.StatusWarn, models.SeverityCritical, 10},
		{models.StatusWarn, models.SeverityHigh, 6},
		{models.StatusWarn, models.SeverityMedium, 3},
		{models.StatusWarn, models.SeverityLow, 1},
		{models.StatusPass, models.SeverityCritical, 0},
		{models.StatusSkip, models.SeverityCritical, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.want, Deduction(models.Finding{Status: tt.status, Severity: tt.severity}))
		})
	}
}

func TestTierBoundaries(t *testing.T) {
	assert.Equal(t, models.TierSovereign, TierFor(100))
	assert.Equal(t, models.TierSovereign, TierFor(67))
	assert.Equal(t, models.TierDrift, TierFor(66))
	assert.Equal(t, models.TierDrift, TierFor(34))
	assert.Equal(t, models.TierViolation, TierFor(33))
	assert.Equal(t, models.TierViolation, TierFor(0))

	assert.Equal(t, models.RiskLow, RiskLevelFor(67))
	assert.Equal(t, models.RiskModerate, RiskLevelFor(50))
	assert.Equal(t, models.RiskHigh, RiskLevelFor(10))
}

func TestReportGrade(t *testing.T) {
	assert.Equal(t, "Verified Sovereign", ReportGrade(80))
	assert.Equal(t, "Drift Detected", ReportGrade(79))
	assert.Equal(t, "Drift Detected", ReportGrade(60))
	assert.Equal(t, "Violation", ReportGrade(59))
}

func TestCategoryScoreClampsAtZero(t *testing.T) {
	var findings []models.Finding
	for range 4 {
		findings = append(findings, finding("DR", models.CategoryDataSovereignty, models.StatusFail, models.SeverityCritical))
	}
	score := CategoryScore(models.CategoryDataSovereignty, findings)
	assert.Equal(t, 0, score.Percentage)
	assert.Equal(t, models.TierViolation, score.Level)
	assert.Equal(t, 4, score.Failed)
	assert.Equal(t, "Data Sovereignty & Residency", score.Name)
}

func TestEmptyCategoryScoresFull(t *testing.T) {
	score := CategoryScore(models.CategoryAITransparency, nil)
	assert.Equal(t, 100, score.Percentage)
	assert.Equal(t, models.TierSovereign, score.Level)
	assert.Zero(t, score.Findings)
}

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, c := range models.Categories {
		sum += Weight(c)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSummarizeWorkedExample(t *testing.T) {
	findings := []models.Finding{
		finding("DR-01", models.CategoryDataSovereignty, models.StatusPass, models.SeverityCritical),
		finding("DR-02", models.CategoryDataSovereignty, models.StatusPass, models.SeverityLow),
		finding("AI-01", models.CategoryAITransparency, models.StatusFail, models.SeverityCritical),
		finding("AI-02", models.CategoryAITransparency, models.StatusPass, models.SeverityCritical),
		finding("ER-01", models.CategoryClinicalIntegrity, models.StatusFail, models.SeverityCritical),
		finding("ER-03", models.CategoryClinicalIntegrity, models.StatusPass, models.SeverityMedium),
	}

	s := Summarize(findings)
	assert.Equal(t, 100, s.Categories.DataSovereignty.Percentage)
	assert.Equal(t, 70, s.Categories.AITransparency.Percentage)
	assert.Equal(t, 70, s.Categories.ClinicalIntegrity.Percentage)
	// 45 + 21 + 17.5 rounds half away from zero.
	assert.Equal(t, 84, s.Score)
	assert.Equal(t, models.TierSovereign, s.Tier)
	assert.Equal(t, models.RiskLow, s.RiskLevel)
}

func TestTopIssues(t *testing.T) {
	findings := []models.Finding{
		finding("A", models.CategoryAITransparency, models.StatusFail, models.SeverityMedium),
		finding("B", models.CategoryAITransparency, models.StatusWarn, models.SeverityCritical),
		finding("C", models.CategoryAITransparency, models.StatusFail, models.SeverityCritical),
		finding("D", models.CategoryAITransparency, models.StatusFail, models.SeverityHigh),
		finding("E", models.CategoryAITransparency, models.StatusFail, models.SeverityCritical),
		finding("F", models.CategoryAITransparency, models.StatusFail, models.SeverityLow),
		finding("G", models.CategoryAITransparency, models.StatusFail, models.SeverityMedium),
		finding("H", models.CategoryAITransparency, models.StatusPass, models.SeverityCritical),
	}

	top := TopIssues(findings)
	require.Len(t, top, MaxTopIssues)
	ids := make([]string, 0, len(top))
	for _, f := range top {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"C", "E", "D", "A", "G"}, ids)
}

func TestTopIssuesEmpty(t *testing.T) {
	top := TopIssues([]models.Finding{finding("A", models.CategoryAITransparency, models.StatusPass, models.SeverityCritical)})
	assert.NotNil(t, top)
	assert.Empty(t, top)
}
