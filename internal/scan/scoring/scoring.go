// Package scoring turns findings into category scores, a composite risk score
// and a compliance tier.
package scoring

import (
	"slices"

	"sentry/internal/scan/models"
)

// Tier boundaries apply to every percentage that gets tiered.
const (
	SovereignThreshold = 67
	DriftThreshold     = 34
)

// Report grade boundaries used by rendered reports and the registry. They
// never feed the engine's own tiers.
const (
	ReportPassThreshold = 80
	ReportWarnThreshold = 60
)

// MaxTopIssues caps the TopIssues list.
const MaxTopIssues = 5

// weights are in hundredths so the composite is computed exactly.
var weights = map[models.Category]int{
	models.CategoryDataSovereignty:   45,
	models.CategoryAITransparency:    30,
	models.CategoryClinicalIntegrity: 25,
}

var categoryNames = map[models.Category]string{
	models.CategoryDataSovereignty:   "Data Sovereignty & Residency",
	models.CategoryAITransparency:    "AI Transparency",
	models.CategoryClinicalIntegrity: "Clinical Integrity",
}

var deductions = map[models.Severity]int{
	models.SeverityCritical: 30,
	models.SeverityHigh:     20,
	models.SeverityMedium:   10,
	models.SeverityLow:      5,
	models.SeverityInfo:     0,
}

// Weight returns the composite weight of c.
func Weight(c models.Category) float64 {
	return float64(weights[c]) / 100
}

// Deduction returns the points f removes from its category: the full amount
// for a fail, a third (floored) for a warn, nothing otherwise.
func Deduction(f models.Finding) int {
	switch f.Status {
	case models.StatusFail:
		return deductions[f.Severity]
	case models.StatusWarn:
		return deductions[f.Severity] / 3
	default:
		return 0
	}
}

// TierFor classifies a percentage.
func TierFor(pct int) models.Tier {
	switch {
	case pct >= SovereignThreshold:
		return models.TierSovereign
	case pct >= DriftThreshold:
		return models.TierDrift
	default:
		return models.TierViolation
	}
}

// RiskLevelFor mirrors the tier of pct as a risk level.
func RiskLevelFor(pct int) models.RiskLevel {
	switch TierFor(pct) {
	case models.TierSovereign:
		return models.RiskLow
	case models.TierDrift:
		return models.RiskModerate
	default:
		return models.RiskHigh
	}
}

// ReportGrade labels a score for human-facing reports.
func ReportGrade(score int) string {
	switch {
	case score >= ReportPassThreshold:
		return "Verified Sovereign"
	case score >= ReportWarnThreshold:
		return "Drift Detected"
	default:
		return "Violation"
	}
}

// CategoryScore scores the findings of one category. A category without
// findings scores 100.
func CategoryScore(c models.Category, findings []models.Finding) models.CategoryScore {
	score := models.CategoryScore{Name: categoryNames[c]}
	pct := 100
	for _, f := range findings {
		if f.Category != c {
			continue
		}
		score.Findings++
		switch f.Status {
		case models.StatusPass:
			score.Passed++
		case models.StatusFail:
			score.Failed++
		case models.StatusWarn:
			score.Warnings++
		}
		pct -= Deduction(f)
	}
	score.Percentage = clamp(pct)
	score.Level = TierFor(score.Percentage)
	return score
}

// CategoryScores scores all three categories.
func CategoryScores(findings []models.Finding) models.CategoryScores {
	return models.CategoryScores{
		DataSovereignty:   CategoryScore(models.CategoryDataSovereignty, findings),
		AITransparency:    CategoryScore(models.CategoryAITransparency, findings),
		ClinicalIntegrity: CategoryScore(models.CategoryClinicalIntegrity, findings),
	}
}

// Composite is the weighted sum of category percentages rounded half away
// from zero.
func Composite(scores models.CategoryScores) int {
	sum := 0
	for _, c := range models.Categories {
		sum += weights[c] * scores.Get(c).Percentage
	}
	// Percentages are non-negative, so adding half rounds away from zero.
	return clamp((sum + 50) / 100)
}

// TopIssues returns failing findings by descending severity, keeping check
// order among equals, capped at MaxTopIssues.
func TopIssues(findings []models.Finding) []models.Finding {
	fails := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Status == models.StatusFail {
			fails = append(fails, f)
		}
	}
	slices.SortStableFunc(fails, func(a, b models.Finding) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})
	if len(fails) > MaxTopIssues {
		fails = fails[:MaxTopIssues]
	}
	return fails
}

// Summary is the scored view of a finding set.
type Summary struct {
	Categories models.CategoryScores
	Score      int
	Tier       models.Tier
	RiskLevel  models.RiskLevel
	TopIssues  []models.Finding
}

// Summarize scores findings end to end.
func Summarize(findings []models.Finding) Summary {
	cats := CategoryScores(findings)
	score := Composite(cats)
	return Summary{
		Categories: cats,
		Score:      score,
		Tier:       TierFor(score),
		RiskLevel:  RiskLevelFor(score),
		TopIssues:  TopIssues(findings),
	}
}

func clamp(v int) int {
	return max(0, min(100, v))
}
