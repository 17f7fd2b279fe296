// Package checks implements the twelve compliance checks. Every check is a
// pure function of frozen inputs: network checks receive already-resolved
// probe data and never perform I/O themselves.
package checks

import (
	"fmt"
	"net/url"
	"strings"

	"sentry/internal/scan/fetch"
	"sentry/internal/scan/models"
	"sentry/internal/scan/vocab"
)

// Check identifiers.
const (
	IDPrimaryResidency  = "DR-01"
	IDEdgeCache         = "DR-02"
	IDMailExchange      = "DR-03"
	IDSubProcessors     = "DR-04"
	IDAIDisclosure      = "AI-01"
	IDDisclosureAccess  = "AI-02"
	IDDiagnosticNotice  = "AI-03"
	IDChatbotNotice     = "AI-04"
	IDBiologicalSex     = "ER-01"
	IDGuardianAccess    = "ER-02"
	IDMetabolicHealth   = "ER-03"
	IDForbiddenFields   = "ER-04"
	disclosureThreshold = 2
)

// Input is the frozen view of a scan that the checks read from.
type Input struct {
	TargetURL string
	Domain    string
	Page      fetch.Page
	Context   models.PageContext
	Vocab     *vocab.Vocabulary
}

// NewInput builds an Input, deriving Domain from targetURL.
func NewInput(targetURL string, page fetch.Page, ctx models.PageContext, v *vocab.Vocabulary) Input {
	return Input{
		TargetURL: targetURL,
		Domain:    HostOf(targetURL),
		Page:      page,
		Context:   ctx,
		Vocab:     v,
	}
}

func (in Input) lowerHTML() string { return strings.ToLower(in.Page.HTML) }
func (in Input) lowerText() string { return strings.ToLower(in.Page.Text) }

// Result pairs a finding with the border nodes the check resolved.
type Result struct {
	Finding models.Finding
	Nodes   []models.DataBorderNode
}

type descriptor struct {
	name     string
	category models.Category
	clause   string
	phiRisk  models.PHIRisk
}

var catalog = map[string]descriptor{
	IDPrimaryResidency: {"Primary EHR Domain IP Geo-Location", models.CategoryDataSovereignty, "SB 1188 Sec. 183.002(a)", models.PHIRiskDirect},
	IDEdgeCache:        {"CDN & Edge Cache Analysis", models.CategoryDataSovereignty, "SB 1188 Sec. 183.002(a)(2)", models.PHIRiskIndirect},
	IDMailExchange:     {"Mail Exchange (MX) Pathing", models.CategoryDataSovereignty, "SB 1188 Sec. 183.002(a)", models.PHIRiskDirect},
	IDSubProcessors:    {"Sub-Processor Domain Audit", models.CategoryDataSovereignty, "SB 1188 Sec. 183.002(a)(1)", models.PHIRiskIndirect},
	IDAIDisclosure:     {"Conspicuous AI Disclosure Text", models.CategoryAITransparency, "HB 149 Sec. 551.004", models.PHIRiskNone},
	IDDisclosureAccess: {"Disclosure Link Accessibility", models.CategoryAITransparency, "HB 149 (d)", models.PHIRiskNone},
	IDDiagnosticNotice: {"Diagnostic AI Disclaimer Audit", models.CategoryAITransparency, "SB 1188 Sec. 183.005", models.PHIRiskDirect},
	IDChatbotNotice:    {"Interactive Chatbot Notice", models.CategoryAITransparency, "HB 149 (b)", models.PHIRiskDirect},
	IDBiologicalSex:    {"Biological Sex Input Fields", models.CategoryClinicalIntegrity, "SB 1188 Sec. 183.010", models.PHIRiskDirect},
	IDGuardianAccess:   {"Minor/Parental Access Portal", models.CategoryClinicalIntegrity, "SB 1188 Sec. 183.006", models.PHIRiskDirect},
	IDMetabolicHealth:  {"Metabolic Health Options", models.CategoryClinicalIntegrity, "SB 1188 Sec. 183.003", models.PHIRiskIndirect},
	IDForbiddenFields:  {"Forbidden Data Field Check", models.CategoryClinicalIntegrity, "SB 1188 Sec. 183.003", models.PHIRiskDirect},
}

// newFinding stamps the static metadata for id onto a finding.
func newFinding(id string, status models.Status, severity models.Severity, detail string, evidence map[string]any) models.Finding {
	d := catalog[id]
	return models.Finding{
		ID:       id,
		Name:     d.name,
		Status:   status,
		Severity: severity,
		Category: d.category,
		PHIRisk:  d.phiRisk,
		Detail:   detail,
		Clause:   d.clause,
		Evidence: evidence,
	}
}

// contentCheck is a check that reads only fetched page content.
type contentCheck struct {
	id  string
	run func(in Input) models.Finding
}

var contentChecks = []contentCheck{
	{IDAIDisclosure, AIDisclosure},
	{IDDisclosureAccess, DisclosureAccessibility},
	{IDDiagnosticNotice, DiagnosticDisclaimer},
	{IDChatbotNotice, ChatbotNotice},
	{IDBiologicalSex, BiologicalSexField},
	{IDGuardianAccess, GuardianAccess},
	{IDMetabolicHealth, MetabolicHealth},
	{IDForbiddenFields, ForbiddenFields},
}

// RunContent runs the AI-* and ER-* checks in order. When the page was not
// fetched every one of them degrades to Fallback.
func RunContent(in Input) []models.Finding {
	findings := make([]models.Finding, 0, len(contentChecks))
	for _, c := range contentChecks {
		var f models.Finding
		if in.Page.Fetched {
			f = c.run(in)
		} else {
			f = Fallback(in, c.id)
		}
		f.PageContext = in.Context.Type
		findings = append(findings, f)
	}
	return findings
}

// Fallback is the finding a content check reports when there is no content
// to inspect.
func Fallback(in Input, id string) models.Finding {
	severity := models.SeverityLow
	if catalog[id].category == models.CategoryAITransparency {
		severity = models.SeverityMedium
	}
	return newFinding(id, models.StatusWarn, severity,
		fmt.Sprintf("Unable to fetch page content from %s. Manual audit required.", in.TargetURL),
		map[string]any{"url": in.TargetURL, "pageFetched": false},
	)
}

// HostOf returns the lower-cased hostname of raw, assuming https when no
// scheme is present.
func HostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func quoteJoin(terms []string, limit int) string {
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return `"` + strings.Join(terms, `", "`) + `"`
}
