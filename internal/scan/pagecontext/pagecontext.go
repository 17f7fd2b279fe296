// Package pagecontext derives what kind of page was fetched and which
// patient-facing features it exposes. Applicability of several checks hangs
// off these flags.
package pagecontext

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"sentry/internal/scan/fetch"
	"sentry/internal/scan/models"
	"sentry/internal/scan/vocab"
	sstrings "sentry/pkg/platform/strings"
)

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// signals are the normalized inputs every rule sees.
type signals struct {
	path  string
	title string
	html  string
	text  string
	ctx   models.PageContext
}

type rule struct {
	label models.PageType
	match func(s signals) bool
}

func pathHas(s signals, parts ...string) bool {
	return sstrings.ContainsAny(s.path, parts)
}

// rules are evaluated top-down; the first match wins.
var rules = []rule{
	{models.PageIntake, func(s signals) bool {
		return pathHas(s, "intake", "new-patient", "newpatient", "registration", "register", "patient-form") || s.ctx.HasIntakeForms
	}},
	{models.PagePortal, func(s signals) bool {
		return pathHas(s, "portal", "mychart", "login", "signin", "sign-in") ||
			(s.ctx.HasPatientPortal && strings.Contains(s.html, `type="password"`))
	}},
	{models.PageContact, func(s signals) bool {
		return pathHas(s, "contact", "location", "directions") || strings.Contains(s.title, "contact")
	}},
	{models.PageServices, func(s signals) bool {
		return pathHas(s, "service", "treatment", "specialt", "procedure") || strings.Contains(s.title, "services")
	}},
	{models.PageAbout, func(s signals) bool {
		return pathHas(s, "about", "our-team", "providers", "physicians", "staff") || strings.Contains(s.title, "about")
	}},
	{models.PageHomepage, func(s signals) bool {
		return s.path == "" || s.path == "/" || s.path == "/index.html" || s.path == "/index.php" || s.path == "/home"
	}},
}

// classify returns the label of the first matching rule.
func classify(s signals) models.PageType {
	for _, r := range rules {
		if r.match(s) {
			return r.label
		}
	}
	return models.PageGeneral
}

// Unknown is the context used when the page could not be fetched.
func Unknown() models.PageContext {
	return models.PageContext{Type: models.PageUnknown, PageTitle: "Unknown"}
}

// Derive inspects page and returns its context. A page that was not fetched
// yields Unknown().
func Derive(targetURL string, page fetch.Page, v *vocab.Vocabulary) models.PageContext {
	if !page.Fetched {
		return Unknown()
	}

	lowerHTML := strings.ToLower(page.HTML)
	lowerText := strings.ToLower(page.Text)

	ctx := models.PageContext{
		PageTitle:          extractTitle(page.HTML),
		HasDiagnosticTools: sstrings.ContainsAny(lowerText, v.DiagnosticTools),
		ChatbotVendors:     sstrings.Matches(lowerHTML, v.ChatbotVendors),
	}
	ctx.HasChatbot = len(ctx.ChatbotVendors) > 0
	if vendor, ok := sstrings.FirstMatch(lowerHTML, v.EHRVendors); ok {
		ctx.EHRVendor = vendor
	}
	ctx.HasPatientPortal = ctx.EHRVendor != "" ||
		strings.Contains(lowerText, "patient portal") ||
		strings.Contains(lowerText, "my chart")
	ctx.HasIntakeForms = strings.Contains(lowerHTML, "<form") &&
		sstrings.ContainsAny(lowerText, v.IntakeReferences)

	ctx.Type = classify(signals{
		path:  pagePath(page, targetURL),
		title: strings.ToLower(ctx.PageTitle),
		html:  lowerHTML,
		text:  lowerText,
		ctx:   ctx,
	})
	return ctx
}

func extractTitle(doc string) string {
	m := titlePattern.FindStringSubmatch(doc)
	if m == nil {
		return "Untitled"
	}
	title := strings.Join(strings.Fields(html.UnescapeString(m[1])), " ")
	if title == "" {
		return "Untitled"
	}
	return title
}

func pagePath(page fetch.Page, targetURL string) string {
	raw := page.FinalURL
	if raw == "" {
		raw = targetURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Path)
}
