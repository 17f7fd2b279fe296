package checks

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"sentry/internal/scan/models"
	"sentry/internal/scan/phirisk"
	"sentry/internal/scan/probe"
)

// MaxSubProcessorsResolved caps how many external domains are geo-resolved.
const MaxSubProcessorsResolved = 10

var (
	attributeURLPattern = regexp.MustCompile(`(?i)(?:src|href|action|data-src)=["']?(https?://[^"'\s>]+)`)
	apiCallPattern      = regexp.MustCompile(`(?i)(?:fetch|XMLHttpRequest|axios)\s*\(\s*["'](https?://[^"']+)`)
)

// SubProcessor is one external domain referenced by the page.
type SubProcessor struct {
	Domain  string
	URL     string
	PHIRisk models.PHIRisk
	Purpose string
	Geo     *probe.GeoInfo
}

var purposeRules = []struct {
	purpose string
	markers []string
}{
	{"analytics", []string{"google-analytics", "googletagmanager", "analytics", "hotjar", "segment", "mixpanel", "doubleclick", "clarity.ms", "facebook.net", "pixel"}},
	{"fonts", []string{"fonts.googleapis", "fonts.gstatic", "typekit", "fontawesome", "fonts."}},
	{"scheduling", []string{"zocdoc", "calendly", "acuityscheduling", "nexhealth", "schedul", "appointment", "booking"}},
	{"payments", []string{"stripe", "paypal", "squareup", "braintree", "authorize.net", "pay."}},
	{"forms", []string{"jotform", "typeform", "formstack", "wufoo", "formsite", "forms."}},
	{"cdn", []string{"cloudflare", "jsdelivr", "unpkg", "cdnjs", "cloudfront", "akamai", "fastly", "cdn"}},
}

// Purpose labels an external domain by what it most likely provides.
func Purpose(domain string, chatVendors []string) string {
	for _, v := range chatVendors {
		if strings.Contains(domain, v) {
			return "chat"
		}
	}
	for _, r := range purposeRules {
		for _, m := range r.markers {
			if strings.Contains(domain, m) {
				return r.purpose
			}
		}
	}
	return "other"
}

// ExtractSubProcessors returns the third-party domains referenced by the page,
// one entry per domain carrying the highest PHI risk seen for it. Direct-risk
// domains come first, then indirect, then none; ties keep first appearance.
func ExtractSubProcessors(in Input) []SubProcessor {
	html := in.Page.HTML
	firstParty := registrableDomain(in.Domain)

	byDomain := make(map[string]int)
	var subs []SubProcessor

	add := func(raw string) {
		host := HostOf(raw)
		if host == "" || strings.Contains(host, "localhost") {
			return
		}
		if host == in.Domain || registrableDomain(host) == firstParty {
			return
		}
		risk := phirisk.Classify(raw, html, in.Vocab)
		if i, ok := byDomain[host]; ok {
			subs[i].PHIRisk = phirisk.Max(subs[i].PHIRisk, risk)
			return
		}
		byDomain[host] = len(subs)
		subs = append(subs, SubProcessor{
			Domain:  host,
			URL:     raw,
			PHIRisk: risk,
			Purpose: Purpose(host, in.Vocab.ChatbotVendors),
		})
	}

	for _, m := range attributeURLPattern.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}
	for _, m := range apiCallPattern.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}

	ordered := make([]SubProcessor, 0, len(subs))
	for _, risk := range []models.PHIRisk{models.PHIRiskDirect, models.PHIRiskIndirect, models.PHIRiskNone} {
		for _, sp := range subs {
			if sp.PHIRisk == risk {
				ordered = append(ordered, sp)
			}
		}
	}
	return ordered
}

func registrableDomain(host string) string {
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}
