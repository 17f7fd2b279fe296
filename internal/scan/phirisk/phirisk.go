// Package phirisk estimates whether an external endpoint is likely to receive
// protected health information from the scanned page.
package phirisk

import (
	"net/url"
	"regexp"
	"strings"

	"sentry/internal/scan/models"
	"sentry/internal/scan/vocab"
	sstrings "sentry/pkg/platform/strings"
)

var (
	formActionPattern = regexp.MustCompile(`(?i)<form[^>]*\baction=["']?([^"'\s>]+)`)
	// networkCallPattern captures the argument text of programmatic requests.
	networkCallPattern = regexp.MustCompile(`(?i)(?:fetch\s*\(|axios(?:\.\w+)?\s*\(|XMLHttpRequest|\.open\s*\(|\$\.ajax\s*\(|navigator\.sendBeacon\s*\()([^;\n]{0,300})`)
)

// Classify returns the PHI risk for externalURL as seen from pageHTML.
// Priority: static assets are never risky, then form targets and network
// calls, then PHI-bearing path keywords, else indirect.
func Classify(externalURL, pageHTML string, v *vocab.Vocabulary) models.PHIRisk {
	u, err := url.Parse(externalURL)
	if err != nil || u.Hostname() == "" {
		return models.PHIRiskIndirect
	}
	path := strings.ToLower(u.Path)

	if isStaticAsset(path, v.StaticExtensions) {
		return models.PHIRiskNone
	}
	if isFormTarget(externalURL, pageHTML) || inNetworkCall(strings.ToLower(u.Hostname()), pageHTML) {
		return models.PHIRiskDirect
	}
	if sstrings.ContainsAny(path, v.PHIPathKeywords) {
		return models.PHIRiskDirect
	}
	return models.PHIRiskIndirect
}

// Max returns the riskier of a and b.
func Max(a, b models.PHIRisk) models.PHIRisk {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

func isStaticAsset(path string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func isFormTarget(externalURL, pageHTML string) bool {
	for _, m := range formActionPattern.FindAllStringSubmatch(pageHTML, -1) {
		if strings.EqualFold(m[1], externalURL) {
			return true
		}
	}
	return false
}

func inNetworkCall(host, pageHTML string) bool {
	for _, m := range networkCallPattern.FindAllStringSubmatch(pageHTML, -1) {
		if strings.Contains(strings.ToLower(m[1]), host) {
			return true
		}
	}
	return false
}
