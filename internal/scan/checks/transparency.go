package checks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sentry/internal/scan/models"
	sstrings "sentry/pkg/platform/strings"
)

const (
	darkPatternWindow = 500
	fontProximity     = 200
)

var smallFontPattern = regexp.MustCompile(`font-size\s*:\s*([0-9]+(?:\.[0-9]+)?)(px|pt|em)`)

// AIDisclosure is AI-01.
func AIDisclosure(in Input) models.Finding {
	found := sstrings.Matches(in.lowerText(), in.Vocab.AIDisclosure)
	evidence := map[string]any{
		"foundKeywords": nonNil(found),
		"totalChecked":  len(in.Vocab.AIDisclosure),
		"threshold":     disclosureThreshold,
	}

	if len(found) >= disclosureThreshold {
		return newFinding(IDAIDisclosure, models.StatusPass, models.SeverityCritical,
			fmt.Sprintf("AI disclosure language detected on page. Found %d disclosure keyword(s): %s. Practice appears to have conspicuous AI transparency.",
				len(found), quoteJoin(found, 3)),
			evidence)
	}

	partial := "Zero AI disclosure keywords detected."
	if len(found) > 0 {
		partial = fmt.Sprintf("Partial match found: %q, but insufficient for compliance.", found[0])
	}
	return newFinding(IDAIDisclosure, models.StatusFail, models.SeverityCritical,
		`No conspicuous AI disclosure language found on the scanned page. HB 149 requires "clear and conspicuous" disclosure when AI contributes to patient care pathways. `+partial,
		evidence)
}

// DisclosureAccessibility is AI-02. It looks for CSS that hides content
// shortly after AI disclosure wording, and for tiny fonts near it.
func DisclosureAccessibility(in Input) models.Finding {
	html := in.lowerHTML()
	detected := hiddenNearMarkers(html, in.Vocab.AIHiddenMarkers, in.Vocab.DarkPatterns)
	detected = append(detected, smallFontsNearDisclosure(html, in.Vocab.AIDisclosure)...)
	detected = sstrings.NormalizeTerms(detected)

	evidence := map[string]any{"detectedPatterns": nonNil(detected)}
	if len(detected) == 0 {
		return newFinding(IDDisclosureAccess, models.StatusPass, models.SeverityCritical,
			"No dark pattern indicators found near AI disclosure content. Disclosure elements appear to use standard visibility properties.",
			evidence)
	}
	return newFinding(IDDisclosureAccess, models.StatusFail, models.SeverityCritical,
		fmt.Sprintf(`Dark pattern indicators detected near AI disclosure content: %s. Disclosure may be intentionally obscured from users, violating the "conspicuous" requirement.`,
			strings.Join(detected, ", ")),
		evidence)
}

// hiddenNearMarkers inspects the text following each marker occurrence, up to
// the next occurrence or the window size, for obfuscation patterns.
func hiddenNearMarkers(html string, markers, patterns []string) []string {
	if len(markers) == 0 {
		return nil
	}
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	locs := regexp.MustCompile(strings.Join(quoted, "|")).FindAllStringIndex(html, -1)

	windows := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(html)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		end = min(end, loc[1]+darkPatternWindow)
		windows = append(windows, html[loc[1]:end])
	}

	var found []string
	for _, p := range patterns {
		for _, w := range windows {
			if strings.Contains(w, p) {
				found = append(found, p)
			}
		}
	}
	return found
}

func smallFontsNearDisclosure(html string, keywords []string) []string {
	var found []string
	for _, m := range smallFontPattern.FindAllStringSubmatchIndex(html, -1) {
		raw := html[m[2]:m[3]]
		unit := html[m[4]:m[5]]
		size, err := strconv.ParseFloat(raw, 64)
		if err != nil || !tooSmall(size, unit) {
			continue
		}
		nearby := html[max(0, m[0]-fontProximity):min(len(html), m[0]+fontProximity)]
		if sstrings.ContainsAny(nearby, keywords) {
			found = append(found, fmt.Sprintf("font-size: %s%s", raw, unit))
		}
	}
	return found
}

func tooSmall(size float64, unit string) bool {
	switch unit {
	case "px":
		return size < 10
	case "pt":
		return size < 8
	case "em":
		return size < 0.6
	}
	return false
}

// DiagnosticDisclaimer is AI-03.
func DiagnosticDisclaimer(in Input) models.Finding {
	if !in.Context.HasDiagnosticTools {
		return newFinding(IDDiagnosticNotice, models.StatusPass, models.SeverityInfo,
			"No AI-powered diagnostic tools (symptom checkers, risk calculators) detected on the scanned page. This check is not applicable if no clinical AI tools are patient-facing.",
			map[string]any{"hasDiagnosticTool": false})
	}

	text := in.lowerText()
	hasDisclaimer := sstrings.ContainsAny(text, in.Vocab.Disclaimers)
	evidence := map[string]any{
		"hasDiagnosticTool":       true,
		"hasDisclaimer":           hasDisclaimer,
		"diagnosticKeywordsFound": nonNil(sstrings.Matches(text, in.Vocab.DiagnosticTools)),
	}
	if hasDisclaimer {
		return newFinding(IDDiagnosticNotice, models.StatusPass, models.SeverityHigh,
			"AI diagnostic tool detected with practitioner review disclaimer present. Tool appears to include required human oversight statement.",
			evidence)
	}
	return newFinding(IDDiagnosticNotice, models.StatusFail, models.SeverityHigh,
		"AI diagnostic tool detected WITHOUT practitioner review disclaimer. SB 1188 requires statement that a licensed practitioner reviews AI-generated clinical recommendations.",
		evidence)
}

// ChatbotNotice is AI-04.
func ChatbotNotice(in Input) models.Finding {
	vendors := in.Context.ChatbotVendors
	if !in.Context.HasChatbot || len(vendors) == 0 {
		return newFinding(IDChatbotNotice, models.StatusPass, models.SeverityInfo,
			"No interactive chatbot or live chat platforms detected on the scanned page. This check is not applicable if no chatbot is deployed.",
			map[string]any{"chatbotDetected": false})
	}

	hasNotice := sstrings.ContainsAny(in.lowerText(), in.Vocab.ChatbotNotice) ||
		sstrings.ContainsAny(in.lowerHTML(), in.Vocab.ChatbotNotice)
	evidence := map[string]any{"detectedPlatforms": vendors, "hasNotice": hasNotice}
	platforms := strings.Join(vendors, ", ")

	if hasNotice {
		return newFinding(IDChatbotNotice, models.StatusPass, models.SeverityMedium,
			fmt.Sprintf("Chatbot detected (%s) with AI interaction notice present. Users appear to be informed they are interacting with an automated system.", platforms),
			evidence)
	}
	return newFinding(IDChatbotNotice, models.StatusFail, models.SeverityMedium,
		fmt.Sprintf("Chatbot detected (%s) WITHOUT initial AI disclosure. HB 149 requires users be informed when they interact with AI rather than human staff.", platforms),
		evidence)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
