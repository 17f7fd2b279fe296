package checks

import (
	"fmt"
	"strings"

	"sentry/internal/scan/models"
	sstrings "sentry/pkg/platform/strings"
)

// BiologicalSexField is ER-01. It applies to intake and portal pages and to
// any page carrying an intake form.
func BiologicalSexField(in Input) models.Finding {
	applicable := in.Context.Type == models.PageIntake ||
		in.Context.Type == models.PagePortal ||
		in.Context.HasIntakeForms
	if !applicable {
		return newFinding(IDBiologicalSex, models.StatusPass, models.SeverityInfo,
			"No patient intake forms or registration pages detected on the scanned URL. This check applies to patient-facing portals with demographic collection. Manual audit of EHR portal recommended.",
			map[string]any{"hasPortalRef": false, "scannedUrl": "public-facing page"})
	}

	html, text := in.lowerHTML(), in.lowerText()
	hasBioSex := sstrings.ContainsAny(text, in.Vocab.BiologicalSex) || sstrings.ContainsAny(html, in.Vocab.BiologicalSex)
	hasFormField := sstrings.ContainsAny(html, in.Vocab.BiologicalSexForm) ||
		(strings.Contains(html, "<select") && (strings.Contains(html, ">male<") || strings.Contains(html, ">female<")))

	evidence := map[string]any{"hasBioSex": hasBioSex, "hasFormField": hasFormField, "hasPortalRef": true}
	if hasBioSex || hasFormField {
		return newFinding(IDBiologicalSex, models.StatusPass, models.SeverityCritical,
			"Patient registration reference detected with biological sex field present. Form includes required Male/Female biological sex input per Texas statute.",
			evidence)
	}
	return newFinding(IDBiologicalSex, models.StatusFail, models.SeverityCritical,
		`Patient registration reference detected but NO biological sex field found. Texas statute requires distinct "Biological Sex" field with Male/Female options based on reproductive biology.`,
		evidence)
}

// GuardianAccess is ER-02.
func GuardianAccess(in Input) models.Finding {
	if !in.Context.HasPatientPortal {
		return newFinding(IDGuardianAccess, models.StatusPass, models.SeverityInfo,
			"No patient portal or EHR system detected on the scanned page. This check applies to providers with electronic health record portals offering patient access. Manual audit recommended.",
			map[string]any{"hasPortal": false})
	}

	hasParental := sstrings.ContainsAny(in.lowerText(), in.Vocab.Guardian) || sstrings.ContainsAny(in.lowerHTML(), in.Vocab.Guardian)
	portalType := in.Context.EHRVendor
	if portalType == "" {
		portalType = "generic"
	}
	evidence := map[string]any{"hasPortal": true, "hasParentalAccess": hasParental, "portalType": portalType}

	if hasParental {
		return newFinding(IDGuardianAccess, models.StatusPass, models.SeverityHigh,
			"Patient portal detected with parental/guardian access pathway. Portal includes references to dependent or minor patient access.",
			evidence)
	}
	return newFinding(IDGuardianAccess, models.StatusFail, models.SeverityHigh,
		"Patient portal detected WITHOUT clear parental/guardian access pathway. Texas statute requires distinct authentication and access for parents/legal guardians of minor patients without impediments.",
		evidence)
}

// MetabolicHealth is ER-03.
func MetabolicHealth(in Input) models.Finding {
	found := sstrings.Matches(in.lowerText(), in.Vocab.Metabolic)
	evidence := map[string]any{"foundKeywords": nonNil(found)}
	if len(found) > 0 {
		return newFinding(IDMetabolicHealth, models.StatusPass, models.SeverityMedium,
			fmt.Sprintf("Metabolic health references found: %s. Practice appears to offer metabolic health documentation or communication channels.", quoteJoin(found, 3)),
			evidence)
	}
	return newFinding(IDMetabolicHealth, models.StatusFail, models.SeverityMedium,
		"No metabolic health, nutrition, or dietary counseling references found on the scanned page. Texas statute requires communication options for metabolic health tracking in patient portals.",
		evidence)
}

// ForbiddenFields is ER-04.
func ForbiddenFields(in Input) models.Finding {
	html, text := in.lowerHTML(), in.lowerText()

	var fields []string
	for _, term := range in.Vocab.Forbidden {
		if strings.Contains(html, term) || strings.Contains(text, term) {
			fields = append(fields, term)
		}
	}
	inputs := sstrings.Matches(html, in.Vocab.ForbiddenInputs)
	evidence := map[string]any{"detectedFields": nonNil(fields), "detectedInputs": nonNil(inputs)}

	if len(fields) == 0 && len(inputs) == 0 {
		return newFinding(IDForbiddenFields, models.StatusPass, models.SeverityCritical,
			"No prohibited data collection fields detected. Page does not appear to collect credit scores, voter registration, or other explicitly forbidden personal information.",
			evidence)
	}

	detail := "VIOLATION: Prohibited data fields detected: " + strings.Join(fields, ", ")
	if len(inputs) > 0 {
		detail += fmt.Sprintf(" + %d suspicious form input(s)", len(inputs))
	}
	return newFinding(IDForbiddenFields, models.StatusFail, models.SeverityCritical,
		detail+". Texas law explicitly forbids collection of non-healthcare personal data.",
		evidence)
}
