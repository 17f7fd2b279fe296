package checks

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"sentry/internal/scan/models"
	"sentry/internal/scan/probe"
)

// evidenceHeaders are the CDN headers copied into DR-02 evidence.
var evidenceHeaders = []string{"cf-ray", "x-served-by", "x-cache", "x-amz-cf-id", "via"}

// cdnSignatures are evaluated in order; the first match names the vendor.
var cdnSignatures = []struct {
	vendor string
	match  func(h map[string]string) bool
}{
	{"Cloudflare", func(h map[string]string) bool { return h["cf-ray"] != "" }},
	{"Amazon CloudFront", func(h map[string]string) bool { return h["x-amz-cf-id"] != "" || h["x-amz-cf-pop"] != "" }},
	{"Fastly", func(h map[string]string) bool { return strings.Contains(h["x-cache"], "fastly") }},
	{"Fastly/Varnish", func(h map[string]string) bool { return strings.Contains(h["x-served-by"], "cache-") }},
	{"Cloudflare", func(h map[string]string) bool { return h["server"] == "cloudflare" }},
	{"Vercel Edge", func(h map[string]string) bool { return h["x-vercel-id"] != "" }},
	{"Azure CDN", func(h map[string]string) bool { return h["x-azure-ref"] != "" }},
	{"Google Cloud CDN", func(h map[string]string) bool { return h["x-goog-generation"] != "" }},
}

const unknownCDN = "Unknown"

// DetectCDN names the CDN vendor advertised by headers, or "Unknown".
func DetectCDN(headers map[string]string) string {
	for _, sig := range cdnSignatures {
		if sig.match(headers) {
			return sig.vendor
		}
	}
	return unknownCDN
}

func geoNode(domain string, geo *probe.GeoInfo, t models.NodeType, risk models.PHIRisk, purpose string) models.DataBorderNode {
	return models.DataBorderNode{
		Domain:      domain,
		IP:          geo.IP,
		Country:     geo.Country,
		CountryCode: geo.CountryCode,
		City:        geo.City,
		Type:        t,
		IsSovereign: geo.IsSovereign,
		PHIRisk:     risk,
		Purpose:     purpose,
	}
}

// PrimaryResidency is DR-01. geo is the resolution of the target host, nil
// when resolution failed.
func PrimaryResidency(in Input, geo *probe.GeoInfo) Result {
	if geo == nil {
		return Result{Finding: newFinding(IDPrimaryResidency, models.StatusWarn, models.SeverityMedium,
			fmt.Sprintf("Unable to resolve IP geolocation for %s. DNS resolution may be blocked or domain is behind a proxy. Manual verification recommended.", in.Domain),
			map[string]any{"domain": in.Domain, "resolution": "failed"},
		)}
	}

	evidence := map[string]any{
		"ip":          geo.IP,
		"country":     geo.CountryCode,
		"city":        geo.City,
		"org":         geo.Org,
		"isSovereign": geo.IsSovereign,
	}
	where := fmt.Sprintf("Server resolved to %s in %s, %s (%s).", geo.IP, geo.City, geo.Country, geo.Org)

	f := newFinding(IDPrimaryResidency, models.StatusPass, models.SeverityCritical,
		where+" Data residency confirmed within US borders.", evidence)
	if !geo.IsSovereign {
		f.Status = models.StatusFail
		f.Detail = where + " PHI may transit through non-sovereign infrastructure outside the United States."
	}

	return Result{
		Finding: f,
		Nodes:   []models.DataBorderNode{geoNode(in.Domain, geo, models.NodePrimary, models.PHIRiskDirect, "Primary web host")},
	}
}

// EdgeCache is DR-02. headers come from a HEAD probe of the target, nil when
// the probe failed.
func EdgeCache(in Input, headers map[string]string) Result {
	if headers == nil {
		return Result{Finding: newFinding(IDEdgeCache, models.StatusWarn, models.SeverityLow,
			"Unable to connect to target URL. Site may be down, blocking automated requests, or behind aggressive WAF. Manual review required.",
			map[string]any{"url": in.TargetURL, "connection": "failed"},
		)}
	}

	provider := DetectCDN(headers)
	foreign := foreignEdges(headers, in.Vocab.ForeignRegions, in.Vocab.ForeignPOPs)

	evidence := map[string]any{
		"cdnProvider":  provider,
		"foreignEdges": foreign,
		"headers":      pickHeaders(headers),
	}

	var f models.Finding
	if len(foreign) == 0 {
		f = newFinding(IDEdgeCache, models.StatusPass, models.SeverityLow,
			fmt.Sprintf("CDN detected: %s. No foreign edge node indicators found in HTTP response headers. Edge caching appears US-restricted.", provider),
			evidence)
	} else {
		f = newFinding(IDEdgeCache, models.StatusWarn, models.SeverityLow,
			fmt.Sprintf("CDN detected: %s. Foreign edge indicators found: %s. PHI content may be cached on non-US edge nodes.", provider, strings.Join(foreign, ", ")),
			evidence)
	}

	res := Result{Finding: f}
	if provider != unknownCDN {
		node := models.DataBorderNode{
			Domain:      in.Domain,
			Country:     "US",
			CountryCode: "US",
			City:        "Edge",
			Type:        models.NodeCDN,
			IsSovereign: true,
			PHIRisk:     models.PHIRiskIndirect,
			Purpose:     "CDN: " + provider,
		}
		if len(foreign) > 0 {
			node.Country = "Foreign edge"
			node.CountryCode = "XX"
			node.IsSovereign = false
		}
		res.Nodes = []models.DataBorderNode{node}
	}
	return res
}

func foreignEdges(headers map[string]string, regions, pops []string) []string {
	values := make([]string, 0, len(headers))
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		values = append(values, headers[k])
	}
	joined := strings.Join(values, " ")

	found := []string{}
	for _, region := range regions {
		if strings.Contains(joined, region) {
			found = append(found, strings.ToUpper(region))
		}
	}

	if ray := headers["cf-ray"]; ray != "" {
		pop := ray[strings.LastIndex(ray, "-")+1:]
		for _, p := range pops {
			if strings.Contains(pop, p) {
				found = append(found, "CF-POP:"+strings.ToUpper(pop))
				break
			}
		}
	}
	return found
}

func pickHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string)
	for _, k := range evidenceHeaders {
		if v, ok := headers[k]; ok {
			out[k] = v
		}
	}
	return out
}

// MXGeo is one mail exchanger together with its geo resolution.
type MXGeo struct {
	Record probe.MXRecord
	Geo    *probe.GeoInfo
}

// MaxMXResolved is how many exchangers, by preference, get geo-resolved.
const MaxMXResolved = 3

// MailExchange is DR-03. records is the full MX set; resolved holds the top
// exchangers with their geo results (nil Geo when unresolved).
func MailExchange(in Input, records []probe.MXRecord, resolved []MXGeo) Result {
	if len(records) == 0 {
		return Result{Finding: newFinding(IDMailExchange, models.StatusWarn, models.SeverityHigh,
			fmt.Sprintf("No MX records found for %s. Domain may not handle email, or DNS query was blocked. If practice sends PHI via email from this domain, manual verification is required.", in.Domain),
			map[string]any{"domain": in.Domain, "mxRecords": []string{}},
		)}
	}

	exchanges := make([]string, 0, len(records))
	for _, r := range records {
		exchanges = append(exchanges, r.Exchange)
	}

	var (
		foreign    []string
		unresolved int
		nodes      []models.DataBorderNode
		geoResults = make([]map[string]any, 0, len(resolved))
	)
	for _, r := range resolved {
		entry := map[string]any{"exchange": r.Record.Exchange, "country": "UNRESOLVED", "city": ""}
		if r.Geo == nil {
			unresolved++
			geoResults = append(geoResults, entry)
			continue
		}
		entry["country"] = r.Geo.CountryCode
		entry["city"] = r.Geo.City
		entry["isSovereign"] = r.Geo.IsSovereign
		geoResults = append(geoResults, entry)

		if !r.Geo.IsSovereign {
			foreign = append(foreign, fmt.Sprintf("%s (%s)", r.Record.Exchange, r.Geo.Country))
		}
		nodes = append(nodes, geoNode(r.Record.Exchange, r.Geo, models.NodeMail, models.PHIRiskDirect, "Email transport"))
	}

	evidence := map[string]any{"mxRecords": exchanges, "geoResults": geoResults}

	var f models.Finding
	switch {
	case len(foreign) > 0:
		f = newFinding(IDMailExchange, models.StatusFail, models.SeverityCritical,
			fmt.Sprintf("%d MX record(s) found. %d mail server(s) resolve to non-US locations: %s. PHI transmitted via email may transit foreign infrastructure.",
				len(records), len(foreign), strings.Join(foreign, ", ")),
			evidence)
	case unresolved > 0:
		f = newFinding(IDMailExchange, models.StatusWarn, models.SeverityMedium,
			fmt.Sprintf("%d MX record(s) found. All resolved servers are located within the United States. Primary: %s (%d server(s) could not be geo-verified)",
				len(records), records[0].Exchange, unresolved),
			evidence)
	default:
		f = newFinding(IDMailExchange, models.StatusPass, models.SeverityCritical,
			fmt.Sprintf("%d MX record(s) found. All resolved servers are located within the United States. Primary: %s",
				len(records), records[0].Exchange),
			evidence)
	}
	return Result{Finding: f, Nodes: nodes}
}

// SubProcessorAudit is DR-04. subs is the ordered, deduplicated output of
// ExtractSubProcessors; only the first MaxSubProcessorsResolved carry geo data.
func SubProcessorAudit(in Input, subs []SubProcessor) Result {
	if len(subs) == 0 {
		return Result{Finding: newFinding(IDSubProcessors, models.StatusPass, models.SeverityCritical,
			"No external third-party domains detected in page source. Site appears to be self-contained with no foreign sub-processor dependencies.",
			map[string]any{"totalExternal": 0, "checked": []string{}, "foreignDomains": []map[string]any{}},
		)}
	}

	var (
		checked       = []string{}
		foreignDirect int
		foreign       []string
		foreignDetail = []map[string]any{}
		nodes         []models.DataBorderNode
		worst         = models.PHIRiskNone
	)
	for i, sp := range subs {
		if i >= MaxSubProcessorsResolved {
			break
		}
		checked = append(checked, sp.Domain)
		if sp.Geo == nil {
			continue
		}
		nodes = append(nodes, geoNode(sp.Domain, sp.Geo, models.NodeSubProcessor, sp.PHIRisk, sp.Purpose))
		if sp.Geo.IsSovereign {
			continue
		}
		if sp.PHIRisk.Rank() > worst.Rank() {
			worst = sp.PHIRisk
		}
		if sp.PHIRisk == models.PHIRiskDirect {
			foreignDirect++
		}
		foreign = append(foreign, fmt.Sprintf("%s (%s)", sp.Domain, sp.Geo.Country))
		foreignDetail = append(foreignDetail, map[string]any{
			"domain":  sp.Domain,
			"country": sp.Geo.Country,
			"city":    sp.Geo.City,
			"phiRisk": string(sp.PHIRisk),
		})
	}

	evidence := map[string]any{
		"totalExternal":  len(subs),
		"checked":        checked,
		"foreignDomains": foreignDetail,
	}

	var f models.Finding
	switch {
	case foreignDirect > 0:
		f = newFinding(IDSubProcessors, models.StatusFail, models.SeverityCritical,
			fmt.Sprintf("%d external domain(s) detected. %d resolve to non-US locations: %s. %d of them receive PHI directly from forms or scripted requests.",
				len(subs), len(foreign), strings.Join(foreign, ", "), foreignDirect),
			evidence)
	case len(foreign) > 0:
		f = newFinding(IDSubProcessors, models.StatusWarn, models.SeverityMedium,
			fmt.Sprintf("%d external domain(s) detected. %d resolve to non-US locations: %s. None appear to receive PHI directly; review third-party scripts for offshore data flows.",
				len(subs), len(foreign), strings.Join(foreign, ", ")),
			evidence)
	default:
		f = newFinding(IDSubProcessors, models.StatusPass, models.SeverityCritical,
			fmt.Sprintf("%d external domain(s) detected. Sampled %d for geo-verification; all resolved domains are US-based.", len(subs), len(checked)),
			evidence)
	}
	if len(foreign) > 0 {
		f.PHIRisk = worst
	}
	return Result{Finding: f, Nodes: nodes}
}
