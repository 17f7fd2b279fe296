package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultDoHBaseURL is Google Public DNS's JSON API.
const DefaultDoHBaseURL = "https://dns.google"

const dnsTypeMX = 15

// MXRecord is one mail exchange.
type MXRecord struct {
	Exchange   string
	Preference int
}

// MXResolver resolves MX records over DNS-over-HTTPS.
type MXResolver struct {
	baseURL string
	cfg     config
}

func NewMXResolver(baseURL string, opts ...Option) *MXResolver {
	if baseURL == "" {
		baseURL = DefaultDoHBaseURL
	}
	return &MXResolver{baseURL: strings.TrimRight(baseURL, "/"), cfg: newConfig(opts)}
}

// Resolve returns domain's MX records sorted by ascending preference, or an
// empty slice on failure or absence.
func (m *MXResolver) Resolve(ctx context.Context, domain string) []MXRecord {
	var records []MXRecord
	err := m.cfg.run(ctx, "mx", domain, func(ctx context.Context) error {
		var err error
		records, err = m.lookup(ctx, domain)
		return err
	})
	if err != nil || records == nil {
		return []MXRecord{}
	}
	return records
}

type dohResponse struct {
	Status int `json:"Status"`
	Answer []struct {
		Name string `json:"name"`
		Type int    `json:"type"`
		Data string `json:"data"`
	} `json:"Answer"`
}

func (m *MXResolver) lookup(ctx context.Context, domain string) ([]MXRecord, error) {
	endpoint := fmt.Sprintf("%s/resolve?name=%s&type=MX", m.baseURL, url.QueryEscape(domain))
	req, err := m.cfg.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, newProbeError(ErrorInternal, "mx", "build request", err)
	}
	req.Header.Set("Accept", "application/dns-json")

	resp, err := m.cfg.client.Do(req)
	if err != nil {
		return nil, transportError("mx", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBody))
	if err != nil {
		return nil, transportError("mx", err)
	}
	return parseMX(resp.StatusCode, body)
}

func parseMX(status int, body []byte) ([]MXRecord, error) {
	if status != http.StatusOK {
		return nil, newProbeError(ErrorProviderOutage, "mx", fmt.Sprintf("unexpected status %d", status), nil)
	}
	var r dohResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, newProbeError(ErrorBadData, "mx", "decode response", err)
	}

	records := make([]MXRecord, 0, len(r.Answer))
	for _, a := range r.Answer {
		if a.Type != dnsTypeMX {
			continue
		}
		pref, exchange, _ := strings.Cut(strings.TrimSpace(a.Data), " ")
		p, err := strconv.Atoi(pref)
		if err != nil {
			p = 0
		}
		exchange = strings.TrimSuffix(strings.TrimSpace(exchange), ".")
		if exchange == "" {
			continue
		}
		records = append(records, MXRecord{Exchange: exchange, Preference: p})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Preference < records[j].Preference
	})
	return records, nil
}
