package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultGeoBaseURL is the ip-api.com JSON endpoint. It accepts hostnames as
// well as IPs.
const DefaultGeoBaseURL = "http://ip-api.com"

const geoFields = "status,country,countryCode,regionName,city,isp,org,query"

// GeoInfo is the jurisdiction of one resolved host.
type GeoInfo struct {
	IP          string
	Country     string
	CountryCode string
	Region      string
	City        string
	Org         string
	IsSovereign bool
}

// GeoResolver geolocates hostnames.
type GeoResolver struct {
	baseURL   string
	sovereign string
	cfg       config
}

// NewGeoResolver builds a resolver against baseURL. sovereignCountry is the
// ISO country code treated as in-jurisdiction; empty means "US".
func NewGeoResolver(baseURL, sovereignCountry string, opts ...Option) *GeoResolver {
	if baseURL == "" {
		baseURL = DefaultGeoBaseURL
	}
	if sovereignCountry == "" {
		sovereignCountry = "US"
	}
	return &GeoResolver{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sovereign: strings.ToUpper(sovereignCountry),
		cfg:       newConfig(opts),
	}
}

// Resolve returns the geolocation of host, or nil if it cannot be determined.
func (g *GeoResolver) Resolve(ctx context.Context, host string) *GeoInfo {
	var info *GeoInfo
	err := g.cfg.run(ctx, "geo", host, func(ctx context.Context) error {
		var err error
		info, err = g.lookup(ctx, host)
		return err
	})
	if err != nil {
		return nil
	}
	return info
}

type geoResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	RegionName  string `json:"regionName"`
	City        string `json:"city"`
	ISP         string `json:"isp"`
	Org         string `json:"org"`
	Query       string `json:"query"`
}

func (g *GeoResolver) lookup(ctx context.Context, host string) (*GeoInfo, error) {
	if host == "" {
		return nil, newProbeError(ErrorBadData, "geo", "empty host", nil)
	}
	endpoint := fmt.Sprintf("%s/json/%s?fields=%s", g.baseURL, url.PathEscape(host), geoFields)
	req, err := g.cfg.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, newProbeError(ErrorInternal, "geo", "build request", err)
	}

	resp, err := g.cfg.client.Do(req)
	if err != nil {
		return nil, transportError("geo", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBody))
	if err != nil {
		return nil, transportError("geo", err)
	}
	return g.parse(resp.StatusCode, body)
}

func (g *GeoResolver) parse(status int, body []byte) (*GeoInfo, error) {
	if status != http.StatusOK {
		return nil, newProbeError(ErrorProviderOutage, "geo", fmt.Sprintf("unexpected status %d", status), nil)
	}
	var r geoResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, newProbeError(ErrorBadData, "geo", "decode response", err)
	}
	if r.Status != "success" {
		return nil, newProbeError(ErrorNotFound, "geo", "lookup unsuccessful: "+r.Message, nil)
	}

	org := r.Org
	if org == "" {
		org = r.ISP
	}
	return &GeoInfo{
		IP:          r.Query,
		Country:     r.Country,
		CountryCode: r.CountryCode,
		Region:      r.CountryCode + "-" + r.RegionName,
		City:        r.City,
		Org:         org,
		IsSovereign: strings.EqualFold(r.CountryCode, g.sovereign),
	}, nil
}
