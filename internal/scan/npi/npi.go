// Package npi verifies provider identifiers against the CMS NPPES registry.
// Verification is informational: it never influences scoring.
package npi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sentry/internal/scan/models"
	"sentry/internal/scan/probe"
)

const (
	// DefaultBaseURL is the public NPPES registry.
	DefaultBaseURL = "https://npiregistry.cms.hhs.gov"
	DefaultTimeout = 5 * time.Second

	maxBody = 1 << 20
)

// Verifier looks up NPIs in the registry.
type Verifier struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Verifier.
type Option func(*Verifier)

func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) {
		if c != nil {
			v.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(v *Verifier) {
		if t != nil {
			v.tracer = t
		}
	}
}

// New returns a Verifier for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Verifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	v := &Verifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer("sentry/internal/scan/npi"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify returns the registry record for number. Any failure, including an
// unknown number, yields {Valid: false}.
func (v *Verifier) Verify(ctx context.Context, number string) models.NPIVerification {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	ctx, span := v.tracer.Start(ctx, "npi.verify", trace.WithAttributes(attribute.String("npi", number)))
	defer span.End()

	result, err := v.lookup(ctx, number)
	if err != nil {
		span.RecordError(err)
		v.logger.DebugContext(ctx, "npi verification failed", "npi", number, "error", err)
		return models.NPIVerification{Valid: false}
	}
	return result
}

func (v *Verifier) lookup(ctx context.Context, number string) (models.NPIVerification, error) {
	endpoint := fmt.Sprintf("%s/api/?number=%s&version=2.1", v.baseURL, url.QueryEscape(number))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.NPIVerification{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", probe.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return models.NPIVerification{}, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.NPIVerification{}, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return models.NPIVerification{}, fmt.Errorf("read registry response: %w", err)
	}
	return parse(body)
}

type registryResponse struct {
	ResultCount int              `json:"result_count"`
	Results     []registryResult `json:"results"`
}

type registryResult struct {
	EnumerationType string `json:"enumeration_type"`
	Basic           struct {
		OrganizationName string `json:"organization_name"`
		FirstName        string `json:"first_name"`
		LastName         string `json:"last_name"`
	} `json:"basic"`
	Addresses []struct {
		Purpose string `json:"address_purpose"`
		State   string `json:"state"`
	} `json:"addresses"`
	Taxonomies []struct {
		Desc    string `json:"desc"`
		Primary bool   `json:"primary"`
	} `json:"taxonomies"`
}

var errNotFound = errors.New("npi not found")

func parse(body []byte) (models.NPIVerification, error) {
	var r registryResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return models.NPIVerification{}, fmt.Errorf("decode registry response: %w", err)
	}
	if r.ResultCount == 0 || len(r.Results) == 0 {
		return models.NPIVerification{}, errNotFound
	}
	res := r.Results[0]

	out := models.NPIVerification{Valid: true, Type: "Individual"}
	if res.EnumerationType == "NPI-2" {
		out.Type = "Organization"
	}
	out.Name = res.Basic.OrganizationName
	if out.Name == "" {
		out.Name = strings.TrimSpace(res.Basic.FirstName + " " + res.Basic.LastName)
	}

	for i, t := range res.Taxonomies {
		if t.Primary || i == 0 {
			out.Specialty = t.Desc
		}
		if t.Primary {
			break
		}
	}
	for i, a := range res.Addresses {
		if a.Purpose == "LOCATION" || i == 0 {
			out.State = a.State
		}
		if a.Purpose == "LOCATION" {
			break
		}
	}
	return out, nil
}

// ValidateChecksum reports whether number is a syntactically valid NPI: ten
// digits whose Luhn check digit holds once the 80840 card-issuer prefix is
// applied.
func ValidateChecksum(number string) bool {
	if len(number) != 10 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}

	// The 80840 prefix contributes a constant 24 to the Luhn sum.
	sum := 24
	double := true
	for i := 8; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	check := (10 - sum%10) % 10
	return check == int(number[9]-'0')
}
