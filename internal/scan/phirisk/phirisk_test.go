package phirisk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sentry/internal/scan/models"
	"sentry/internal/scan/vocab"
)

func TestClassify(t *testing.T) {
	v := vocab.Default()
	tests := []struct {
		name string
		url  string
		html string
		want models.PHIRisk
	}{
		{
			name: "static asset is none",
			url:  "https://cdn.example.net/bundle.js",
			html: `<script src="https://cdn.example.net/bundle.js"></script>`,
			want: models.PHIRiskNone,
		},
		{
			name: "static asset with phi keyword in path stays none",
			url:  "https://cdn.example.net/patient/portal.css",
			want: models.PHIRiskNone,
		},
		{
			name: "static asset fetched programmatically stays none",
			url:  "https://api.example.net/logo.png",
			html: `fetch("https://api.example.net/logo.png")`,
			want: models.PHIRiskNone,
		},
		{
			name: "form action target",
			url:  "https://forms.example.net/collect",
			html: `<form method="post" action="https://forms.example.net/collect">`,
			want: models.PHIRiskDirect,
		},
		{
			name: "fetch call",
			url:  "https://api.example.net/v1/events",
			html: `<script>fetch('https://api.example.net/v1/events', {method: 'POST'})</script>`,
			want: models.PHIRiskDirect,
		},
		{
			name: "axios method call",
			url:  "https://api.example.net/v1",
			html: `axios.post("https://api.example.net/v1", data)`,
			want: models.PHIRiskDirect,
		},
		{
			name: "beacon",
			url:  "https://collect.example.net/b",
			html: `navigator.sendBeacon("https://collect.example.net/b", payload)`,
			want: models.PHIRiskDirect,
		},
		{
			name: "phi keyword in path",
			url:  "https://book.example.net/appointment/new",
			want: models.PHIRiskDirect,
		},
		{
			name: "plain link",
			url:  "https://www.example.org/press",
			html: `<a href="https://www.example.org/press">Press</a>`,
			want: models.PHIRiskIndirect,
		},
		{
			name: "unparseable",
			url:  "://nope",
			want: models.PHIRiskIndirect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url, tt.html, v))
		})
	}
}

func TestMax(t *testing.T) {
	assert.Equal(t, models.PHIRiskDirect, Max(models.PHIRiskIndirect, models.PHIRiskDirect))
	assert.Equal(t, models.PHIRiskDirect, Max(models.PHIRiskDirect, models.PHIRiskNone))
	assert.Equal(t, models.PHIRiskIndirect, Max(models.PHIRiskNone, models.PHIRiskIndirect))
	assert.Equal(t, models.PHIRiskNone, Max(models.PHIRiskNone, models.PHIRiskNone))
}
