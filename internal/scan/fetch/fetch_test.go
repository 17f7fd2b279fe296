package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkup(t *testing.T) {
	html := `<html><head><title>Clinic</title>
<style type="text/css">.x { display:none }</style>
<script>var algorithm = "machine learning";</script></head>
<body><h1>Welcome</h1>
<p>New   patient
forms</p><SCRIPT src="a.js"></SCRIPT></body></html>`

	assert.Equal(t, "Clinic Welcome New patient forms", StripMarkup(html))
	assert.Equal(t, "", StripMarkup("   "))
}

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en-US,en;q=0.9", r.Header.Get("Accept-Language"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome/131")
		fmt.Fprint(w, `<html><body><p>Patient portal</p></body></html>`)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(WithTimeout(200 * time.Millisecond))
	ctx := context.Background()

	t.Run("successful fetch", func(t *testing.T) {
		page := f.Fetch(ctx, srv.URL+"/ok")
		require.True(t, page.Fetched)
		assert.Equal(t, http.StatusOK, page.StatusCode)
		assert.Equal(t, "Patient portal", page.Text)
		assert.Equal(t, len(page.HTML), page.Size)
	})

	t.Run("follows redirects", func(t *testing.T) {
		page := f.Fetch(ctx, srv.URL+"/moved")
		require.True(t, page.Fetched)
		assert.Equal(t, srv.URL+"/ok", page.FinalURL)
	})

	t.Run("non-2xx is not fetched", func(t *testing.T) {
		page := f.Fetch(ctx, srv.URL+"/gone")
		assert.False(t, page.Fetched)
		assert.Equal(t, http.StatusGone, page.StatusCode)
		assert.Empty(t, page.HTML)
		assert.Empty(t, page.Text)
	})

	t.Run("timeout is not fetched", func(t *testing.T) {
		page := f.Fetch(ctx, srv.URL+"/slow")
		assert.False(t, page.Fetched)
	})

	t.Run("unreachable host is not fetched", func(t *testing.T) {
		page := f.Fetch(ctx, "http://127.0.0.1:1/")
		assert.False(t, page.Fetched)
		assert.Zero(t, page.StatusCode)
	})
}
