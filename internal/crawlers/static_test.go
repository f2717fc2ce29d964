package crawlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const galleryHTML = `<html><body>
<div><img src="/v1/media/11/thumbnail"></div>
<div><img src="/static/logo.png"></div>
<div><img src="https://cdn.example/v1/media/22/thumbnail?w=200"></div>
<div><img src="/v1/media/11/thumbnail"></div>
</body></html>`

func TestStaticGalleryCollector_ExtractsMediaInDocumentOrder(t *testing.T) {
	var gotCookie, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil {
			gotCookie = c.Value
		}
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(galleryHTML))
	}))
	defer srv.Close()

	headers := models.StaticHeaders(http.Header{"Referer": {"https://www.parentzone.me/"}})
	cookies := []*http.Cookie{{Name: "sid", Value: "logged-in", Path: "/"}}

	collector := NewStaticGalleryCollector(StaticGalleryConfig{}, headers, cookies)
	urls, err := collector.Collect(context.Background(), srv.URL+"/gallery")
	require.NoError(t, err)

	assert.Equal(t, []string{
		srv.URL + "/v1/media/11/thumbnail",
		"https://cdn.example/v1/media/22/thumbnail?w=200",
		srv.URL + "/v1/media/11/thumbnail",
	}, urls)
	assert.Equal(t, "logged-in", gotCookie)
	assert.Equal(t, "https://www.parentzone.me/", gotReferer)
}

func TestStaticGalleryCollector_DecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	bw.Write([]byte(galleryHTML))
	bw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	urls, err := NewStaticGalleryCollector(StaticGalleryConfig{}, nil, nil).Collect(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, urls, 3)
}

func TestStaticGalleryCollector_HTTPErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "login required", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewStaticGalleryCollector(StaticGalleryConfig{}, nil, nil).Collect(context.Background(), srv.URL)
	assert.Error(t, err)
}
