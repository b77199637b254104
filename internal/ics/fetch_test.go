package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalCal = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n"

func TestFetcher_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cal.ics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(minimalCal))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())

	body, err := f.Read(context.Background(), srv.URL+"/cal.ics")
	require.NoError(t, err)
	assert.Equal(t, minimalCal, string(body))

	_, err = f.Read(context.Background(), srv.URL+"/missing.ics")
	assert.ErrorContains(t, err, "404")
}

func TestFetcher_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.ics")
	require.NoError(t, os.WriteFile(path, []byte(minimalCal), 0o600))

	body, err := NewFetcher(nil).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, minimalCal, string(body))

	_, err = NewFetcher(nil).Read(context.Background(), "")
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/cal.ics?token=abcd"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
