package snapshot

import (
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-dashboard/charts"
	"airbnb-dashboard/config"
	"airbnb-dashboard/utils"
)

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Price", "price"},
		{"Number of Beds", "number-of-beds"},
		{"  Spaced   Out ", "spaced-out"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestPageURL(t *testing.T) {
	m := charts.Measure{Label: "Number of Beds", Field: "beds"}
	assert.Equal(t, "http://127.0.0.1:8501/?measure=Number+of+Beds", pageURL("http://127.0.0.1:8501/", m))
}

func TestCaptureWithoutBrowser(t *testing.T) {
	t.Setenv("CHROME_BIN", "")
	if findChromeBinary() != "" {
		t.Skip("a browser is installed")
	}
	c := New(config.SnapshotConfig{MaxConcurrency: 1, MaxRetries: 1, Timeout: time.Second}, utils.NewDiscardLogger())
	_, err := c.Capture(context.Background(), "http://127.0.0.1", t.TempDir(), charts.Measures)
	assert.True(t, errors.Is(err, ErrNoBrowser))
}

func TestCaptureWritesPNGs(t *testing.T) {
	if findChromeBinary() == "" {
		t.Skip("chrome not installed")
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body data-ready="false"><h1>` + r.URL.Query().Get("measure") + `</h1>
<script>setTimeout(function(){document.body.dataset.ready="true"},50)</script></body></html>`))
	}))
	defer ts.Close()

	cfg := config.SnapshotConfig{MaxConcurrency: 2, MaxRetries: 1, Timeout: 30 * time.Second}
	c := New(cfg, utils.NewDiscardLogger())

	results, err := c.Capture(context.Background(), ts.URL, t.TempDir(), charts.Measures)
	require.NoError(t, err)
	require.Len(t, results, len(charts.Measures))

	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, charts.Measures[i].Label, r.Measure)

		f, err := os.Open(r.Path)
		require.NoError(t, err)
		_, err = png.Decode(f)
		f.Close()
		assert.NoError(t, err, r.Path)
	}
}
