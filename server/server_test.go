package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-dashboard/config"
	"airbnb-dashboard/crossfilter"
	"airbnb-dashboard/models"
	"airbnb-dashboard/services"
	"airbnb-dashboard/utils"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := utils.NewDiscardLogger()

	raw := []*models.RawListing{
		{Price: "$100", Rating: "4.5", Beds: "1", Neighbourhood: "A"},
		{Price: "$200", Rating: "4.0", Beds: "2", Neighbourhood: "A"},
		{Price: "$300", Rating: "2.5", Beds: "3", Neighbourhood: "B"},
		{Price: "", Rating: "4.0", Beds: "1", Neighbourhood: "B"},
	}
	table := services.NewCleaner(logger).Clean("test", raw)
	report := services.NewInsightService(logger).Generate(table)

	cfg := config.ServerConfig{
		Host:        "127.0.0.1",
		Port:        8501,
		CorsOrigins: []string{"*"},
	}
	srv := New(cfg, table, report, crossfilter.NewRegistry(time.Hour, logger), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	res, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var out sessionResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.ID)
	assert.Empty(t, out.Selection.Neighbourhoods)
	return out.ID
}

func decodeAPIError(t *testing.T, body []byte) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	res, body := doJSON(t, http.MethodGet, ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestIndexPage(t *testing.T) {
	_, ts := newTestServer(t)
	res, body := doJSON(t, http.MethodGet, ts.URL+"/?measure=Number%20of%20Beds", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")

	page := string(body)
	assert.Contains(t, page, "<title>Data Dashboard for Boston Airbnb Listings</title>")
	assert.Contains(t, page, "Rating vs. Price/Number of Beds Scatterplot")
	assert.Contains(t, page, "Rating Distribution by Neighborhood")
	assert.Contains(t, page, "Neighborhood Median Price + Rating")
	assert.Contains(t, page, `<option value="Number of Beds" selected>`)
	assert.Contains(t, page, "3 listings from test")
}

func TestMeasures(t *testing.T) {
	_, ts := newTestServer(t)
	_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/measures", nil)
	assert.JSONEq(t, `[{"label":"Price","field":"price_num"},{"label":"Number of Beds","field":"beds"}]`, string(body))
}

func TestSummary(t *testing.T) {
	_, ts := newTestServer(t)
	_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/summary", nil)

	var r models.InsightReport
	require.NoError(t, json.Unmarshal(body, &r))
	assert.Equal(t, 4, r.RawListings)
	assert.Equal(t, 3, r.TotalListings)
	assert.Equal(t, 1, r.DroppedListings)
	assert.Equal(t, 200.0, r.MedianPrice)
}

func TestScatterChart(t *testing.T) {
	_, ts := newTestServer(t)

	res, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/charts/scatter?measure=Number%20of%20Beds", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var spec struct {
		Encoding struct {
			X struct {
				Field string `json:"field"`
			} `json:"x"`
		} `json:"encoding"`
		Data struct {
			Values []map[string]interface{} `json:"values"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &spec))
	assert.Equal(t, "beds", spec.Encoding.X.Field)
	assert.Len(t, spec.Data.Values, 3)

	res, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/charts/scatter", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "measure defaults to Price")
}

func TestScatterUnknownMeasure(t *testing.T) {
	_, ts := newTestServer(t)
	res, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/charts/scatter?measure=Bathrooms", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "UNKNOWN_MEASURE", decodeAPIError(t, body).ErrorCode)
}

func TestBoxplotChart(t *testing.T) {
	_, ts := newTestServer(t)
	_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/charts/boxplot", nil)

	var spec struct {
		Data struct {
			Values []struct {
				Rating float64 `json:"review_scores_rating"`
			} `json:"values"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &spec))
	require.Len(t, spec.Data.Values, 2)
	for _, v := range spec.Data.Values {
		assert.GreaterOrEqual(t, v.Rating, 3.0)
	}
}

type linkedSpec struct {
	VConcat []struct {
		Layer []struct {
			Data struct {
				Values []struct {
					Neighbourhood string  `json:"neighbourhood_cleansed"`
					MedianPrice   float64 `json:"median_price"`
					Selected      bool    `json:"selected"`
				} `json:"values"`
			} `json:"data"`
		} `json:"layer"`
		Data struct {
			Values []struct {
				PriceNum float64 `json:"price_num"`
			} `json:"values"`
		} `json:"data"`
	} `json:"vconcat"`
}

func getLinked(t *testing.T, ts *httptest.Server, id string) linkedSpec {
	t.Helper()
	res, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/charts/linked", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var spec linkedSpec
	require.NoError(t, json.Unmarshal(body, &spec))
	require.Len(t, spec.VConcat, 2)
	return spec
}

func TestLinkedSelectionFlow(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)

	spec := getLinked(t, ts, id)
	assert.Empty(t, spec.VConcat[1].Data.Values, "empty selection shows no points")
	for _, b := range spec.VConcat[0].Layer[0].Data.Values {
		assert.False(t, b.Selected)
	}

	res, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+id+"/selection/toggle",
		map[string]string{"neighbourhood": "A"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var sel crossfilter.Selection
	require.NoError(t, json.Unmarshal(body, &sel))
	assert.Equal(t, []string{"A"}, sel.Neighbourhoods)

	spec = getLinked(t, ts, id)
	bars := spec.VConcat[0].Layer[0].Data.Values
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Selected)
	assert.Equal(t, 150.0, bars[0].MedianPrice)
	assert.False(t, bars[1].Selected)
	assert.Len(t, spec.VConcat[1].Data.Values, 2)

	doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+id+"/selection/toggle",
		map[string]string{"neighbourhood": "A"})
	_, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/selection", nil)
	require.NoError(t, json.Unmarshal(body, &sel))
	assert.Empty(t, sel.Neighbourhoods, "second toggle restores the empty selection")
}

func TestSessionsAreIsolated(t *testing.T) {
	_, ts := newTestServer(t)
	a := createSession(t, ts)
	b := createSession(t, ts)

	doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+a+"/selection/toggle",
		map[string]string{"neighbourhood": "B"})

	assert.Len(t, getLinked(t, ts, a).VConcat[1].Data.Values, 1)
	assert.Empty(t, getLinked(t, ts, b).VConcat[1].Data.Values)
}

func TestToggleValidation(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)
	url := ts.URL + "/api/v1/sessions/" + id + "/selection/toggle"

	res, body := doJSON(t, http.MethodPost, url, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", decodeAPIError(t, body).ErrorCode)

	res, body = doJSON(t, http.MethodPost, url, map[string]string{"neighbourhood": "Atlantis"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "UNKNOWN_NEIGHBOURHOOD", decodeAPIError(t, body).ErrorCode)
}

func TestZoom(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)
	url := ts.URL + "/api/v1/sessions/" + id + "/selection/zoom"

	res, body := doJSON(t, http.MethodPut, url, crossfilter.Interval{PriceMin: 50, PriceMax: 150, RatingMin: 4, RatingMax: 5})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var sel crossfilter.Selection
	require.NoError(t, json.Unmarshal(body, &sel))
	require.NotNil(t, sel.Zoom)
	assert.Equal(t, 150.0, sel.Zoom.PriceMax)

	res, body = doJSON(t, http.MethodPut, url, crossfilter.Interval{PriceMin: 150, PriceMax: 50, RatingMin: 4, RatingMax: 5})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "INVALID_INTERVAL", decodeAPIError(t, body).ErrorCode)

	res, body = doJSON(t, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal(body, &sel))
	assert.Nil(t, sel.Zoom)
}

func TestClearSelection(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+id+"/selection/toggle",
		map[string]string{"neighbourhood": "A"})

	res, body := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+id+"/selection", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var sel crossfilter.Selection
	require.NoError(t, json.Unmarshal(body, &sel))
	assert.Empty(t, sel.Neighbourhoods)
}

func TestUnknownSession(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/selection", "/charts/linked", "/charts/median.png"} {
		res, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/nope"+path, nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode, path)
		assert.Equal(t, "SESSION_NOT_FOUND", decodeAPIError(t, body).ErrorCode, path)
	}
}

func TestDeleteSession(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)

	res, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/selection", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestMedianPNG(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)

	res, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/charts/median.png", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(body))
	assert.NoError(t, err)
}

func TestSelectionWebSocket(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sessions/" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg selectionMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "selection", msg.Type)
	assert.Empty(t, msg.Data.Neighbourhoods)

	doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+id+"/selection/toggle",
		map[string]string{"neighbourhood": "B"})

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, []string{"B"}, msg.Data.Neighbourhoods)
	assert.Equal(t, uint64(1), msg.Data.Version)
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sessions/nope"

	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestWebSocketAfterSessionDeleted(t *testing.T) {
	_, ts := newTestServer(t)
	id := createSession(t, ts)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sessions/" + id

	res, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	_, wsRes, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, wsRes)
	assert.Equal(t, http.StatusNotFound, wsRes.StatusCode)

	// The page can't read the upgrade status, so it checks the selection
	// endpoint and starts a fresh session on SESSION_NOT_FOUND.
	res, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+id+"/selection", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "SESSION_NOT_FOUND", decodeAPIError(t, body).ErrorCode)

	fresh := createSession(t, ts)
	assert.NotEqual(t, id, fresh)
	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/sessions/"+fresh, nil)
	require.NoError(t, err)
	conn.Close()

	_, page := doJSON(t, http.MethodGet, ts.URL+"/", nil)
	assert.Contains(t, string(page), `err.code === "SESSION_NOT_FOUND"`)
	assert.Contains(t, string(page), "retries >= maxRetries")
}

func TestMetrics(t *testing.T) {
	srv, ts := newTestServer(t)
	id := createSession(t, ts)
	doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions/"+id+"/selection/toggle",
		map[string]string{"neighbourhood": "A"})

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.toggles))
	assert.Equal(t, 3.0, testutil.ToFloat64(srv.metrics.listings.WithLabelValues("loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.listings.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		srv.metrics.requests.WithLabelValues("/api/v1/sessions/{id}/selection/toggle", "POST", "200")))

	res, body := doJSON(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "dashboard_sessions_active 1")
	assert.Contains(t, string(body), "dashboard_selection_toggles_total 1")
}
