package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	appanalyses "github.com/bryanwahyu/pcap-insight/internal/application/analyses"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/memory"
	"github.com/bryanwahyu/pcap-insight/internal/infra/generator/synthetic"
	"github.com/bryanwahyu/pcap-insight/internal/metrics"
)

// tickClock advances one second per call so uploads order deterministically.
func tickClock() application.Clock {
	var mu sync.Mutex
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return application.ClockFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	})
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *memory.AnalysisRepository) {
	t.Helper()
	repo := memory.NewAnalysisRepository(tickClock())
	svc := &appanalyses.Service{Repo: repo, Generator: synthetic.New(0, nil)}
	srv := httptest.NewServer(NewRouter(svc, opts))
	t.Cleanup(srv.Close)
	return srv, repo
}

func upload(t *testing.T, url, field, name string, size int) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte{0xa1}, size))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/api/analyze", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := decode[map[string]string](t, resp)
	require.Contains(t, body, "error")
	return body["error"]
}

func TestAnalyze_EndToEnd(t *testing.T) {
	srv, repo := newTestServer(t, Options{})

	resp := upload(t, srv.URL, "file", "traffic.pcap", 10*1024)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	v := decode[appanalyses.View](t, resp)
	assert.NotEmpty(t, v.ID)
	assert.GreaterOrEqual(t, v.Summary.Packets, 10000)
	assert.Less(t, v.Summary.Packets, 60000)
	assert.GreaterOrEqual(t, v.Summary.UniqueIPs, 50)
	assert.Less(t, v.Summary.UniqueIPs, 250)
	assert.Contains(t, domain.Predictions, v.Summary.Prediction)
	assert.GreaterOrEqual(t, v.Summary.MaliciousPercent, 5.0)
	assert.LessOrEqual(t, v.Summary.MaliciousPercent, 20.0)
	assert.GreaterOrEqual(t, v.Summary.Confidence, 85.0)
	assert.LessOrEqual(t, v.Summary.Confidence, 100.0)
	assert.True(t, len(v.Geo) >= 3 && len(v.Geo) <= 7)
	assert.True(t, len(v.IOCs) >= 5 && len(v.IOCs) <= 14)
	seen := map[string]bool{}
	for _, ioc := range v.IOCs {
		assert.Regexp(t, `^ioc-\d+$`, ioc.ID)
		assert.False(t, seen[ioc.ID], "duplicate ioc id %s", ioc.ID)
		seen[ioc.ID] = true
	}

	stored, err := repo.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "traffic.pcap", stored.Filename)
	assert.Equal(t, int64(10*1024), stored.Filesize)

	// GET returns the same view
	getResp, err := http.Get(srv.URL + "/api/analysis/" + string(v.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, v, decode[appanalyses.View](t, getResp))
}

func TestAnalyze_UploadFilter(t *testing.T) {
	srv, repo := newTestServer(t, Options{})

	resp := upload(t, srv.URL, "file", "capture.txt", 64)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorBody(t, resp), ".pcap")

	// extensions match regardless of case
	resp = upload(t, srv.URL, "file", "session.PCAPNG", 64)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = upload(t, srv.URL, "file", "CAPTURE.PCAP", 64)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	stored, err := repo.Get(context.Background(), decode[appanalyses.View](t, resp).ID)
	require.NoError(t, err)
	assert.Equal(t, "CAPTURE.PCAP", stored.Filename)

	resp = upload(t, srv.URL, "", "", 0)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no file uploaded", errorBody(t, resp))

	assert.Equal(t, 2, repo.Len())
}

func TestAnalyze_SanitizesFilename(t *testing.T) {
	srv, repo := newTestServer(t, Options{})

	resp := upload(t, srv.URL, "file", "../../tmp/evil.pcap", 16)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "evil.pcap", list[0].Filename)
}

func TestAnalyze_TooLarge(t *testing.T) {
	srv, repo := newTestServer(t, Options{MaxUploadBytes: 1024})

	resp := upload(t, srv.URL, "file", "big.pcap", 4096)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "file exceeds the 1.0 KiB upload limit", errorBody(t, resp))
	assert.Equal(t, 0, repo.Len())
}

func TestAnalyze_BodyOverCap(t *testing.T) {
	srv, repo := newTestServer(t, Options{MaxUploadBytes: 1024})

	// larger than the limit plus the multipart allowance, so the body
	// reader gives out before the form is parsed
	resp := upload(t, srv.URL, "file", "huge.pcap", 3<<20)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "file exceeds the 1.0 KiB upload limit", errorBody(t, resp))
	assert.Equal(t, 0, repo.Len())
}

func TestWriteJSON_EncodeFailureKeepsStatus(t *testing.T) {
	r := &Router{}
	h := r.wrap("Failed to fetch analysis", func(w http.ResponseWriter, _ *http.Request) error {
		return writeJSON(w, http.StatusOK, map[string]float64{"score": math.NaN()})
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/analyses", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "error")
	assert.NotContains(t, rec.Body.String(), "Failed to fetch analysis")
}

func TestAnalyze_RateLimited(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateCapacity: 1, RateRefill: 1})

	assert.Equal(t, http.StatusOK, upload(t, srv.URL, "file", "a.pcap", 8).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, upload(t, srv.URL, "file", "b.pcap", 8).StatusCode)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	for _, id := range []string{"does-not-exist", "0b7c5a4e-8a3f-4a52-9d0d-8d1f0c2f6e11"} {
		resp, err := http.Get(srv.URL + "/api/analysis/" + id)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
		assert.Equal(t, "Analysis not found", errorBody(t, resp))
		resp.Body.Close()
	}
}

func TestGetAnalysis_IOCQuery(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	v := decode[appanalyses.View](t, upload(t, srv.URL, "file", "q.pcap", 8))

	resp, err := http.Get(srv.URL + "/api/analysis/" + string(v.ID) + "?sort=threatScore&order=asc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[appanalyses.View](t, resp)
	require.Len(t, got.IOCs, len(v.IOCs))
	for i := 1; i < len(got.IOCs); i++ {
		assert.LessOrEqual(t, got.IOCs[i-1].ThreatScore, got.IOCs[i].ThreatScore)
	}

	resp2, err := http.Get(srv.URL + "/api/analysis/" + string(v.ID) + "?type=hash")
	require.NoError(t, err)
	defer resp2.Body.Close()
	for _, ioc := range decode[appanalyses.View](t, resp2).IOCs {
		assert.Equal(t, domain.IOCTypeHash, ioc.Type)
	}

	for _, bad := range []string{"?sort=severity", "?order=sideways", "?type=url"} {
		r, err := http.Get(srv.URL + "/api/analysis/" + string(v.ID) + bad)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, r.StatusCode, bad)
		r.Body.Close()
	}
}

func TestListAnalyses_NewestFirst(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/api/analyses")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", readAll(t, resp))

	for _, name := range []string{"first.pcap", "second.pcap", "third.pcap"} {
		require.Equal(t, http.StatusOK, upload(t, srv.URL, "file", name, 8).StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/analyses")
	require.NoError(t, err)
	defer resp.Body.Close()
	list := decode[[]map[string]any](t, resp)
	require.Len(t, list, 3)
	assert.Equal(t, "third.pcap", list[0]["filename"])
	assert.Equal(t, "second.pcap", list[1]["filename"])
	assert.Equal(t, "first.pcap", list[2]["filename"])
	for _, key := range []string{"id", "filesize", "uploadedAt", "totalPackets", "uniqueIps", "prediction", "maliciousPercent", "confidence", "geoData", "iocs"} {
		assert.Contains(t, list[0], key)
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}

func TestReport(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	v := decode[appanalyses.View](t, upload(t, srv.URL, "file", "r.pcap", 8))

	resp, err := http.Post(srv.URL+"/api/report/"+string(v.ID), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stub := decode[appanalyses.ReportStub](t, resp)
	assert.Equal(t, "pcap-report-"+string(v.ID)+".pdf", stub.Filename)
	assert.NotEmpty(t, stub.Message)

	resp2, err := http.Post(srv.URL+"/api/report/does-not-exist", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func deleteReq(t *testing.T, url, key string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestDeleteAnalysis_WithAuth(t *testing.T) {
	srv, repo := newTestServer(t, Options{APIKeys: []string{"s3cret"}})
	v := decode[appanalyses.View](t, upload(t, srv.URL, "file", "d.pcap", 8))
	url := srv.URL + "/api/analysis/" + string(v.ID)

	assert.Equal(t, http.StatusUnauthorized, deleteReq(t, url, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, deleteReq(t, url, "wrong").StatusCode)
	assert.Equal(t, 1, repo.Len())

	assert.Equal(t, http.StatusNoContent, deleteReq(t, url, "s3cret").StatusCode)
	assert.Equal(t, http.StatusNoContent, deleteReq(t, url, "s3cret").StatusCode)
	assert.Equal(t, 0, repo.Len())

	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAnalysis_OpenWithoutKeys(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNoContent, deleteReq(t, srv.URL+"/api/analysis/not-a-uuid", "").StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	srv, _ := newTestServer(t, Options{Gatherer: reg})

	for _, path := range []string{"/health", "/healthz/ready", "/healthz/live"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}

	require.Equal(t, http.StatusOK, upload(t, srv.URL, "file", "m.pcap", 8).StatusCode)

	// the request is counted after the response is flushed
	assert.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body := string(raw)
		return strings.Contains(body, `pcap_http_requests_total{method="POST",route="/api/analyze",status="200"}`) &&
			strings.Contains(body, "pcap_analyses_created_total")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, Options{AllowedOrigins: []string{"http://dashboard.local"}})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/analyses", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://dashboard.local", resp.Header.Get("Access-Control-Allow-Origin"))
}
