package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/phishcatcher/internal/app"
	"github.com/raysh454/phishcatcher/internal/server"
	"github.com/raysh454/phishcatcher/internal/testutil"
)

func testAppConfig() *app.Config {
	cfg := app.DefaultConfig()
	cfg.Model.Path = filepath.Join("..", "model", "testdata", "forest.json")
	cfg.Model.LabelsPath = filepath.Join("..", "model", "testdata", "labels.json")
	cfg.Assessor.ScoringVersion = "test"
	return cfg
}

func newTestServer(t *testing.T, mutate ...func(*app.Config)) *server.Server {
	t.Helper()

	appCfg := testAppConfig()
	for _, m := range mutate {
		m(appCfg)
	}
	logger := &testutil.DummyLogger{}
	a, err := app.NewApplication(context.Background(), appCfg, logger)
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	s, err := server.NewServer(server.Config{ListenAddr: ":0", App: a, Logger: logger})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
		_ = a.Close()
	})
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

type classifyBody struct {
	URL              string             `json:"url"`
	Label            string             `json:"label"`
	Confidence       float64            `json:"confidence"`
	ShortCircuited   bool               `json:"short_circuited"`
	RegisteredDomain string             `json:"registered_domain"`
	Probabilities    map[string]float64 `json:"probabilities"`
	Features         []float64          `json:"features"`
	Version          string             `json:"version"`
}

// ─── Middleware ────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/healthz", "")

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_Preflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "OPTIONS", "/classify", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("expected allowed methods POST, got %q", got)
	}
}

func TestServer_RequestID(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/healthz", "")
	if rec.Header().Get(server.RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	const id = "7f0e8a36-4c2b-4f43-9c61-1b0c6f4a2d11"
	req := httptest.NewRequest("POST", "/classify", strings.NewReader(`{"url":"http://example.com/%zz"}`))
	req.Header.Set(server.RequestIDHeader, id)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if got := rec.Header().Get(server.RequestIDHeader); got != id {
		t.Errorf("expected request id %q echoed, got %q", id, got)
	}
	var er server.ErrorResponse
	decodeJSON(t, rec, &er)
	if er.RequestID != id {
		t.Errorf("expected request id in error body, got %q", er.RequestID)
	}
}

func TestServer_RequestID_RejectsNonUUID(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set(server.RequestIDHeader, "<script>")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if got := rec.Header().Get(server.RequestIDHeader); got == "<script>" || got == "" {
		t.Errorf("expected a replacement request id, got %q", got)
	}
}

func TestServer_RateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *app.Config) {
		c.Server.RateLimit = 0.001
		c.Server.RateBurst = 1
	})

	body := `{"url":"http://192.168.1.1/login"}`
	if rec := doJSON(t, s, "POST", "/classify", body); rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}
	rec := doJSON(t, s, "POST", "/classify", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Health checks bypass the limiter.
	if rec := doJSON(t, s, "GET", "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", rec.Code)
	}
}

// ─── Classify ──────────────────────────────────────────────────────────

func TestServer_Classify(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/classify", `{"url":"  http://192.168.1.1/login  "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res classifyBody
	decodeJSON(t, rec, &res)
	if res.Label != "Phishing" {
		t.Errorf("expected Phishing, got %q", res.Label)
	}
	if d := res.Confidence - 0.525; d > 1e-9 || d < -1e-9 {
		t.Errorf("expected confidence 0.525, got %v", res.Confidence)
	}
	if res.ShortCircuited {
		t.Error("IP host must not short-circuit")
	}
	if len(res.Features) != 23 {
		t.Errorf("expected 23 features, got %d", len(res.Features))
	}
	if len(res.Probabilities) != 4 {
		t.Errorf("expected 4 class probabilities, got %v", res.Probabilities)
	}
	if res.Version != "test" {
		t.Errorf("expected scoring version test, got %q", res.Version)
	}
}

func TestServer_Classify_TrustedShortCircuit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/classify", `{"url":"hxxps://mail[.]google[.]com/inbox"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res classifyBody
	decodeJSON(t, rec, &res)
	if res.Label != "Benign" || res.Confidence != 1.0 || !res.ShortCircuited {
		t.Errorf("expected trusted short-circuit, got %+v", res)
	}
	if res.RegisteredDomain != "google.com" {
		t.Errorf("expected registered domain google.com, got %q", res.RegisteredDomain)
	}
}

func TestServer_Classify_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	cases := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"malformed json", `{"url":`, http.StatusBadRequest, ""},
		{"unknown field", `{"link":"http://x.com"}`, http.StatusBadRequest, ""},
		{"bad escape", `{"url":"http://example.com/%zz"}`, http.StatusBadRequest, "parse"},
		{"empty url", `{"url":"   "}`, http.StatusUnprocessableEntity, "extraction"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, s, "POST", "/classify", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var er server.ErrorResponse
			decodeJSON(t, rec, &er)
			if er.Kind != tc.kind {
				t.Errorf("expected kind %q, got %q", tc.kind, er.Kind)
			}
			if er.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestServer_ClassifyBatch(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	body := `{"urls":["http://192.168.1.1/login","https://www.wikipedia.org/","http://example.com/%zz","http://example.com/about"],"workers":2}`
	rec := doJSON(t, s, "POST", "/classify/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp server.BatchResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(resp.Items))
	}
	for i, it := range resp.Items {
		if it.Index != i {
			t.Errorf("item %d has index %d", i, it.Index)
		}
	}
	if it := resp.Items[0]; it.Result == nil || it.Result.Label != "Phishing" {
		t.Errorf("item 0: expected Phishing, got %+v", it)
	}
	if it := resp.Items[1]; it.Result == nil || !it.Result.ShortCircuited {
		t.Errorf("item 1: expected short-circuit, got %+v", it)
	}
	if it := resp.Items[2]; it.ErrorKind != "parse" || it.Result != nil {
		t.Errorf("item 2: expected parse error, got %+v", it)
	}
	if it := resp.Items[3]; it.Result == nil || it.Result.Label != "Benign" {
		t.Errorf("item 3: expected Benign, got %+v", it)
	}
	if resp.Summary.Total != 4 || resp.Summary.ShortCircuited != 1 || resp.Summary.Failed["parse"] != 1 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}
}

func TestServer_ClassifyBatch_Limits(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *app.Config) { c.Batch.MaxURLs = 2 })

	if rec := doJSON(t, s, "POST", "/classify/batch", `{"urls":[]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch: expected 400, got %d", rec.Code)
	}
	rec := doJSON(t, s, "POST", "/classify/batch", `{"urls":["a.com","b.com","c.com"]}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized batch: expected 413, got %d", rec.Code)
	}
}

// ─── Explain / trusted / health ────────────────────────────────────────

func TestServer_Explain(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/explain?url=http://paypa1.com/signin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ex struct {
		Trusted  bool `json:"trusted"`
		Features []struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		} `json:"features"`
		Lookalike *struct {
			Trusted  string `json:"trusted"`
			Distance int    `json:"distance"`
		} `json:"lookalike"`
	}
	decodeJSON(t, rec, &ex)
	if ex.Trusted {
		t.Error("paypa1.com must not be trusted")
	}
	if len(ex.Features) != 23 {
		t.Errorf("expected 23 named features, got %d", len(ex.Features))
	}
	if ex.Lookalike == nil || ex.Lookalike.Trusted != "paypal.com" || ex.Lookalike.Distance != 1 {
		t.Errorf("expected lookalike paypal.com at distance 1, got %+v", ex.Lookalike)
	}

	if rec := doJSON(t, s, "GET", "/explain", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: expected 400, got %d", rec.Code)
	}
}

func TestServer_Trusted(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/trusted", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var tr server.TrustedResponse
	decodeJSON(t, rec, &tr)
	if tr.Count == 0 || tr.Count != len(tr.Domains) {
		t.Fatalf("unexpected trusted response %+v", tr)
	}
	found := false
	for _, d := range tr.Domains {
		if d == "wikipedia.org" {
			found = true
		}
	}
	if !found {
		t.Error("expected wikipedia.org in the default trusted list")
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var h server.HealthResponse
	decodeJSON(t, rec, &h)
	if h.Status != "ok" || h.ScoringVersion != "test" || h.TrustedDomains == 0 {
		t.Errorf("unexpected health response %+v", h)
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	doJSON(t, s, "POST", "/classify", `{"url":"http://192.168.1.1/login"}`)
	rec := doJSON(t, s, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`phishcatcher_classifications_total{label="Phishing"} 1`,
		`phishcatcher_http_requests_total{route="/classify",status_code="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "PhishCatcher API") {
		t.Error("expected API title in swagger document")
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func waitForJob(t *testing.T, s http.Handler, id string) app.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, s, "GET", "/jobs/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get job: expected 200, got %d", rec.Code)
		}
		var job app.Job
		decodeJSON(t, rec, &job)
		if !job.EndedAt.IsZero() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return app.Job{}
}

func TestServer_Jobs(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/jobs", `{"urls":["http://192.168.1.1/login","https://github.com/"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var started app.Job
	decodeJSON(t, rec, &started)
	if started.ID == "" || started.Total != 2 {
		t.Fatalf("unexpected job %+v", started)
	}

	job := waitForJob(t, s, started.ID)
	if job.Status != app.JobDone {
		t.Fatalf("expected done, got %s (%s)", job.Status, job.Error)
	}
	if len(job.Results) != 2 || job.Results[0].Result.Label != "Phishing" || !job.Results[1].Result.ShortCircuited {
		t.Errorf("unexpected results %+v", job.Results)
	}

	rec = doJSON(t, s, "GET", "/jobs", "")
	var list []app.Job
	decodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].ID != started.ID || list[0].Results != nil {
		t.Errorf("expected one job without results, got %+v", list)
	}

	// Finished jobs cannot be canceled.
	if rec := doJSON(t, s, "DELETE", "/jobs/"+started.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("cancel finished job: expected 404, got %d", rec.Code)
	}
}

func TestServer_Jobs_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if rec := doJSON(t, s, "GET", "/jobs/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := doJSON(t, s, "DELETE", "/jobs/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// ─── WebSockets ────────────────────────────────────────────────────────

func dialWS(t *testing.T, s http.Handler, path string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+path, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestServer_ClassifyWS(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	conn := dialWS(t, s, "/ws/classify")

	type reply struct {
		URL    string                `json:"url"`
		Result *classifyBody         `json:"result"`
		Error  *server.ErrorResponse `json:"error"`
	}

	for _, u := range []string{"http://192.168.1.1/login", "http://example.com/%zz"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(u)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var first, second reply
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Result == nil || first.Result.Label != "Phishing" {
		t.Errorf("first reply: expected Phishing, got %+v", first)
	}
	if second.Error == nil || second.Error.Kind != "parse" {
		t.Errorf("second reply: expected parse error, got %+v", second)
	}
}

func TestServer_JobWS(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	conn := dialWS(t, s, "/ws/jobs")

	if err := conn.WriteJSON(server.BatchRequest{URLs: []string{"http://192.168.1.1/login", "http://example.com/a"}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var job app.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatalf("read job: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected job id")
	}

	var last app.JobEvent
	progress := 0
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.JobID != job.ID {
			t.Errorf("event for unexpected job %q", ev.JobID)
		}
		if ev.Type == app.JobEventProgress {
			progress++
		}
		last = ev
	}
	if progress != 2 {
		t.Errorf("expected 2 progress events, got %d", progress)
	}
	if last.Type != app.JobEventResult || last.Status != app.JobDone {
		t.Errorf("expected final result event, got %+v", last)
	}
}

func TestServer_JobWS_TrimsURLs(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	conn := dialWS(t, s, "/ws/jobs")

	if err := conn.WriteJSON(server.BatchRequest{URLs: []string{"  http://192.168.1.1/login\t"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var job app.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatalf("read job: %v", err)
	}

	var item *app.JobResult
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Type == app.JobEventProgress && ev.Item != nil {
			item = ev.Item
		}
	}
	if item == nil {
		t.Fatal("expected a progress event carrying the item")
	}
	if item.URL != "http://192.168.1.1/login" {
		t.Errorf("expected trimmed url, got %q", item.URL)
	}
	if item.Result == nil || item.Result.Label != "Phishing" {
		t.Errorf("expected Phishing result, got %+v (error %q)", item.Result, item.Error)
	}
}

func TestServer_JobWS_RejectsEmptyBatch(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	conn := dialWS(t, s, "/ws/jobs")

	if err := conn.WriteJSON(server.BatchRequest{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp server.ErrorResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Error != "urls must not be empty" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestServer_Metrics_UnmatchedRoutesShareOneSeries(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		rec := doJSON(t, s, "GET", fmt.Sprintf("/nope-%d", i), "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	}
	body := doJSON(t, s, "GET", "/metrics", "").Body.String()
	if want := `phishcatcher_http_requests_total{route="unmatched",status_code="404"} 5`; !strings.Contains(body, want) {
		t.Errorf("metrics output missing %q", want)
	}
	if strings.Contains(body, "/nope-") {
		t.Error("request paths leaked into route labels")
	}
}
