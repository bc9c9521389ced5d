package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/phishcatcher/docs/swagger" // registers the OpenAPI document
	"github.com/raysh454/phishcatcher/internal/app"
	"github.com/raysh454/phishcatcher/internal/assessor"
	"github.com/raysh454/phishcatcher/internal/batch"
	"github.com/raysh454/phishcatcher/internal/logging"
	"github.com/raysh454/phishcatcher/internal/metrics"
)

// maxBodyBytes bounds request bodies; a batch of MaxURLs long URLs fits.
const maxBodyBytes = 8 << 20

// Server is the HTTP + WebSocket API surface for PhishCatcher.
type Server struct {
	cfg           Config
	app           *app.Application
	assessor      *assessor.Assessor
	orchestrator  *app.Orchestrator
	metrics       *metrics.Recorder
	router        chi.Router
	upgrader      websocket.Upgrader
	limiter       *clientLimiter
	allowedOrigin string
	logger        logging.Logger
}

// NewServer creates a Server around an already loaded Application.
func NewServer(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.App.Assessor == nil {
		return nil, errors.New("server: application with an assessor is required")
	}
	appCfg := cfg.App.Config
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = appCfg.Server.ListenAddr
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	origin := appCfg.Server.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:           cfg,
		app:           cfg.App,
		assessor:      cfg.App.Assessor,
		orchestrator:  cfg.App.Orch,
		metrics:       cfg.App.Metrics,
		router:        r,
		limiter:       newClientLimiter(appCfg.Server.RateLimit, appCfg.Server.RateBurst),
		allowedOrigin: origin,
		logger:        logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if origin == "*" {
					return true
				}
				return r.Header.Get("Origin") == "" || r.Header.Get("Origin") == origin
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(requestIDMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.metricsMiddleware)

	// CORS preflight
	r.Options("/classify", s.optionsHandler("POST"))
	r.Options("/classify/batch", s.optionsHandler("POST"))
	r.Options("/explain", s.optionsHandler("GET"))
	r.Options("/jobs", s.optionsHandler("GET, POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	// Operational endpoints are not rate limited.
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		r.Post("/classify", s.handleClassify)
		r.Post("/classify/batch", s.handleClassifyBatch)
		r.Get("/explain", s.handleExplain)
		r.Get("/trusted", s.handleTrusted)

		// Jobs over REST
		r.Post("/jobs", s.handleStartJob)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Delete("/jobs/{jobID}", s.handleCancelJob)

		// WebSockets
		r.Get("/ws/classify", s.handleClassifyWS)
		r.Get("/ws/jobs", s.handleJobWS)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body_bytes", Value: len(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		} else {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large", "")
			return
		}
	}

	s.logger.Debug("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close cancels running jobs.
func (s *Server) Close() {
	if s.orchestrator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.orchestrator.Shutdown(ctx)
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg, kind string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind, RequestID: requestID(r)})
}

// statusFor maps a classification error onto an HTTP status and the
// message shown to clients.
func statusFor(err error) (int, string) {
	switch assessor.Kind(err) {
	case assessor.KindParse:
		return http.StatusBadRequest, "invalid URL: " + err.Error()
	case assessor.KindExtraction:
		return http.StatusUnprocessableEntity, err.Error()
	case assessor.KindCanceled:
		return http.StatusServiceUnavailable, "request canceled"
	default:
		return http.StatusInternalServerError, "classifier misconfigured"
	}
}

func (s *Server) writeClassifyError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	kind := assessor.Kind(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("classification failed", logging.Field{Key: "request_id", Value: requestID(r)}, logging.Field{Key: "error", Value: err})
	}
	writeError(w, r, status, msg, kind)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// --- HTTP handlers ---

// handleHealth godoc
// @Summary Readiness probe
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		TrustedDomains: s.app.Trusted.Len(),
		ScoringVersion: s.app.Config.Assessor.ScoringVersion,
	})
}

// handleClassify godoc
// @Summary Classify one URL
// @Tags classify
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "URL to classify"
// @Success 200 {object} ClassifyResponse
// @Failure 400 {object} ErrorResponse "invalid URL"
// @Failure 422 {object} ErrorResponse "could not analyze URL"
// @Failure 500 {object} ErrorResponse "classifier misconfigured"
// @Router /classify [post]
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var body ClassifyRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := s.assessor.Classify(r.Context(), strings.TrimSpace(body.URL))
	if err != nil {
		s.writeClassifyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleClassifyBatch godoc
// @Summary Classify many URLs
// @Description Per-URL parse and extraction errors are reported inline. A classifier configuration error fails the whole request.
// @Tags classify
// @Accept json
// @Produce json
// @Param request body BatchRequest true "URLs to classify"
// @Success 200 {object} BatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /classify/batch [post]
func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}
	urls, ok := s.checkBatch(w, r, body.URLs)
	if !ok {
		return
	}

	s.metrics.Batch(len(urls))
	items, err := batch.Run(r.Context(), s.assessor, urls, s.workers(body.Workers))
	if err != nil {
		s.writeClassifyError(w, r, err)
		return
	}

	resp := BatchResponse{Items: make([]app.JobResult, len(items)), Summary: batch.Summarize(items)}
	for i, it := range items {
		resp.Items[i] = jobResult(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) checkBatch(w http.ResponseWriter, r *http.Request, urls []string) ([]string, bool) {
	out, status, msg := s.normalizeBatch(urls)
	if status != 0 {
		writeError(w, r, status, msg, "")
		return nil, false
	}
	return out, true
}

// normalizeBatch trims every URL and enforces the batch size bounds. A
// non-zero status reports why the batch was refused.
func (s *Server) normalizeBatch(urls []string) ([]string, int, string) {
	if len(urls) == 0 {
		return nil, http.StatusBadRequest, "urls must not be empty"
	}
	if limit := s.app.Config.Batch.MaxURLs; len(urls) > limit {
		return nil, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d urls per batch", limit)
	}
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = strings.TrimSpace(u)
	}
	return out, 0, ""
}

func (s *Server) workers(requested int) int {
	cfgWorkers := s.app.Config.Batch.Workers
	if requested <= 0 || (cfgWorkers > 0 && requested > cfgWorkers) {
		return cfgWorkers
	}
	return requested
}

func jobResult(it batch.Item) app.JobResult {
	r := app.JobResult{Index: it.Index, URL: it.URL, Result: it.Result}
	if it.Err != nil {
		_, r.Error = statusFor(it.Err)
		r.ErrorKind = it.ErrorKind()
	}
	return r
}

// handleExplain godoc
// @Summary Show the segmentation and feature vector of a URL
// @Tags classify
// @Produce json
// @Param url query string true "URL to explain"
// @Success 200 {object} assessor.Explanation
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /explain [get]
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, "missing url query parameter", "")
		return
	}
	ex, err := s.assessor.Explain(r.Context(), raw)
	if err != nil {
		s.writeClassifyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// handleTrusted godoc
// @Summary List trusted registered domains
// @Tags trusted
// @Produce json
// @Success 200 {object} TrustedResponse
// @Router /trusted [get]
func (s *Server) handleTrusted(w http.ResponseWriter, r *http.Request) {
	domains := s.app.Trusted.Domains()
	writeJSON(w, http.StatusOK, TrustedResponse{Count: len(domains), Domains: domains})
}

// Jobs (REST)

// handleStartJob godoc
// @Summary Start an asynchronous batch job
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body BatchRequest true "URLs to classify"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /jobs [post]
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var body BatchRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}
	urls, ok := s.checkBatch(w, r, body.URLs)
	if !ok {
		return
	}

	job, err := s.orchestrator.StartBatchJob(r.Context(), urls, s.workers(body.Workers))
	if err != nil {
		s.logger.Warn("starting batch job", logging.Field{Key: "error", Value: err})
		writeError(w, r, http.StatusTooManyRequests, err.Error(), "")
		return
	}
	s.logger.Info("started batch job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "urls", Value: len(urls)})
	writeJSON(w, http.StatusAccepted, s.orchestrator.GetJob(job.ID))
}

// handleGetJob godoc
// @Summary Get a job with its results
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, r, http.StatusNotFound, "job not found", "")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a running job
// @Tags jobs
// @Param jobID path string true "Job ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.orchestrator.CancelJob(jobID) {
		writeError(w, r, http.StatusNotFound, "no running job with that id", "")
		return
	}
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	w.WriteHeader(http.StatusNoContent)
}

// handleListJobs godoc
// @Summary List jobs without their results
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.ListJobs())
}

// WebSockets

// wsClassifyReply is one reply on /ws/classify.
type wsClassifyReply struct {
	URL    string           `json:"url"`
	Result *assessor.Result `json:"result,omitempty"`
	Error  *ErrorResponse   `json:"error,omitempty"`
}

// handleClassifyWS reads one URL per text message and replies with one JSON
// result per message, in order.
func (s *Server) handleClassifyWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err})
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", logging.Field{Key: "error", Value: err})
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		raw := strings.TrimSpace(string(data))
		reply := wsClassifyReply{URL: raw}
		res, err := s.assessor.Classify(ctx, raw)
		if err != nil {
			_, msg := statusFor(err)
			reply.Error = &ErrorResponse{Error: msg, Kind: assessor.Kind(err), RequestID: requestID(r)}
		} else {
			reply.Result = res
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

// handleJobWS expects one BatchRequest message, starts a job and streams its
// events until the job ends. Closing the socket cancels the job.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err})
		return
	}
	defer conn.Close()

	var body BatchRequest
	if err := conn.ReadJSON(&body); err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: "invalid JSON", RequestID: requestID(r)})
		return
	}
	urls, status, msg := s.normalizeBatch(body.URLs)
	if status != 0 {
		_ = conn.WriteJSON(ErrorResponse{Error: msg, RequestID: requestID(r)})
		return
	}

	job, err := s.orchestrator.StartBatchJob(r.Context(), urls, s.workers(body.Workers))
	if err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error(), RequestID: requestID(r)})
		return
	}
	s.logger.Info("started batch job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(s.orchestrator.GetJob(job.ID))

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}
