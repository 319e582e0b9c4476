package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/owaspscan/docs/swagger" // registers the API spec with swag
	"github.com/raysh454/owaspscan/internal/config"
	"github.com/raysh454/owaspscan/internal/engine"
	"github.com/raysh454/owaspscan/internal/history"
	"github.com/raysh454/owaspscan/internal/live"
	"github.com/raysh454/owaspscan/internal/logging"
	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/report"
)

// ErrEmptyCode is returned for submissions without any code.
var ErrEmptyCode = errors.New("code must not be empty")

// jsonOverhead is the slack allowed on top of MaxCodeBytes for the rest
// of a request body.
const jsonOverhead = 64 << 10

// Server is the HTTP + WebSocket API surface for owaspscan.
type Server struct {
	cfg       *config.Config
	engine    *engine.Engine
	history   *history.Store
	debouncer *live.Debouncer
	router    chi.Router
	upgrader  websocket.Upgrader
	logger    logging.Logger
	closeOnce sync.Once
}

// NewServer creates a Server with its own engine, history and debouncer.
func NewServer(cfg Config) (*Server, error) {
	appCfg := cfg.AppConfig
	if appCfg == nil {
		appCfg = config.DefaultConfig()
	}
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	eng, err := engine.New(appCfg.Engine, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:     appCfg,
		engine:  eng,
		history: history.NewStore(appCfg.History.MaxEntries),
		debouncer: live.NewDebouncer(eng, live.Config{
			Delay:  appCfg.Server.Debounce,
			Buffer: live.DefaultBuffer,
		}, logger),
		router: r,
		logger: logger.With(logging.Component("server")),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}

	s.routes()
	return s, nil
}

// Engine returns the underlying engine for advanced use (tests, etc.).
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// History returns the analysis history.
func (s *Server) History() *history.Store {
	return s.history
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/analyze", s.optionsHandler("POST"))
	r.Options("/analyze/sarif", s.optionsHandler("POST"))
	r.Options("/history", s.optionsHandler("GET, DELETE"))
	r.Options("/history/{id}", s.optionsHandler("GET"))
	r.Options("/summary", s.optionsHandler("GET"))
	r.Options("/compare", s.optionsHandler("POST"))
	r.Options("/rules", s.optionsHandler("GET"))
	r.Options("/owasp", s.optionsHandler("GET"))
	r.Options("/ws/analyze", s.optionsHandler("GET"))

	// Analysis
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/analyze/sarif", s.handleAnalyzeSARIF)
	r.Post("/compare", s.handleCompare)

	// History and dashboard
	r.Get("/history", s.handleListHistory)
	r.Get("/history/{id}", s.handleGetHistory)
	r.Delete("/history", s.handleClearHistory)
	r.Get("/summary", s.handleSummary)

	// Reference data
	r.Get("/rules", s.handleListRules)
	r.Get("/owasp", s.handleOWASP)
	r.Get("/healthz", s.handleHealth)

	// WebSocket for live analysis
	r.Get("/ws/analyze", s.handleLiveWS)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.cfg.Server.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case s.originAllowed("*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && s.originAllowed(origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler. Submitted code is never logged,
// only its declared size.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	if r.ContentLength > 0 {
		fields = append(fields, logging.Field{Key: "content_length", Value: r.ContentLength})
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close stops pending live analyses.
func (s *Server) Close() {
	s.closeOnce.Do(s.debouncer.Close)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
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

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeBody decodes a JSON body capped at MaxCodeBytes plus overhead.
// It writes the error response itself and reports whether decoding
// succeeded.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxCodeBytes+jsonOverhead)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.logger.Warn("decoding request body", logging.Err(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// checkCode enforces the submission preconditions and maps violations
// to 400 or 413.
func (s *Server) checkCode(w http.ResponseWriter, code string) bool {
	if model.IsBlank(code) {
		writeError(w, http.StatusBadRequest, ErrEmptyCode.Error())
		return false
	}
	if int64(len(code)) > s.cfg.Server.MaxCodeBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("code exceeds %d bytes", s.cfg.Server.MaxCodeBytes))
		return false
	}
	return true
}

// analyze runs the engine, honouring an explicit language label.
func (s *Server) analyze(w http.ResponseWriter, code, lang string) (model.AnalysisResult, bool) {
	if strings.TrimSpace(lang) == "" {
		return s.engine.Analyze(code), true
	}
	l, ok := model.ParseLanguage(lang)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown language %q", lang))
		return model.AnalysisResult{}, false
	}
	return s.engine.AnalyzeAs(code, l), true
}

// --- HTTP handlers ---

// Analysis

// handleAnalyze godoc
// @Summary Analyze code
// @Description Detects OWASP Top 10 issues, scores them and proposes a secure rewrite. The result is recorded in history.
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Code to analyze"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /analyze [post]
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if !s.decodeBody(w, r, &body) || !s.checkCode(w, body.Code) {
		return
	}

	result, ok := s.analyze(w, body.Code, body.Language)
	if !ok {
		return
	}
	entry := s.history.Add(body.Code, result)
	s.logger.Info("analyzed code",
		logging.Field{Key: "history_id", Value: entry.ID},
		logging.Field{Key: "language", Value: string(result.Language)},
		logging.Field{Key: "findings", Value: len(result.Vulnerabilities)},
		logging.Field{Key: "risk_score", Value: result.RiskScore},
	)
	writeJSON(w, http.StatusOK, AnalyzeResponse{AnalysisResult: result, HistoryID: entry.ID})
}

// handleAnalyzeSARIF godoc
// @Summary Analyze code and return SARIF
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Code to analyze"
// @Success 200 {object} object
// @Failure 400 {object} ErrorResponse
// @Router /analyze/sarif [post]
func (s *Server) handleAnalyzeSARIF(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if !s.decodeBody(w, r, &body) || !s.checkCode(w, body.Code) {
		return
	}
	result, ok := s.analyze(w, body.Code, body.Language)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/sarif+json")
	if err := report.WriteSARIF(w, result, body.URI, s.engine.Catalog()); err != nil {
		s.logger.Warn("writing sarif", logging.Err(err))
	}
}

// handleCompare godoc
// @Summary Compare code with its secure rewrite
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body CompareRequest true "Code or history entry"
// @Success 200 {object} report.Comparison
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /compare [post]
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	var code string
	var result model.AnalysisResult
	switch {
	case body.HistoryID != "":
		entry, err := s.history.Get(body.HistoryID)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		code, result = entry.Code, entry.Result
	default:
		if !s.checkCode(w, body.Code) {
			return
		}
		var ok bool
		if result, ok = s.analyze(w, body.Code, body.Language); !ok {
			return
		}
		code = body.Code
	}

	ctx := report.DefaultContextLines
	if body.Context != nil {
		if *body.Context < 0 {
			writeError(w, http.StatusBadRequest, "context must not be negative")
			return
		}
		ctx = *body.Context
	}
	writeJSON(w, http.StatusOK, report.Compare(code, result.SecureCode, result.Vulnerabilities, ctx))
}

// History

// handleListHistory godoc
// @Summary List recent analyses
// @Tags history
// @Produce json
// @Success 200 {array} history.Entry
// @Router /history [get]
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.history.List()
	s.logger.Info("listed history", logging.Field{Key: "count", Value: len(entries)})
	writeJSON(w, http.StatusOK, entries)
}

// handleGetHistory godoc
// @Summary Get one analysis
// @Tags history
// @Produce json
// @Param id path string true "History entry ID"
// @Success 200 {object} history.Entry
// @Failure 404 {object} ErrorResponse
// @Router /history/{id} [get]
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.history.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleClearHistory godoc
// @Summary Clear history
// @Tags history
// @Success 204
// @Router /history [delete]
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.history.Clear()
	s.logger.Info("cleared history")
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary godoc
// @Summary Dashboard summary over history
// @Tags history
// @Produce json
// @Success 200 {object} report.Summary
// @Router /summary [get]
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Summarize(s.history.Results()))
}

// Reference data

// handleListRules godoc
// @Summary List detection rules
// @Tags reference
// @Produce json
// @Param language query string false "Only rules for this language"
// @Success 200 {array} rules.Info
// @Failure 400 {object} ErrorResponse
// @Router /rules [get]
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	var lang model.Language
	if v := r.URL.Query().Get("language"); v != "" {
		l, ok := model.ParseLanguage(v)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown language %q", v))
			return
		}
		lang = l
	}
	writeJSON(w, http.StatusOK, s.engine.Catalog().Describe(lang))
}

// handleOWASP godoc
// @Summary OWASP Top 10 reference
// @Tags reference
// @Produce json
// @Success 200 {array} model.CategoryInfo
// @Router /owasp [get]
func (s *Server) handleOWASP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Categories())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Rules: s.engine.Catalog().Len()})
}

// WebSockets

// handleLiveWS streams debounced analyses. Each connection is its own
// debouncer key; every {code} message replaces the pending analysis.
func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.cfg.Server.MaxCodeBytes + jsonOverhead)

	key := uuid.NewString()
	events := s.debouncer.Events(key)
	outbound := make(chan any, 4)
	s.logger.Info("live session opened", logging.Field{Key: "session", Value: key})

	// All writes happen on this goroutine; gorilla connections allow a
	// single concurrent writer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case msg := <-outbound:
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if model.IsBlank(msg.Code) {
			s.sendLive(outbound, ErrEmptyCode.Error())
			continue
		}
		if int64(len(msg.Code)) > s.cfg.Server.MaxCodeBytes {
			s.sendLive(outbound, fmt.Sprintf("code exceeds %d bytes", s.cfg.Server.MaxCodeBytes))
			continue
		}
		if _, err := s.debouncer.Submit(key, msg.Code); err != nil {
			s.sendLive(outbound, err.Error())
			break
		}
	}

	s.debouncer.Release(key)
	<-done
	s.logger.Info("live session closed", logging.Field{Key: "session", Value: key})
}

func (s *Server) sendLive(outbound chan<- any, msg string) {
	ev := map[string]string{"type": "error", "error": msg}
	select {
	case outbound <- ev:
	default:
	}
}
