package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"llmbridge/pkg/llm"
	"llmbridge/pkg/logger"
	"llmbridge/pkg/manager"
)

// Server exposes a Manager over HTTP/JSON.
type Server struct {
	mgr *manager.Manager

	mu   sync.Mutex
	http *http.Server
}

// NewServer initialises the HTTP facade.
func NewServer(mgr *manager.Manager) *Server {
	return &Server{mgr: mgr}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	// Go 1.22+ pattern routing
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /v1/providers", s.handleProviders)
	mux.HandleFunc("PUT /v1/default", s.handleSetDefault)
	mux.HandleFunc("POST /v1/generate", s.handleGenerate)
	mux.HandleFunc("POST /v1/translate", s.handleTranslate)
	mux.HandleFunc("POST /v1/code/generate", s.handleGenerateCode)
	mux.HandleFunc("POST /v1/code/explain", s.handleExplainCode)
	mux.HandleFunc("POST /v1/summarize", s.handleSummarize)
	mux.HandleFunc("POST /v1/math", s.handleMath)
	mux.HandleFunc("POST /v1/reasoning", s.handleReasoning)
	mux.HandleFunc("POST /v1/agent", s.handleAgent)
	mux.HandleFunc("POST /v1/compare", s.handleCompare)
	return mux
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = server
	s.mu.Unlock()

	logger.Info("starting llmbridge server", "addr", addr, "default_provider", s.mgr.DefaultProvider())
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.http
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

type providerInfo struct {
	Name         string           `json:"name"`
	Custom       bool             `json:"custom,omitempty"`
	Capabilities []llm.Capability `json:"capabilities,omitempty"`
	Error        string           `json:"error,omitempty"`
}

type providersResponse struct {
	Default   string            `json:"default"`
	Providers []providerInfo    `json:"providers"`
	Aliases   map[string]string `json:"model_aliases"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	custom := make(map[string]bool)
	for _, name := range s.mgr.CustomProviders() {
		custom[name] = true
	}

	resp := providersResponse{
		Default: s.mgr.DefaultProvider(),
		Aliases: s.mgr.Aliases(),
	}
	for _, name := range s.mgr.AvailableProviders() {
		info := providerInfo{Name: name, Custom: custom[name]}
		if p, err := s.mgr.GetProvider(name); err != nil {
			info.Error = err.Error()
		} else {
			info.Capabilities = p.Capabilities().List()
		}
		resp.Providers = append(resp.Providers, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

type setDefaultRequest struct {
	Provider string `json:"provider"`
}

func (s *Server) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	var req setDefaultRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.mgr.SetDefaultProvider(req.Provider); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"default": s.mgr.DefaultProvider()})
}

type generateRequest struct {
	Prompt   string     `json:"prompt"`
	Params   llm.Params `json:"params,omitempty"`
	Provider string     `json:"provider,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.GenerateText(r.Context(), req.Prompt, req.Params, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type translateRequest struct {
	Text     string `json:"text"`
	Target   string `json:"target_language"`
	Source   string `json:"source_language,omitempty"`
	Provider string `json:"provider,omitempty"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.TranslateText(r.Context(), req.Text, req.Target, req.Source, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type codeRequest struct {
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.GenerateCode(r.Context(), req.Description, req.Language, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type explainRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	Provider string `json:"provider,omitempty"`
}

func (s *Server) handleExplainCode(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.ExplainCode(r.Context(), req.Code, req.Language, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type summarizeRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.SummarizeText(r.Context(), req.Text, req.MaxLength, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type mathRequest struct {
	Problem  string `json:"problem"`
	Provider string `json:"provider,omitempty"`
}

func (s *Server) handleMath(w http.ResponseWriter, r *http.Request) {
	var req mathRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.SolveMath(r.Context(), req.Problem, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type reasoningRequest struct {
	Question string         `json:"question"`
	Context  map[string]any `json:"context,omitempty"`
	Provider string         `json:"provider,omitempty"`
}

func (s *Server) handleReasoning(w http.ResponseWriter, r *http.Request) {
	var req reasoningRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.PerformReasoning(r.Context(), req.Question, req.Context, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type agentRequest struct {
	Role     string         `json:"role"`
	Task     string         `json:"task"`
	Context  map[string]any `json:"context,omitempty"`
	Provider string         `json:"provider,omitempty"`
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.mgr.ActAsAgent(r.Context(), req.Role, req.Task, req.Context, req.Provider)
	writeResult(w, res.Outcome, res, err)
}

type compareRequest struct {
	Prompt    string     `json:"prompt"`
	Params    llm.Params `json:"params,omitempty"`
	Providers []string   `json:"providers"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decode(w, r, &req) {
		return
	}
	results, err := s.mgr.Compare(r.Context(), req.Prompt, req.Params, req.Providers...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request JSON: " + err.Error()})
		return false
	}
	return true
}

// writeResult maps a call outcome to a status: failures carried in the
// result are 502, returned errors go through writeError.
func writeResult(w http.ResponseWriter, out llm.Outcome, body any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if !out.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, body)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var cfgErr *llm.ConfigError
	switch {
	case errors.Is(err, manager.ErrInvalidProvider), errors.Is(err, manager.ErrInvalidRegistration):
		status = http.StatusBadRequest
	case errors.As(err, &cfgErr):
		logger.Error("provider misconfigured", "provider", cfgErr.Provider, "field", cfgErr.Field)
	default:
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
