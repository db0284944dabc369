package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// SearchRequest is the body of a search call
// @Description Retrieval request across one or more source collections
type SearchRequest struct {
	Query           string          `json:"query" example:"Drucker klemmt"`
	Sources         []string        `json:"sources" example:"jira,wiki"`
	SearchType      string          `json:"searchType" example:"Hybrid" enums:"Keyword,Embedding,Hybrid"`
	TopK            int             `json:"topK" example:"10"`
	Generative      bool            `json:"enableGenerative" example:"false"`
	PromptExtension string          `json:"promptExtension,omitempty"`
	GenerativeDocs  *int            `json:"generativeDocs,omitempty" example:"1"`
	BM25Weight      *float64        `json:"bm25Weight,omitempty" example:"1.0"`
	EmbeddingWeight *float64        `json:"embeddingWeight,omitempty" example:"35.0"`
	Filters         *domain.Filters `json:"filters,omitempty"`
}

// toQuery maps the request onto a domain query. Unset weights stay nil so
// the search service falls back to the configured ones.
func (r SearchRequest) toQuery() domain.SearchQuery {
	q := domain.SearchQuery{
		Text:            r.Query,
		Collections:     r.Sources,
		Mode:            domain.SearchMode(r.SearchType),
		TopK:            r.TopK,
		Generative:      r.Generative,
		PromptExtension: r.PromptExtension,
		GenerativeDocs:  domain.DefaultGenerativeDocs,
		BM25Weight:      r.BM25Weight,
		EmbeddingWeight: r.EmbeddingWeight,
		Filters:         r.Filters,
	}
	if r.GenerativeDocs != nil {
		q.GenerativeDocs = *r.GenerativeDocs
	}
	return q
}

// GenerateRequest is the body of a raw generation call
type GenerateRequest struct {
	Prompt string `json:"prompt" example:"Fasse die Druckerprobleme zusammen"`
}

// DocQueryRequest asks a question about one stored document
type DocQueryRequest struct {
	Index     string `json:"index" example:"jira"`
	DocID     string `json:"doc_id" example:"PROJ-123"`
	UserQuery string `json:"user_query" example:"Wie wurde das Problem gelöst?"`
}

// LLMResponse carries a language model answer
type LLMResponse struct {
	Response string `json:"response"`
}

// ReindexHTTPRequest asks for one collection to be reindexed
type ReindexHTTPRequest struct {
	Collection string `json:"collection" example:"jira"`
	BatchSize  int    `json:"batchSize,omitempty" example:"128"`
	ScrollTTL  string `json:"scrollTtl,omitempty" example:"2m"`
}

// ReindexAllRequest carries the optional batch parameters of a full reindex
type ReindexAllRequest struct {
	BatchSize int    `json:"batchSize,omitempty" example:"128"`
	ScrollTTL string `json:"scrollTtl,omitempty" example:"2m"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Reports whether the document store is reachable
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "Document store unreachable"
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.catalogService.Health(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleCapabilities godoc
// @Summary      Get capabilities
// @Description  Lists the search modes and operations the running AI services allow
// @Tags         Health
// @Produce      json
// @Success      200  {object}  domain.Capabilities
// @Failure      404  {object}  ErrorResponse  "Not reported by this server"
// @Router       /capabilities [get]
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if s.capabilities == nil {
		writeError(w, http.StatusNotFound, "capabilities not available")
		return
	}
	writeJSON(w, http.StatusOK, s.capabilities.Capabilities())
}

// handleDocs serves the registered OpenAPI document
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Catalog endpoints

// handleListSources godoc
// @Summary      List sources
// @Description  Lists the configured source collections
// @Tags         Sources
// @Produce      json
// @Success      200  {array}   domain.SourceInfo
// @Router       /sources [get]
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := s.catalogService.Sources(r.Context())
	if sources == nil {
		sources = []domain.SourceInfo{}
	}
	writeJSON(w, http.StatusOK, sources)
}

// Search endpoints

// handleSearch godoc
// @Summary      Search
// @Description  Keyword, embedding or hybrid search across source collections, optionally with a generated answer
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      SearchRequest  true  "Search request"
// @Success      200      {object}  domain.SearchOutcome
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      502      {object}  ErrorResponse  "Language model failed"
// @Failure      503      {object}  ErrorResponse  "Document store or embedding service unavailable"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.searchService.Search(r.Context(), req.toQuery())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if outcome.Results == nil {
		outcome.Results = []domain.RetrievedDocument{}
	}
	writeJSON(w, http.StatusOK, outcome)
}

// Language model endpoints

// handleGenerate godoc
// @Summary      Generate
// @Description  Passes a raw prompt to the language model
// @Tags         LLM
// @Accept       json
// @Produce      json
// @Param        request  body      GenerateRequest  true  "Prompt"
// @Success      200      {object}  LLMResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      502      {object}  ErrorResponse  "Language model failed"
// @Router       /generate [post]
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.answerService.Generate(r.Context(), req.Prompt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LLMResponse{Response: answer})
}

// handleDocQuery godoc
// @Summary      Ask about a document
// @Description  Answers a question about one stored document
// @Tags         LLM
// @Accept       json
// @Produce      json
// @Param        request  body      DocQueryRequest  true  "Document question"
// @Success      200      {object}  LLMResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request or empty document"
// @Failure      404      {object}  ErrorResponse  "Document not found"
// @Failure      502      {object}  ErrorResponse  "Language model failed"
// @Router       /llm/doc_query [post]
func (s *Server) handleDocQuery(w http.ResponseWriter, r *http.Request) {
	var req DocQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.answerService.AnswerFromDocument(r.Context(), req.Index, req.DocID, req.UserQuery)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LLMResponse{Response: answer})
}

// Auth endpoints

// handleIssueToken godoc
// @Summary      Issue operator token
// @Description  Exchanges the operator API key for a bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.TokenRequest  true  "Operator key"
// @Success      200      {object}  domain.TokenResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials"
// @Router       /auth/token [post]
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if s.authService == nil {
		writeError(w, http.StatusServiceUnavailable, "operator authentication not configured")
		return
	}

	var req domain.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.IssueToken(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reindex endpoints

// handleReindex godoc
// @Summary      Reindex a collection
// @Description  Queues an embedding reindex of one collection, or runs it inline with wait=true (operator only)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ReindexHTTPRequest  true  "Collection to reindex"
// @Param        wait     query     bool                false "Run synchronously"
// @Success      200      {object}  domain.ReindexRun
// @Success      202      {object}  domain.Task
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - operator only"
// @Failure      409      {object}  ErrorResponse  "Reindex already running"
// @Router       /admin/reindex [post]
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var body ReindexHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	scrollTTL, ok := parseScrollTTL(w, body.ScrollTTL)
	if !ok {
		return
	}
	req := domain.ReindexRequest{
		Collection: body.Collection,
		BatchSize:  body.BatchSize,
		ScrollTTL:  scrollTTL,
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		run, err := s.reindexService.Reindex(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
		return
	}

	task, err := s.reindexService.Enqueue(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

// handleReindexAll godoc
// @Summary      Reindex all collections
// @Description  Queues an embedding reindex of every embeddings-enabled collection (operator only)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ReindexAllRequest  false  "Batch parameters"
// @Success      202      {object}  domain.Task
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - operator only"
// @Failure      503      {object}  ErrorResponse  "Task queue unavailable"
// @Router       /admin/reindex/all [post]
func (s *Server) handleReindexAll(w http.ResponseWriter, r *http.Request) {
	var body ReindexAllRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	scrollTTL, ok := parseScrollTTL(w, body.ScrollTTL)
	if !ok {
		return
	}

	task, err := s.reindexService.EnqueueAll(r.Context(), body.BatchSize, scrollTTL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

// handleListRuns godoc
// @Summary      List reindex runs
// @Description  Lists recent reindex runs, newest first (operator only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        collection  query     string  false  "Only runs of this collection"
// @Param        limit       query     int     false  "Maximum number of runs"
// @Success      200         {array}   domain.ReindexRun
// @Failure      401         {object}  ErrorResponse  "Unauthorized"
// @Failure      403         {object}  ErrorResponse  "Forbidden - operator only"
// @Router       /admin/reindex/runs [get]
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.reindexService.ListRuns(r.Context(), r.URL.Query().Get("collection"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if runs == nil {
		runs = []*domain.ReindexRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Helper functions

func parseScrollTTL(w http.ResponseWriter, v string) (time.Duration, bool) {
	if v == "" {
		return 0, true
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scrollTtl")
		return 0, false
	}
	return d, true
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrReindexInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLanguageModel):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
