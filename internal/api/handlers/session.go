package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/medassist/internal/api"
	"github.com/cloo-solutions/medassist/internal/domain"
	"github.com/cloo-solutions/medassist/internal/pagination"
	"github.com/cloo-solutions/medassist/internal/service"
	"github.com/go-chi/chi/v5"
)

type SessionService interface {
	Create() *service.Session
	Get(id string) (*service.Session, error)
}

type SessionHandler struct {
	sessions SessionService
	analyzer service.Analyzer
}

func NewSessionHandler(sessions SessionService, analyzer service.Analyzer) *SessionHandler {
	return &SessionHandler{sessions: sessions, analyzer: analyzer}
}

type SubmitTurnRequest struct {
	Content string `json:"content"`
}

type SessionResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type TurnResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type WebResultResponse struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

type AnswerResponse struct {
	Answer     string              `json:"answer"`
	Sources    []string            `json:"sources"`
	WebResults []WebResultResponse `json:"web_results"`
	Warnings   []string            `json:"warnings,omitempty"`
	Failed     bool                `json:"failed"`
	Turns      int                 `json:"turns"`
}

func turnToResponse(t domain.Turn) TurnResponse {
	return TurnResponse{
		Role:      string(t.Role),
		Content:   t.Content,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}

func webResultsToResponse(results []domain.WebResult) []WebResultResponse {
	out := make([]WebResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, WebResultResponse{
			URL:           r.URL,
			Title:         r.Title,
			PublishedDate: r.PublishedDate,
		})
	}
	return out
}

func analysisToResponse(a *service.Analysis, turns int) *AnswerResponse {
	sources := a.Sources
	if sources == nil {
		sources = []string{}
	}
	return &AnswerResponse{
		Answer:     a.Answer,
		Sources:    sources,
		WebResults: webResultsToResponse(a.WebResults),
		Warnings:   a.Warnings,
		Failed:     a.Failed,
		Turns:      turns,
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Create()
	api.Success(w, http.StatusCreated, SessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
	})
}

func (h *SessionHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.sessions.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	limit, err := pagination.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"), session.ID)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	turns := session.Turns()
	items := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		items = append(items, turnToResponse(t))
	}

	api.Success(w, http.StatusOK, pagination.Page(items, cursor, limit))
}

// Submit runs one full turn. The turn is detached from the request context so
// a disconnecting client cannot leave the session without its answer.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.sessions.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	var req SubmitTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	analysis, err := session.Submit(context.WithoutCancel(r.Context()), h.analyzer, req.Content)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, analysisToResponse(analysis, session.Len()))
}
