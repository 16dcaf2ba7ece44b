package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/cloo-solutions/medassist/internal/api"
	"github.com/cloo-solutions/medassist/internal/service"
)

type KnowledgeService interface {
	Count(ctx context.Context) (int, error)
	Sources(ctx context.Context) (map[string]int, error)
}

type IngestService interface {
	Ingest(ctx context.Context) (*service.IngestReport, error)
}

type KnowledgeHandler struct {
	svc      KnowledgeService
	ingestor IngestService
}

func NewKnowledgeHandler(svc KnowledgeService, ingestor IngestService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, ingestor: ingestor}
}

type SourceResponse struct {
	File     string `json:"file"`
	Segments int    `json:"segments"`
}

type KnowledgeStatusResponse struct {
	Segments int              `json:"segments"`
	Sources  []SourceResponse `json:"sources"`
}

func (h *KnowledgeHandler) Status(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Count(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	sources, err := h.svc.Sources(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := KnowledgeStatusResponse{
		Segments: count,
		Sources:  make([]SourceResponse, 0, len(sources)),
	}
	for file, n := range sources {
		resp.Sources = append(resp.Sources, SourceResponse{File: file, Segments: n})
	}
	sort.Slice(resp.Sources, func(i, j int) bool {
		return resp.Sources[i].File < resp.Sources[j].File
	})

	api.Success(w, http.StatusOK, resp)
}

// Ingest indexes the document source. It is a no-op once the store holds
// segments.
func (h *KnowledgeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		api.Error(w, http.StatusServiceUnavailable, "ingestion is not configured")
		return
	}

	report, err := h.ingestor.Ingest(context.WithoutCancel(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, report)
}
