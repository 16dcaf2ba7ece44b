package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/medassist/internal/api"
	"github.com/cloo-solutions/medassist/internal/service"
)

type DigestService interface {
	Digest(ctx context.Context) (*service.Digest, error)
}

type DigestHandler struct {
	svc DigestService
}

func NewDigestHandler(svc DigestService) *DigestHandler {
	return &DigestHandler{svc: svc}
}

type DigestResponse struct {
	Text       string              `json:"text"`
	WebResults []WebResultResponse `json:"web_results"`
	Warnings   []string            `json:"warnings,omitempty"`
	Failed     bool                `json:"failed"`
}

func (h *DigestHandler) Create(w http.ResponseWriter, r *http.Request) {
	digest, err := h.svc.Digest(context.WithoutCancel(r.Context()))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DigestResponse{
		Text:       digest.Text,
		WebResults: webResultsToResponse(digest.WebResults),
		Warnings:   digest.Warnings,
		Failed:     digest.Failed,
	})
}
