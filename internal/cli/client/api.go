package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

type Session struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type WebResult struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

type Answer struct {
	Answer     string      `json:"answer"`
	Sources    []string    `json:"sources"`
	WebResults []WebResult `json:"web_results"`
	Warnings   []string    `json:"warnings,omitempty"`
	Failed     bool        `json:"failed"`
	Turns      int         `json:"turns"`
}

type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type TurnPage struct {
	Items   []Turn `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

type Digest struct {
	Text       string      `json:"text"`
	WebResults []WebResult `json:"web_results"`
	Warnings   []string    `json:"warnings,omitempty"`
	Failed     bool        `json:"failed"`
}

type SourceStatus struct {
	File     string `json:"file"`
	Segments int    `json:"segments"`
}

type KnowledgeStatus struct {
	Segments int            `json:"segments"`
	Sources  []SourceStatus `json:"sources"`
}

func (c *APIClient) CreateSession(ctx context.Context) (*Session, error) {
	resp, err := c.Post(ctx, "/sessions", nil)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := decodeData(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *APIClient) Ask(ctx context.Context, sessionID, content string) (*Answer, error) {
	resp, err := c.Post(ctx, "/sessions/"+url.PathEscape(sessionID)+"/turns", map[string]string{"content": content})
	if err != nil {
		return nil, err
	}
	var answer Answer
	if err := decodeData(resp, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (c *APIClient) Turns(ctx context.Context, sessionID, cursor string, limit int) (*TurnPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/turns"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var page TurnPage
	if err := decodeData(resp, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *APIClient) Digest(ctx context.Context) (*Digest, error) {
	resp, err := c.Post(ctx, "/digest", nil)
	if err != nil {
		return nil, err
	}
	var digest Digest
	if err := decodeData(resp, &digest); err != nil {
		return nil, err
	}
	return &digest, nil
}

func (c *APIClient) KnowledgeStatus(ctx context.Context) (*KnowledgeStatus, error) {
	resp, err := c.Get(ctx, "/knowledge/status")
	if err != nil {
		return nil, err
	}
	var status KnowledgeStatus
	if err := decodeData(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health reports whether the server answers its health check.
func (c *APIClient) Health(ctx context.Context) error {
	_, err := c.Get(ctx, "/health")
	return err
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
