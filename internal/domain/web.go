package domain

import "strings"

// SearchMode selects the web search profile
type SearchMode string

const (
	// SearchModeGeneral is used when answering user questions.
	SearchModeGeneral SearchMode = "general"
	// SearchModeNews biases results towards recent news, used by the digest.
	SearchModeNews SearchMode = "news"
)

// WebResult is a single result from the web search provider. It is
// produced per query and never persisted.
type WebResult struct {
	URL           string
	Title         string
	PublishedDate string
	Content       string
}

// HasPublishedDate reports whether the provider returned a publish date.
func (r WebResult) HasPublishedDate() bool {
	return strings.TrimSpace(r.PublishedDate) != ""
}

// IsValidSearchMode checks if a SearchMode is valid
func IsValidSearchMode(m SearchMode) bool {
	switch m {
	case SearchModeGeneral, SearchModeNews:
		return true
	}
	return false
}
