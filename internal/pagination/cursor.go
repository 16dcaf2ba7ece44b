package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Cursor is a decoded position in an append-only list owned by Scope.
type Cursor struct {
	Scope  string
	Offset int
}

// PageResult represents a paginated result set
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
	ErrInvalidLimit  = errors.New("invalid limit")
)

// EncodeCursor creates a base64-encoded cursor for the given scope and offset
func EncodeCursor(scope string, offset int) string {
	return encodeRaw(scope + "|" + strconv.Itoa(offset))
}

// DecodeCursor decodes a cursor. The cursor must belong to scope; an empty
// cursor means the first page.
func DecodeCursor(cursor, scope string) (*Cursor, error) {
	if cursor == "" {
		return &Cursor{Scope: scope}, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	idx := strings.LastIndex(string(decoded), "|")
	if idx < 0 {
		return nil, ErrInvalidCursor
	}
	owner, rawOffset := string(decoded[:idx]), string(decoded[idx+1:])
	if owner != scope {
		return nil, ErrInvalidCursor
	}

	offset, err := strconv.Atoi(rawOffset)
	if err != nil || offset < 0 {
		return nil, ErrInvalidCursor
	}

	return &Cursor{Scope: owner, Offset: offset}, nil
}

// ParseLimit parses a limit query value, defaulting to DefaultLimit and
// capping at MaxLimit.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, ErrInvalidLimit
	}
	return min(limit, MaxLimit), nil
}

// Page slices items starting at the cursor offset. Items appended later do
// not shift earlier offsets, so a cursor stays valid as the list grows.
func Page[T any](items []T, cursor *Cursor, limit int) PageResult[T] {
	start := 0
	if cursor != nil {
		start = min(cursor.Offset, len(items))
	}
	end := min(start+limit, len(items))

	page := PageResult[T]{Items: items[start:end]}
	if page.Items == nil {
		page.Items = []T{}
	}
	if end < len(items) {
		page.HasMore = true
		scope := ""
		if cursor != nil {
			scope = cursor.Scope
		}
		page.Cursor = EncodeCursor(scope, end)
	}
	return page
}

func encodeRaw(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}
