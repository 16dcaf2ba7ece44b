package domain

import (
	"fmt"
	"sort"
	"strings"
)

// MaxSegmentChars is the upper bound on the rune length of a segment.
const MaxSegmentChars = 2000

// Segment is a fixed-size slice of a source document's extracted text,
// the unit of retrieval.
type Segment struct {
	ID         string
	Text       string
	SourceFile string
	Index      int
}

// RetrievedSegment is a segment returned from a nearest-neighbour lookup.
type RetrievedSegment struct {
	Segment
	Distance float32
}

// SegmentID derives the segment identifier from its source file and index.
func SegmentID(sourceFile string, index int) string {
	return fmt.Sprintf("%s_%d", sourceFile, index)
}

// NewSegment creates a Segment with a derived ID.
func NewSegment(sourceFile string, index int, text string) Segment {
	return Segment{
		ID:         SegmentID(sourceFile, index),
		Text:       text,
		SourceFile: sourceFile,
		Index:      index,
	}
}

// ValidateSegment validates a Segment instance
func ValidateSegment(s Segment) error {
	if strings.TrimSpace(s.SourceFile) == "" {
		return invalidSegment("segment source file is required")
	}
	if s.Index < 0 {
		return invalidSegment("segment index cannot be negative")
	}
	if s.ID != SegmentID(s.SourceFile, s.Index) {
		return invalidSegment(fmt.Sprintf("segment ID %q does not match source and index", s.ID))
	}
	if len([]rune(s.Text)) > MaxSegmentChars {
		return invalidSegment("segment text exceeds maximum length")
	}
	return nil
}

func invalidSegment(message string) error {
	return NewDomainErrorWithCause(ErrCodeValidation, message, ErrInvalidSegment)
}

// UniqueSources returns the sorted, de-duplicated source files of the given hits.
func UniqueSources(segments []RetrievedSegment) []string {
	seen := make(map[string]struct{}, len(segments))
	sources := make([]string, 0, len(segments))
	for _, s := range segments {
		if _, ok := seen[s.SourceFile]; ok {
			continue
		}
		seen[s.SourceFile] = struct{}{}
		sources = append(sources, s.SourceFile)
	}
	sort.Strings(sources)
	return sources
}
