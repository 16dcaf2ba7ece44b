package service

import "github.com/cloo-solutions/medassist/internal/domain"

// ChunkConfig controls how document text is cut into segments.
type ChunkConfig struct {
	Width  int
	Stride int
}

// DefaultChunkConfig yields 2000-rune windows every 1500 runes, so
// consecutive segments share 500 runes.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Width:  domain.MaxSegmentChars,
		Stride: 1500,
	}
}

func (c ChunkConfig) valid() bool {
	return c.Width > 0 && c.Stride > 0 && c.Stride <= c.Width && c.Width <= domain.MaxSegmentChars
}

// SegmentText cuts text into fixed windows of cfg.Width runes, one starting
// every cfg.Stride runes. The last window ends at the end of the text.
// Word and sentence boundaries are ignored.
func SegmentText(text string, cfg ChunkConfig) []string {
	if !cfg.valid() {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	windows := make([]string, 0, SegmentCount(len(runes), cfg))
	for start := 0; ; start += cfg.Stride {
		end := min(start+cfg.Width, len(runes))
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}

// SegmentCount is the number of windows SegmentText produces for a text of
// the given rune length: ceil(max(length-width, 0)/stride) + 1.
func SegmentCount(length int, cfg ChunkConfig) int {
	if !cfg.valid() {
		cfg = DefaultChunkConfig()
	}
	if length <= 0 {
		return 0
	}
	over := length - cfg.Width
	if over <= 0 {
		return 1
	}
	return (over+cfg.Stride-1)/cfg.Stride + 1
}

// BuildSegments segments text and tags every window with its source file.
func BuildSegments(sourceFile, text string, cfg ChunkConfig) []domain.Segment {
	windows := SegmentText(text, cfg)
	segments := make([]domain.Segment, len(windows))
	for i, w := range windows {
		segments[i] = domain.NewSegment(sourceFile, i, w)
	}
	return segments
}
