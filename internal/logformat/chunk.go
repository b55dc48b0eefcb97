package logformat

import (
	"fmt"
	"strings"
)

// Chunk partitions text into segments of at most maxSize characters (runes)
// for prompts with a bounded context. Text that fits is returned as a single
// trimmed chunk. Longer text is cut at fixed offsets into ceil(n/maxSize)
// slices, each trimmed, and slices that trim to nothing are dropped.
//
// Cuts ignore record boundaries, so a log entry can straddle two chunks.
// Callers that need whole records should Split first.
func Chunk(text string, maxSize int) ([]string, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, maxSize)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: log content is empty", ErrInvalidInput)
	}

	runes := []rune(text)
	if len(runes) <= maxSize {
		return []string{strings.TrimSpace(text)}, nil
	}

	n := (len(runes) + maxSize - 1) / maxSize
	chunks := make([]string, 0, n)
	for i := 0; i < n; i++ {
		end := min((i+1)*maxSize, len(runes))
		if c := strings.TrimSpace(string(runes[i*maxSize : end])); c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}
