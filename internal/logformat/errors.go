package logformat

import "errors"

var (
	// ErrUnsupportedFormat is returned when no catalog entry recognizes the
	// input, or when splitting is attempted without a detection pattern.
	ErrUnsupportedFormat = errors.New("unsupported or unknown log format")

	// ErrInvalidInput is returned for malformed arguments such as empty
	// content, a non-positive chunk size or empty pattern lists.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPattern is returned when a detect or extract pattern does not
	// compile, or declares the same group name twice.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrNoEntriesMatched reports that extraction produced nothing. The
	// single-format Normalize path surfaces this through Result instead.
	ErrNoEntriesMatched = errors.New("no entries matched")
)
