// Package ingest turns uploaded bytes into text the parser can work on.
// Compressed payloads are unpacked, byte order marks honoured and invalid
// sequences replaced rather than rejected.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxSize bounds the decompressed size of a single document.
const DefaultMaxSize int64 = 256 << 20

// ErrTooLarge is returned when a document exceeds the size limit after
// decompression.
var ErrTooLarge = errors.New("document exceeds size limit")

// Compression identifies the container a payload arrived in.
type Compression string

const (
	None Compression = "none"
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Sniff reports the compression of raw by its magic bytes.
func Sniff(raw []byte) Compression {
	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		return Zstd
	case bytes.HasPrefix(raw, gzipMagic):
		return Gzip
	default:
		return None
	}
}

// Decode decompresses raw if needed and decodes it to UTF-8 text using
// DefaultMaxSize.
func Decode(raw []byte) (string, error) {
	return DecodeLimit(raw, DefaultMaxSize)
}

// DecodeLimit is like Decode with an explicit size limit.
func DecodeLimit(raw []byte, limit int64) (string, error) {
	data, err := decompress(raw, limit)
	if err != nil {
		return "", err
	}
	return DecodeText(data)
}

// DecodeText decodes data as UTF-8, or UTF-16 when a BOM says so. The BOM
// is dropped and invalid sequences become U+FFFD.
func DecodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decoding text: %w", err)
	}
	return string(out), nil
}

// ReadFile reads and decodes the document at path.
func ReadFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(raw)
}

// ReadAll reads up to limit bytes from r and decodes them.
func ReadAll(r io.Reader, limit int64) (string, error) {
	raw, err := readLimited(r, limit)
	if err != nil {
		return "", err
	}
	return DecodeLimit(raw, limit)
}

func decompress(raw []byte, limit int64) ([]byte, error) {
	switch Sniff(raw) {
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		data, err := readLimited(zr, limit)
		if err != nil {
			return nil, fmt.Errorf("reading gzip stream: %w", err)
		}
		return data, nil

	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		data, err := readLimited(zr, limit)
		if err != nil {
			return nil, fmt.Errorf("reading zstd stream: %w", err)
		}
		return data, nil

	default:
		if limit > 0 && int64(len(raw)) > limit {
			return nil, ErrTooLarge
		}
		return raw, nil
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
