// Package pdfextract extracts plain text from PDF documents and splits it
// into fixed-size, overlapping chunks suitable for embedding.
package pdfextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultChunkSize and DefaultOverlap are the fallback chunking
// parameters used when a course or job does not override them.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 150
)

// ExtractError wraps a failure to read or parse a PDF's content.
type ExtractError struct {
	Err error
}

func (e *ExtractError) Error() string { return fmt.Sprintf("pdfextract: %v", e.Err) }
func (e *ExtractError) Unwrap() error { return e.Err }

// ExtractText reads the full plain-text content of a PDF from r, which
// must support ReaderAt and know its own size (as io.ReadSeeker over a
// downloaded blob does via a bytes.Reader).
func ExtractText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", &ExtractError{Err: err}
	}

	text, err := reader.GetPlainText()
	if err != nil {
		return "", &ExtractError{Err: err}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", &ExtractError{Err: err}
	}

	return strings.TrimSpace(buf.String()), nil
}

// ChunkText splits text into chunks of chunkSize runes, each chunk
// overlapping the previous one by overlap runes. Returns nil (not an
// error) for empty input. Panics are never used — invalid parameters
// are reported as errors so callers can surface a 400 at the API
// boundary. Chunking operates on runes, not bytes, so a multi-byte
// UTF-8 character is never split across two chunks.
func ChunkText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("pdfextract: chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("pdfextract: overlap must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("pdfextract: overlap (%d) must be less than chunk size (%d)", overlap, chunkSize)
	}

	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	var chunks []string
	textLen := len(runes)
	for start := 0; start < textLen; {
		end := start + chunkSize
		sliceEnd := end
		if sliceEnd > textLen {
			sliceEnd = textLen
		}
		chunks = append(chunks, string(runes[start:sliceEnd]))
		start = end - overlap
	}

	return chunks, nil
}

// ExtractAndChunk extracts text from the PDF in r and splits it using
// ChunkText. Returns an empty, non-error chunk list if the PDF contains
// no extractable text (e.g. a scanned image with no text layer).
func ExtractAndChunk(r io.ReaderAt, size int64, chunkSize, overlap int) ([]string, error) {
	text, err := ExtractText(r, size)
	if err != nil {
		return nil, err
	}
	return ChunkText(text, chunkSize, overlap)
}
