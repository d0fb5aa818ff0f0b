package ingestion

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern matches a 36-character UUID in lowercase hex-and-dash form,
// the shape of both document_id and job_id.
var idPattern = regexp.MustCompile(`^[a-f0-9-]{36}$`)

const (
	// MaxDocumentIDs bounds the length of a SELECTED job's document_ids list.
	MaxDocumentIDs = 1000

	// MinMaxRetries, MaxMaxRetries bound the max_retries field.
	MinMaxRetries = 0
	MaxMaxRetries = 10

	// DefaultMaxRetries is applied when a caller omits max_retries.
	DefaultMaxRetries = 3
)

// NormalizeID lower-cases id and validates it against idPattern.
func NormalizeID(id string) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if !idPattern.MatchString(id) {
		return "", newJobError("ingestion: id must match %s, got %q", idPattern.String(), id)
	}
	return id, nil
}

// ValidateDocumentIDs checks the length cap on a SELECTED job's explicit
// document set and normalizes each entry.
func ValidateDocumentIDs(ids []string) ([]string, error) {
	if len(ids) > MaxDocumentIDs {
		return nil, newJobError("ingestion: document_ids length %d exceeds max %d", len(ids), MaxDocumentIDs)
	}
	normalized := make([]string, len(ids))
	for i, id := range ids {
		n, err := NormalizeID(id)
		if err != nil {
			return nil, err
		}
		normalized[i] = n
	}
	return normalized, nil
}

// ValidateMaxRetries clamps-by-rejection: returns an error if retries is
// outside [MinMaxRetries, MaxMaxRetries].
func ValidateMaxRetries(retries int) error {
	if retries < MinMaxRetries || retries > MaxMaxRetries {
		return newJobError("ingestion: max_retries must be in [%d, %d], got %d", MinMaxRetries, MaxMaxRetries, retries)
	}
	return nil
}

// ValidateChunkParams enforces the PDF extractor's chunking contract
// (§4.4) at the configuration boundary, so a misconfigured chunk_size or
// chunk_overlap is rejected before any job is created.
func ValidateChunkParams(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("ingestion: chunk_size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return fmt.Errorf("ingestion: chunk_overlap must be non-negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("ingestion: chunk_overlap (%d) must be less than chunk_size (%d)", overlap, chunkSize)
	}
	return nil
}
