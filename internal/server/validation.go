package server

import (
	"fmt"

	"github.com/coursevault/ingestor-go/internal/ingestion"
)

// validModes is the set of accepted selector modes for startRequest.Mode.
var validModes = map[string]ingestion.Mode{
	"NEW":      ingestion.ModeNew,
	"SELECTED": ingestion.ModeSelected,
	"ALL":      ingestion.ModeAll,
	"REINGEST": ingestion.ModeReingest,
}

// parseMode validates and converts the JSON mode string. Returns an error
// for anything other than the four recognized values.
func parseMode(raw string) (ingestion.Mode, error) {
	mode, ok := validModes[raw]
	if !ok {
		return "", fmt.Errorf("mode must be one of NEW, SELECTED, ALL, REINGEST — got %q", raw)
	}
	return mode, nil
}

// resolveMaxRetries applies the spec's default (3) when the caller omits
// max_retries entirely; [ingestion.ValidateMaxRetries] enforces the bound.
func resolveMaxRetries(raw *int) int {
	if raw == nil {
		return ingestion.DefaultMaxRetries
	}
	return *raw
}
