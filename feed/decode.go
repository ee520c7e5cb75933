package feed

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog"
)

type catalogEnvelope struct {
	CustomNodes []catalog.RawCatalogEntry `json:"custom_nodes"`
}

type statsEntry struct {
	Stars *float64 `json:"stars"`
}

func decodeCatalog(body []byte) ([]catalog.RawCatalogEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "catalog feed is empty")
	}

	if trimmed[0] == '[' {
		var entries []catalog.RawCatalogEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to decode catalog feed")
		}
		return entries, nil
	}

	var envelope catalogEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to decode catalog feed")
	}
	if envelope.CustomNodes == nil {
		return nil, errors.New(errors.CodeInvalidInput, "catalog feed has no custom_nodes list")
	}
	return envelope.CustomNodes, nil
}

func decodeStats(body []byte) (catalog.StarCache, int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeInvalidInput, "failed to decode popularity feed")
	}

	stars := make(catalog.StarCache, len(raw))
	skipped := 0
	for name, value := range raw {
		key, ok := normalizeStatsKey(name)
		if !ok {
			skipped++
			continue
		}

		var entry statsEntry
		if err := json.Unmarshal(value, &entry); err != nil || !validStars(entry.Stars) {
			skipped++
			continue
		}
		stars[key] = int(*entry.Stars)
	}
	return stars, skipped, nil
}

// validStars reports whether a feed value can be stored as a star count.
func validStars(v *float64) bool {
	return v != nil && *v >= 0 && *v <= math.MaxInt32
}
