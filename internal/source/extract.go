// Package source turns raw provider payloads into normalized markets. Each
// provider gets a Source that consults the slot cache, calls its platform
// client on a miss, and tolerates the envelope drift seen across provider
// API versions.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Strategy locates a value inside a decoded JSON document. An empty Path
// means the document itself.
type Strategy struct {
	Name string
	Path []string
}

// ParseStrategies converts dotted envelope keys into strategies, preserving
// order. "" and "." denote the top-level document.
func ParseStrategies(keys []string) []Strategy {
	out := make([]Strategy, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || k == "." {
			out = append(out, Strategy{Name: "."})
			continue
		}
		out = append(out, Strategy{Name: k, Path: strings.Split(k, ".")})
	}
	return out
}

// DefaultListKeys is the envelope order used when none is configured: a bare
// array, then an object's "markets", then its "data".
var DefaultListKeys = []string{".", "markets", "data"}

// LooksLikeJSON reports whether the trimmed body starts like a JSON object
// or array. Providers have answered with plain-text error pages under a 2xx
// status; those must not surface as decode errors.
func LooksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}

// ExtractList returns the elements of the first strategy that resolves to a
// JSON array. It returns an error wrapping domain.ErrUpstreamMalformed when
// the body is not valid JSON or no strategy matches.
func ExtractList(body []byte, strategies []Strategy) ([]json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON", domain.ErrUpstreamMalformed)
	}
	doc := json.RawMessage(bytes.TrimSpace(body))

	for _, s := range strategies {
		v, ok := lookup(doc, s.Path)
		if !ok || !isArray(v) {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			continue
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		return items, nil
	}

	return nil, fmt.Errorf("%w: no list found under %s", domain.ErrUpstreamMalformed, strategyNames(strategies))
}

// ExtractObject returns the first strategy value that is a JSON object.
func ExtractObject(body []byte, strategies []Strategy) (map[string]json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON", domain.ErrUpstreamMalformed)
	}
	doc := json.RawMessage(bytes.TrimSpace(body))

	for _, s := range strategies {
		v, ok := lookup(doc, s.Path)
		if !ok || !isObject(v) {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err != nil {
			continue
		}
		return obj, nil
	}

	return nil, fmt.Errorf("%w: no object found under %s", domain.ErrUpstreamMalformed, strategyNames(strategies))
}

// lookup walks path through nested objects.
func lookup(doc json.RawMessage, path []string) (json.RawMessage, bool) {
	cur := doc
	for _, key := range path {
		if !isObject(cur) {
			return nil, false
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		cur = bytes.TrimSpace(next)
	}
	return cur, true
}

func isArray(v json.RawMessage) bool  { return len(v) > 0 && v[0] == '[' }
func isObject(v json.RawMessage) bool { return len(v) > 0 && v[0] == '{' }

func strategyNames(strategies []Strategy) string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}
