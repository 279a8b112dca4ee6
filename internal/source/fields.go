package source

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// record is a loosely decoded JSON object whose fields are read through
// ordered candidate key lists.
type record map[string]json.RawMessage

func decodeRecord(raw json.RawMessage) (record, bool) {
	raw = bytes.TrimSpace(raw)
	if !isObject(raw) {
		return nil, false
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false
	}
	return r, true
}

// value returns the first non-null field among keys.
func (r record) value(keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || string(v) == "null" {
			continue
		}
		return v, true
	}
	return nil, false
}

// str reads a string field. Numbers are returned in their JSON form so that
// numeric identifiers survive.
func (r record) str(keys []string) (string, bool) {
	v, ok := r.value(keys)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// boolean reads a bool field sent as a JSON bool, a "true"/"false" string or
// a 0/1 number.
func (r record) boolean(keys []string) (bool, bool) {
	v, ok := r.value(keys)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return parsed, true
		}
		return false, false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n != 0, true
	}
	return false, false
}

// number reads a float sent as a JSON number or a numeric string.
func (r record) number(keys []string) (float64, bool) {
	v, ok := r.value(keys)
	if !ok {
		return 0, false
	}
	return parseNumber(v)
}

// list reads an array field.
func (r record) list(keys []string) ([]json.RawMessage, bool) {
	v, ok := r.value(keys)
	if !ok || !isArray(v) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, false
	}
	return items, true
}

func parseNumber(v json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
