package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ArgMap is an ordered string-to-string mapping used for build args and
// secrets. Flag emission must be deterministic and follow the JSON document
// order of the job input, so a plain Go map is not enough.
//
// Set semantics: the first write of a key fixes its position; later writes
// override the value in place. This matches how the merged build-arg object
// behaves when a job input collides with the seeded default.
type ArgMap struct {
	keys   []string
	values map[string]string
}

func NewArgMap() *ArgMap {
	return &ArgMap{values: make(map[string]string)}
}

func (m *ArgMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *ArgMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *ArgMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not mutate it.
func (m *ArgMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Clone returns an independent copy preserving insertion order.
func (m *ArgMap) Clone() *ArgMap {
	out := NewArgMap()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// ParseArgMap decodes a JSON object of string values into an ArgMap,
// preserving document order. An empty or all-whitespace input yields an
// empty map. Nested objects, arrays, and non-string values are rejected:
// inputs are string-to-string by contract and anything else is a job
// configuration mistake better caught up front.
func ParseArgMap(raw string) (*ArgMap, error) {
	out := NewArgMap()
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid JSON object key: %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		val, ok := valTok.(string)
		if !ok {
			return nil, fmt.Errorf("value for key %q must be a string, got %v", key, valTok)
		}
		out.Set(key, val)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return out, nil
}
