package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
)

// Record maps field names to scalar values decoded from one log line.
type Record map[string]string

// Get returns the value for name, or the empty string when the field is absent.
func (r Record) Get(name string) string {
	return r[name]
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format identifies which encoding produced a record.
type Format int

const (
	FormatNone Format = iota
	FormatJSON
	FormatKeyValue
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatKeyValue:
		return "kv"
	default:
		return "none"
	}
}

var (
	// ErrNotJSON reports that a line is not a single JSON object.
	ErrNotJSON = errors.New("not a json object")
	// ErrNoFields reports that a line contains no key=value tokens.
	ErrNoFields = errors.New("no key=value fields")
)

// Parse decodes line as JSON first and falls back to key=value tokens.
// The returned Format is FormatNone when neither encoding yields a key.
func Parse(line string) (Record, Format) {
	if rec, err := ParseJSON(line); err == nil {
		return rec, FormatJSON
	}
	if rec, err := ParseKeyValue(line); err == nil {
		return rec, FormatKeyValue
	}
	return nil, FormatNone
}

// ParseJSON decodes line as exactly one JSON object with at least one key.
func ParseJSON(line string) (Record, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, ErrNotJSON
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, ErrNotJSON
	}
	// Trailing content after the object means this is not a JSON line.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrNotJSON
	}
	if len(data) == 0 {
		return nil, ErrNotJSON
	}

	rec := make(Record, len(data))
	for k, v := range data {
		rec[k] = scalarText(v)
	}
	return rec, nil
}

func scalarText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return ""
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}
