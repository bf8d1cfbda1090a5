// internal/domain/ident/ident.go

// Package ident decodes record identifiers that arrive either as JSON
// strings or as JSON numbers, as database-backed producers emit them.
package ident

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// ID is an identifier that decodes from a JSON string or number.
type ID string

// UnmarshalJSON accepts "12", 12 and null. Objects, arrays and booleans are
// rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	s, ok := Parse(data)
	if !ok {
		return fmt.Errorf("ident: %s is not a string or number", data)
	}
	*id = ID(s)
	return nil
}

// Parse returns the identifier held by a raw JSON value. Number literals are
// kept as written. null and non-scalar values report false.
func Parse(raw []byte) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return "", false
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case c == '-' || (c >= '0' && c <= '9'):
		return string(raw), true
	default:
		return "", false
	}
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
