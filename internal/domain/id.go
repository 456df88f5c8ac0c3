package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeID returns the canonical form of an identifier. Integer strings are
// re-formatted in base 10 so "05", "5" and " 5 " compare equal; anything else
// is only trimmed.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// FlexID is an identifier that decodes from either a JSON string or a JSON
// number and is always held in canonical form.
type FlexID string

// String implements fmt.Stringer.
func (id FlexID) String() string { return string(id) }

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = FlexID(NormalizeID(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		if i, err := n.Int64(); err == nil {
			*id = FlexID(strconv.FormatInt(i, 10))
			return nil
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return fmt.Errorf("decode id: %s is not an integer", n)
		}
		*id = FlexID(strconv.FormatInt(int64(f), 10))
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (id FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}
