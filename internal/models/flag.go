package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Flag is a boolean the backend transmits as the literal strings "true" and
// "false". It decodes leniently (native booleans, empty or missing values)
// but always encodes the string form.
type Flag bool

// MarshalJSON encodes the flag as "true" or "false".
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"true"`), nil
	}
	return []byte(`"false"`), nil
}

// UnmarshalJSON accepts "true"/"false", true/false and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	value, err := parseLooseBool(data)
	if err != nil {
		return err
	}
	*f = Flag(value)
	return nil
}

// String returns the wire representation.
func (f Flag) String() string {
	return strconv.FormatBool(bool(f))
}

// LooseBool is a boolean sent natively on the wire that tolerates the string
// encoding some backend documents still carry.
type LooseBool bool

// UnmarshalJSON accepts the same inputs as Flag.
func (b *LooseBool) UnmarshalJSON(data []byte) error {
	value, err := parseLooseBool(data)
	if err != nil {
		return err
	}
	*b = LooseBool(value)
	return nil
}

func parseLooseBool(data []byte) (bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean string %q", raw)
		}
	}
	var native bool
	if err := json.Unmarshal(trimmed, &native); err != nil {
		return false, fmt.Errorf("invalid boolean %s", string(trimmed))
	}
	return native, nil
}

// Timestamp decodes the assorted date encodings found in backend documents
// (RFC 3339, bare dates, epoch milliseconds). Missing values decode to the
// zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON encodes RFC 3339 or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON parses any of the supported encodings.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if trimmed[0] != '"' {
		millis, err := strconv.ParseInt(string(trimmed), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s", string(trimmed))
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}
	var raw string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses raw using the supported layouts. Empty input yields the zero time.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", raw)
}
