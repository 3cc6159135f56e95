package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is an instant decoded from any of the shapes clients have written:
// RFC 3339 strings, Firestore-style {seconds, nanoseconds} objects, or epoch
// milliseconds. A nil *Timestamp means the instant is unknown.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns a Timestamp pointing at t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// Known reports whether ts carries a real instant. The zero time and the Unix epoch
// are both what clients write when they have no submission time.
func (ts *Timestamp) Known() bool {
	return ts != nil && !ts.Time.IsZero() && ts.Time.Unix() != 0
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.Time.UTC().Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", raw, err)
		}
		ts.Time = t
		return nil
	case '{':
		var obj struct {
			Seconds      *int64 `json:"seconds"`
			Nanoseconds  int64  `json:"nanoseconds"`
			USeconds     *int64 `json:"_seconds"`
			UNanoseconds int64  `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case obj.Seconds != nil:
			ts.Time = time.Unix(*obj.Seconds, obj.Nanoseconds).UTC()
		case obj.USeconds != nil:
			ts.Time = time.Unix(*obj.USeconds, obj.UNanoseconds).UTC()
		default:
			return fmt.Errorf("timestamp object without seconds: %s", data)
		}
		return nil
	default:
		var millis float64
		if err := json.Unmarshal(data, &millis); err != nil {
			return fmt.Errorf("unsupported timestamp %s: %w", data, err)
		}
		ts.Time = time.UnixMilli(int64(millis)).UTC()
		return nil
	}
}
