package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UnmarshalJSON reads a result field by field so one odd value never hides the record.
// Unreadable or zero timestamps are unknown, numeric strings count as scores, and
// anything else that cannot be read is kept as text with Malformed set.
func (r *StudentResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var res StudentResult
	var ok bool
	malformed := false
	if res.ID, ok = textField(fields["id"]); !ok {
		malformed = true
	}
	if res.Name, ok = textField(fields["name"]); !ok {
		malformed = true
	}
	if res.PhoneNumber, ok = textField(fields["phoneNumber"]); !ok {
		malformed = true
	}
	if res.BatchTime, ok = textField(fields["batchTime"]); !ok {
		malformed = true
	}
	if res.Score, res.ScoreText, ok = scoreField(fields["score"]); !ok {
		malformed = true
	}
	if text, _ := textField(fields["scoreText"]); text != "" && res.ScoreText == "" {
		res.ScoreText = text
	}
	res.Timestamp = timestampField(fields["timestamp"])
	if raw, found := fields["malformed"]; found {
		var flagged bool
		if json.Unmarshal(raw, &flagged) == nil && flagged {
			malformed = true
		}
	}
	res.Malformed = malformed

	*r = res
	return nil
}

// textField returns a string value, or the raw JSON text when the value is not a string.
// ok is false only for values that are neither strings, numbers, booleans nor null.
func textField(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	switch raw[0] {
	case '{', '[':
		return string(raw), false
	}
	return string(raw), true
}

func scoreField(raw json.RawMessage) (float64, string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, "", true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, "", true
	}
	text, _ := textField(raw)
	if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		return f, "", true
	}
	return 0, text, false
}

func timestampField(raw json.RawMessage) *Timestamp {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var ts Timestamp
	if err := ts.UnmarshalJSON(raw); err != nil || !ts.Known() {
		return nil
	}
	return &ts
}
