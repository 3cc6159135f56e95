package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampDecodesKnownShapes(t *testing.T) {
	want := time.Date(2024, 11, 22, 9, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"rfc3339":         `{"name":"A","score":1,"timestamp":"2024-11-22T09:30:00Z"}`,
		"firestore":       `{"name":"A","score":1,"timestamp":{"seconds":1732267800,"nanoseconds":0}}`,
		"firestore admin": `{"name":"A","score":1,"timestamp":{"_seconds":1732267800,"_nanoseconds":0}}`,
		"epoch millis":    `{"name":"A","score":1,"timestamp":1732267800000}`,
	}
	for name, raw := range cases {
		var r StudentResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			t.Fatalf("%s: unmarshal: %v", name, err)
		}
		if r.Timestamp == nil {
			t.Fatalf("%s: expected timestamp", name)
		}
		if !r.Timestamp.Time.Equal(want) {
			t.Fatalf("%s: expected %v, got %v", name, want, r.Timestamp.Time)
		}
	}
}

func TestTimestampAbsentOrNullIsUnknown(t *testing.T) {
	for _, raw := range []string{`{"name":"A","score":1}`, `{"name":"A","score":1,"timestamp":null}`} {
		var r StudentResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if r.Timestamp != nil {
			t.Fatalf("expected nil timestamp for %s, got %v", raw, r.Timestamp)
		}
	}
}

func TestClearedLiveStateOmitsTimestamp(t *testing.T) {
	data, err := json.Marshal(LiveStreamState{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"url":"","isLive":false}` {
		t.Fatalf("unexpected cleared state %s", data)
	}
}

func TestBatchResultFailed(t *testing.T) {
	b := BatchResult{Outcomes: map[string]error{"a": nil, "b": ErrPersistence, "c": nil}}
	if b.OK() {
		t.Fatalf("expected batch to report failure")
	}
	failed := b.Failed([]string{"a", "b", "c"})
	if len(failed) != 1 || failed[0] != "b" {
		t.Fatalf("expected [b], got %v", failed)
	}
}

func TestResultDecodesLeniently(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		score     float64
		scoreText string
		malformed bool
		timestamp bool
	}{
		{name: "date string", raw: `{"name":"A","score":3,"timestamp":"Fri Nov 22 2024"}`, score: 3},
		{name: "zero seconds", raw: `{"name":"A","score":3,"timestamp":{"seconds":0}}`, score: 3},
		{name: "zero millis", raw: `{"name":"A","score":3,"timestamp":0}`, score: 3},
		{name: "numeric text", raw: `{"name":"A","score":" 9.5 "}`, score: 9.5},
		{name: "word score", raw: `{"name":"A","score":"nine"}`, scoreText: "nine", malformed: true},
		{name: "object name", raw: `{"name":{"first":"A"},"score":1}`, score: 1, malformed: true},
		{name: "numeric phone", raw: `{"name":"A","phoneNumber":5550100,"score":1,"timestamp":1732267800000}`, score: 1, timestamp: true},
	}
	for _, tc := range cases {
		var r StudentResult
		if err := json.Unmarshal([]byte(tc.raw), &r); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if r.Score != tc.score || r.ScoreText != tc.scoreText || r.Malformed != tc.malformed {
			t.Fatalf("%s: unexpected result %+v", tc.name, r)
		}
		if (r.Timestamp != nil) != tc.timestamp {
			t.Fatalf("%s: timestamp presence %v, got %v", tc.name, tc.timestamp, r.Timestamp)
		}
	}
}

func TestResultRejectsNonObject(t *testing.T) {
	var r StudentResult
	if err := json.Unmarshal([]byte(`["A"]`), &r); err == nil {
		t.Fatalf("expected an error for a non-object document")
	}
}

func TestResultRoundTripKeepsMalformedText(t *testing.T) {
	in := StudentResult{ID: "r1", Name: "A", ScoreText: "nine", Malformed: true}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out StudentResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}
