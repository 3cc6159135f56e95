package domain

import (
	"encoding/json"
	"time"
)

// Collection and key names shared by every document store backend.
const (
	CollectionLiveStream     = "liveStream"
	CollectionPastClasses    = "pastClasses"
	CollectionStudentResults = "studentResults"
	CollectionQuestions      = "questions"
	CollectionSettings       = "settings"

	KeyCurrentLive = "currentLive"
	KeyTimer       = "timer"
)

// Document is a raw stored record: its store-assigned id and JSON body.
type Document struct {
	ID   string
	Data json.RawMessage
}

// LiveStreamState is the singleton record players watch to find the current class.
type LiveStreamState struct {
	URL       string     `json:"url"`
	IsLive    bool       `json:"isLive"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}

// ArchivedClass is written once when a live class ends and never changed afterwards.
type ArchivedClass struct {
	ID    string    `json:"id,omitempty"`
	URL   string    `json:"url"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// StudentResult is one submitted quiz attempt. Decoding is lenient (see result.go):
// Malformed marks a record with values that could not be read, and ScoreText keeps
// a score that was not a number.
type StudentResult struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	BatchTime   string     `json:"batchTime,omitempty"`
	Score       float64    `json:"score"`
	ScoreText   string     `json:"scoreText,omitempty"`
	Timestamp   *Timestamp `json:"timestamp,omitempty"`
	Malformed   bool       `json:"malformed,omitempty"`
}

// Question is an uploaded question image with its answer key.
type Question struct {
	ID            string    `json:"id,omitempty"`
	ImageURL      string    `json:"imageUrl"`
	CorrectOption string    `json:"correctOption"`
	Marks         int       `json:"marks"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TimerSetting holds the quiz duration in seconds.
type TimerSetting struct {
	Timer int `json:"timer"`
}

// BatchResult maps each id of a bulk operation to its outcome (nil on success).
type BatchResult struct {
	Outcomes map[string]error
}

// Failed lists ids whose operation failed, in the given order.
func (b BatchResult) Failed(order []string) []string {
	var failed []string
	for _, id := range order {
		if err, ok := b.Outcomes[id]; ok && err != nil {
			failed = append(failed, id)
		}
	}
	return failed
}

// OK reports whether every operation in the batch succeeded.
func (b BatchResult) OK() bool {
	for _, err := range b.Outcomes {
		if err != nil {
			return false
		}
	}
	return true
}
