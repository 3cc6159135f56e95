package app

import "regexp"

// videoIDPattern accepts watch, embed, /v/, live and youtu.be links. The id is
// exactly 11 characters, so a trailing id character means no match.
var videoIDPattern = regexp.MustCompile(
	`(?:youtube\.com/(?:watch\?v=|embed/|v/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`,
)

// ExtractVideoID returns the YouTube video id carried by link.
func ExtractVideoID(link string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EmbedURL is the canonical player URL for a video id.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}
