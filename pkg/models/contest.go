package models

// ContestPhaseBefore marks a contest that has not started yet.
const ContestPhaseBefore = "BEFORE"

// Contest mirrors the Codeforces contest object.
type Contest struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Type                string `json:"type"`
	Phase               string `json:"phase"`
	Frozen              bool   `json:"frozen"`
	DurationSeconds     int64  `json:"durationSeconds"`
	StartTimeSeconds    int64  `json:"startTimeSeconds,omitempty"`
	RelativeTimeSeconds int64  `json:"relativeTimeSeconds,omitempty"`
}

// Upcoming reports whether the contest has not started.
func (c Contest) Upcoming() bool {
	return c.Phase == ContestPhaseBefore
}
