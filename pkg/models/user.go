// Package models holds the data shared by the tracker, its stores and its
// scrapers.
package models

// UserRecord is the persisted state of one tracked user.
type UserRecord struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Total     int         `json:"total"`
	Easy      int         `json:"easy"`
	Medium    int         `json:"medium"`
	Hard      int         `json:"hard"`
	Questions QuestionSet `json:"questions"`
}

// Summary returns the ranked-list view of the record.
func (u UserRecord) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Total:    u.Total,
		Easy:     u.Easy,
		Medium:   u.Medium,
		Hard:     u.Hard,
	}
}

// Snapshot is a freshly scraped view of a profile. Questions usually covers
// only a recent-activity window, not the full solved history.
type Snapshot struct {
	Total     int      `json:"total"`
	Easy      int      `json:"easy"`
	Medium    int      `json:"medium"`
	Hard      int      `json:"hard"`
	Questions []string `json:"questions"`
}

// UserSummary is one row of the ranked user list.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Total    int    `json:"total"`
	Easy     int    `json:"easy"`
	Medium   int    `json:"medium"`
	Hard     int    `json:"hard"`
}

// SolvedStatus tells whether a user has solved a given problem.
type SolvedStatus struct {
	Username  string `json:"username"`
	HasSolved bool   `json:"has_solved"`
}
