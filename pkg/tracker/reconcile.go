package tracker

import "github.com/variety-jones/cptracker/pkg/models"

// Reconcile merges a fresh snapshot into the stored state of one user.
//
// Counts are taken from the snapshot as they stand. Questions are the union
// of what was stored and what the snapshot reports, so a refresh never
// forgets a solved problem. A nil existing record yields a new record with
// no id. Reconcile does not modify existing.
func Reconcile(existing *models.UserRecord, snap models.Snapshot) models.UserRecord {
	fresh := models.NewQuestionSet(snap.Questions...)

	var merged models.UserRecord
	if existing == nil {
		merged.Questions = fresh
	} else {
		merged.ID = existing.ID
		merged.Username = existing.Username
		merged.Questions = existing.Questions.Union(fresh)
	}
	merged.Total = snap.Total
	merged.Easy = snap.Easy
	merged.Medium = snap.Medium
	merged.Hard = snap.Hard
	return merged
}
