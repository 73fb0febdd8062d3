package tracker

import "time"

// Outcome labels the result of processing one username.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeUpdated Outcome = "updated"
	OutcomeFailed  Outcome = "failed"
)

// Observer receives instrumentation events from the tracker.
type Observer interface {
	ObserveScrape(platform string, took time.Duration, err error)
	ObserveOutcome(mode Mode, outcome Outcome)
	ObserveTrackedUsers(n int)
}

type nopObserver struct{}

func (nopObserver) ObserveScrape(string, time.Duration, error) {}
func (nopObserver) ObserveOutcome(Mode, Outcome)               {}
func (nopObserver) ObserveTrackedUsers(int)                    {}
