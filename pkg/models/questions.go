package models

import (
	"encoding/json"
	"sort"
)

// QuestionSet is the set of distinct problem titles a user has been
// observed solving. Titles are compared by exact string equality.
type QuestionSet struct {
	titles map[string]struct{}
}

// NewQuestionSet builds a set from titles, collapsing duplicates.
func NewQuestionSet(titles ...string) QuestionSet {
	qs := QuestionSet{titles: make(map[string]struct{}, len(titles))}
	for _, title := range titles {
		qs.titles[title] = struct{}{}
	}
	return qs
}

// Add inserts title into the set.
func (qs *QuestionSet) Add(title string) {
	if qs.titles == nil {
		qs.titles = make(map[string]struct{})
	}
	qs.titles[title] = struct{}{}
}

// Contains reports whether title is in the set.
func (qs QuestionSet) Contains(title string) bool {
	_, ok := qs.titles[title]
	return ok
}

// Len returns the number of distinct titles.
func (qs QuestionSet) Len() int {
	return len(qs.titles)
}

// Union returns a new set holding every title of qs and other. Neither
// operand is modified.
func (qs QuestionSet) Union(other QuestionSet) QuestionSet {
	out := QuestionSet{titles: make(map[string]struct{}, len(qs.titles)+len(other.titles))}
	for title := range qs.titles {
		out.titles[title] = struct{}{}
	}
	for title := range other.titles {
		out.titles[title] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same titles.
func (qs QuestionSet) Equal(other QuestionSet) bool {
	if len(qs.titles) != len(other.titles) {
		return false
	}
	for title := range qs.titles {
		if _, ok := other.titles[title]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the titles in ascending order. The result is never nil.
func (qs QuestionSet) Sorted() []string {
	out := make([]string, 0, len(qs.titles))
	for title := range qs.titles {
		out = append(out, title)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (qs QuestionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(qs.Sorted())
}

// UnmarshalJSON decodes an array of titles. A null value yields the empty set.
func (qs *QuestionSet) UnmarshalJSON(data []byte) error {
	var titles []string
	if err := json.Unmarshal(data, &titles); err != nil {
		return err
	}
	*qs = NewQuestionSet(titles...)
	return nil
}
