package tracker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/tracker"
)

var _ = Describe("Reconcile", func() {
	var existing models.UserRecord

	BeforeEach(func() {
		existing = models.UserRecord{
			ID:        "id-1",
			Username:  "alice",
			Total:     10,
			Easy:      6,
			Medium:    3,
			Hard:      1,
			Questions: models.NewQuestionSet("Two Sum"),
		}
	})

	It("builds a fresh record from the snapshot when nothing is stored", func() {
		merged := tracker.Reconcile(nil, models.Snapshot{
			Total: 3, Easy: 2, Medium: 1,
			Questions: []string{"Two Sum", "Two Sum", "Add Two Numbers"},
		})

		Expect(merged.ID).To(BeEmpty())
		Expect(merged.Total).To(Equal(3))
		Expect(merged.Easy).To(Equal(2))
		Expect(merged.Medium).To(Equal(1))
		Expect(merged.Hard).To(Equal(0))
		Expect(merged.Questions.Sorted()).To(Equal([]string{"Add Two Numbers", "Two Sum"}))
	})

	It("overwrites counts and unions questions", func() {
		merged := tracker.Reconcile(&existing, models.Snapshot{
			Total: 12, Easy: 7, Medium: 4, Hard: 1,
			Questions: []string{"Valid Parentheses"},
		})

		Expect(merged.ID).To(Equal("id-1"))
		Expect(merged.Username).To(Equal("alice"))
		Expect(merged.Total).To(Equal(12))
		Expect(merged.Easy).To(Equal(7))
		Expect(merged.Medium).To(Equal(4))
		Expect(merged.Hard).To(Equal(1))
		Expect(merged.Questions.Sorted()).To(Equal([]string{"Two Sum", "Valid Parentheses"}))
	})

	It("takes lower counts from the snapshot as they are", func() {
		merged := tracker.Reconcile(&existing, models.Snapshot{Total: 4, Easy: 4})

		Expect(merged.Total).To(Equal(4))
		Expect(merged.Medium).To(Equal(0))
	})

	It("keeps stored questions when the snapshot reports none", func() {
		merged := tracker.Reconcile(&existing, models.Snapshot{Total: 10})

		Expect(merged.Questions.Equal(existing.Questions)).To(BeTrue())
	})

	It("never shrinks the stored question set", func() {
		existing.Questions = models.NewQuestionSet("A", "B", "C")
		merged := tracker.Reconcile(&existing, models.Snapshot{Questions: []string{"C", "D"}})

		for _, title := range existing.Questions.Sorted() {
			Expect(merged.Questions.Contains(title)).To(BeTrue(), title)
		}
		Expect(merged.Questions.Len()).To(Equal(4))
	})

	It("is idempotent for a repeated snapshot", func() {
		snap := models.Snapshot{Total: 12, Questions: []string{"Valid Parentheses"}}
		once := tracker.Reconcile(&existing, snap)
		twice := tracker.Reconcile(&once, snap)

		Expect(twice.Total).To(Equal(once.Total))
		Expect(twice.Questions.Equal(once.Questions)).To(BeTrue())
	})

	It("leaves its inputs untouched", func() {
		snap := models.Snapshot{Questions: []string{"New"}}
		tracker.Reconcile(&existing, snap)

		Expect(existing.Total).To(Equal(10))
		Expect(existing.Questions.Sorted()).To(Equal([]string{"Two Sum"}))
		Expect(snap.Questions).To(Equal([]string{"New"}))
	})
})
