package tracker_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/scraper"
	"github.com/variety-jones/cptracker/pkg/scraper/scrapertest"
	"github.com/variety-jones/cptracker/pkg/store"
	"github.com/variety-jones/cptracker/pkg/store/memory"
	"github.com/variety-jones/cptracker/pkg/tracker"
)

// countingObserver records outcomes reported by the tracker.
type countingObserver struct {
	scrapes  int
	outcomes map[tracker.Outcome]int
	users    int
}

func (o *countingObserver) ObserveScrape(string, time.Duration, error) { o.scrapes++ }
func (o *countingObserver) ObserveOutcome(_ tracker.Mode, out tracker.Outcome) {
	o.outcomes[out]++
}
func (o *countingObserver) ObserveTrackedUsers(n int) { o.users = n }

// lateStore loses the race between the existence check and the insert: it
// never finds a user but still enforces unique usernames on Insert.
type lateStore struct{ store.UserStore }

func (lateStore) FindByUsername(context.Context, string) (models.UserRecord, error) {
	return models.UserRecord{}, store.ErrNotFound
}

var _ = Describe("Tracker", func() {
	var (
		ctx      context.Context
		fake     *scrapertest.Fake
		st       store.UserStore
		observer *countingObserver
		t        *tracker.Tracker
	)

	seed := func(username string, total int, questions ...string) models.UserRecord {
		rec, err := st.Insert(ctx, models.UserRecord{
			Username:  username,
			Total:     total,
			Questions: models.NewQuestionSet(questions...),
		})
		Expect(err).NotTo(HaveOccurred())
		return rec
	}

	BeforeEach(func() {
		ctx = context.Background()
		fake = scrapertest.NewFake()
		st = memory.NewMemoryStore()
		observer = &countingObserver{outcomes: make(map[tracker.Outcome]int)}
		t = tracker.New(fake, st, tracker.WithUpdateDelay(0),
			tracker.WithObserver(observer))
	})

	Describe("Add", func() {
		It("scrapes and inserts a new user", func() {
			fake.Set("alice", models.Snapshot{Total: 3, Easy: 3, Questions: []string{"Two Sum"}})

			rec, err := t.Add(ctx, "  alice ")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ID).NotTo(BeEmpty())
			Expect(rec.Username).To(Equal("alice"))
			Expect(rec.Total).To(Equal(3))

			stored, err := st.FindByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Questions.Contains("Two Sum")).To(BeTrue())
			Expect(observer.outcomes[tracker.OutcomeAdded]).To(Equal(1))
		})

		It("refuses a tracked user without scraping", func() {
			seed("alice", 10)

			_, err := t.Add(ctx, "alice")
			Expect(errors.Is(err, tracker.ErrDuplicateUser)).To(BeTrue())
			Expect(fake.Calls()).To(BeEmpty())
		})

		It("propagates scrape failures and stores nothing", func() {
			fake.Fail("alice", errors.New("upstream down"))

			_, err := t.Add(ctx, "alice")
			Expect(err).To(MatchError("upstream down"))

			_, err = st.FindByUsername(ctx, "alice")
			Expect(errors.Is(err, store.ErrNotFound)).To(BeTrue())
		})

		It("reports a duplicate insert as a failed add", func() {
			seed("alice", 10)
			fake.Set("alice", models.Snapshot{Total: 11})
			t = tracker.New(fake, lateStore{st}, tracker.WithObserver(observer))

			_, err := t.Add(ctx, "alice")
			Expect(errors.Is(err, tracker.ErrDuplicateUser)).To(BeTrue())
			Expect(observer.outcomes[tracker.OutcomeFailed]).To(Equal(1))
			Expect(observer.outcomes[tracker.OutcomeAdded]).To(BeZero())
		})

		It("rejects a blank username", func() {
			_, err := t.Add(ctx, "   ")
			Expect(err).To(Equal(tracker.ErrInvalidUsername))
		})
	})

	Describe("BulkImport", func() {
		It("adds new users and updates known ones", func() {
			seed("alice", 10, "Two Sum")
			fake.Set("alice", models.Snapshot{Total: 12, Questions: []string{"Valid Parentheses"}})
			fake.Set("bob", models.Snapshot{Total: 1, Questions: []string{"Two Sum"}})

			result, err := t.BulkImport(ctx, []string{"alice", "bob"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(models.BatchResult{Added: 1, Updated: 1, Failed: []models.FailedItem{}}))

			alice, err := st.FindByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(alice.Total).To(Equal(12))
			Expect(alice.Questions.Sorted()).To(Equal([]string{"Two Sum", "Valid Parentheses"}))
		})

		It("isolates a failing username and keeps going", func() {
			fake.Set("a", models.Snapshot{Total: 1})
			fake.Fail("b", errors.New("timeout talking to upstream"))
			fake.Set("c", models.Snapshot{Total: 3})

			result, err := t.BulkImport(ctx, []string{"a", "b", "c"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Added).To(Equal(2))
			Expect(result.Updated).To(Equal(0))
			Expect(result.Failed).To(Equal([]models.FailedItem{
				{Username: "b", Error: "timeout talking to upstream"},
			}))
			Expect(fake.Calls()).To(Equal([]string{"a", "b", "c"}))
		})

		It("records failures in encounter order", func() {
			result, err := t.BulkImport(ctx, []string{"x", "", "y"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed).To(HaveLen(3))
			Expect(result.Failed[0].Username).To(Equal("x"))
			Expect(result.Failed[1].Error).To(Equal(tracker.ErrInvalidUsername.Error()))
			Expect(result.Failed[2].Username).To(Equal("y"))
			Expect(result.Failed[2].Error).To(ContainSubstring(scraper.ErrProfileNotFound.Error()))
		})

		It("treats a repeated name as an update", func() {
			fake.Set("alice", models.Snapshot{Total: 5})

			result, err := t.BulkImport(ctx, []string{"alice", "alice"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Added).To(Equal(1))
			Expect(result.Updated).To(Equal(1))
		})

		It("rejects an empty list", func() {
			_, err := t.BulkImport(ctx, nil)
			Expect(err).To(Equal(tracker.ErrNoUsernames))
		})
	})

	Describe("UpdateAll", func() {
		It("refreshes every tracked user", func() {
			seed("alice", 10, "Two Sum")
			seed("bob", 4)
			fake.Set("alice", models.Snapshot{Total: 12, Questions: []string{"Valid Parentheses"}})
			fake.Set("bob", models.Snapshot{Total: 6, Questions: []string{"Two Sum"}})

			result, err := t.UpdateAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Updated).To(Equal(2))
			Expect(result.Added).To(Equal(0))
			Expect(result.Failed).To(BeEmpty())
			Expect(observer.users).To(Equal(2))

			alice, _ := st.FindByUsername(ctx, "alice")
			Expect(alice.Total).To(Equal(12))
			Expect(alice.Questions.Sorted()).To(Equal([]string{"Two Sum", "Valid Parentheses"}))
		})

		It("keeps the stored record when a scrape fails", func() {
			seed("alice", 10, "Two Sum")
			seed("bob", 4)
			seed("carol", 7)
			fake.Set("alice", models.Snapshot{Total: 11})
			fake.Fail("bob", errors.New("parse failure"))
			fake.Set("carol", models.Snapshot{Total: 8})

			result, err := t.UpdateAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Updated).To(Equal(2))
			Expect(result.Failed).To(Equal([]models.FailedItem{{Username: "bob", Error: "parse failure"}}))

			bob, _ := st.FindByUsername(ctx, "bob")
			Expect(bob.Total).To(Equal(4))
			Expect(observer.outcomes[tracker.OutcomeFailed]).To(Equal(1))
		})

		It("bounds each scrape with the configured timeout", func() {
			seed("alice", 1)
			seed("bob", 1)
			fake.Hang("alice")
			fake.Set("bob", models.Snapshot{Total: 2})
			t = tracker.New(fake, st, tracker.WithUpdateDelay(0),
				tracker.WithScrapeTimeout(20*time.Millisecond))

			result, err := t.UpdateAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Updated).To(Equal(1))
			Expect(result.Failed).To(HaveLen(1))
			Expect(result.Failed[0].Error).To(ContainSubstring(context.DeadlineExceeded.Error()))
		})

		It("spaces users by the update delay", func() {
			for _, name := range []string{"a", "b", "c"} {
				seed(name, 0)
				fake.Set(name, models.Snapshot{Total: 1})
			}
			t = tracker.New(fake, st, tracker.WithUpdateDelay(25*time.Millisecond))

			start := time.Now()
			result, err := t.UpdateAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Updated).To(Equal(3))
			Expect(time.Since(start)).To(BeNumerically(">=", 45*time.Millisecond))
		})

		It("stops before the next user once the context is cancelled", func() {
			seed("alice", 1)
			seed("bob", 1)
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			result, err := t.UpdateAll(cancelled)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(result.Updated).To(Equal(0))
			Expect(result.Listed).To(Equal(2))
			Expect(fake.Calls()).To(BeEmpty())
		})
	})

	Describe("RunBatch", func() {
		It("dispatches the add mode to a single add", func() {
			fake.Set("alice", models.Snapshot{Total: 1})

			result, err := t.RunBatch(ctx, tracker.ModeAdd, []string{"alice"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Added).To(Equal(1))

			_, err = t.RunBatch(ctx, tracker.ModeAdd, []string{"alice"})
			Expect(errors.Is(err, tracker.ErrDuplicateUser)).To(BeTrue())
		})

		It("refuses add with more than one username", func() {
			_, err := t.RunBatch(ctx, tracker.ModeAdd, []string{"a", "b"})
			Expect(errors.Is(err, tracker.ErrInvalidMode)).To(BeTrue())
		})

		It("runs update and bulk import", func() {
			seed("alice", 1)
			fake.Set("alice", models.Snapshot{Total: 2})
			fake.Set("bob", models.Snapshot{Total: 3})

			result, err := t.RunBatch(ctx, tracker.ModeUpdate, []string{"ignored"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Updated).To(Equal(1))

			result, err = t.RunBatch(ctx, tracker.ModeBulkImport, []string{"bob"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Added).To(Equal(1))
		})

		It("rejects unknown modes", func() {
			_, err := t.RunBatch(ctx, tracker.Mode("purge"), nil)
			Expect(errors.Is(err, tracker.ErrInvalidMode)).To(BeTrue())
		})
	})

	Describe("read paths", func() {
		It("ranks users by total with username as tie-break", func() {
			seed("carol", 5)
			seed("alice", 9)
			seed("bob", 5)

			ranked, err := t.ListRanked(ctx)
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(ranked))
			for _, u := range ranked {
				names = append(names, u.Username)
			}
			Expect(names).To(Equal([]string{"alice", "bob", "carol"}))
			Expect(ranked[0].Total).To(Equal(9))
		})

		It("checks who solved a title by exact match", func() {
			seed("alice", 1, "Two Sum")
			seed("bob", 0)

			statuses, err := t.CheckSolved(ctx, "Two Sum")
			Expect(err).NotTo(HaveOccurred())
			Expect(statuses).To(Equal([]models.SolvedStatus{
				{Username: "alice", HasSolved: true},
				{Username: "bob", HasSolved: false},
			}))

			statuses, err = t.CheckSolved(ctx, "two sum")
			Expect(err).NotTo(HaveOccurred())
			Expect(statuses[0].HasSolved).To(BeFalse())
		})

		It("reports missing users as not found", func() {
			_, err := t.Get(ctx, "ghost")
			Expect(errors.Is(err, store.ErrNotFound)).To(BeTrue())
		})

		It("deletes idempotently", func() {
			seed("alice", 1)

			Expect(t.Delete(ctx, "alice")).To(Succeed())
			Expect(t.Delete(ctx, "alice")).To(Succeed())
			_, err := t.Get(ctx, "alice")
			Expect(errors.Is(err, store.ErrNotFound)).To(BeTrue())
		})
	})
})
