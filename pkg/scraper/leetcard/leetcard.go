// Package leetcard scrapes LeetCode statistics from the LeetCard badge
// service.
package leetcard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/scraper"
)

const (
	DefaultBaseURL = "https://leetcard.jacoblin.cool"

	kPlatform         = "leetcode"
	kActivityItems    = 5
	kAcceptedVerdict  = "AC"
	kActivityQuery    = "ext"
	kActivityQueryVal = "activity"
)

// leetCardClient implements scraper.Scraper.
type leetCardClient struct {
	client  http.Client
	baseURL string
}

func (lc *leetCardClient) Platform() string {
	return kPlatform
}

// Scrape fetches and parses the activity card of username.
func (lc *leetCardClient) Scrape(ctx context.Context, username string) (
	models.Snapshot, error) {
	zap.S().Debugf("Scraping LeetCard for %s", username)

	snap, err := lc.scrape(ctx, username)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to scrape LeetCard for "+
			"%s: %w", username, err)
	}
	return snap, nil
}

func (lc *leetCardClient) scrape(ctx context.Context, username string) (
	models.Snapshot, error) {
	// Create the HTTP request and add query parameters.
	endpoint := lc.baseURL + "/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("could not create request "+
			"with error [%w]", err)
	}
	query := req.URL.Query()
	query.Add(kActivityQuery, kActivityQueryVal)
	req.URL.RawQuery = query.Encode()

	// Make the HTTP call.
	resp, err := lc.client.Do(req)
	if err != nil {
		zap.S().Debugf("request: %+v", req)
		return models.Snapshot{}, fmt.Errorf("http call failed "+
			"with error [%w]", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Snapshot{}, scraper.ErrProfileNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Snapshot{}, fmt.Errorf("failed to fetch LeetCard: %s",
			resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("could not parse card "+
			"with error [%w]", err)
	}
	return parseCard(doc), nil
}

// parseCard extracts counts and the accepted titles of the recent-activity
// rows. Missing or malformed counts read as zero.
func parseCard(doc *goquery.Document) models.Snapshot {
	snap := models.Snapshot{
		Total:     leadingInt(doc.Find("#total-solved-text").Text()),
		Easy:      leadingInt(beforeSlash(doc.Find("#easy-solved-count").Text())),
		Medium:    leadingInt(beforeSlash(doc.Find("#medium-solved-count").Text())),
		Hard:      leadingInt(beforeSlash(doc.Find("#hard-solved-count").Text())),
		Questions: []string{},
	}

	for i := 0; i < kActivityItems; i++ {
		item := doc.Find(fmt.Sprintf("a#ext-activity-item-%d", i))
		if item.Length() == 0 {
			continue
		}
		texts := item.Find("text").Map(func(_ int, s *goquery.Selection) string {
			return strings.TrimSpace(s.Text())
		})
		if len(texts) > 3 && texts[1] == kAcceptedVerdict && texts[3] != "" {
			snap.Questions = append(snap.Questions, texts[3])
		}
	}
	return snap
}

func beforeSlash(s string) string {
	return strings.SplitN(s, " /", 2)[0]
}

// leadingInt parses the leading decimal digits of s, returning 0 when there
// are none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// NewLeetCardClient returns a LeetCard scraper. An empty baseURL selects
// DefaultBaseURL.
func NewLeetCardClient(baseURL string, timeOut time.Duration) scraper.Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	lc := new(leetCardClient)
	lc.baseURL = strings.TrimRight(baseURL, "/")
	lc.client = http.Client{
		Timeout: timeOut,
	}
	return lc
}
