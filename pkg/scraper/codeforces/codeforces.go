// Package codeforces builds profile snapshots and contest listings from the
// Codeforces API.
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/models"
	"github.com/variety-jones/cptracker/pkg/scraper"
)

const (
	DefaultBaseURL      = "https://codeforces.com/api"
	userStatusEndpoint  = "/user.status"
	contestListEndpoint = "/contest.list"

	kPlatform  = "codeforces"
	kStatusOK  = "OK"
	kVerdictOK = "OK"

	// Problems rated below kEasyCeiling (or unrated) count as easy, below
	// kMediumCeiling as medium, everything else as hard.
	kEasyCeiling   = 1400
	kMediumCeiling = 2000
)

// Problem is the subset of the Codeforces problem object used here.
type Problem struct {
	ContestID int    `json:"contestId"`
	Index     string `json:"index"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
}

// Submission is the subset of the Codeforces submission object used here.
type Submission struct {
	ID                  int64   `json:"id"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	Verdict             string  `json:"verdict"`
}

// Client implements scraper.Scraper over user.status and lists contests
// through contest.list.
type Client struct {
	client  http.Client
	baseURL string
}

var _ scraper.Scraper = (*Client)(nil)

func (cf *Client) Platform() string {
	return kPlatform
}

// Scrape summarises the accepted submissions of handle.
func (cf *Client) Scrape(ctx context.Context, handle string) (
	models.Snapshot, error) {
	submissions, err := cf.UserStatus(ctx, handle)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to scrape Codeforces for "+
			"%s: %w", handle, err)
	}
	return summarise(submissions), nil
}

// UserStatus fetches every submission of handle, newest first.
func (cf *Client) UserStatus(ctx context.Context, handle string) (
	[]Submission, error) {
	zap.S().Debugf("Executing user.status API for %s", handle)

	var submissions []Submission
	params := url.Values{"handle": []string{handle}}
	if err := cf.call(ctx, userStatusEndpoint, params, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// Contests fetches every contest known to Codeforces, gym excluded.
func (cf *Client) Contests(ctx context.Context) ([]models.Contest, error) {
	zap.S().Debugf("Executing contest.list API")

	var contests []models.Contest
	params := url.Values{"gym": []string{"false"}}
	if err := cf.call(ctx, contestListEndpoint, params, &contests); err != nil {
		return nil, err
	}
	return contests, nil
}

// call runs a GET against endpoint and decodes the result field of the
// Codeforces wrapper into result.
func (cf *Client) call(ctx context.Context, endpoint string, params url.Values,
	result interface{}) error {
	// Create the HTTP request and add query parameters.
	apiURL := cf.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		zap.S().Debugf("URL: %s", apiURL)
		return fmt.Errorf("could not create request for %s api "+
			"with error [%w]", endpoint, err)
	}
	req.URL.RawQuery = params.Encode()

	// Make the HTTP call.
	resp, err := cf.client.Do(req)
	if err != nil {
		zap.S().Debugf("request: %+v", req)
		return fmt.Errorf("http call to %s failed "+
			"with error [%w]", endpoint, err)
	}
	defer resp.Body.Close()

	// Read the response body.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		zap.S().Debugf("response: %+v", resp)
		return fmt.Errorf("could not read response of %s "+
			"with error [%w]", endpoint, err)
	}

	// Unmarshal the response. Codeforces reports failures, including unknown
	// handles, inside the wrapper with a non-200 status code.
	wrapper := struct {
		Status  string
		Comment string
		Result  json.RawMessage
	}{}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		zap.S().Debugf("body: %s", string(body))
		return fmt.Errorf("could not unmarshal %s response "+
			"with error [%w]", endpoint, err)
	}

	if wrapper.Status != kStatusOK {
		zap.S().Debugf("response body: %s", string(body))
		if strings.Contains(strings.ToLower(wrapper.Comment), "not found") {
			return fmt.Errorf("%w: %s", scraper.ErrProfileNotFound,
				wrapper.Comment)
		}
		return fmt.Errorf("codeforces returned an internal error "+
			"with comment [%s]", wrapper.Comment)
	}

	if err := json.Unmarshal(wrapper.Result, result); err != nil {
		return fmt.Errorf("could not unmarshal %s result "+
			"with error [%w]", endpoint, err)
	}
	return nil
}

// summarise counts distinct accepted problems by difficulty bucket and
// collects their names.
func summarise(submissions []Submission) models.Snapshot {
	snap := models.Snapshot{Questions: []string{}}
	seen := make(map[string]struct{})
	for _, sub := range submissions {
		if sub.Verdict != kVerdictOK {
			continue
		}
		key := fmt.Sprintf("%d/%s", sub.Problem.ContestID, sub.Problem.Index)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		switch rating := sub.Problem.Rating; {
		case rating < kEasyCeiling:
			snap.Easy++
		case rating < kMediumCeiling:
			snap.Medium++
		default:
			snap.Hard++
		}
		snap.Total++
		snap.Questions = append(snap.Questions, sub.Problem.Name)
	}
	return snap
}

// NewCodeforcesClient returns a Codeforces API client. An empty baseURL
// selects DefaultBaseURL.
func NewCodeforcesClient(baseURL string, timeOut time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cf := new(Client)
	cf.baseURL = strings.TrimRight(baseURL, "/")
	cf.client = http.Client{
		Timeout: timeOut,
	}

	return cf
}
