package models

// FailedItem records a username whose processing failed inside a batch.
type FailedItem struct {
	Username string `json:"username"`
	Error    string `json:"error"`
}

// BatchResult summarises one batch run.
type BatchResult struct {
	Added   int          `json:"added"`
	Updated int          `json:"updated"`
	Failed  []FailedItem `json:"failed"`

	// Listed is the number of tracked users an update run set out to
	// refresh, including any it never reached. Other modes leave it zero.
	Listed int `json:"-"`
}

// NewBatchResult returns an empty result whose Failed list encodes as [].
func NewBatchResult() BatchResult {
	return BatchResult{Failed: []FailedItem{}}
}
