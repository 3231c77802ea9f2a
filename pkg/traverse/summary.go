package traverse

import "github.com/robert-malhotra/stac-coverage/pkg/index"

// FetchFailure records a child document that could not be fetched.
type FetchFailure struct {
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Status int    `json:"status,omitempty"`
}

// Summary reports what a walk saw.
type Summary struct {
	Visited         int            `json:"visited"`
	Items           int            `json:"items"`
	Skipped         int            `json:"skipped"`
	SkippedByReason map[string]int `json:"skipped_by_reason,omitempty"`
	FetchFailures   []FetchFailure `json:"fetch_failures,omitempty"`
	Depth           int            `json:"depth"`
}

func (s *Summary) reset() { *s = Summary{} }

// Result is the output of a complete walk.
type Result struct {
	Items   []*index.Item
	Summary Summary
}
