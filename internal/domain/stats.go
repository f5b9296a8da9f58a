// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"encoding/json"
	"strconv"
)

// unknownPlaceholder is how an unknown Count is rendered to humans.
const unknownPlaceholder = "..."

// MaxCount is the largest total_count accepted from the search API.
// Larger values cannot describe a single repository and are treated as malformed.
const MaxCount = 100_000_000

// Count is a non-negative integer that may not be known yet.
// The zero value is unknown.
type Count struct {
	value int
	known bool
}

// UnknownCount returns a Count in the unknown state.
func UnknownCount() Count {
	return Count{}
}

// KnownCount returns a Count holding n.
func KnownCount(n int) Count {
	return Count{value: n, known: true}
}

// Known reports whether the count has been fetched.
func (c Count) Known() bool {
	return c.known
}

// Value returns the count and whether it is known.
func (c Count) Value() (int, bool) {
	return c.value, c.known
}

func (c Count) String() string {
	if !c.known {
		return unknownPlaceholder
	}
	return strconv.Itoa(c.value)
}

// MarshalJSON encodes an unknown count as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.known {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON accepts null (unknown) or an integer.
func (c *Count) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = UnknownCount()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = KnownCount(n)
	return nil
}

// PullRequestStatistics holds the pull request counts for one repository and range.
// Open is always derived from Total and Closed.
type PullRequestStatistics struct {
	Total  Count `json:"total"`
	Closed Count `json:"closed"`
	Open   Count `json:"open"`
}

// NewPullRequestStatistics builds statistics from fetched totals, deriving the open count.
func NewPullRequestStatistics(total, closed int) PullRequestStatistics {
	return PullRequestStatistics{
		Total:  KnownCount(total),
		Closed: KnownCount(closed),
		Open:   KnownCount(total - closed),
	}
}

// Statistics is the summary result of one fetch cycle.
type Statistics struct {
	PullRequests PullRequestStatistics `json:"pull_requests"`
	Commits      Count                 `json:"commits"`
}
