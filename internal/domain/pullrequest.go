package domain

import "time"

// PullRequestRecord is one pull request returned by the search API.
// Only AuthorLogin takes part in aggregation.
type PullRequestRecord struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	State       string    `json:"state"`
	AuthorLogin string    `json:"author_login"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaderboardEntry is one ranked author.
type LeaderboardEntry struct {
	Login string `json:"login"`
	Count int    `json:"count"`
}

// LeaderboardSummary describes the distribution of pull requests across authors.
type LeaderboardSummary struct {
	Authors      int     `json:"authors"`
	PullRequests int     `json:"pull_requests"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Max          int     `json:"max"`
}
