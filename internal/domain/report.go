package domain

// Report is the full result of one fetch cycle.
type Report struct {
	Repository  Repository          `json:"repository"`
	Range       DateRange           `json:"range"`
	Statistics  Statistics          `json:"statistics"`
	Records     []PullRequestRecord `json:"-"`
	Leaderboard []LeaderboardEntry  `json:"leaderboard"`
	Summary     LeaderboardSummary  `json:"summary"`
}
