package usecase

import (
	"slices"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/pr-leaderboard/internal/domain"
)

// Tally counts pull requests per author login, skipping denylisted logins.
func Tally(records []domain.PullRequestRecord, denylist []string) map[string]int {
	tally := make(map[string]int)
	for _, record := range records {
		if slices.Contains(denylist, record.AuthorLogin) {
			continue
		}
		tally[record.AuthorLogin]++
	}
	return tally
}

// Aggregate ranks authors by pull request count, highest first.
// Equal counts are ordered by login so the result is deterministic.
// It does not depend on the order of records.
func Aggregate(records []domain.PullRequestRecord, denylist []string) []domain.LeaderboardEntry {
	tally := Tally(records, denylist)

	entries := make([]domain.LeaderboardEntry, 0, len(tally))
	for login, count := range tally {
		entries = append(entries, domain.LeaderboardEntry{Login: login, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Login < entries[j].Login
	})
	return entries
}

// Summarize describes how pull requests are spread across the leaderboard.
func Summarize(entries []domain.LeaderboardEntry) domain.LeaderboardSummary {
	if len(entries) == 0 {
		return domain.LeaderboardSummary{}
	}

	counts := make(stats.Float64Data, 0, len(entries))
	summary := domain.LeaderboardSummary{Authors: len(entries)}
	for _, entry := range entries {
		counts = append(counts, float64(entry.Count))
		summary.PullRequests += entry.Count
	}

	// The errors below only fire for empty input, which is handled above.
	summary.Mean, _ = counts.Mean()
	summary.Median, _ = counts.Median()
	maxCount, _ := counts.Max()
	summary.Max = int(maxCount)
	return summary
}
