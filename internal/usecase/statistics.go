// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/naka-gawa/pr-leaderboard/internal/domain"
	"github.com/naka-gawa/pr-leaderboard/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// StatisticsFetcher fetches the summary counts for a repository and range.
type StatisticsFetcher struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewStatisticsFetcher creates a new StatisticsFetcher instance.
func NewStatisticsFetcher(fetcher gateway.Fetcher, logger *log.Logger) *StatisticsFetcher {
	return &StatisticsFetcher{
		fetcher: fetcher,
		logger:  logger,
	}
}

// FetchStatistics issues the total, closed and commit count queries concurrently.
// The open count is derived as total - closed.
func (s *StatisticsFetcher) FetchStatistics(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) (domain.Statistics, error) {
	s.logger.Println("[1/3] Fetching pull request and commit statistics...")

	var total, closed, commits int

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		total, err = s.fetcher.CountPullRequests(egCtx, repo, dateRange, false)
		return err
	})

	eg.Go(func() error {
		var err error
		closed, err = s.fetcher.CountPullRequests(egCtx, repo, dateRange, true)
		return err
	})

	eg.Go(func() error {
		var err error
		commits, err = s.fetcher.CountCommits(egCtx, repo, dateRange)
		return err
	})

	if err := eg.Wait(); err != nil {
		return domain.Statistics{}, err
	}

	if closed > total {
		return domain.Statistics{}, &domain.MalformedResponseError{
			Op:    "fetch statistics",
			Field: "total_count",
			Err:   fmt.Errorf("closed pull requests (%d) exceed total (%d)", closed, total),
		}
	}

	stats := domain.Statistics{
		PullRequests: domain.NewPullRequestStatistics(total, closed),
		Commits:      domain.KnownCount(commits),
	}
	s.logger.Printf("Statistics: total=%d closed=%d open=%s commits=%d\n", total, closed, stats.PullRequests.Open, commits)
	return stats, nil
}
