package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/naka-gawa/pr-leaderboard/internal/domain"
)

// Aggregator is the use case for building a pull request leaderboard.
// It orchestrates statistics, pagination and ranking for one cycle.
type Aggregator struct {
	statistics *StatisticsFetcher
	paginator  *Paginator
	denylist   []string
	logger     *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(statistics *StatisticsFetcher, paginator *Paginator, denylist []string, logger *log.Logger) *Aggregator {
	return &Aggregator{
		statistics: statistics,
		paginator:  paginator,
		denylist:   denylist,
		logger:     logger,
	}
}

// Aggregate performs the main business logic.
// The total pull request count from the statistics step drives pagination,
// and the leaderboard is only computed once every page has been received.
func (a *Aggregator) Aggregate(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) (*domain.Report, error) {
	a.logger.Printf("Usecase: Starting aggregation for %s (%s)...\n", repo, dateRange)

	stats, err := a.statistics.FetchStatistics(ctx, repo, dateRange)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statistics: %w", err)
	}

	total, _ := stats.PullRequests.Total.Value()
	records, err := a.paginator.FetchAll(ctx, repo, dateRange, total)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull requests: %w", err)
	}

	a.logger.Println("[3/3] Ranking pull request authors...")
	leaderboard := Aggregate(records, a.denylist)

	a.logger.Println("Usecase: Aggregation complete.")
	return &domain.Report{
		Repository:  repo,
		Range:       dateRange,
		Statistics:  stats,
		Records:     records,
		Leaderboard: leaderboard,
		Summary:     Summarize(leaderboard),
	}, nil
}
