package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/naka-gawa/pr-leaderboard/internal/domain"
	"github.com/naka-gawa/pr-leaderboard/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// preallocPages bounds the record buffer allocated before any page arrives.
const preallocPages = 10

// PageRequest is one page of a pagination plan.
// Expected is how many records the page should hold given the total.
type PageRequest struct {
	Number   int
	Expected int
}

// Paginator retrieves every page of pull requests matching a search.
type Paginator struct {
	fetcher        gateway.Fetcher
	logger         *log.Logger
	pageSize       int
	maxConcurrency int
	stallTimeout   time.Duration
}

// PaginatorOption configures a Paginator.
type PaginatorOption func(*Paginator)

// WithPageSize sets the number of records requested per page.
func WithPageSize(n int) PaginatorOption {
	return func(p *Paginator) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithMaxConcurrency bounds the number of pages in flight. n <= 0 means unbounded.
func WithMaxConcurrency(n int) PaginatorOption {
	return func(p *Paginator) {
		p.maxConcurrency = n
	}
}

// WithStallTimeout bounds how long FetchAll waits for all pages. Zero disables the bound.
func WithStallTimeout(d time.Duration) PaginatorOption {
	return func(p *Paginator) {
		p.stallTimeout = d
	}
}

// NewPaginator creates a new Paginator. Pages hold 100 records unless configured otherwise.
func NewPaginator(fetcher gateway.Fetcher, logger *log.Logger, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		fetcher:  fetcher,
		logger:   logger,
		pageSize: 100,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns the pages needed to cover total records, numbered from 1.
func (p *Paginator) Plan(total int) []PageRequest {
	if total <= 0 {
		return nil
	}
	pages := total / p.pageSize
	if total%p.pageSize != 0 {
		pages++
	}
	plan := make([]PageRequest, 0, pages)
	for n := 1; n <= pages; n++ {
		remaining := total - (n-1)*p.pageSize
		plan = append(plan, PageRequest{Number: n, Expected: min(p.pageSize, remaining)})
	}
	return plan
}

// FetchAll requests every planned page concurrently and waits for all of them.
// Records are returned in arrival order. A record count that differs from
// total once every page has completed, or a wait longer than the stall
// timeout, is reported as a *domain.StallError.
func (p *Paginator) FetchAll(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, total int) ([]domain.PullRequestRecord, error) {
	if total > domain.MaxCount {
		return nil, &domain.MalformedResponseError{
			Op:    "plan pull request pages",
			Field: "total_count",
			Err:   fmt.Errorf("value %d exceeds %d", total, domain.MaxCount),
		}
	}
	plan := p.Plan(total)
	p.logger.Printf("[2/3] Fetching %d pull requests in %d page(s)...\n", total, len(plan))
	if len(plan) == 0 {
		return []domain.PullRequestRecord{}, nil
	}

	if p.stallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.stallTimeout)
		defer cancel()
	}

	var (
		mu      sync.Mutex
		records = make([]domain.PullRequestRecord, 0, min(total, p.pageSize*min(len(plan), preallocPages)))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	if p.maxConcurrency > 0 {
		eg.SetLimit(p.maxConcurrency)
	}

	for _, page := range plan {
		page := page // per-iteration copy; go directive is below 1.22
		eg.Go(func() error {
			items, err := p.fetcher.FetchPullRequestPage(egCtx, repo, dateRange, page.Number, p.pageSize)
			if err != nil {
				return err
			}
			mu.Lock()
			records = append(records, items...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		if p.stallTimeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			mu.Lock()
			received := len(records)
			mu.Unlock()
			return nil, &domain.StallError{Expected: total, Received: received, Timeout: p.stallTimeout}
		}
		return nil, err
	}

	if len(records) != total {
		return nil, &domain.StallError{Expected: total, Received: len(records)}
	}

	p.logger.Println("Completed fetching pull requests.")
	return records, nil
}
