package usecase

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/naka-gawa/pr-leaderboard/internal/domain"
)

// Runner runs one complete fetch cycle. *Aggregator implements it.
type Runner interface {
	Aggregate(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) (*domain.Report, error)
}

// SessionOptions controls selection defaults and reset behaviour.
type SessionOptions struct {
	Repositories domain.Repositories
	// DefaultRepository is selected on creation and, with ResetSelection, on reset.
	DefaultRepository domain.Repository
	// ResetSelection makes Reset clear the date range and restore DefaultRepository.
	ResetSelection bool
	// ValidateRange rejects ranges whose start is after their end.
	ValidateRange bool
}

// CycleResult is delivered once per started cycle.
type CycleResult struct {
	ID     string
	Report *domain.Report
	Err    error
}

// SessionSnapshot is a copy of the session state safe to hand to presentation code.
type SessionSnapshot struct {
	CycleID      string                    `json:"cycle_id,omitempty"`
	Loading      bool                      `json:"loading"`
	Repository   domain.Repository         `json:"repository"`
	From         string                    `json:"from"`
	To           string                    `json:"to"`
	Statistics   domain.Statistics         `json:"statistics"`
	PullRequests domain.Count              `json:"pull_requests_received"`
	Leaderboard  []domain.LeaderboardEntry `json:"leaderboard"`
	Summary      domain.LeaderboardSummary `json:"summary"`
	LastError    string                    `json:"last_error,omitempty"`
}

// Session owns the selection and the results of the most recent fetch cycle.
// It is safe for concurrent use.
type Session struct {
	runner Runner
	opts   SessionOptions
	logger *log.Logger

	mu          sync.Mutex
	repo        domain.Repository
	from, to    string
	cycleID     uuid.UUID
	cancel      context.CancelFunc
	loading     bool
	stats       domain.Statistics
	records     []domain.PullRequestRecord
	leaderboard []domain.LeaderboardEntry
	summary     domain.LeaderboardSummary
	lastErr     error
}

// NewSession creates a session with the default repository selected and no results.
func NewSession(runner Runner, opts SessionOptions, logger *log.Logger) *Session {
	return &Session{
		runner: runner,
		opts:   opts,
		logger: logger,
		repo:   opts.DefaultRepository,
	}
}

// Repositories returns the repositories that may be selected.
func (s *Session) Repositories() domain.Repositories {
	return slices.Clone(s.opts.Repositories)
}

// Select makes name the active repository. An empty name clears the selection.
func (s *Session) Select(name string) error {
	repo := domain.NoRepository
	if name != "" {
		var err error
		if repo, err = s.opts.Repositories.Lookup(name); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.repo = repo
	s.mu.Unlock()
	return nil
}

// SetRange stores the raw range ends. They are parsed when a cycle starts.
func (s *Session) SetRange(from, to string) {
	s.mu.Lock()
	s.from, s.to = from, to
	s.mu.Unlock()
}

// UpdateRange replaces only the non-nil ends of the range.
func (s *Session) UpdateRange(from, to *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from != nil {
		s.from = *from
	}
	if to != nil {
		s.to = *to
	}
}

// Begin validates the selection, clears previous results, marks the session
// as loading and runs a cycle in the background. Any cycle still in flight is
// cancelled and its result discarded. Begin returns the ID of the new cycle
// and a channel that yields exactly one result.
func (s *Session) Begin(ctx context.Context) (string, <-chan CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == domain.NoRepository {
		return "", nil, fmt.Errorf("%w: no repository selected", domain.ErrIncompleteSelection)
	}
	dateRange, err := domain.ParseDateRange(s.from, s.to)
	if err != nil {
		return "", nil, err
	}
	if s.opts.ValidateRange {
		if err := dateRange.Validate(); err != nil {
			return "", nil, err
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	id := uuid.New()
	s.cycleID = id
	s.cancel = cancel
	s.clearResultsLocked()
	s.lastErr = nil
	s.loading = true

	repo := s.repo
	s.logger.Printf("Session: cycle %s started for %s (%s)\n", id, repo, dateRange)

	results := make(chan CycleResult, 1)
	go func() {
		defer cancel()
		report, err := s.runner.Aggregate(cycleCtx, repo, dateRange)
		results <- s.finish(id, report, err)
	}()
	return id.String(), results, nil
}

// Start runs a cycle and waits for it to finish.
func (s *Session) Start(ctx context.Context) (*domain.Report, error) {
	_, results, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	res := <-results
	return res.Report, res.Err
}

func (s *Session) finish(id uuid.UUID, report *domain.Report, err error) CycleResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := CycleResult{ID: id.String()}
	if s.cycleID != id {
		s.logger.Printf("Session: discarding result of superseded cycle %s\n", id)
		res.Err = domain.ErrSuperseded
		return res
	}

	s.cancel = nil
	s.loading = false
	if err != nil {
		s.logger.Printf("Session: cycle %s failed: %v\n", id, err)
		s.clearResultsLocked()
		s.lastErr = err
		res.Err = err
		return res
	}

	s.stats = report.Statistics
	s.records = report.Records
	s.leaderboard = report.Leaderboard
	s.summary = report.Summary
	s.logger.Printf("Session: cycle %s complete (%d authors)\n", id, len(report.Leaderboard))
	res.Report = report
	return res
}

// Reset cancels any cycle in flight and returns all results to the unknown state.
// With ResetSelection the date range is cleared and the default repository restored.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.cycleID = uuid.Nil
	s.loading = false
	s.lastErr = nil
	s.clearResultsLocked()
	if s.opts.ResetSelection {
		s.repo = s.opts.DefaultRepository
		s.from, s.to = "", ""
	}
	s.logger.Println("Session: reset")
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		Loading:      s.loading,
		Repository:   s.repo,
		From:         s.from,
		To:           s.to,
		Statistics:   s.stats,
		PullRequests: domain.UnknownCount(),
		Leaderboard:  slices.Clone(s.leaderboard),
		Summary:      s.summary,
	}
	if s.records != nil {
		snap.PullRequests = domain.KnownCount(len(s.records))
	}
	if s.cycleID != uuid.Nil {
		snap.CycleID = s.cycleID.String()
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

func (s *Session) clearResultsLocked() {
	s.stats = domain.Statistics{}
	s.records = nil
	s.leaderboard = nil
	s.summary = domain.LeaderboardSummary{}
}
