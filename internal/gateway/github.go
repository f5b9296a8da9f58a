// Package gateway provides a gateway to the GitHub search API,
// abstracting away the underlying REST client.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pr-leaderboard/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// CountPullRequests returns the number of pull requests created in the range.
	// closedOnly restricts the count to closed pull requests.
	CountPullRequests(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, closedOnly bool) (int, error)
	// CountCommits returns the number of commits on the default branch committed in the range.
	CountCommits(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) (int, error)
	// FetchPullRequestPage returns one page of pull requests created in the range.
	FetchPullRequestPage(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, page, perPage int) ([]domain.PullRequestRecord, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	org        string
	logger     *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// baseURL may be empty to use the public API. Requests are unauthenticated.
func NewGitHubGateway(baseURL, org string, timeout time.Duration, logger *log.Logger) (Fetcher, error) {
	restClient := github.NewClient(&http.Client{Timeout: timeout})
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API base URL: %w", err)
		}
		restClient.BaseURL = u
	}
	return &GitHubGateway{
		restClient: restClient,
		org:        org,
		logger:     logger,
	}, nil
}

// PullRequestQuery builds the issue search query for pull requests created in the range.
func PullRequestQuery(org string, repo domain.Repository, dateRange domain.DateRange, closedOnly bool) string {
	query := fmt.Sprintf("repo:%s/%s is:pr", org, repo)
	if closedOnly {
		query += " is:closed"
	}
	return query + " created:" + dateRange.Query()
}

// CommitQuery builds the commit search query for commits committed in the range.
func CommitQuery(org string, repo domain.Repository, dateRange domain.DateRange) string {
	return fmt.Sprintf("repo:%s/%s committer-date:%s", org, repo, dateRange.Query())
}

func (g *GitHubGateway) CountPullRequests(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, closedOnly bool) (int, error) {
	op := "count pull requests"
	if closedOnly {
		op = "count closed pull requests"
	}
	query := PullRequestQuery(g.org, repo, dateRange, closedOnly)
	g.logger.Printf("  Searching issues: %s\n", query)

	result, _, err := g.restClient.Search.Issues(ctx, query, nil)
	if err != nil {
		return 0, classify(op, err)
	}
	return checkTotal(op, result.Total)
}

func (g *GitHubGateway) CountCommits(ctx context.Context, repo domain.Repository, dateRange domain.DateRange) (int, error) {
	const op = "count commits"
	query := CommitQuery(g.org, repo, dateRange)
	g.logger.Printf("  Searching commits: %s\n", query)

	result, _, err := g.restClient.Search.Commits(ctx, query, nil)
	if err != nil {
		return 0, classify(op, err)
	}
	return checkTotal(op, result.Total)
}

func (g *GitHubGateway) FetchPullRequestPage(ctx context.Context, repo domain.Repository, dateRange domain.DateRange, page, perPage int) ([]domain.PullRequestRecord, error) {
	op := fmt.Sprintf("fetch pull request page %d", page)
	query := PullRequestQuery(g.org, repo, dateRange, false)
	opts := &github.SearchOptions{ListOptions: github.ListOptions{Page: page, PerPage: perPage}}

	result, _, err := g.restClient.Search.Issues(ctx, query, opts)
	if err != nil {
		return nil, classify(op, err)
	}
	if result.Issues == nil {
		return nil, &domain.MalformedResponseError{Op: op, Field: "items"}
	}

	records := make([]domain.PullRequestRecord, 0, len(result.Issues))
	for _, issue := range result.Issues {
		login := issue.GetUser().GetLogin()
		if login == "" {
			return nil, &domain.MalformedResponseError{Op: op, Field: "items.user.login", Err: fmt.Errorf("pull request #%d has no author", issue.GetNumber())}
		}
		records = append(records, domain.PullRequestRecord{
			Number:      issue.GetNumber(),
			Title:       issue.GetTitle(),
			State:       issue.GetState(),
			AuthorLogin: login,
			CreatedAt:   issue.GetCreatedAt().Time,
		})
	}
	g.logger.Printf("  Received page %d (%d pull requests)\n", page, len(records))
	return records, nil
}

// checkTotal rejects a missing, negative or implausibly large total_count.
func checkTotal(op string, total *int) (int, error) {
	switch {
	case total == nil:
		return 0, &domain.MalformedResponseError{Op: op, Field: "total_count"}
	case *total < 0:
		return 0, &domain.MalformedResponseError{Op: op, Field: "total_count", Err: fmt.Errorf("negative value %d", *total)}
	case *total > domain.MaxCount:
		return 0, &domain.MalformedResponseError{Op: op, Field: "total_count", Err: fmt.Errorf("value %d exceeds %d", *total, domain.MaxCount)}
	}
	return *total, nil
}

// classify maps a client error onto the domain error taxonomy.
// Body decoding failures are malformed responses, everything else is a network error.
func classify(op string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &domain.MalformedResponseError{Op: op, Err: err}
	}
	return &domain.NetworkError{Op: op, Err: fmt.Errorf("failed to search with REST API: %w", err)}
}
