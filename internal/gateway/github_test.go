package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/pr-leaderboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	gateway := &GitHubGateway{
		restClient: restClient,
		org:        "binary-com",
		logger:     log.New(io.Discard, "", 0),
	}

	return gateway, server
}

func testRange(t *testing.T) domain.DateRange {
	r, err := domain.ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	return r
}

func isNetworkError(err error) bool {
	var target *domain.NetworkError
	return errors.As(err, &target)
}

func isMalformedResponse(err error) bool {
	var target *domain.MalformedResponseError
	return errors.As(err, &target)
}

func TestQueries(t *testing.T) {
	r := testRange(t)
	assert.Equal(t, "repo:binary-com/deriv-app is:pr created:2024-01-01..2024-01-31", PullRequestQuery("binary-com", "deriv-app", r, false))
	assert.Equal(t, "repo:binary-com/deriv-app is:pr is:closed created:2024-01-01..2024-01-31", PullRequestQuery("binary-com", "deriv-app", r, true))
	assert.Equal(t, "repo:binary-com/deriv-com committer-date:2024-01-01..2024-01-31", CommitQuery("binary-com", "deriv-com", r))
}

func TestGitHubGateway_CountPullRequests(t *testing.T) {
	testCases := []struct {
		name          string
		closedOnly    bool
		handlerFunc   func(t *testing.T) http.HandlerFunc
		expectedCount int
		expectedErr   func(error) bool
	}{
		{
			name: "happy path - all pull requests",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "/search/issues", r.URL.Path)
					assert.Equal(t, "repo:binary-com/deriv-app is:pr created:2024-01-01..2024-01-31", r.URL.Query().Get("q"))
					fmt.Fprint(w, `{"total_count": 250, "items": []}`)
				}
			},
			expectedCount: 250,
		},
		{
			name:       "happy path - closed pull requests",
			closedOnly: true,
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Contains(t, r.URL.Query().Get("q"), "is:closed")
					fmt.Fprint(w, `{"total_count": 3, "items": []}`)
				}
			},
			expectedCount: 3,
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
				}
			},
			expectedErr: isNetworkError,
		},
		{
			name: "error case - total_count missing",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, `{"items": []}`)
				}
			},
			expectedErr: isMalformedResponse,
		},
		{
			name: "error case - total_count beyond any repository",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, `{"total_count": 9223372036854775807, "items": []}`)
				}
			},
			expectedErr: isMalformedResponse,
		},
		{
			name: "error case - body is not JSON",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, `<html>oops</html>`)
				}
			},
			expectedErr: isMalformedResponse,
		},
		{
			name: "error case - total_count has the wrong type",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, `{"total_count": "many"}`)
				}
			},
			expectedErr: isMalformedResponse,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, tc.handlerFunc(t))
			defer server.Close()

			count, err := gateway.CountPullRequests(context.Background(), "deriv-app", testRange(t), tc.closedOnly)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.True(t, tc.expectedErr(err), "unexpected error type: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedCount, count)
		})
	}
}

func TestGitHubGateway_CountCommits(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/commits", r.URL.Path)
		assert.Equal(t, "repo:binary-com/deriv-app committer-date:2024-01-01..2024-01-31", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"total_count": 42, "items": []}`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	count, err := gateway.CountCommits(context.Background(), "deriv-app", testRange(t))
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestGitHubGateway_CountCommits_MissingTotal(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	_, err := gateway.CountCommits(context.Background(), "deriv-app", testRange(t))
	var malformed *domain.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "total_count", malformed.Field)
}

func TestGitHubGateway_FetchPullRequestPage(t *testing.T) {
	t.Run("happy path - maps items to records", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "repo:binary-com/deriv-app is:pr created:2024-01-01..2024-01-31", q.Get("q"))
			assert.Equal(t, "100", q.Get("per_page"))
			assert.Equal(t, "3", q.Get("page"))
			fmt.Fprint(w, `{"total_count": 250, "items": [
				{"number": 7, "title": "Fix login", "state": "open", "user": {"login": "alice"}, "created_at": "2024-01-02T10:00:00Z"},
				{"number": 8, "title": "Bump deps", "state": "closed", "user": {"login": "dependabot[bot]"}, "created_at": "2024-01-03T10:00:00Z"}
			]}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		records, err := gateway.FetchPullRequestPage(context.Background(), "deriv-app", testRange(t), 3, 100)
		require.NoError(t, err)
		assert.Equal(t, []domain.PullRequestRecord{
			{Number: 7, Title: "Fix login", State: "open", AuthorLogin: "alice", CreatedAt: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
			{Number: 8, Title: "Bump deps", State: "closed", AuthorLogin: "dependabot[bot]", CreatedAt: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)},
		}, records)
	})

	t.Run("error case - items missing", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"total_count": 250}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.FetchPullRequestPage(context.Background(), "deriv-app", testRange(t), 1, 100)
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "items", malformed.Field)
	})

	t.Run("error case - item without author", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"total_count": 1, "items": [{"number": 1}]}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.FetchPullRequestPage(context.Background(), "deriv-app", testRange(t), 1, 100)
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "items.user.login", malformed.Field)
	})

	t.Run("error case - request cancelled", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"total_count": 0, "items": []}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := gateway.FetchPullRequestPage(ctx, "deriv-app", testRange(t), 1, 100)
		var netErr *domain.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewGitHubGateway(t *testing.T) {
	fetcher, err := NewGitHubGateway("https://ghe.example.com/api/v3", "binary-com", time.Second, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	gateway, ok := fetcher.(*GitHubGateway)
	require.True(t, ok)
	assert.Equal(t, "https://ghe.example.com/api/v3/", gateway.restClient.BaseURL.String())
	assert.Equal(t, "binary-com", gateway.org)
}
