package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 date layout used at every boundary (input and search queries).
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ParseDateRange parses both ends of a range. Both must be non-empty.
// The order of the ends is not checked here; see DateRange.Validate.
func ParseDateRange(from, to string) (DateRange, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return DateRange{}, fmt.Errorf("%w: both ends of the date range are required", ErrIncompleteSelection)
	}
	fromTime, err := time.Parse(DateLayout, strings.TrimSpace(from))
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid from date %q: %v", ErrInvalidRange, from, err)
	}
	toTime, err := time.Parse(DateLayout, strings.TrimSpace(to))
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid to date %q: %v", ErrInvalidRange, to, err)
	}
	return DateRange{From: fromTime, To: toTime}, nil
}

// IsZero reports whether neither end is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Validate checks that From is not after To.
func (r DateRange) Validate() error {
	if r.From.After(r.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidRange, r.From.Format(DateLayout), r.To.Format(DateLayout))
	}
	return nil
}

// Query renders the range in GitHub search syntax, e.g. "2024-01-01..2024-01-31".
func (r DateRange) Query() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}

func (r DateRange) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Query()
}

// Repository identifies one repository of the configured organization.
// The empty value means no repository is selected.
type Repository string

// NoRepository is the "none selected" value.
const NoRepository Repository = ""

// Repositories is the fixed set of repositories a caller may choose from.
type Repositories []Repository

// ParseRepositories splits a comma separated list, dropping blanks.
func ParseRepositories(list string) Repositories {
	var repos Repositories
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			repos = append(repos, Repository(name))
		}
	}
	return repos
}

// Lookup returns the repository named name if it belongs to the set.
func (rs Repositories) Lookup(name string) (Repository, error) {
	repo := Repository(strings.TrimSpace(name))
	if !slices.Contains(rs, repo) {
		return NoRepository, fmt.Errorf("%w: %q (choose one of %s)", ErrUnknownRepository, name, rs)
	}
	return repo, nil
}

func (rs Repositories) String() string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
