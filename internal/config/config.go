// Package config resolves runtime settings from defaults, an optional .env
// file and the process environment. Command line flags override the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/naka-gawa/pr-leaderboard/internal/domain"
)

// MaxPageSize is the largest page the search API serves.
const MaxPageSize = 100

const (
	DefaultAPIURL       = "https://api.github.com/"
	DefaultOrganization = "binary-com"
	DefaultRepositories = "deriv-app,deriv-com"
	DefaultDenylist     = "github-actions[bot],dependabot[bot]"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultStallTimeout = 2 * time.Minute
)

// Environment variable names.
const (
	EnvAPIURL             = "PRLB_API_URL"
	EnvOrganization       = "PRLB_ORG"
	EnvRepositories       = "PRLB_REPOSITORIES"
	EnvDefaultRepository  = "PRLB_DEFAULT_REPOSITORY"
	EnvDenylist           = "PRLB_DENYLIST"
	EnvPageSize           = "PRLB_PAGE_SIZE"
	EnvMaxConcurrentPages = "PRLB_MAX_CONCURRENT_PAGES"
	EnvHTTPTimeout        = "PRLB_HTTP_TIMEOUT"
	EnvStallTimeout       = "PRLB_STALL_TIMEOUT"
	EnvResetSelection     = "PRLB_RESET_SELECTION"
	EnvValidateRange      = "PRLB_VALIDATE_RANGE"
)

// Config holds every tunable of the application.
type Config struct {
	APIURL       string
	Organization string
	Repositories domain.Repositories
	// DefaultRepository is pre-selected when a session is created or reset.
	// NoRepository means nothing is selected.
	DefaultRepository domain.Repository
	Denylist          []string
	PageSize          int
	// MaxConcurrentPages bounds in-flight page requests. Zero or less means unbounded.
	MaxConcurrentPages int
	HTTPTimeout        time.Duration
	StallTimeout       time.Duration
	// ResetSelection makes a session reset also clear the repository and date range.
	ResetSelection bool
	// ValidateRange rejects ranges whose start is after their end.
	ValidateRange bool
}

// Default returns the built-in configuration.
func Default() Config {
	repos := domain.ParseRepositories(DefaultRepositories)
	return Config{
		APIURL:             DefaultAPIURL,
		Organization:       DefaultOrganization,
		Repositories:       repos,
		DefaultRepository:  repos[0],
		Denylist:           splitList(DefaultDenylist),
		PageSize:           MaxPageSize,
		MaxConcurrentPages: 0,
		HTTPTimeout:        DefaultHTTPTimeout,
		StallTimeout:       DefaultStallTimeout,
		ResetSelection:     true,
		ValidateRange:      false,
	}
}

// Load reads the given .env files (missing files are ignored), then applies
// the environment on top of the defaults.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv applies environment lookups on top of the defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := lookup(EnvOrganization); ok && v != "" {
		cfg.Organization = v
	}
	if v, ok := lookup(EnvRepositories); ok && v != "" {
		cfg.Repositories = domain.ParseRepositories(v)
		cfg.DefaultRepository = domain.NoRepository
		if len(cfg.Repositories) > 0 {
			cfg.DefaultRepository = cfg.Repositories[0]
		}
	}
	if v, ok := lookup(EnvDefaultRepository); ok {
		cfg.DefaultRepository = domain.Repository(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvDenylist); ok {
		cfg.Denylist = splitList(v)
	}

	var err error
	if cfg.PageSize, err = intVar(lookup, EnvPageSize, cfg.PageSize); err != nil {
		return Config{}, err
	}
	if cfg.MaxConcurrentPages, err = intVar(lookup, EnvMaxConcurrentPages, cfg.MaxConcurrentPages); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationVar(lookup, EnvHTTPTimeout, cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.StallTimeout, err = durationVar(lookup, EnvStallTimeout, cfg.StallTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ResetSelection, err = boolVar(lookup, EnvResetSelection, cfg.ResetSelection); err != nil {
		return Config{}, err
	}
	if cfg.ValidateRange, err = boolVar(lookup, EnvValidateRange, cfg.ValidateRange); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the rest of the program cannot work with.
func (c Config) Validate() error {
	if c.Organization == "" {
		return errors.New("organization must not be empty")
	}
	if len(c.Repositories) == 0 {
		return errors.New("at least one repository must be configured")
	}
	if c.DefaultRepository != domain.NoRepository {
		if _, err := c.Repositories.Lookup(string(c.DefaultRepository)); err != nil {
			return fmt.Errorf("invalid default repository: %w", err)
		}
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", MaxPageSize, c.PageSize)
	}
	if c.HTTPTimeout < 0 || c.StallTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func intVar(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return n, nil
}

func durationVar(lookup func(string) (string, bool), key string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return d, nil
}

func boolVar(lookup func(string) (string, bool), key string, def bool) (bool, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return b, nil
}
