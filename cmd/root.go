// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/naka-gawa/pr-leaderboard/internal/config"
	"github.com/naka-gawa/pr-leaderboard/internal/gateway"
	"github.com/naka-gawa/pr-leaderboard/internal/usecase"
	"github.com/spf13/cobra"
)

// cfg is resolved once in the root PersistentPreRunE and shared by all commands.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "pr-leaderboard",
	Short: "Pull request statistics and author leaderboard for GitHub repositories.",
	Long: `pr-leaderboard queries the GitHub search API for pull request and commit
counts of a repository within a date range, then ranks pull request authors
by the number of pull requests they opened.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var envFiles []string
		if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
			envFiles = append(envFiles, envFile)
		}
		loaded, err := config.Load(envFiles...)
		if err != nil {
			return err
		}
		if err := applyFlagOverrides(cmd, &loaded); err != nil {
			return err
		}
		cfg = loaded
		return cfg.Validate()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional file of environment variables to load")
	rootCmd.PersistentFlags().String("api-url", "", "GitHub API base URL (default "+config.DefaultAPIURL+")")
	rootCmd.PersistentFlags().StringP("org", "o", "", "GitHub organization (default "+config.DefaultOrganization+")")
	rootCmd.PersistentFlags().StringSlice("denylist", nil, "Logins excluded from the leaderboard (default "+config.DefaultDenylist+")")
	rootCmd.PersistentFlags().Int("max-concurrent-pages", 0, "Maximum page requests in flight, 0 for unbounded")
	rootCmd.PersistentFlags().Duration("http-timeout", 0, "Timeout of a single API request")
	rootCmd.PersistentFlags().Duration("stall-timeout", 0, "Maximum time to wait for all pull request pages")
	rootCmd.PersistentFlags().Bool("validate-range", false, "Reject date ranges whose start is after their end")
}

// applyFlagOverrides copies explicitly set flags over the environment configuration.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("api-url") {
		c.APIURL, err = flags.GetString("api-url")
	}
	if err == nil && flags.Changed("org") {
		c.Organization, err = flags.GetString("org")
	}
	if err == nil && flags.Changed("denylist") {
		c.Denylist, err = flags.GetStringSlice("denylist")
	}
	if err == nil && flags.Changed("max-concurrent-pages") {
		c.MaxConcurrentPages, err = flags.GetInt("max-concurrent-pages")
	}
	if err == nil && flags.Changed("http-timeout") {
		c.HTTPTimeout, err = flags.GetDuration("http-timeout")
	}
	if err == nil && flags.Changed("stall-timeout") {
		c.StallTimeout, err = flags.GetDuration("stall-timeout")
	}
	if err == nil && flags.Changed("validate-range") {
		c.ValidateRange, err = flags.GetBool("validate-range")
	}
	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}
	return nil
}

// newLogger discards all logs unless verbose output was requested.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// newSession wires the gateway and use cases into a session.
func newSession(c config.Config, logger *log.Logger) (*usecase.Session, error) {
	githubGateway, err := gateway.NewGitHubGateway(c.APIURL, c.Organization, c.HTTPTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	aggregator := usecase.NewAggregator(
		usecase.NewStatisticsFetcher(githubGateway, logger),
		usecase.NewPaginator(githubGateway, logger,
			usecase.WithPageSize(c.PageSize),
			usecase.WithMaxConcurrency(c.MaxConcurrentPages),
			usecase.WithStallTimeout(c.StallTimeout),
		),
		c.Denylist,
		logger,
	)

	return usecase.NewSession(aggregator, usecase.SessionOptions{
		Repositories:      c.Repositories,
		DefaultRepository: c.DefaultRepository,
		ResetSelection:    c.ResetSelection,
		ValidateRange:     c.ValidateRange,
	}, logger), nil
}
