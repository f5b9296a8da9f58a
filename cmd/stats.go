package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Shows pull request statistics and the author leaderboard of a repository",
	Long: `Counts total, closed and open pull requests and commits of a repository
within a date range, then fetches every pull request of the range and ranks
the authors by the number of pull requests they opened.`,
	Example: `  pr-leaderboard stats --repo deriv-app --from 2024-01-01 --to 2024-01-31
  pr-leaderboard stats --from 2024-01-01 --to 2024-01-31 --json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newLogger(cmd)

		repo, _ := cmd.Flags().GetString("repo")
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		asJSON, _ := cmd.Flags().GetBool("json")

		session, err := newSession(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if repo != "" {
			if err := session.Select(repo); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v (available: %s)\n", err, session.Repositories())
				os.Exit(1)
			}
		}
		session.SetRange(fromStr, toStr)

		var spinner *pterm.SpinnerPrinter
		if !asJSON {
			spinner, _ = pterm.DefaultSpinner.WithWriter(os.Stderr).Start("Fetching pull requests...")
		}

		start := time.Now()
		report, err := session.Start(ctx)
		if err != nil {
			if spinner != nil {
				spinner.Fail(err.Error())
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if hint := failureHint(err, session.Snapshot(), session.Repositories()); hint != "" {
				pterm.Warning.Println(hint)
			}
			os.Exit(1)
		}
		if spinner != nil {
			spinner.Success(fmt.Sprintf("Fetched %d pull requests in %s", len(report.Records), formatDuration(time.Since(start))))
		}

		if asJSON {
			err = renderJSON(os.Stdout, report)
		} else {
			err = renderReport(os.Stdout, report)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringP("repo", "r", "", "Repository of the organization (default is the configured default repository)")
	statsCmd.Flags().String("from", "", "Start date of the range (YYYY-MM-DD)")
	statsCmd.Flags().String("to", "", "End date of the range (YYYY-MM-DD)")
	statsCmd.Flags().Bool("json", false, "Print the report as JSON")
}
