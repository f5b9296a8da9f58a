package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/naka-gawa/pr-leaderboard/internal/domain"
	"github.com/naka-gawa/pr-leaderboard/internal/usecase"
	"github.com/pterm/pterm"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgWhite)
	valueColor   = color.New(color.FgGreen, color.Bold)
)

// renderReport writes the headline statistics and the leaderboard table.
func renderReport(w io.Writer, report *domain.Report) error {
	headingColor.Fprintf(w, "%s (%s)\n", report.Repository, report.Range)

	headline := []struct {
		label string
		value domain.Count
	}{
		{"Total pull requests", report.Statistics.PullRequests.Total},
		{"Closed pull requests", report.Statistics.PullRequests.Closed},
		{"Open pull requests", report.Statistics.PullRequests.Open},
		{"Commits", report.Statistics.Commits},
	}
	for _, h := range headline {
		labelColor.Fprintf(w, "%-22s", h.label)
		valueColor.Fprintln(w, h.value.String())
	}
	fmt.Fprintln(w)

	if len(report.Leaderboard) == 0 {
		fmt.Fprintln(w, "No pull requests were opened in this range.")
		return nil
	}

	data := pterm.TableData{{"#", "Author", "Pull requests"}}
	for i, entry := range report.Leaderboard {
		data = append(data, []string{strconv.Itoa(i + 1), entry.Login, strconv.Itoa(entry.Count)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return fmt.Errorf("failed to render leaderboard: %w", err)
	}

	s := report.Summary
	fmt.Fprintf(w, "\n%d authors, %d pull requests (mean %.2f, median %.1f, max %d)\n",
		s.Authors, s.PullRequests, s.Mean, s.Median, s.Max)
	return nil
}

// renderJSON writes the report as indented JSON.
func renderJSON(w io.Writer, report *domain.Report) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// failureHint suggests how to fix a failed cycle, or returns "" when there is nothing to suggest.
func failureHint(err error, snap usecase.SessionSnapshot, repos domain.Repositories) string {
	var stall *domain.StallError
	switch {
	case errors.Is(err, domain.ErrIncompleteSelection) && snap.Repository == domain.NoRepository:
		return fmt.Sprintf("No repository is selected. Pass --repo (available: %s).", repos)
	case errors.Is(err, domain.ErrIncompleteSelection):
		return "Both --from and --to are required (YYYY-MM-DD)."
	case errors.As(err, &stall):
		return "Not every pull request page arrived. Try a narrower range or a larger --stall-timeout."
	}
	return ""
}

func formatDuration(d time.Duration) string {
	return d.Truncate(time.Millisecond).String()
}
