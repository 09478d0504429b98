package repositories

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"

	"gitlab.com/gitlab-org/ecr-housekeeping/deletes"
)

type Result struct {
	Repository string
	Images     int
	Expired    int
	Stats      deletes.Stats
	Err        error
}

func (r Result) Deleted() int {
	return r.Stats.Images
}

type Summary struct {
	Results []Result
	ListErr error
	Stats   deletes.Stats
}

func (s *Summary) add(result Result) {
	s.Results = append(s.Results, result)
	s.Stats.Add(result.Stats)
}

func (s *Summary) Failures() []Result {
	var failed []Result
	for _, result := range s.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

func (s *Summary) Failed() bool {
	return s.ListErr != nil || len(s.Failures()) > 0
}

// Err aggregates every failure of the run, or returns nil.
func (s *Summary) Err() error {
	var result *multierror.Error
	if s.ListErr != nil {
		result = multierror.Append(result, fmt.Errorf("listing repositories: %w", s.ListErr))
	}
	for _, failed := range s.Failures() {
		result = multierror.Append(result, fmt.Errorf("%s: %w", failed.Repository, failed.Err))
	}
	return result.ErrorOrNil()
}

func (s *Summary) Print(w io.Writer) {
	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed, color.Bold).SprintFunc()

	fmt.Fprintln(w, "Summary:")
	for _, result := range s.Results {
		status := ok(fmt.Sprintf("%-6s", "OK"))
		if result.Err != nil {
			status = failed("FAILED")
		}
		fmt.Fprintf(w, "  %s %s: %d of %d image(s) expired, %d removed\n",
			status, result.Repository, result.Expired, result.Images, result.Deleted())
	}
	if s.ListErr != nil {
		fmt.Fprintf(w, "  %s listing repositories: %v\n", failed("FAILED"), s.ListErr)
	}

	fmt.Fprintf(w, "%d repo(s) processed, %d failed, %d image(s) removed, %s reclaimed.\n",
		len(s.Results), len(s.Failures()), s.Stats.Images, s.Stats.Reclaimed())
}
