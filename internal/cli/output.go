package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/qolzam/telar/apps/social/engagement/services"
	"github.com/qolzam/telar/apps/social/internal/globalid"
	postsModels "github.com/qolzam/telar/apps/social/posts/models"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Some posts could not be reconciled
	ExitCommandError = 2 // Configuration or connection problem
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

type correctionJSON struct {
	Post   string               `json:"post"`
	Before postsModels.Counters `json:"before"`
	After  postsModels.Counters `json:"after"`
}

type reportJSON struct {
	Scanned     int              `json:"scanned"`
	Corrected   int              `json:"corrected"`
	Failed      int              `json:"failed"`
	Skipped     int              `json:"skipped"`
	DurationMS  int64            `json:"duration_ms"`
	Corrections []correctionJSON `json:"corrections"`
}

// WriteReport renders a reconcile report as text or JSON; post ids are encoded with codec
func WriteReport(w io.Writer, format string, report *services.ReconcileReport, codec globalid.Codec) error {
	if format == "json" {
		out := reportJSON{
			Scanned:     report.Scanned,
			Corrected:   report.Corrected,
			Failed:      report.Failed,
			Skipped:     report.Skipped,
			DurationMS:  report.Duration.Milliseconds(),
			Corrections: make([]correctionJSON, 0, len(report.Corrections)),
		}
		for _, c := range report.Corrections {
			out.Corrections = append(out.Corrections, correctionJSON{
				Post:   codec.Encode(globalid.TypePost, c.PostID),
				Before: c.Before,
				After:  c.After,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Reconciled %d posts in %s\n", report.Scanned, report.Duration)
	fmt.Fprintf(w, "  corrected: %d\n  failed:    %d\n  skipped:   %d\n", report.Corrected, report.Failed, report.Skipped)
	if len(report.Corrections) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POST\tLIKES\tCOMMENTS\tSHARES")
	for _, c := range report.Corrections {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			codec.Encode(globalid.TypePost, c.PostID),
			change(c.Before.Likes, c.After.Likes),
			change(c.Before.Comments, c.After.Comments),
			change(c.Before.Shares, c.After.Shares))
	}
	return tw.Flush()
}

func change(before, after int64) string {
	if before == after {
		return fmt.Sprintf("%d", after)
	}
	return fmt.Sprintf("%d -> %d", before, after)
}
