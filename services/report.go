package services

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Report tallies what a single pipeline cycle did.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	SearchURL string

	Discovered    int
	Candidates    int
	SkippedKnown  int
	Extracted     int
	ExtractFailed int

	AlreadyProcessed int
	ShortCircuited   int
	Classified       int
	ClassifyFailed   int
	Interesting      int
	Notified         int
	NotifyFailed     int
	NewlyProcessed   int

	NotifiedTitles []string
	Cancelled      bool
}

// Summary is a one-line version of the report for the log.
func (r *Report) Summary() string {
	return fmt.Sprintf("discovered=%d candidates=%d extracted=%d failed=%d classified=%d interesting=%d notified=%d in %v",
		r.Discovered, r.Candidates, r.Extracted, r.ExtractFailed, r.Classified, r.Interesting, r.Notified,
		r.Duration.Round(time.Second))
}

// Print writes the report as a framed, colored table.
func (r *Report) Print(w io.Writer) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 SELOGER CYCLE REPORT\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Discovery\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Started at            : %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Listing URLs found    : \033[1m%d\033[0m\n", r.Discovered)
	fmt.Fprintf(w, "  Unique candidates     : \033[1m%d\033[0m\n", r.Candidates)
	fmt.Fprintf(w, "  Already known         : %d\n", r.SkippedKnown)
	fmt.Fprintf(w, "  Extracted             : \033[1;32m%d\033[0m\n", r.Extracted)
	fmt.Fprintf(w, "  Extraction failures   : \033[1;31m%d\033[0m\n", r.ExtractFailed)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Evaluation\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Already processed     : %d\n", r.AlreadyProcessed)
	fmt.Fprintf(w, "  No description        : %d\n", r.ShortCircuited)
	fmt.Fprintf(w, "  Classified            : \033[1m%d\033[0m\n", r.Classified)
	fmt.Fprintf(w, "  Classifier errors     : \033[1;31m%d\033[0m\n", r.ClassifyFailed)
	fmt.Fprintf(w, "  Interesting           : \033[1;32m%d\033[0m\n", r.Interesting)
	fmt.Fprintf(w, "  Notified              : \033[1;32m%d\033[0m\n", r.Notified)
	fmt.Fprintf(w, "  Notification failures : \033[1;31m%d\033[0m\n", r.NotifyFailed)
	fmt.Fprintln(w)

	if len(r.NotifiedTitles) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Sent to you\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for i, title := range r.NotifiedTitles {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %s\n", i+1, truncate(title, 48))
		}
		fmt.Fprintln(w)
	}

	if r.Cancelled {
		fmt.Fprintf(w, "  \033[1;31mCycle interrupted before completion\033[0m\n")
	}
	fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
