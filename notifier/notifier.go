// Package notifier delivers interesting listings to the user.
package notifier

import (
	"context"
	"fmt"
	"strings"
)

// Notifier sends a message, with an optional local image, to the user.
// An empty imagePath sends text only.
type Notifier interface {
	Notify(ctx context.Context, text, imagePath string) error
}

// FormatMessage renders the notification text for a listing.
func FormatMessage(title, url, summary string) string {
	return fmt.Sprintf("Title: %s\nURL: %s\nDescription:\n%s\n", title, url, summary)
}

// captionFor returns the first line of text cut to at most max runes.
func captionFor(text string, max int) string {
	line, _, _ := strings.Cut(text, "\n")
	r := []rune(line)
	if len(r) > max {
		r = r[:max]
	}
	return string(r)
}
