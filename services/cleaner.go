package services

import (
	"strings"
	"unicode"

	"seloger-notifier/scraper/seloger"
	"seloger-notifier/utils"
)

// Candidate is a discovered listing URL paired with its identifier.
type Candidate struct {
	ID  string
	URL string
}

// Cleaner turns raw discovered URLs into the list of listings worth looking at.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Candidates drops empty URLs, URLs outside the site, URLs without a listing
// id and repeated ids. The first occurrence of an id wins and input order is
// preserved.
func (c *Cleaner) Candidates(urls []string) []Candidate {
	seen := make(map[string]struct{})
	result := make([]Candidate, 0, len(urls))

	for _, raw := range urls {
		url := normaliseText(raw)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping empty URL")
			continue
		}
		if !seloger.IsSiteURL(url) {
			c.logger.Info("[cleaner] Skipping non-seloger URL: %s", url)
			continue
		}

		id := seloger.ListingID(url)
		if id == "" {
			c.logger.Warn("[cleaner] No listing id in %s", url)
			continue
		}

		if _, dup := seen[id]; dup {
			c.logger.Debug("[cleaner] Duplicate listing %s skipped: %s", id, url)
			continue
		}
		seen[id] = struct{}{}

		result = append(result, Candidate{ID: id, URL: url})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d candidates (dropped %d)",
		len(urls), len(result), len(urls)-len(result))
	return result
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
