// Package seloger knows how SeLoger search and listing pages are laid out:
// how to build a search, walk its result pages and pull the structured data
// out of a listing.
package seloger

import (
	"net/url"

	"seloger-notifier/scraper"
	"seloger-notifier/utils"
)

// DefaultPageSize is the number of listings SeLoger shows per result page.
const DefaultPageSize = 25

// Scraper drives a scraper.Fetcher over SeLoger pages. It holds no state
// between calls.
type Scraper struct {
	fetcher  scraper.Fetcher
	images   ImageDownloader
	logger   *utils.Logger
	pageSize int
	base     *url.URL
}

// New returns a Scraper. images may be nil, in which case listing photos are
// never downloaded.
func New(fetcher scraper.Fetcher, images ImageDownloader, logger *utils.Logger, pageSize int) *Scraper {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	base, _ := url.Parse(BaseURL)
	return &Scraper{
		fetcher:  fetcher,
		images:   images,
		logger:   logger,
		pageSize: pageSize,
		base:     base,
	}
}
