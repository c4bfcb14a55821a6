package seloger

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seloger-notifier/scraper"
)

const listingLinkSelector = `a[data-testid="sl.explore.coveringLink"]`

var totalPattern = regexp.MustCompile(`(\d+)\s+annonces`)

var discoveryOptions = scraper.FetchOptions{RenderJS: true, AntiBot: true, AutoScroll: true}

// DiscoverListingURLs walks every result page of searchURL and returns the
// listing URLs in page order. Duplicates are kept.
//
// A failure on the first page yields no URLs. Failures on later pages are
// logged and that page is skipped.
func (s *Scraper) DiscoverListingURLs(ctx context.Context, searchURL string) []string {
	html, err := s.fetcher.Fetch(ctx, searchURL, discoveryOptions)
	if err != nil {
		s.logger.Error("[seloger] Search page failed: %v", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Error("[seloger] Search page unparsable: %v", err)
		return nil
	}

	total := TotalListings(doc.Find("title").First().Text())
	if total == 0 {
		s.logger.Warn("[seloger] Could not determine the total number of listings from the title")
	}
	totalPages := (total + s.pageSize - 1) / s.pageSize
	s.logger.Info("[seloger] %d listings over %d pages", total, totalPages)

	urls := s.listingLinks(doc)
	s.logger.Debug("[seloger] Page 1: %d links", len(urls))

	for page := 2; page <= totalPages; page++ {
		if ctx.Err() != nil {
			break
		}
		pageURL := PageURL(searchURL, page)

		html, err := s.fetcher.Fetch(ctx, pageURL, discoveryOptions)
		if err != nil {
			s.logger.Warn("[seloger] Page %d failed, skipping: %v", page, err)
			continue
		}
		pageDoc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			s.logger.Warn("[seloger] Page %d unparsable, skipping: %v", page, err)
			continue
		}

		links := s.listingLinks(pageDoc)
		s.logger.Debug("[seloger] Page %d: %d links", page, len(links))
		urls = append(urls, links...)
	}

	return urls
}

// TotalListings reads the result count out of a search page title such as
// "Achat maison Angers - 312 annonces". It returns 0 when none is present.
func TotalListings(title string) int {
	m := totalPattern.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func (s *Scraper) listingLinks(doc *goquery.Document) []string {
	var urls []string
	doc.Find(listingLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		if abs := s.normalize(href); abs != "" {
			urls = append(urls, abs)
		}
	})
	return urls
}

// normalize resolves href against the site root and drops query and fragment.
func (s *Scraper) normalize(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := s.base.ResolveReference(ref)
	abs.RawQuery = ""
	abs.Fragment = ""
	return abs.String()
}
