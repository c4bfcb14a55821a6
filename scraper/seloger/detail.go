package seloger

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seloger-notifier/jsonpath"
	"seloger-notifier/models"
	"seloger-notifier/scraper"
)

// Paths into the __NEXT_DATA__ document of a listing page.
const (
	locationPath    = "props.pageProps.listingData.listing.listingDetail.address"
	descriptionPath = "props.pageProps.listingData.listing.listingDetail.descriptive"
	additionalPath  = "props.pageProps.listingData.listing.listingDetail.featureCategories"
	imagePath       = "props.pageProps.listingData.listing.listingDetail.media.photos[0].originalUrl"
)

var detailOptions = scraper.FetchOptions{RenderJS: true, AntiBot: true}

// ExtractDetails fetches a listing page and builds its record. It returns nil
// only when the page could not be fetched; a page without usable structured
// data still produces a record made of placeholders.
func (s *Scraper) ExtractDetails(ctx context.Context, listingURL string) *models.ListingRecord {
	html, err := s.fetcher.Fetch(ctx, listingURL, detailOptions)
	if err != nil {
		s.logger.Error("[seloger] Failed to fetch listing %s: %v", listingURL, err)
		return nil
	}

	record := models.NewPlaceholderRecord(ListingID(listingURL), listingURL)

	root, ok := s.nextData(listingURL, html)
	if !ok {
		return record
	}

	location := textOr(root.Lookup(locationPath), models.UnknownLocation)
	description := textOr(root.Lookup(descriptionPath), models.DescriptionNotFound)

	record.LocationText = location
	record.DescriptionText = models.ComposeDescription(location, description)
	record.AdditionalInfo = textOr(root.Lookup(additionalPath), models.AdditionalNotFound)

	if imageURL, ok := root.Lookup(imagePath).String(); ok && imageURL != "" && s.images != nil {
		local, err := s.images.Download(ctx, imageURL)
		if err != nil {
			s.logger.Warn("[seloger] Image download failed for %s: %v", record.ID, err)
		} else {
			record.ImagePath = local
		}
	}

	return record
}

func (s *Scraper) nextData(listingURL, html string) (jsonpath.Node, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Warn("[seloger] Unparsable page %s: %v", listingURL, err)
		return jsonpath.Node{}, false
	}
	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" {
		s.logger.Warn("[seloger] No JSON data found on page %s", listingURL)
		return jsonpath.Node{}, false
	}
	root, err := jsonpath.FromJSON([]byte(raw))
	if err != nil {
		s.logger.Warn("[seloger] Undecodable JSON data on page %s: %v", listingURL, err)
		return jsonpath.Node{}, false
	}
	return root, true
}

func textOr(n jsonpath.Node, fallback string) string {
	text, ok := n.Text()
	if !ok || strings.TrimSpace(text) == "" {
		return fallback
	}
	return text
}
