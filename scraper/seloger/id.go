package seloger

import (
	"regexp"
	"strings"
)

// BaseURL is the site root every listing URL must start with.
const BaseURL = "https://www.seloger.com"

var listingIDPattern = regexp.MustCompile(`/(\d+)\.htm`)

// ListingID extracts the numeric listing identifier from a listing URL.
// It returns "" when the URL carries none.
func ListingID(rawURL string) string {
	m := listingIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsSiteURL reports whether rawURL points inside the site.
func IsSiteURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, BaseURL)
}
