package seloger

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"seloger-notifier/models"
)

const searchPath = "/list.htm?"

// BuildSearchURL renders criteria as a search results URL. Parameter order is
// fixed so that the same criteria always yield the same URL.
func BuildSearchURL(sc models.SearchCriteria) string {
	places, _ := json.Marshal([]map[string][]string{{"inseeCodes": sc.InseeCodes}})

	params := [][2]string{
		{"projects", sc.Projects},
		{"types", sc.Types},
		{"natures", sc.Natures},
		{"places", url.QueryEscape(string(places))},
		{"price", fmt.Sprintf("%d/%d", sc.PriceMin, sc.PriceMax)},
		{"surface", fmt.Sprintf("%d/%d", sc.SurfaceMin, sc.SurfaceMax)},
		{"bedrooms", sc.Bedrooms},
		{"sort", "d_dt_crea"},
		{"mandatorycommodities", sc.MandatoryCommodities},
		{"enterprise", "0"},
		{"qsVersion", "1.0"},
		{"m", "search_refine-redirection-search_results"},
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p[0]+"="+p[1])
	}
	return BaseURL + searchPath + strings.Join(parts, "&")
}

// PageURL returns the URL of result page n (1-based) for searchURL.
func PageURL(searchURL string, n int) string {
	if n <= 1 {
		return searchURL
	}
	return fmt.Sprintf("%s&LISTING-LISTpg=%d", searchURL, n)
}
