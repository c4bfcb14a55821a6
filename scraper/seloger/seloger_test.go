package seloger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"seloger-notifier/models"
	"seloger-notifier/scraper"
	"seloger-notifier/utils"
)

// fakeFetcher serves canned pages keyed by URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]bool
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ scraper.FetchOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if f.fail[url] {
		return "", errors.New("boom")
	}
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return html, nil
}

type fakeImages struct {
	path string
	err  error
	got  []string
}

func (f *fakeImages) Download(_ context.Context, imageURL string) (string, error) {
	f.got = append(f.got, imageURL)
	return f.path, f.err
}

func resultsPage(total int, ids ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>Achat maison Angers - %d annonces</title></head><body>", total)
	for _, id := range ids {
		fmt.Fprintf(&b, `<div><a data-testid="sl.explore.coveringLink" href="/annonces/achat/maison/angers-49/%s.htm?projects=2#top">x</a></div>`, id)
	}
	b.WriteString(`<a href="/other/999.htm">not a listing</a></body></html>`)
	return b.String()
}

func listingURL(id string) string {
	return BaseURL + "/annonces/achat/maison/angers-49/" + id + ".htm"
}

const searchURL = BaseURL + "/list.htm?projects=2"

func TestDiscoverFirstPageFailure(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{searchURL: true}}
	s := New(f, nil, utils.NewDiscardLogger(), 25)

	got := s.DiscoverListingURLs(context.Background(), searchURL)
	if len(got) != 0 {
		t.Errorf("got %v, want no URLs", got)
	}
	if len(f.calls) != 1 {
		t.Errorf("fetch calls: got %d, want 1", len(f.calls))
	}
}

func TestDiscoverSkipsFailedMiddlePage(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]string{
			searchURL:             resultsPage(5, "1", "2"),
			PageURL(searchURL, 3): resultsPage(5, "5"),
		},
		fail: map[string]bool{PageURL(searchURL, 2): true},
	}
	s := New(f, nil, utils.NewDiscardLogger(), 2)

	got := s.DiscoverListingURLs(context.Background(), searchURL)
	want := []string{listingURL("1"), listingURL("2"), listingURL("5")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
	if len(f.calls) != 3 {
		t.Errorf("fetch calls: got %d, want 3", len(f.calls))
	}
}

func TestDiscoverWithoutTotalKeepsFirstPage(t *testing.T) {
	page := `<html><head><title>Recherche</title></head><body>
		<a data-testid="sl.explore.coveringLink" href="https://www.seloger.com/annonces/7.htm">x</a>
		<a data-testid="sl.explore.coveringLink" href="https://www.seloger.com/annonces/7.htm">dup</a>
	</body></html>`
	f := &fakeFetcher{pages: map[string]string{searchURL: page}}
	s := New(f, nil, utils.NewDiscardLogger(), 25)

	got := s.DiscoverListingURLs(context.Background(), searchURL)
	if len(got) != 2 || got[0] != BaseURL+"/annonces/7.htm" {
		t.Errorf("got %v, want the two page-1 links", got)
	}
	if len(f.calls) != 1 {
		t.Errorf("fetch calls: got %d, want 1", len(f.calls))
	}
}

func TestTotalListings(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"Achat maison Angers - 312 annonces", 312},
		{"1 annonce", 0},
		{"", 0},
		{"Vente - 25  annonces immobilières", 25},
	}
	for _, tt := range tests {
		if got := TotalListings(tt.title); got != tt.want {
			t.Errorf("TotalListings(%q) = %d; want %d", tt.title, got, tt.want)
		}
	}
}

func TestListingID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{listingURL("215093663"), "215093663"},
		{"https://www.seloger.com/annonces/achat/maison/angers-49/abc.htm", ""},
		{"https://www.seloger.com/list.htm", ""},
	}
	for _, tt := range tests {
		if got := ListingID(tt.url); got != tt.want {
			t.Errorf("ListingID(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestBuildSearchURL(t *testing.T) {
	sc := models.SearchCriteria{
		Projects:             "2,5",
		Types:                "2",
		Natures:              "1,2,4",
		InseeCodes:           []string{"490007"},
		PriceMin:             0,
		PriceMax:             400000,
		SurfaceMin:           120,
		SurfaceMax:           500,
		Bedrooms:             "3,4",
		MandatoryCommodities: "0",
	}
	want := "https://www.seloger.com/list.htm?projects=2,5&types=2&natures=1,2,4" +
		"&places=%5B%7B%22inseeCodes%22%3A%5B%22490007%22%5D%7D%5D" +
		"&price=0/400000&surface=120/500&bedrooms=3,4&sort=d_dt_crea" +
		"&mandatorycommodities=0&enterprise=0&qsVersion=1.0&m=search_refine-redirection-search_results"

	if got := BuildSearchURL(sc); got != want {
		t.Errorf("BuildSearchURL:\n got %s\nwant %s", got, want)
	}
	if got := PageURL(want, 3); got != want+"&LISTING-LISTpg=3" {
		t.Errorf("PageURL: got %s", got)
	}
}

func nextDataPage(doc string) string {
	return `<html><body><script id="__NEXT_DATA__" type="application/json">` + doc + `</script></body></html>`
}

func TestExtractDetailsWithoutStructuredData(t *testing.T) {
	u := listingURL("42")
	f := &fakeFetcher{pages: map[string]string{u: "<html><body>nothing</body></html>"}}
	s := New(f, nil, utils.NewDiscardLogger(), 25)

	rec := s.ExtractDetails(context.Background(), u)
	if rec == nil {
		t.Fatal("expected a placeholder record, got nil")
	}
	if rec.ID != "42" || rec.URL != u {
		t.Errorf("id/url: got %q %q", rec.ID, rec.URL)
	}
	if rec.AdditionalInfo != models.AdditionalNotFound || rec.ImagePath != models.UnknownImage {
		t.Errorf("expected placeholders, got %+v", rec)
	}
}

func TestExtractDetailsUndecodableJSON(t *testing.T) {
	u := listingURL("43")
	f := &fakeFetcher{pages: map[string]string{u: nextDataPage(`{broken`)}}
	s := New(f, nil, utils.NewDiscardLogger(), 25)

	rec := s.ExtractDetails(context.Background(), u)
	if rec == nil || rec.ID != "43" || rec.LocationText != models.UnknownLocation {
		t.Errorf("expected placeholder record, got %+v", rec)
	}
}

func TestExtractDetailsFetchFailure(t *testing.T) {
	u := listingURL("44")
	f := &fakeFetcher{fail: map[string]bool{u: true}}
	s := New(f, nil, utils.NewDiscardLogger(), 25)

	if rec := s.ExtractDetails(context.Background(), u); rec != nil {
		t.Errorf("got %+v, want nil", rec)
	}
}

func TestExtractDetailsFields(t *testing.T) {
	u := listingURL("45")
	doc := `{"props":{"pageProps":{"listingData":{"listing":{"listingDetail":{
		"address": "Angers - Lac de Maine",
		"descriptive": "Maison 6 pièces avec jardin",
		"featureCategories": [{"title": "Extérieur", "features": ["Jardin",   "Terrasse"]}],
		"media": {"photos": [{"originalUrl": "https://v.seloger.com/s/photo/abc123"}]}
	}}}}}}`
	f := &fakeFetcher{pages: map[string]string{u: nextDataPage(doc)}}
	imgs := &fakeImages{path: "img/abc123.jpg"}
	s := New(f, imgs, utils.NewDiscardLogger(), 25)

	rec := s.ExtractDetails(context.Background(), u)
	if rec == nil {
		t.Fatal("got nil record")
	}
	if rec.LocationText != "Angers - Lac de Maine" {
		t.Errorf("LocationText: got %q", rec.LocationText)
	}
	if want := "Angers - Lac de Maine - Maison 6 pièces avec jardin"; rec.DescriptionText != want {
		t.Errorf("DescriptionText: got %q, want %q", rec.DescriptionText, want)
	}
	if want := `[{"features":["Jardin","Terrasse"],"title":"Extérieur"}]`; rec.AdditionalInfo != want {
		t.Errorf("AdditionalInfo: got %q, want %q", rec.AdditionalInfo, want)
	}
	if rec.ImagePath != "img/abc123.jpg" {
		t.Errorf("ImagePath: got %q", rec.ImagePath)
	}
	if len(imgs.got) != 1 || imgs.got[0] != "https://v.seloger.com/s/photo/abc123" {
		t.Errorf("downloads: got %v", imgs.got)
	}
}

func TestExtractDetailsImageFailure(t *testing.T) {
	u := listingURL("46")
	doc := `{"props":{"pageProps":{"listingData":{"listing":{"listingDetail":{
		"descriptive": "Maison",
		"media": {"photos": [{"originalUrl": "https://v.seloger.com/s/photo/zzz"}]}
	}}}}}}`
	f := &fakeFetcher{pages: map[string]string{u: nextDataPage(doc)}}
	s := New(f, &fakeImages{err: errors.New("404")}, utils.NewDiscardLogger(), 25)

	rec := s.ExtractDetails(context.Background(), u)
	if rec.ImagePath != models.UnknownImage {
		t.Errorf("ImagePath: got %q, want %q", rec.ImagePath, models.UnknownImage)
	}
	if rec.LocationText != models.UnknownLocation {
		t.Errorf("LocationText: got %q, want placeholder", rec.LocationText)
	}
	if want := models.UnknownLocation + " - Maison"; rec.DescriptionText != want {
		t.Errorf("DescriptionText: got %q, want %q", rec.DescriptionText, want)
	}
}

func TestFileDownloader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "img")
	d := NewFileDownloader(dir)

	got, err := d.Download(context.Background(), srv.URL+"/s/photo/abc?w=800")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if want := filepath.Join(dir, "abc.jpg"); got != want {
		t.Errorf("path: got %q, want %q", got, want)
	}
	data, err := os.ReadFile(got)
	if err != nil || string(data) != "jpegbytes" {
		t.Errorf("content: got %q, %v", data, err)
	}

	if _, err := d.Download(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
}
