// Package scraper defines the page-fetching contract shared by the site
// parsers and the browser backend.
package scraper

import "context"

// FetchOptions tunes how a page is loaded.
type FetchOptions struct {
	// RenderJS waits for client-side scripts to run before the DOM is read.
	RenderJS bool
	// AntiBot rotates the user agent and sends browser-like headers.
	AntiBot bool
	// AutoScroll scrolls to the bottom of the page to trigger lazy loading.
	AutoScroll bool
}

// Fetcher returns the rendered HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string, opts FetchOptions) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string, opts FetchOptions) (string, error) {
	return f(ctx, url, opts)
}
