package chrome

import (
	"testing"
	"time"

	"seloger-notifier/scraper"
)

func TestActions(t *testing.T) {
	f := &Fetcher{
		opts:   Options{SettleDelay: 2 * time.Second},
		agents: newUserAgentPool(nil),
	}
	var html string

	tests := []struct {
		name string
		opts scraper.FetchOptions
		want int
	}{
		{"static", scraper.FetchOptions{}, 3},
		{"rendered", scraper.FetchOptions{RenderJS: true}, 3},
		{"rendered antibot", scraper.FetchOptions{RenderJS: true, AntiBot: true}, 4},
		{"everything", scraper.FetchOptions{RenderJS: true, AntiBot: true, AutoScroll: true}, 8},
	}
	for _, tt := range tests {
		if got := len(f.actions("https://example.com", tt.opts, &html)); got != tt.want {
			t.Errorf("%s: got %d actions, want %d", tt.name, got, tt.want)
		}
	}
}

func TestUserAgentPool(t *testing.T) {
	p := newUserAgentPool([]string{"only-agent"})
	for i := 0; i < 3; i++ {
		if got := p.next(); got != "only-agent" {
			t.Errorf("got %q, want only-agent", got)
		}
	}
	if len(newUserAgentPool(nil).agents) != len(defaultUserAgents) {
		t.Error("empty pool should fall back to the default agents")
	}
}

func TestFindChromeBinaryHonorsEnv(t *testing.T) {
	t.Setenv("CHROME_BIN", "/opt/custom/chrome")
	if got := findChromeBinary(); got != "/opt/custom/chrome" {
		t.Errorf("got %q, want /opt/custom/chrome", got)
	}
}
