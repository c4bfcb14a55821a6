package services

import (
	"testing"

	"seloger-notifier/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func TestCleanerCandidates(t *testing.T) {
	c := NewCleaner(newTestLogger())

	got := c.Candidates([]string{
		"https://www.seloger.com/annonces/achat/maison/angers-49/101.htm",
		"   ",
		"https://www.leboncoin.fr/ventes_immobilieres/202.htm",
		"https://www.seloger.com/annonces/achat/maison/angers-49/abc.htm",
		"  https://www.seloger.com/annonces/achat/maison/angers-49/303.htm ",
		"https://www.seloger.com/annonces/achat-de-prestige/maison/angers-49/101.htm",
	})

	want := []Candidate{
		{ID: "101", URL: "https://www.seloger.com/annonces/achat/maison/angers-49/101.htm"},
		{ID: "303", URL: "https://www.seloger.com/annonces/achat/maison/angers-49/303.htm"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCleanerEmptyInput(t *testing.T) {
	c := NewCleaner(newTestLogger())
	if got := c.Candidates(nil); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"  Angers \t Lac   de Maine\n", "Angers Lac de Maine"},
		{"", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := normaliseText(tt.raw); got != tt.want {
			t.Errorf("normaliseText(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}
