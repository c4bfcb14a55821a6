package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// Placeholders stored instead of missing data so that every ListingRecord
// field is always populated.
const (
	UnknownLocation     = "Unknown location"
	DescriptionNotFound = "Description not found"
	AdditionalNotFound  = "Additional info not found"
	UnknownImage        = "Unknown image"
	UnknownTitle        = "Title not found"
)

// ListingRecord is the structured data extracted from a single listing page.
// Re-extraction replaces a stored record wholesale.
type ListingRecord struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	LocationText    string `json:"location"`
	DescriptionText string `json:"description"`
	AdditionalInfo  string `json:"additional_info"`
	ImagePath       string `json:"image"`
}

// NewPlaceholderRecord returns a record for id/url with every other field set
// to its placeholder.
func NewPlaceholderRecord(id, url string) *ListingRecord {
	return &ListingRecord{
		ID:              id,
		URL:             url,
		LocationText:    UnknownLocation,
		DescriptionText: ComposeDescription(UnknownLocation, DescriptionNotFound),
		AdditionalInfo:  AdditionalNotFound,
		ImagePath:       UnknownImage,
	}
}

// ComposeDescription joins location and description the way records store them.
func ComposeDescription(location, description string) string {
	return location + " - " + description
}

// HasImage reports whether a local image was stored for the record.
func (r *ListingRecord) HasImage() bool {
	return r.ImagePath != "" && r.ImagePath != UnknownImage
}

// HasDescription reports whether the record carries a real description worth
// classifying.
func (r *ListingRecord) HasDescription() bool {
	d := strings.TrimSpace(r.DescriptionText)
	return d != "" && !strings.HasSuffix(d, " - "+DescriptionNotFound)
}

// RecordMap maps listing identifiers to their last extracted record.
type RecordMap map[string]*ListingRecord

// IDs returns the map keys in ascending order.
func (m RecordMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProcessedSet holds the identifiers already evaluated by the classifier.
// It serializes as a JSON array of strings.
type ProcessedSet map[string]struct{}

// NewProcessedSet builds a set from ids.
func NewProcessedSet(ids ...string) ProcessedSet {
	s := make(ProcessedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add returns true if id was newly added.
func (s ProcessedSet) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s ProcessedSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s ProcessedSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s ProcessedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *ProcessedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewProcessedSet(ids...)
	return nil
}
