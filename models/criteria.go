package models

// SearchCriteria describes the search the pipeline runs on every cycle.
// It is loaded once at startup and never mutated.
type SearchCriteria struct {
	Projects             string   `yaml:"projects"`
	Types                string   `yaml:"types"`
	Natures              string   `yaml:"natures"`
	InseeCodes           []string `yaml:"insee_codes"`
	PriceMin             int      `yaml:"price_min"`
	PriceMax             int      `yaml:"price_max"`
	SurfaceMin           int      `yaml:"surface_min"`
	SurfaceMax           int      `yaml:"surface_max"`
	Bedrooms             string   `yaml:"bedrooms"`
	MandatoryCommodities string   `yaml:"mandatory_commodities"`
	InterestingCriteria  []string `yaml:"interesting"`
}

// Verdict is the classifier's opinion about a listing.
type Verdict struct {
	Interesting bool
	Title       string
	Summary     string
}

// UnknownVerdict is used when a listing cannot or should not be classified.
func UnknownVerdict() Verdict {
	return Verdict{Interesting: false, Title: UnknownTitle, Summary: DescriptionNotFound}
}
