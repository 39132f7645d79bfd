package config

import (
	"fmt"
	"sort"

	"tirebot/extract"
	"tirebot/models"
)

// Source names accepted in ENABLED_SOURCES.
const (
	SourceAtacadao  = "atacadao"
	SourceDPaschoal = "dpaschoal"
	SourceShopee    = "shopee"
	SourceJina      = "jina"
	SourceBing      = "bing"
	SourceFeeds     = "feeds"
)

// Storefront is an HTML category page scraped directly.
type Storefront struct {
	Name string
	URL  string
}

// Targets is what the bot looks for. It is compiled in on purpose: changing
// a limit is a code change reviewed like any other.
type Targets struct {
	// Limits are per-bucket price ceilings in centavos.
	Limits map[models.WheelSize]int64
	// Measures are the tire sizes searched for in each bucket.
	Measures map[models.WheelSize][]string
	// RequiredTerms must appear in a listing title for it to be considered.
	RequiredTerms []string

	Storefronts     []Storefront
	JinaSites       []string
	JinaMaxURLs     int
	BingRSSTemplate string
	Feeds           []string

	// Policies name the price-selection policy per source: "min", "max" or
	// "tagged". Missing entries mean min.
	Policies map[string]string

	// Sources enabled when ENABLED_SOURCES is not set.
	Sources []string
}

// DefaultTargets returns the compiled-in search targets.
func DefaultTargets() Targets {
	return Targets{
		Limits: map[models.WheelSize]int64{
			models.Rim13: 20000,
			models.Rim14: 25000,
			models.Rim15: 30000,
		},
		Measures: map[models.WheelSize][]string{
			models.Rim13: {"175/70 R13", "165/70 R13"},
			models.Rim14: {"175/65 R14", "185/70 R14"},
			models.Rim15: {"185/65 R15", "195/55 R15"},
		},
		RequiredTerms: []string{"pneu"},

		Storefronts: []Storefront{
			{Name: SourceAtacadao, URL: "https://www.atacadao.com.br/automotivo/pneus"},
			{Name: SourceDPaschoal, URL: "https://www.dpaschoal.com.br/pneus-e-camaras/carro-de-passeio"},
		},
		JinaSites: []string{
			"atacadao.com.br",
			"dpaschoal.com.br",
			"pneustore.com.br",
			"magazineluiza.com.br",
		},
		JinaMaxURLs:     8,
		BingRSSTemplate: "https://www.bing.com/news/search?q=%s&format=rss",
		Feeds:           nil,

		Policies: map[string]string{
			SourceAtacadao:  "max",
			SourceDPaschoal: "max",
			SourceShopee:    "min",
			SourceJina:      "tagged",
			SourceBing:      "min",
			SourceFeeds:     "min",
		},

		Sources: []string{SourceAtacadao, SourceDPaschoal, SourceShopee, SourceJina, SourceBing},
	}
}

// Queries returns the search terms for every bucket in canonical form,
// e.g. "pneu 175/70 R13". Measures that do not parse are searched as written.
func (t Targets) Queries() map[models.WheelSize][]string {
	out := make(map[models.WheelSize][]string, len(t.Measures))
	for size, measures := range t.Measures {
		for _, raw := range measures {
			term := raw
			if m, ok := extract.ParseMeasure(raw); ok {
				term = m.String()
			}
			out[size] = append(out[size], "pneu "+term)
		}
	}
	return out
}

// Policy returns the price-selection policy configured for a source.
func (t Targets) Policy(source string) extract.Policy {
	return extract.ParsePolicy(t.Policies[source])
}

// Buckets returns the configured buckets in ascending order.
func (t Targets) Buckets() []models.WheelSize {
	out := make([]models.WheelSize, 0, len(t.Limits))
	for size := range t.Limits {
		out = append(out, size)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkMeasures reports measures that are not tire sizes or whose rim does
// not match the bucket they are listed under.
func (t Targets) checkMeasures() []error {
	var errs []error
	for _, size := range sortedKeys(t.Measures) {
		for _, raw := range t.Measures[size] {
			m, ok := extract.ParseMeasure(raw)
			if !ok {
				errs = append(errs, fmt.Errorf("measure %q under aro %d is not a tire size", raw, int(size)))
				continue
			}
			if m.WheelSize() != size {
				errs = append(errs, fmt.Errorf("measure %q is listed under aro %d", m.String(), int(size)))
			}
		}
	}
	return errs
}

func sortedKeys(m map[models.WheelSize][]string) []models.WheelSize {
	out := make([]models.WheelSize, 0, len(m))
	for size := range m {
		out = append(out, size)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
