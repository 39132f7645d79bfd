package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"tirebot/extract"
	"tirebot/models"
	"tirebot/utils"
)

// maxTitleRunes bounds titles taken from whole reader-proxy pages.
const maxTitleRunes = 180

// Cleaner transforms RawCandidates into normalized, classified Listings.
type Cleaner struct {
	logger    *utils.Logger
	extractor *extract.Extractor
}

// NewCleaner creates a Cleaner with the given logger and price extractor.
func NewCleaner(logger *utils.Logger, extractor *extract.Extractor) *Cleaner {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	return &Cleaner{logger: logger, extractor: extractor}
}

// Clean processes raw candidates and returns cleaned listings. Prices are
// read from text with policy unless the source already supplied one.
func (c *Cleaner) Clean(raw []*models.RawCandidate, policy extract.Policy) []*models.Listing {
	seen := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(raw))

	for _, r := range raw {
		if r == nil {
			continue
		}
		title := truncateRunes(normaliseText(r.Title), maxTitleRunes)
		if title == "" {
			c.logger.Warn("[cleaner] Dropping %s candidate without title: %s", r.Source, r.URL)
			continue
		}

		url := extract.NormalizeURL(r.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty URL: %s", title)
			continue
		}

		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		desc := normaliseText(r.Description)
		listing := &models.Listing{
			Source:      normaliseSource(r.Source),
			Title:       title,
			URL:         url,
			PriceMinor:  c.price(r, title, desc, policy),
			WheelSize:   extract.DetectWheelSize(title),
			Kit:         extract.LooksLikeKit(title),
			Unavailable: extract.LooksUnavailable(title + " " + desc),
		}
		if listing.WheelSize == models.NoWheelSize {
			listing.WheelSize = extract.DetectWheelSize(desc)
		}

		result = append(result, listing)
	}

	c.logger.Debug("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// price prefers a structured price, then the raw price text, then the title
// and description together.
func (c *Cleaner) price(r *models.RawCandidate, title, desc string, policy extract.Policy) *int64 {
	if r.PriceMinor != nil && *r.PriceMinor >= c.extractor.Floor {
		return models.PriceOf(*r.PriceMinor)
	}
	if v, ok := c.extractor.Extract(r.RawPrice, policy); ok {
		return models.PriceOf(v)
	}
	if v, ok := c.extractor.Extract(title+" "+desc, policy); ok {
		return models.PriceOf(v)
	}
	return nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func normaliseSource(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-3])) + "..."
}
