package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultFloor discards anything cheaper than R$ 100,00; such values are
// shipping fees, installments or unrelated accessories.
const DefaultFloor int64 = 10000

// tagWindow is how many runes after a price are searched for a tag keyword.
const tagWindow = 25

var (
	// priceRegexp captures "R$ 1.234,56" style amounts. Period groups
	// thousands and comma separates cents, as written in pt-BR.
	priceRegexp = regexp.MustCompile(`R\$[\s\x{00a0}]*((?:\d{1,3}(?:\.\d{3})+|\d+),\d{2})`)

	amountReplacer = strings.NewReplacer(".", "", ",", "")

	defaultTagKeywords = []string{"pix", "à vista", "a vista"}
)

type selection int

const (
	selectMin selection = iota
	selectMax
	selectTagged
)

// Policy decides which candidate wins when a text carries several prices.
type Policy struct {
	sel      selection
	keywords []string
}

var (
	// PolicyMin picks the lowest price. Used when filtering against an upper
	// limit so a genuine low price is not hidden behind full prices.
	PolicyMin = Policy{sel: selectMin}
	// PolicyMax picks the highest price. Used on product cards where
	// installment figures are smaller than the real price.
	PolicyMax = Policy{sel: selectMax}
)

// PreferTagged picks the lowest price followed by one of the keywords,
// falling back to the lowest price overall. Without keywords the
// point-of-sale defaults (pix, à vista) are used.
func PreferTagged(keywords ...string) Policy {
	if len(keywords) == 0 {
		keywords = defaultTagKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return Policy{sel: selectTagged, keywords: lowered}
}

func (p Policy) String() string {
	switch p.sel {
	case selectMax:
		return "max"
	case selectTagged:
		return "prefer-tagged"
	default:
		return "min"
	}
}

// ParsePolicy maps a config name to a Policy. Unknown names fall back to min.
func ParsePolicy(name string) Policy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "max":
		return PolicyMax
	case "tagged", "prefer-tagged":
		return PreferTagged()
	default:
		return PolicyMin
	}
}

// Extractor turns free text into a price in minor units (centavos).
type Extractor struct {
	Floor int64
}

// NewExtractor returns an Extractor using DefaultFloor.
func NewExtractor() *Extractor {
	return &Extractor{Floor: DefaultFloor}
}

type candidate struct {
	value  int64
	tagged bool
}

// Extract returns the best-guess price in text according to policy. The
// boolean is false when no price above the floor was found; that is
// "unknown", not "too expensive".
func (e *Extractor) Extract(text string, policy Policy) (int64, bool) {
	cands := e.candidates(text, policy.keywords)
	if len(cands) == 0 {
		return 0, false
	}

	switch policy.sel {
	case selectMax:
		best := cands[0].value
		for _, c := range cands[1:] {
			if c.value > best {
				best = c.value
			}
		}
		return best, true
	case selectTagged:
		found := false
		var best int64
		for _, c := range cands {
			if c.tagged && (!found || c.value < best) {
				best, found = c.value, true
			}
		}
		if found {
			return best, true
		}
	}

	best := cands[0].value
	for _, c := range cands[1:] {
		if c.value < best {
			best = c.value
		}
	}
	return best, true
}

// ContainsPrice reports whether text has anything shaped like a price,
// regardless of the floor.
func ContainsPrice(text string) bool {
	return priceRegexp.MatchString(text)
}

func (e *Extractor) candidates(text string, keywords []string) []candidate {
	matches := priceRegexp.FindAllStringSubmatchIndex(text, -1)
	out := make([]candidate, 0, len(matches))

	for i, m := range matches {
		value, ok := parseAmount(text[m[2]:m[3]])
		if !ok || value < e.Floor {
			continue
		}

		limit := len(text)
		if i+1 < len(matches) {
			limit = matches[i+1][0]
		}
		out = append(out, candidate{
			value:  value,
			tagged: hasTag(text[m[1]:limit], keywords),
		})
	}
	return out
}

// parseAmount converts "1.234,56" into 123456 without going through floats.
func parseAmount(s string) (int64, bool) {
	n, err := strconv.ParseInt(amountReplacer.Replace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func hasTag(after string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	after = strings.ToLower(truncateRunes(after, tagWindow))
	for _, k := range keywords {
		if strings.Contains(after, k) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// FormatBRL renders minor units the way the notification shows them,
// e.g. 123456 -> "R$ 1.234,56".
func FormatBRL(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	reais := strconv.FormatInt(minor/100, 10)

	var b strings.Builder
	for i, r := range reais {
		if i > 0 && (len(reais)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return "R$ " + sign + b.String() + "," + twoDigits(minor%100)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
