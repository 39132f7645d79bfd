package extract

import (
	"regexp"
	"strconv"
	"strings"

	"tirebot/models"
)

var (
	// wheelSizeRegexp matches "R13", "R 14", "aro 15", "ARO15". The rim
	// designator must not be glued to a preceding letter and the diameter
	// must not continue into another digit.
	wheelSizeRegexp = regexp.MustCompile(`(?:^|[^A-Z])(?:ARO|R)\s*(13|14|15)(?:\D|$)`)

	// measureRegexp captures width/profile/rim, e.g. "175/70 R13".
	measureRegexp = regexp.MustCompile(`(\d{3})\s*/\s*(\d{2})\s*R\s*(\d{2})`)
)

// KitPhrases mark listings that sell more than one tire.
var KitPhrases = []string{"kit", "jogo", "4 pneus", "2 pneus", "par", "combo"}

// UnavailablePhrases mark listings that cannot be bought right now.
var UnavailablePhrases = []string{
	"indisponível",
	"indisponivel",
	"esgotado",
	"sem estoque",
	"fora de estoque",
	"produto indisponível",
	"não disponível",
	"nao disponivel",
}

// DetectWheelSize returns the first target rim diameter mentioned in text.
// When several diameters appear only the first one in scan order counts.
func DetectWheelSize(text string) models.WheelSize {
	m := wheelSizeRegexp.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return models.NoWheelSize
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return models.NoWheelSize
	}
	return models.WheelSize(n)
}

// LooksLikeKit reports whether text advertises a bundle of tires.
// Plain substring containment: "par" also hits "parede".
func LooksLikeKit(text string) bool {
	return MentionsAny(text, KitPhrases)
}

// LooksUnavailable reports whether text says the item is out of stock.
// Negations are not understood.
func LooksUnavailable(text string) bool {
	return MentionsAny(text, UnavailablePhrases)
}

// MentionsAny is a case-insensitive containment check against terms.
func MentionsAny(text string, terms []string) bool {
	t := strings.ToLower(text)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(t, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// Measure is a tire size such as 175/70 R13.
type Measure struct {
	Width   int
	Profile int
	Rim     int
}

// ParseMeasure reads the first width/profile/rim triple in text.
func ParseMeasure(text string) (Measure, bool) {
	m := measureRegexp.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return Measure{}, false
	}
	width, _ := strconv.Atoi(m[1])
	profile, _ := strconv.Atoi(m[2])
	rim, _ := strconv.Atoi(m[3])
	return Measure{Width: width, Profile: profile, Rim: rim}, true
}

// WheelSize returns the bucket of the measure, or NoWheelSize when the rim
// is not a target diameter.
func (m Measure) WheelSize() models.WheelSize {
	w := models.WheelSize(m.Rim)
	if !w.Valid() {
		return models.NoWheelSize
	}
	return w
}

func (m Measure) String() string {
	return strconv.Itoa(m.Width) + "/" + strconv.Itoa(m.Profile) + " R" + strconv.Itoa(m.Rim)
}
