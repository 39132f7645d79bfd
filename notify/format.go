package notify

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"tirebot/extract"
	"tirebot/models"
)

const (
	// DefaultMaxLines caps the deals listed in one message.
	DefaultMaxLines = 20
	// MaxMessageChars is Telegram's limit for a single message.
	MaxMessageChars = 4096
	// minMessageChars leaves room for at least the first line and the
	// clip marker.
	minMessageChars = 64
)

// FormatOptions tune the rendered message.
type FormatOptions struct {
	MaxLines int
	MaxChars int
}

// FormatPrice renders an optional price for humans.
func FormatPrice(minor *int64) string {
	if minor == nil {
		return "Preço não identificado"
	}
	return extract.FormatBRL(*minor)
}

// Format renders report as a plain-text message: the new deals grouped by
// bucket, or a status summary when there are none, followed by the cheapest
// listings seen in each bucket.
func Format(report *models.RunReport, opts FormatOptions) string {
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	switch {
	case opts.MaxChars <= 0 || opts.MaxChars > MaxMessageChars:
		opts.MaxChars = MaxMessageChars
	case opts.MaxChars < minMessageChars:
		opts.MaxChars = minMessageChars
	}

	var b strings.Builder
	if len(report.Alerts) > 0 {
		writeAlerts(&b, report.Alerts, opts.MaxLines)
	} else {
		writeStatus(&b, report.Stats)
	}
	writeCheapest(&b, report.Cheapest)

	return clip(strings.TrimRight(b.String(), "\n"), opts.MaxChars)
}

func writeAlerts(b *strings.Builder, alerts []*models.Alert, maxLines int) {
	b.WriteString("Novas promoções encontradas:\n")

	groups := make(map[models.WheelSize][]*models.Alert)
	for _, a := range alerts {
		groups[a.Listing.WheelSize] = append(groups[a.Listing.WheelSize], a)
	}
	sizes := make([]models.WheelSize, 0, len(groups))
	for size := range groups {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	written := 0
	for _, size := range sizes {
		if written >= maxLines {
			break
		}
		group := groups[size]
		fmt.Fprintf(b, "\n%s (até %s)\n", size, extract.FormatBRL(group[0].Limit))
		for _, a := range group {
			if written >= maxLines {
				break
			}
			fmt.Fprintf(b, "- %s | %s\n  %s\n", a.Listing.Title, FormatPrice(a.Listing.PriceMinor), a.Listing.URL)
			written++
		}
	}
	if len(alerts) > written {
		fmt.Fprintf(b, "(+%d itens)\n", len(alerts)-written)
	}
}

func writeStatus(b *strings.Builder, stats []*models.SourceStats) {
	b.WriteString("TireBot: nenhuma promoção nova abaixo do limite.\n")
	if len(stats) == 0 {
		return
	}
	b.WriteString("\nFontes:\n")
	for _, st := range stats {
		fmt.Fprintf(b, "- %s: %d buscas, %d lidos, %d válidos", st.Source, st.Queries, st.Read, st.Kept)
		if st.Failed > 0 {
			fmt.Fprintf(b, ", %d falhas", st.Failed)
		}
		b.WriteString("\n")
	}
}

func writeCheapest(b *strings.Builder, cheapest map[models.WheelSize][]*models.Listing) {
	sizes := make([]models.WheelSize, 0, len(cheapest))
	for size, ls := range cheapest {
		if len(ls) > 0 {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		return
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	b.WriteString("\nMais baratos vistos:\n")
	for _, size := range sizes {
		fmt.Fprintf(b, "%s\n", size)
		for _, l := range cheapest[size] {
			fmt.Fprintf(b, "- %s | %s\n  %s\n", l.Title, FormatPrice(l.PriceMinor), l.URL)
		}
	}
}

// clip cuts text to max runes on a line boundary when possible.
func clip(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	const marker = "\n…"
	r := []rune(text)[:max-utf8.RuneCountInString(marker)]
	cut := string(r)
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		cut = cut[:i]
	}
	return cut + marker
}
