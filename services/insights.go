package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"tirebot/extract"
	"tirebot/models"
	"tirebot/utils"
)

// InsightService summarizes a run: the cheapest listings per bucket and a
// console report.
type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// Cheapest returns up to n priced listings per bucket, cheapest first. Ties
// are broken by URL so the result does not depend on fetch order.
func (s *InsightService) Cheapest(listings []*models.Listing, n int) map[models.WheelSize][]*models.Listing {
	out := make(map[models.WheelSize][]*models.Listing)
	if n <= 0 {
		return out
	}

	byURL := make(map[string]struct{})
	for _, l := range listings {
		if l == nil || !l.HasPrice() || !l.WheelSize.Valid() {
			continue
		}
		key := l.URL + "|" + fmt.Sprint(l.Price())
		if _, dup := byURL[key]; dup {
			continue
		}
		byURL[key] = struct{}{}
		out[l.WheelSize] = append(out[l.WheelSize], l)
	}

	for size, ls := range out {
		sort.Slice(ls, func(i, j int) bool {
			if ls[i].Price() != ls[j].Price() {
				return ls[i].Price() < ls[j].Price()
			}
			return ls[i].URL < ls[j].URL
		})
		if len(ls) > n {
			ls = ls[:n]
		}
		out[size] = ls
		s.logger.Debug("[insights] %s: cheapest %s", size, extract.FormatBRL(ls[0].Price()))
	}
	return out
}

// Print writes a human-readable summary of the run.
func (s *InsightService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	w := s.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🛞 TIRE DEAL RUN\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Sources
	fmt.Fprintf(w, "\033[1;33m  Sources\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  %-12s %7s %6s %7s %6s %6s %5s\n", "source", "queries", "failed", "fetched", "read", "kept", "new")
	for _, st := range r.Stats {
		fmt.Fprintf(w, "  %-12s %7d %6d %7d %6d %6d %5d\n",
			st.Source, st.Queries, st.Failed, st.Fetched, st.Read, st.Kept, st.New)
	}
	fmt.Fprintln(w)

	// New deals
	fmt.Fprintf(w, "\033[1;33m  New deals\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Alerts) == 0 {
		fmt.Fprintf(w, "  Nothing under the limits this run\n")
	}
	for _, a := range r.Alerts {
		fmt.Fprintf(w, "  %-8s %-36s \033[1;32m%s\033[0m\n",
			a.Listing.WheelSize, truncate(a.Listing.Title, 34), extract.FormatBRL(a.Listing.Price()))
	}
	fmt.Fprintln(w)

	// Cheapest per bucket
	fmt.Fprintf(w, "\033[1;33m  Cheapest seen per bucket\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Cheapest) == 0 {
		fmt.Fprintf(w, "  No priced listings\n")
	}
	for _, size := range sortedSizes(r.Cheapest) {
		for i, l := range r.Cheapest[size] {
			fmt.Fprintf(w, "  %-8s \033[1m%d.\033[0m %-34s %s\n",
				size, i+1, truncate(l.Title, 32), extract.FormatBRL(l.Price()))
		}
	}

	fmt.Fprintf(w, "\n  Took %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func sortedSizes(m map[models.WheelSize][]*models.Listing) []models.WheelSize {
	out := make([]models.WheelSize, 0, len(m))
	for size := range m {
		out = append(out, size)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
