package services

import (
	"context"
	"fmt"
	"time"

	"tirebot/extract"
	"tirebot/models"
	"tirebot/scraper"
	"tirebot/storage"
	"tirebot/utils"
)

// Source is one fetcher plus how its text should be read.
type Source struct {
	Fetcher scraper.Fetcher
	Policy  extract.Policy
	// Targets are fixed queries (page or feed URLs). When empty the source
	// is asked every bucket query instead.
	Targets []string
}

// PipelineConfig holds the knobs of a run.
type PipelineConfig struct {
	Limits            map[models.WheelSize]int64
	Queries           map[models.WheelSize][]string
	RequiredTerms     []string
	Delay             time.Duration
	CheapestPerBucket int
	IncludeUnpriced   bool
}

// Pipeline runs every source, filters what comes back and records new
// deals. Sources and queries are processed one at a time.
type Pipeline struct {
	cfg      PipelineConfig
	store    storage.DealStore
	raw      storage.RawCandidateWriter
	cleaner  *Cleaner
	insights *InsightService
	logger   *utils.Logger
	sources  []Source
}

// NewPipeline wires a pipeline. raw may be nil.
func NewPipeline(cfg PipelineConfig, store storage.DealStore, raw storage.RawCandidateWriter,
	cleaner *Cleaner, logger *utils.Logger, sources ...Source) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		raw:      raw,
		cleaner:  cleaner,
		insights: NewInsightService(logger),
		logger:   logger,
		sources:  sources,
	}
}

// Run executes one full pass. Fetch failures are logged and counted; only
// store errors and cancellation abort the run.
func (p *Pipeline) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{StartedAt: time.Now()}
	throttle := utils.NewThrottle(p.cfg.Delay)
	var candidates []*models.Listing

	for _, src := range p.sources {
		st := &models.SourceStats{Source: src.Fetcher.Name()}
		report.Stats = append(report.Stats, st)

		for _, query := range p.queriesFor(src) {
			if err := throttle.Wait(ctx); err != nil {
				return report, err
			}
			st.Queries++

			raw, err := src.Fetcher.Fetch(ctx, query)
			throttle.Done()
			if err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				st.Failed++
				p.logger.Warn("[pipeline] %s %q failed: %v", st.Source, query, err)
				continue
			}
			if len(raw) == 0 {
				p.logger.Debug("[pipeline] %s %q returned nothing", st.Source, query)
				continue
			}
			st.Fetched += len(raw)

			if p.raw != nil {
				if err := p.raw.WriteRaw(raw); err != nil {
					p.logger.Warn("[pipeline] Could not dump raw candidates: %v", err)
				}
			}

			for _, l := range p.cleaner.Clean(raw, src.Policy) {
				st.Read++
				v, limit, err := p.consider(ctx, l)
				if err != nil {
					return report, err
				}
				if v >= eligible {
					candidates = append(candidates, l)
				}
				if v >= stored {
					st.Kept++
				}
				if v == storedNew {
					st.New++
					report.Alerts = append(report.Alerts, &models.Alert{Listing: l, Limit: limit})
				}
			}
		}

		p.logger.Info("[pipeline] %s: %d queries (%d failed), %d fetched, %d kept, %d new",
			st.Source, st.Queries, st.Failed, st.Fetched, st.Kept, st.New)
	}

	report.Cheapest = p.insights.Cheapest(candidates, p.cfg.CheapestPerBucket)
	report.FinishedAt = time.Now()
	p.logger.Info("[pipeline] Run finished in %s with %d new deal(s)",
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond), len(report.Alerts))
	return report, nil
}

type verdict int

const (
	rejected verdict = iota
	// eligible listings are single, available, bucketed tires, priced or
	// not. They feed the cheapest list.
	eligible
	stored
	storedNew
)

// consider applies the filters in order and stores listings under the
// limit of their bucket.
func (p *Pipeline) consider(ctx context.Context, l *models.Listing) (verdict, int64, error) {
	switch {
	case len(p.cfg.RequiredTerms) > 0 && !extract.MentionsAny(l.Title, p.cfg.RequiredTerms):
		p.logger.Debug("[pipeline] Skip (no required term): %s", l.Title)
		return rejected, 0, nil
	case l.Kit:
		p.logger.Debug("[pipeline] Skip (kit): %s", l.Title)
		return rejected, 0, nil
	case l.Unavailable:
		p.logger.Debug("[pipeline] Skip (unavailable): %s", l.Title)
		return rejected, 0, nil
	case !l.WheelSize.Valid():
		p.logger.Debug("[pipeline] Skip (no wheel size): %s", l.Title)
		return rejected, 0, nil
	}

	limit, ok := p.cfg.Limits[l.WheelSize]
	if !ok {
		p.logger.Debug("[pipeline] Skip (%s not tracked): %s", l.WheelSize, l.Title)
		return rejected, 0, nil
	}

	if !l.HasPrice() {
		if !p.cfg.IncludeUnpriced {
			p.logger.Debug("[pipeline] Skip (no price): %s", l.Title)
			return eligible, limit, nil
		}
	} else if l.Price() > limit {
		p.logger.Debug("[pipeline] Skip (%s over %s): %s",
			extract.FormatBRL(l.Price()), extract.FormatBRL(limit), l.Title)
		return eligible, limit, nil
	}

	isNew, err := p.store.Upsert(ctx, l)
	if err != nil {
		return rejected, limit, fmt.Errorf("pipeline: store %s: %w", l.URL, err)
	}
	if !isNew {
		p.logger.Debug("[pipeline] Already alerted: %s", l.URL)
		return stored, limit, nil
	}
	p.logger.Info("[pipeline] New deal %s %s: %s", l.WheelSize, priceLabel(l), l.Title)
	return storedNew, limit, nil
}

// queriesFor returns the fixed targets of src, or every bucket query in
// ascending bucket order.
func (p *Pipeline) queriesFor(src Source) []string {
	if len(src.Targets) > 0 {
		return src.Targets
	}
	var out []string
	for _, size := range models.WheelSizes {
		if _, tracked := p.cfg.Limits[size]; !tracked {
			continue
		}
		out = append(out, p.cfg.Queries[size]...)
	}
	return out
}

func priceLabel(l *models.Listing) string {
	if !l.HasPrice() {
		return "sem preço"
	}
	return extract.FormatBRL(l.Price())
}
