package jina

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"tirebot/extract"
	"tirebot/models"
	"tirebot/scraper"
	"tirebot/utils"
)

const name = "jina"

var (
	titleLineRegexp = regexp.MustCompile(`(?m)^Title:\s*(.+?)\s*$`)
	headingRegexp   = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)
)

// Options configures the reader-proxy source.
type Options struct {
	SearchURL string
	ReaderURL string
	APIKey    string
	// Sites restricts the search (site:...) and the accepted result hosts.
	Sites     []string
	MaxURLs   int
	ReadDelay time.Duration
	Timeout   time.Duration
}

// Fetcher searches through s.jina.ai and reads each hit as plain text
// through r.jina.ai, so pages rendered by JavaScript come back readable.
type Fetcher struct {
	http     *resty.Client
	opts     Options
	logger   *utils.Logger
	visited  *utils.URLSet
	throttle *utils.Throttle
}

// New creates a Fetcher. Empty URLs fall back to the public endpoints.
func New(opts Options, logger *utils.Logger) *Fetcher {
	if opts.SearchURL == "" {
		opts.SearchURL = "https://s.jina.ai"
	}
	if opts.ReaderURL == "" {
		opts.ReaderURL = "https://r.jina.ai"
	}
	if opts.MaxURLs <= 0 {
		opts.MaxURLs = 8
	}
	opts.SearchURL = strings.TrimRight(opts.SearchURL, "/")
	opts.ReaderURL = strings.TrimRight(opts.ReaderURL, "/")

	client := scraper.NewHTTPClient(opts.Timeout)
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}

	return &Fetcher{
		http:     client,
		opts:     opts,
		logger:   logger,
		visited:  utils.NewURLSet(),
		throttle: utils.NewThrottle(opts.ReadDelay),
	}
}

func (f *Fetcher) Name() string { return name }

// Fetch searches for query and reads every result page not read earlier in
// this run. Pages already read do not count against MaxURLs.
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]*models.RawCandidate, error) {
	links, err := f.search(ctx, query)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("[jina] %q -> %d result urls", query, len(links))

	var out []*models.RawCandidate
	var errs []error
	for _, link := range links {
		if !f.visited.Add(extract.NormalizeURL(link)) {
			f.logger.Debug("[jina] Already read this run: %s", link)
			continue
		}
		if err := f.throttle.Wait(ctx); err != nil {
			return out, err
		}

		text, err := f.read(ctx, link)
		f.throttle.Done()
		if err != nil {
			f.logger.Warn("[jina] Read failed for %s: %v", link, err)
			errs = append(errs, err)
			continue
		}

		out = append(out, &models.RawCandidate{
			Source:      name,
			Title:       pageTitle(text, link),
			URL:         link,
			RawPrice:    text,
			Description: text,
			Query:       query,
			FetchedAt:   time.Now(),
		})
	}

	f.logger.Debug("[jina] %d pages read this run", f.visited.Size())

	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (f *Fetcher) search(ctx context.Context, query string) ([]string, error) {
	q := query
	for _, s := range f.opts.Sites {
		q += " site:" + s
	}

	res, err := f.http.R().
		SetContext(ctx).
		Get(f.opts.SearchURL + "/" + url.QueryEscape(q))
	if err != nil {
		return nil, fmt.Errorf("jina: search %q: %w", query, err)
	}
	if err := scraper.CheckResponse(name, res); err != nil {
		return nil, err
	}

	var links []string
	for _, u := range extract.ExtractURLs(res.String(), 0) {
		if !f.allowed(u) || f.visited.Contains(extract.NormalizeURL(u)) {
			continue
		}
		links = append(links, u)
		if len(links) >= f.opts.MaxURLs {
			break
		}
	}
	return links, nil
}

func (f *Fetcher) read(ctx context.Context, link string) (string, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(f.opts.ReaderURL + "/" + link)
	if err != nil {
		return "", fmt.Errorf("jina: read %s: %w", link, err)
	}
	if err := scraper.CheckResponse(name, res); err != nil {
		return "", err
	}
	return res.String(), nil
}

// allowed keeps result links on the configured sites; proxy links and
// unrelated hosts are dropped.
func (f *Fetcher) allowed(link string) bool {
	host := extract.HostOf(link)
	if host == "" || strings.HasSuffix(host, "jina.ai") {
		return false
	}
	if len(f.opts.Sites) == 0 {
		return true
	}
	for _, s := range f.opts.Sites {
		s = strings.ToLower(s)
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

func pageTitle(text, fallback string) string {
	if m := titleLineRegexp.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := headingRegexp.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return fallback
}
