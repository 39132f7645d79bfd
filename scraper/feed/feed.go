package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"tirebot/models"
	"tirebot/scraper"
)

// Fetcher reads an RSS or Atom feed and turns every item into a candidate.
//
// When the template contains %s the escaped query is substituted into it
// (news search feeds); otherwise the query itself is the feed URL.
type Fetcher struct {
	name     string
	template string
	http     *resty.Client
	parser   *gofeed.Parser
}

// New creates a feed Fetcher reporting itself as name.
func New(name, urlTemplate string, timeout time.Duration) *Fetcher {
	client := scraper.NewHTTPClient(timeout)
	client.SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	return &Fetcher{
		name:     name,
		template: urlTemplate,
		http:     client,
		parser:   gofeed.NewParser(),
	}
}

func (f *Fetcher) Name() string { return f.name }

// FeedURL returns the URL fetched for query.
func (f *Fetcher) FeedURL(query string) string {
	if strings.Contains(f.template, "%s") {
		return fmt.Sprintf(f.template, url.QueryEscape(query))
	}
	return query
}

// Fetch downloads and parses the feed for query.
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]*models.RawCandidate, error) {
	feedURL := f.FeedURL(query)
	if feedURL == "" {
		return nil, fmt.Errorf("%s: empty feed url", f.name)
	}

	res, err := f.http.R().SetContext(ctx).Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("%s: get %s: %w", f.name, feedURL, err)
	}
	if err := scraper.CheckResponse(f.name, res); err != nil {
		return nil, err
	}

	parsed, err := f.parser.ParseString(res.String())
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", f.name, err)
	}

	now := time.Now()
	out := make([]*models.RawCandidate, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		desc := it.Description
		if desc == "" {
			desc = it.Content
		}
		title, desc := plainText(it.Title), plainText(desc)
		out = append(out, &models.RawCandidate{
			Source:      f.name,
			Title:       title,
			URL:         unwrapLink(it.Link),
			RawPrice:    strings.TrimSpace(title + " " + desc),
			Description: desc,
			Query:       query,
			FetchedAt:   now,
		})
	}
	return out, nil
}

// unwrapLink returns the article behind a Bing News click-through link
// (bing.com/news/apiclick.aspx?...&url=<target>). Other links are returned
// unchanged.
func unwrapLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return link
	}
	host := strings.ToLower(u.Hostname())
	if host != "bing.com" && !strings.HasSuffix(host, ".bing.com") {
		return link
	}
	if !strings.Contains(strings.ToLower(u.Path), "apiclick") {
		return link
	}
	if target := u.Query().Get("url"); target != "" {
		return target
	}
	return link
}

// plainText drops markup from feed fields, which are often HTML.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
