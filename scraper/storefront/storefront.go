package storefront

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"tirebot/extract"
	"tirebot/models"
	"tirebot/scraper"
)

// Renderer returns the HTML of a page.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// HTTPRenderer downloads pages without running their scripts.
type HTTPRenderer struct {
	http *resty.Client
}

// NewHTTPRenderer creates an HTTPRenderer with the shared client settings.
func NewHTTPRenderer(timeout time.Duration) *HTTPRenderer {
	client := scraper.NewHTTPClient(timeout)
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	return &HTTPRenderer{http: client}
}

func (r *HTTPRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	res, err := r.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", pageURL, err)
	}
	if err := scraper.CheckResponse(pageURL, res); err != nil {
		return "", err
	}
	return res.String(), nil
}

// Fetcher scrapes product links out of a category page. The query passed to
// Fetch is the page URL.
type Fetcher struct {
	name     string
	renderer Renderer
	terms    []string
	maxHops  int
}

// New creates a storefront Fetcher. Anchors must mention one of terms to be
// considered a product.
func New(name string, renderer Renderer, terms []string) *Fetcher {
	return &Fetcher{
		name:     name,
		renderer: renderer,
		terms:    terms,
		maxHops:  extract.DefaultMaxHops,
	}
}

func (f *Fetcher) Name() string { return f.name }

// Fetch renders pageURL and returns one candidate per distinct product link.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]*models.RawCandidate, error) {
	html, err := f.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	return f.Parse(pageURL, html)
}

// Parse extracts candidates from an already rendered page.
func (f *Fetcher) Parse(pageURL, html string) ([]*models.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", f.name, err)
	}

	now := time.Now()
	seen := make(map[string]struct{})
	out := make([]*models.RawCandidate, 0)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		title := collapse(a.Text())
		if !extract.MentionsAny(title, f.terms) {
			attr, _ := a.Attr("title")
			if !extract.MentionsAny(attr, f.terms) {
				return
			}
			title = collapse(attr)
		}

		href, _ := a.Attr("href")
		link := extract.ResolveURL(pageURL, href)
		if link == "" {
			return
		}
		link = extract.NormalizeURL(link)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}

		priceText, _ := extract.NearestPriced(node{a}, f.maxHops)
		out = append(out, &models.RawCandidate{
			Source:    f.name,
			Title:     title,
			URL:       link,
			RawPrice:  priceText,
			Query:     pageURL,
			FetchedAt: now,
		})
	})

	return out, nil
}

// node adapts a goquery selection to extract.TextNode.
type node struct {
	s *goquery.Selection
}

func (n node) Text() string { return collapse(n.s.Text()) }

func (n node) Parent() (extract.TextNode, bool) {
	p := n.s.Parent()
	if p.Length() == 0 || goquery.NodeName(p) == "#document" {
		return nil, false
	}
	return node{p}, true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
