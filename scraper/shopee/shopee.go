package shopee

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"tirebot/models"
	"tirebot/scraper"
)

const (
	name           = "shopee"
	defaultBaseURL = "https://shopee.com.br"
	searchPath     = "/api/v4/search/search_items"
	pageSize       = 50
	// Shopee prices carry five implied decimals; dividing by 1000 leaves
	// centavos.
	priceScale = 1000
)

// Fetcher queries the marketplace's public search API.
type Fetcher struct {
	http    *resty.Client
	baseURL string
}

// New creates a Fetcher. An empty baseURL targets shopee.com.br.
func New(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := scraper.NewHTTPClient(timeout)
	client.SetHeader("Accept", "application/json, text/plain, */*")
	client.SetHeader("Referer", defaultBaseURL+"/")

	return &Fetcher{http: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *Fetcher) Name() string { return name }

type searchResponse struct {
	Items []struct {
		ItemBasic *itemBasic `json:"item_basic"`
	} `json:"items"`
}

type itemBasic struct {
	Name     string `json:"name"`
	ShopID   int64  `json:"shopid"`
	ItemID   int64  `json:"itemid"`
	PriceMin int64  `json:"price_min"`
	Price    int64  `json:"price"`
	PriceMax int64  `json:"price_max"`
}

// Fetch runs one keyword search.
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]*models.RawCandidate, error) {
	res, err := f.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"by":        "relevancy",
			"keyword":   query,
			"limit":     strconv.Itoa(pageSize),
			"newest":    "0",
			"order":     "desc",
			"page_type": "search",
			"scenario":  "PAGE_GLOBAL_SEARCH",
			"version":   "2",
		}).
		Get(f.baseURL + searchPath)
	if err != nil {
		return nil, fmt.Errorf("shopee: search %q: %w", query, err)
	}
	if err := scraper.CheckResponse(name, res); err != nil {
		return nil, err
	}

	var body searchResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("shopee: decode search response: %w", err)
	}

	now := time.Now()
	out := make([]*models.RawCandidate, 0, len(body.Items))
	for _, wrap := range body.Items {
		it := wrap.ItemBasic
		if it == nil || it.ShopID == 0 || it.ItemID == 0 {
			continue
		}

		c := &models.RawCandidate{
			Source:    name,
			Title:     it.Name,
			URL:       fmt.Sprintf("%s/product/%d/%d", f.baseURL, it.ShopID, it.ItemID),
			Query:     query,
			FetchedAt: now,
		}
		if raw := firstPositive(it.PriceMin, it.Price, it.PriceMax); raw > 0 {
			c.PriceMinor = models.PriceOf(raw / priceScale)
		}
		out = append(out, c)
	}
	return out, nil
}

func firstPositive(vals ...int64) int64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
