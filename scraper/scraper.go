// Package scraper defines the capability every listing source implements.
//
// Each source lives in its own sub-package and only has to turn a query (a
// search term or a page URL, depending on the source) into raw candidates.
// Price extraction, classification and deduplication happen downstream, so
// a source never decides whether a listing is a deal.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"tirebot/models"
)

// UserAgent is sent by every HTTP-based source.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122 Safari/537.36"

// ErrBlocked means the source refused to answer (auth wall, rate limit,
// bot check). Callers treat it like an empty result.
var ErrBlocked = errors.New("source blocked the request")

// Fetcher returns raw candidates for a single query.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, query string) ([]*models.RawCandidate, error)
}

// NewHTTPClient returns a resty client with the shared browser-like headers
// and a fixed timeout. Requests are never retried.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.SetHeader("User-Agent", UserAgent)
	client.SetHeader("Accept-Language", "pt-BR,pt;q=0.9")
	return client
}

// IsBlockedStatus reports whether code is one of the refusal statuses
// marketplaces answer scrapers with.
func IsBlockedStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTeapot, http.StatusTooManyRequests:
		return true
	}
	return false
}

// CheckResponse turns refusal statuses into ErrBlocked and any other
// non-2xx status into an error naming the source.
func CheckResponse(source string, res *resty.Response) error {
	if IsBlockedStatus(res.StatusCode()) {
		return fmt.Errorf("%s: status %d: %w", source, res.StatusCode(), ErrBlocked)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("%s: unexpected status %d", source, res.StatusCode())
	}
	return nil
}
