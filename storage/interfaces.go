package storage

import (
	"context"

	"tirebot/models"
)

// DealStore remembers which (url, price) pairs were already seen.
type DealStore interface {
	// Upsert records the listing and reports whether its (url, price)
	// pair had never been stored before. A known pair only has its
	// last_seen_at refreshed.
	Upsert(ctx context.Context, l *models.Listing) (bool, error)
	Close() error
}

// RawCandidateWriter persists unprocessed fetch results for inspection.
type RawCandidateWriter interface {
	WriteRaw(candidates []*models.RawCandidate) error
	Close() error
}
