package models

import (
	"fmt"
	"time"
)

// WheelSize is the rim diameter bucket a listing is grouped under.
type WheelSize int

const (
	NoWheelSize WheelSize = 0
	Rim13       WheelSize = 13
	Rim14       WheelSize = 14
	Rim15       WheelSize = 15
)

// WheelSizes lists every bucket the classifier can return, smallest first.
var WheelSizes = []WheelSize{Rim13, Rim14, Rim15}

// Valid reports whether w is one of the target buckets.
func (w WheelSize) Valid() bool {
	for _, s := range WheelSizes {
		if s == w {
			return true
		}
	}
	return false
}

func (w WheelSize) String() string {
	if !w.Valid() {
		return "sem aro"
	}
	return fmt.Sprintf("Aro %d", int(w))
}

// RawCandidate holds unprocessed data exactly as a fetcher returned it.
// Text sources fill RawPrice; structured sources fill PriceMinor instead.
type RawCandidate struct {
	Source      string
	Title       string
	URL         string
	RawPrice    string
	PriceMinor  *int64
	Description string
	Query       string
	FetchedAt   time.Time
}

// Listing is a normalized candidate ready to be filtered and deduplicated.
type Listing struct {
	Source      string
	Title       string
	URL         string
	PriceMinor  *int64
	WheelSize   WheelSize
	Kit         bool
	Unavailable bool
}

// HasPrice reports whether a price could be extracted for the listing.
func (l *Listing) HasPrice() bool {
	return l.PriceMinor != nil
}

// Price returns the price in minor units, or 0 when unknown.
func (l *Listing) Price() int64 {
	if l.PriceMinor == nil {
		return 0
	}
	return *l.PriceMinor
}

// Alert is a newly stored listing priced under the limit of its bucket.
type Alert struct {
	Listing *Listing
	Limit   int64
}

// SourceStats counts what a single source produced during a run.
type SourceStats struct {
	Source  string
	Queries int
	Failed  int
	Fetched int
	Read    int
	Kept    int
	New     int
}

// RunReport is the outcome of one pipeline run.
type RunReport struct {
	Alerts     []*Alert
	Stats      []*SourceStats
	Cheapest   map[WheelSize][]*Listing
	StartedAt  time.Time
	FinishedAt time.Time
}

// PriceOf is a small helper for building listings and tests.
func PriceOf(minor int64) *int64 {
	return &minor
}
