package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"tirebot/models"
)

// CSVWriter dumps raw fetch results of a run to a CSV file so the
// extraction heuristics can be checked against what the sources returned.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rows   int
}

var csvHeader = []string{
	"source", "query", "title", "url", "raw_price", "price_cents", "description", "fetched_at",
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends candidates to the file. Long descriptions are cut to
// keep the dump readable.
func (c *CSVWriter) WriteRaw(candidates []*models.RawCandidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range candidates {
		price := ""
		if r.PriceMinor != nil {
			price = strconv.FormatInt(*r.PriceMinor, 10)
		}
		fetched := ""
		if !r.FetchedAt.IsZero() {
			fetched = r.FetchedAt.Format(time.RFC3339)
		}
		row := []string{
			r.Source,
			r.Query,
			r.Title,
			r.URL,
			r.RawPrice,
			price,
			cut(r.Description, 500),
			fetched,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
		c.rows++
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Rows returns how many candidate rows were written so far.
func (c *CSVWriter) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func cut(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
