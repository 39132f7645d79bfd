package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tirebot/utils"
)

const searchResult = `[1] Title: Pneu 175/70 R13 Goodyear
[1] URL Source: https://www.atacadao.com.br/pneu-175-70-r13/p
[2] Title: Outro
[2] URL Source: https://blog.exemplo.com/pneus
[3] URL Source: https://r.jina.ai/https://www.atacadao.com.br/x
[4] URL Source: https://loja.dpaschoal.com.br/pneu-aro-14/p?utm=1
`

const readerPage = `Title: Pneu Goodyear 175/70 R13 Kelly Edge

URL Source: https://www.atacadao.com.br/pneu-175-70-r13/p

Markdown Content:
De R$ 259,90 por R$ 219,90
ou R$ 199,90 no Pix
`

func newServers(t *testing.T, reads *int64) (search, reader *httptest.Server, gotSearch *string) {
	var q string
	search = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Path
		_, _ = w.Write([]byte(searchResult))
	}))
	reader = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(reads, 1)
		if strings.Contains(r.URL.Path, "dpaschoal") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(readerPage))
	}))
	t.Cleanup(search.Close)
	t.Cleanup(reader.Close)
	return search, reader, &q
}

func TestFetchSearchesAndReads(t *testing.T) {
	var reads int64
	search, reader, gotSearch := newServers(t, &reads)

	f := New(Options{
		SearchURL: search.URL,
		ReaderURL: reader.URL,
		Sites:     []string{"atacadao.com.br", "dpaschoal.com.br"},
		Timeout:   5 * time.Second,
	}, utils.NewDiscardLogger())

	got, err := f.Fetch(context.Background(), "pneu 175/70 R13")
	require.NoError(t, err)
	require.Contains(t, *gotSearch, "site:atacadao.com.br")

	// blog.exemplo.com is off-site and the r.jina.ai link is the proxy itself;
	// the dpaschoal read is rate limited.
	require.Equal(t, int64(2), atomic.LoadInt64(&reads))
	require.Len(t, got, 1)
	require.Equal(t, "Pneu Goodyear 175/70 R13 Kelly Edge", got[0].Title)
	require.Equal(t, "https://www.atacadao.com.br/pneu-175-70-r13/p", got[0].URL)
	require.Contains(t, got[0].RawPrice, "no Pix")
	require.Equal(t, "jina", got[0].Source)
}

func TestFetchSkipsPagesAlreadyRead(t *testing.T) {
	var reads int64
	search, reader, _ := newServers(t, &reads)

	f := New(Options{
		SearchURL: search.URL,
		ReaderURL: reader.URL,
		Sites:     []string{"atacadao.com.br"},
		Timeout:   5 * time.Second,
	}, utils.NewDiscardLogger())

	_, err := f.Fetch(context.Background(), "pneu 175/70 R13")
	require.NoError(t, err)
	got, err := f.Fetch(context.Background(), "pneu 165/70 R13")
	require.NoError(t, err)

	require.Empty(t, got)
	require.Equal(t, int64(1), atomic.LoadInt64(&reads))
}

func TestFetchAllReadsFailed(t *testing.T) {
	var reads int64
	search, reader, _ := newServers(t, &reads)

	f := New(Options{
		SearchURL: search.URL,
		ReaderURL: reader.URL,
		Sites:     []string{"dpaschoal.com.br"},
		Timeout:   5 * time.Second,
	}, utils.NewDiscardLogger())

	got, err := f.Fetch(context.Background(), "pneu aro 14")
	require.Error(t, err)
	require.Empty(t, got)
}

func TestPageTitle(t *testing.T) {
	require.Equal(t, "A", pageTitle("Title: A\nbody", "x"))
	require.Equal(t, "Heading", pageTitle("intro\n# Heading\n", "x"))
	require.Equal(t, "x", pageTitle("nothing", "x"))
}

func TestFetchPausesBetweenReads(t *testing.T) {
	var mu sync.Mutex
	var starts, ends []time.Time

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("https://www.atacadao.com.br/p/1\nhttps://www.atacadao.com.br/p/2\n"))
	}))
	defer search.Close()
	reader := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		time.Sleep(150 * time.Millisecond)
		mu.Lock()
		ends = append(ends, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(readerPage))
	}))
	defer reader.Close()

	delay := 100 * time.Millisecond
	f := New(Options{
		SearchURL: search.URL,
		ReaderURL: reader.URL,
		Sites:     []string{"atacadao.com.br"},
		ReadDelay: delay,
		Timeout:   5 * time.Second,
	}, utils.NewDiscardLogger())

	got, err := f.Fetch(context.Background(), "pneu aro 13")
	require.NoError(t, err)
	require.Len(t, got, 2)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, starts, 2)
	require.GreaterOrEqual(t, starts[1].Sub(ends[0]), delay)
}

func TestFetchReadPagesDoNotUseUpMaxURLs(t *testing.T) {
	var reads int64
	search, reader, _ := newServers(t, &reads)

	f := New(Options{
		SearchURL: search.URL,
		ReaderURL: reader.URL,
		Sites:     []string{"atacadao.com.br", "dpaschoal.com.br"},
		MaxURLs:   1,
		Timeout:   5 * time.Second,
	}, utils.NewDiscardLogger())

	got, err := f.Fetch(context.Background(), "pneu 175/70 R13")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), atomic.LoadInt64(&reads))

	// The atacadao page was read already, so the dpaschoal hit is tried.
	_, err = f.Fetch(context.Background(), "pneu 165/70 R13")
	require.Error(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(&reads))
}
