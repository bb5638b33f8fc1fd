package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEntrez serves esearch over ids and efetch over records.
type fakeEntrez struct {
	t         *testing.T
	ids       []string
	records   map[string]string
	failFetch map[string]int // first id of a chunk -> remaining 500 responses
	searches  atomic.Int64
	fetches   atomic.Int64
}

func (f *fakeEntrez) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assert.Equal(f.t, "litmine", q.Get("tool"))
	assert.Equal(f.t, "me@example.org", q.Get("email"))
	assert.Equal(f.t, "secret", q.Get("api_key"))
	assert.Equal(f.t, "pubmed", q.Get("db"))

	switch {
	case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
		f.searches.Add(1)
		start, _ := strconv.Atoi(q.Get("retstart"))
		max, _ := strconv.Atoi(q.Get("retmax"))
		end := min(start+max, len(f.ids))
		page := []string{}
		if start < end {
			page = f.ids[start:end]
		}
		quoted := make([]string, len(page))
		for i, id := range page {
			quoted[i] = strconv.Quote(id)
		}
		fmt.Fprintf(w, `{"esearchresult":{"count":"%d","idlist":[%s]}}`, len(f.ids), strings.Join(quoted, ","))
	case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
		f.fetches.Add(1)
		assert.Equal(f.t, "medline", q.Get("rettype"))
		ids := strings.Split(q.Get("id"), ",")
		if n := f.failFetch[ids[0]]; n != 0 {
			if n > 0 {
				f.failFetch[ids[0]] = n - 1
			}
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		for _, id := range ids {
			if rec, ok := f.records[id]; ok {
				fmt.Fprintf(w, "%s\n\n", rec)
			}
		}
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithEmail("me@example.org"),
		WithAPIKey("secret"),
		WithPacing(0),
		WithRetry(2, time.Millisecond),
	}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func medlineRecord(pmid, abstract string) string {
	return "PMID- " + pmid + "\nTI  - Title " + pmid + "\nAB  - " + abstract
}

func TestNew_Options(t *testing.T) {
	_, err := New(WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = New(WithFetchSize(-1))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	c, err := New(WithTool(""), WithPacing(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, "litmine", c.tool)
	assert.Equal(t, time.Duration(0), c.pacing)
	assert.Equal(t, DefaultBatchSize, c.batchSize)
	assert.Equal(t, DefaultFetchSize, c.fetchSize)
}

func TestClient_Search(t *testing.T) {
	fake := &fakeEntrez{t: t, ids: []string{"1", "2", "3", "2", "4"}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv, WithBatchSize(2))
	ids, err := c.Search(context.Background(), "depression[MeSH]")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Equal(t, int64(4), fake.searches.Load(), "one count request plus three pages")
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestClient_Search_BadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"count":"many"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClient_Search_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad term", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithRetry(5, time.Millisecond))
	_, err := c.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrBadResponse)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_Fetch(t *testing.T) {
	fake := &fakeEntrez{
		t: t,
		records: map[string]string{
			"1": medlineRecord("1", "First abstract."),
			"2": medlineRecord("2", "Second abstract."),
			"3": medlineRecord("3", "Third abstract."),
			"5": "TI  - no pmid here",
		},
		failFetch: map[string]int{"3": 1},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv, WithFetchSize(2))
	docs, err := c.Fetch(context.Background(), []string{"1", "2", "3", "5"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "1", docs[0].PMID)
	assert.Equal(t, "Title 1", docs[0].Title)
	assert.Equal(t, "Third abstract.", docs[2].Abstract)
	assert.Equal(t, int64(3), fake.fetches.Load(), "second chunk retried once")
}

func TestClient_Fetch_SkipsFailingChunk(t *testing.T) {
	fake := &fakeEntrez{
		t: t,
		records: map[string]string{
			"1": medlineRecord("1", "First abstract."),
			"2": medlineRecord("2", "Second abstract."),
		},
		failFetch: map[string]int{"1": -1},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv, WithFetchSize(1))
	docs, err := c.Fetch(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2", docs[0].PMID)
}

func TestClient_Pacing(t *testing.T) {
	fake := &fakeEntrez{t: t, ids: []string{"1"}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv, WithPacing(40*time.Millisecond))
	start := time.Now()
	_, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestClient_CancelledContext(t *testing.T) {
	fake := &fakeEntrez{t: t, records: map[string]string{"1": medlineRecord("1", "x")}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, []string{"1"})
	assert.ErrorIs(t, err, context.Canceled)
}
