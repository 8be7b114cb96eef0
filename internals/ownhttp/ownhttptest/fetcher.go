// Package ownhttptest provides an in-memory [ownhttp.Fetcher] for tests
package ownhttptest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/minepkg/launchcore/internals/ownhttp"
)

// Fetcher serves files from memory and records what was requested
type Fetcher struct {
	// Delay is waited before a body is returned
	Delay time.Duration

	mu       sync.Mutex
	files    map[string][]byte
	failures map[string][]error
	stalls   map[string]*stall
	etags    map[string]string
	requests map[string]int
	total    int
	open     int
	maxOpen  int
}

// New returns an empty Fetcher
func New() *Fetcher {
	return &Fetcher{
		files:    make(map[string][]byte),
		failures: make(map[string][]error),
		stalls:   make(map[string]*stall),
		etags:    make(map[string]string),
		requests: make(map[string]int),
	}
}

// Add serves content for url
func (f *Fetcher) Add(url string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[url] = content
}

// AddJSON serves v encoded as json for url
func (f *Fetcher) AddJSON(url string, v interface{}) {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	f.Add(url, buf)
}

// FailNext makes the next n requests of url fail with err
func (f *Fetcher) FailNext(url string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.failures[url] = append(f.failures[url], err)
	}
}

// StallAfter makes bodies of url block after n bytes until the request context
// is done. The returned channel is closed when a body reached that point
func (f *Fetcher) StallAfter(url string, n int) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &stall{after: n, reached: make(chan struct{})}
	f.stalls[url] = s
	return s.reached
}

// SetETag overrides the ETag of url. By default it is the md5 of the content
func (f *Fetcher) SetETag(url string, etag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.etags[url] = etag
}

// ETag implements [ownhttp.ETagFetcher]. It is counted as a request of "HEAD "+url
func (f *Fetcher) ETag(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests["HEAD "+url]++
	f.total++
	if etag, ok := f.etags[url]; ok {
		return etag, nil
	}
	content, ok := f.files[url]
	if !ok {
		return "", Status(url, http.StatusNotFound)
	}
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:]), nil
}

// Status returns a transport error with the given http status for url
func Status(url string, code int) error {
	return &ownhttp.TransportError{Kind: ownhttp.HTTPStatus, URL: url, StatusCode: code}
}

// Get implements [ownhttp.Fetcher]. Unknown urls return a 404
func (f *Fetcher) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.requests[url]++
	f.total++
	f.open++
	if f.open > f.maxOpen {
		f.maxOpen = f.open
	}
	var failure error
	if queued := f.failures[url]; len(queued) != 0 {
		failure = queued[0]
		f.failures[url] = queued[1:]
	}
	content, ok := f.files[url]
	stalled := f.stalls[url]
	f.mu.Unlock()

	if f.Delay != 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			f.release()
			return nil, ctx.Err()
		}
	}

	if failure == nil && !ok {
		failure = Status(url, http.StatusNotFound)
	}
	if failure != nil {
		f.release()
		return nil, failure
	}
	b := &body{Reader: bytes.NewReader(content), f: f}
	if stalled != nil {
		return &stallingBody{body: b, ctx: ctx, stall: stalled, left: stalled.after}, nil
	}
	return b, nil
}

func (f *Fetcher) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open--
}

// Requests returns how often url was requested
func (f *Fetcher) Requests(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[url]
}

// TotalRequests returns the number of all requests
func (f *Fetcher) TotalRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// MaxOpen returns the highest number of transfers that were open at the same time
func (f *Fetcher) MaxOpen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxOpen
}

type body struct {
	*bytes.Reader
	f    *Fetcher
	once sync.Once
}

func (b *body) Close() error {
	b.once.Do(b.f.release)
	return nil
}

type stall struct {
	after   int
	reached chan struct{}
	once    sync.Once
}

type stallingBody struct {
	*body
	ctx   context.Context
	stall *stall
	left  int
}

func (s *stallingBody) Read(p []byte) (int, error) {
	if s.left == 0 {
		s.stall.once.Do(func() { close(s.stall.reached) })
		<-s.ctx.Done()
		return 0, s.ctx.Err()
	}
	if len(p) > s.left {
		p = p[:s.left]
	}
	n, err := s.body.Read(p)
	s.left -= n
	return n, err
}
