package ownhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent with every request
const DefaultUserAgent = "launchcore/0.1 (+https://github.com/minepkg/launchcore)"

// Fetcher fetches remote files. The body has to be closed by the caller
type Fetcher interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// ETagFetcher is implemented by fetchers that can read the ETag of a url
// without transferring the body
type ETagFetcher interface {
	ETag(ctx context.Context, url string) (string, error)
}

// GetJSON fetches url and decodes the json body into v
func GetJSON(ctx context.Context, f Fetcher, url string, v interface{}) error {
	body, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// Options configure a [Client]
type Options struct {
	UserAgent string
	// RequestsPerSecond limits new requests. 0 means unlimited
	RequestsPerSecond float64
	// IdleTimeout aborts a transfer that received nothing for this long
	IdleTimeout time.Duration
}

// Client is the http [Fetcher]
type Client struct {
	http        *http.Client
	idleTimeout time.Duration
}

// NewHTTPClient returns a new http.Client with the AddHeaderTransport (setting the User-Agent header)
// and timeouts for connecting and waiting for response headers. There is no overall
// timeout as some downloads are big.
func NewHTTPClient(opts Options) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   16,
		TLSHandshakeTimeout:   20 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		transport = NewThrottleTransport(transport, rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst))
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &http.Client{Transport: NewAddHeaderTransport(transport, userAgent)}
}

// New returns a new [Client]
func New(opts Options) *Client {
	return NewWithClient(NewHTTPClient(opts), opts.IdleTimeout)
}

// NewWithClient wraps an existing http client
func NewWithClient(c *http.Client, idleTimeout time.Duration) *Client {
	if idleTimeout == 0 {
		idleTimeout = 30 * time.Second
	}
	return &Client{http: c, idleTimeout: idleTimeout}
}

// Get requests url and returns the body if the status is 200
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, classify(url, err)
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		cancel()
		return nil, &TransportError{Kind: HTTPStatus, URL: url, StatusCode: res.StatusCode}
	}

	return newIdleReader(url, res.Body, c.idleTimeout, cancel), nil
}

// ETag sends a HEAD request and returns the ETag header without quotes.
// It is empty if the server did not send one
func (c *Client) ETag(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return "", classify(url, err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", &TransportError{Kind: HTTPStatus, URL: url, StatusCode: res.StatusCode}
	}
	etag := strings.TrimPrefix(res.Header.Get("ETag"), "W/")
	return strings.Trim(etag, `"`), nil
}

func classify(url string, err error) error {
	// the caller gave up, that is not a transport problem
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportError{Kind: Timeout, URL: url, Err: err}
	}
	return &TransportError{Kind: ConnectionFailed, URL: url, Err: err}
}
