package ownhttp

import (
	"net/http"

	"golang.org/x/time/rate"
)

// ThrottleTransport limits how many new requests per second are sent.
// Response bodies are not throttled
type ThrottleTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

// RoundTrip waits for the limiter, then passes the request on
func (t *ThrottleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return t.next.RoundTrip(req)
}

// NewThrottleTransport wraps next (http.DefaultTransport if nil). A nil limiter does not throttle
func NewThrottleTransport(next http.RoundTripper, limiter *rate.Limiter) *ThrottleTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &ThrottleTransport{next: next, limiter: limiter}
}
