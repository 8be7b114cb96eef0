package ownhttp

import "net/http"

// AddHeaderTransport sets the User-Agent header on every request
type AddHeaderTransport struct {
	T         http.RoundTripper
	UserAgent string
}

func (adt *AddHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", adt.UserAgent)
	return adt.T.RoundTrip(req)
}

func NewAddHeaderTransport(T http.RoundTripper, userAgent string) *AddHeaderTransport {
	if T == nil {
		T = http.DefaultTransport
	}
	return &AddHeaderTransport{T, userAgent}
}
