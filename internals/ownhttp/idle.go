package ownhttp

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

// idleReader cancels the request when the body makes no progress for too long
type idleReader struct {
	body     io.ReadCloser
	url      string
	timeout  time.Duration
	timer    *time.Timer
	cancel   context.CancelFunc
	timedOut int32
}

func newIdleReader(url string, body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	r := &idleReader{body: body, url: url, timeout: timeout, cancel: cancel}
	r.timer = time.AfterFunc(timeout, func() {
		atomic.StoreInt32(&r.timedOut, 1)
		cancel()
	})
	return r
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if err != nil && err != io.EOF && atomic.LoadInt32(&r.timedOut) == 1 {
		return n, &TransportError{Kind: Timeout, URL: r.url, Err: err}
	}
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) Close() error {
	r.timer.Stop()
	err := r.body.Close()
	r.cancel()
	return err
}
