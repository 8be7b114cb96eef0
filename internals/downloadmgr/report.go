package downloadmgr

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Status is the result of one [Item]
type Status int

const (
	// Verified items already existed with the expected content
	Verified Status = iota
	// Fetched items were downloaded
	Fetched
	// Failed items have an error set
	Failed
	// Skipped items were not processed because the batch was canceled or aborted
	Skipped
)

func (s Status) String() string {
	switch s {
	case Verified:
		return "verified"
	case Fetched:
		return "fetched"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Outcome is what happened to an [Item]
type Outcome struct {
	Item     Item
	Status   Status
	Err      error
	Reason   string
	Attempts int
	// Bytes transferred over the network
	Bytes int64
}

// BatchReport has one [Outcome] per submitted item, in the same order
type BatchReport struct {
	Outcomes []Outcome
	// Err is the first fatal error or the reason of a cancellation
	Err      error
	Duration time.Duration
}

// Count returns the number of outcomes with status s
func (r *BatchReport) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failures returns all failed outcomes
func (r *BatchReport) Failures() []Outcome {
	failed := make([]Outcome, 0)
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			failed = append(failed, o)
		}
	}
	return failed
}

// RequiredFailures returns failed or skipped outcomes of items that are not optional
func (r *BatchReport) RequiredFailures() []Outcome {
	failed := make([]Outcome, 0)
	for _, o := range r.Outcomes {
		if (o.Status == Failed || o.Status == Skipped) && !o.Item.Optional {
			failed = append(failed, o)
		}
	}
	return failed
}

// Bytes returns the number of transferred bytes
func (r *BatchReport) Bytes() int64 {
	var n int64
	for _, o := range r.Outcomes {
		n += o.Bytes
	}
	return n
}

// Failure returns an error if the batch was aborted or a required item failed
func (r *BatchReport) Failure() error {
	if r.Err != nil {
		return r.Err
	}
	failed := r.RequiredFailures()
	if len(failed) == 0 {
		return nil
	}
	if len(failed) == 1 {
		return fmt.Errorf("download of %s failed: %w", failed[0].Item.Path, failed[0].Err)
	}
	return fmt.Errorf("%d downloads failed, first: %s: %w", len(failed), failed[0].Item.Path, failed[0].Err)
}

// Summary is a short human readable line
func (r *BatchReport) Summary() string {
	return fmt.Sprintf(
		"%d verified, %d fetched (%s), %d failed, %d skipped in %s",
		r.Count(Verified),
		r.Count(Fetched),
		humanize.Bytes(uint64(r.Bytes())),
		r.Count(Failed),
		r.Count(Skipped),
		r.Duration.Round(time.Millisecond),
	)
}
