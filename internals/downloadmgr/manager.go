package downloadmgr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/ownhttp"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultConcurrency = 16
	DefaultMaxAttempts = 5
	DefaultBackoff     = 500 * time.Millisecond
)

// DownloadManager materializes items below a root directory
type DownloadManager struct {
	fs      afero.Fs
	root    string
	fetcher ownhttp.Fetcher
	queue   []Item

	// slots is shared by all Materialize calls of this manager
	slotsOnce sync.Once
	slots     *semaphore.Weighted

	// Concurrency limits the transfers running at the same time, across all
	// Materialize calls. It is read on the first transfer
	Concurrency int
	// MaxAttempts per item, including the first one
	MaxAttempts int
	// Backoff is waited before the second attempt and doubled for every further one
	Backoff    time.Duration
	Logger     *cmdlog.Logger
	OnProgress func(p int)
}

// New creates a new downloadmgr
func New(fs afero.Fs, root string, fetcher ownhttp.Fetcher) *DownloadManager {
	return &DownloadManager{
		fs:          fs,
		root:        root,
		fetcher:     fetcher,
		Concurrency: DefaultConcurrency,
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
	}
}

// Add adds new items to the queue
func (d *DownloadManager) Add(items ...Item) {
	d.queue = append(d.queue, items...)
}

// Start materializes the queue and empties it. The error is set if the
// batch was aborted or a required item failed.
func (d *DownloadManager) Start(ctx context.Context) (*BatchReport, error) {
	queue := d.queue
	d.queue = nil
	report := d.Materialize(ctx, queue)
	return report, report.Failure()
}

// Path returns the file system path of a slash separated item path
func (d *DownloadManager) Path(rel string) string {
	return filepath.Join(d.root, filepath.FromSlash(rel))
}

// MkdirAll creates the directory rel below the root. Errors are [FileSystemError]s
func (d *DownloadManager) MkdirAll(rel string) error {
	clean, err := CleanPath(rel)
	if err != nil {
		return &FileSystemError{Kind: Other, Path: rel, Err: err}
	}
	dir := d.Path(clean)
	return fsError(dir, d.fs.MkdirAll(dir, 0o755))
}

// Fs returns the file system the manager writes to
func (d *DownloadManager) Fs() afero.Fs {
	return d.fs
}

// Fetcher returns the fetcher used for downloads
func (d *DownloadManager) Fetcher() ownhttp.Fetcher {
	return d.fetcher
}

// Root returns the root directory of all item paths
func (d *DownloadManager) Root() string {
	return d.root
}

func (d *DownloadManager) logger() *cmdlog.Logger {
	if d.Logger == nil {
		return cmdlog.Discard()
	}
	return d.Logger
}

// Materialize makes sure every item exists with the expected content.
// Items are processed independently, a failed item does not stop the others.
// Disk full and permission errors abort the remaining items, they are reported
// as skipped and the error is set as the report's Err.
func (d *DownloadManager) Materialize(ctx context.Context, items []Item) *BatchReport {
	start := time.Now()
	report := &BatchReport{Outcomes: make([]Outcome, len(items))}

	// every destination may only be written once and has to stay below the root
	claimed := make(map[string]int, len(items))
	rejected := make([]bool, len(items))
	for i, item := range items {
		report.Outcomes[i].Item = item
		clean, err := CleanPath(item.Path)
		if err != nil {
			rejected[i] = true
			report.Outcomes[i].Status = Failed
			report.Outcomes[i].Err = &FileSystemError{Kind: Other, Path: item.Path, Err: err}
			continue
		}
		if first, ok := claimed[clean]; ok {
			rejected[i] = true
			report.Outcomes[i].Status = Failed
			report.Outcomes[i].Err = &FileSystemError{
				Kind: PathCollision,
				Path: item.Path,
				Err:  fmt.Errorf("%s is also the destination of %s", item.URL, items[first].URL),
			}
			continue
		}
		claimed[clean] = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit())

	var mu sync.Mutex
	done := 0
	progress := func() {
		if d.OnProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		d.OnProgress(int(float32(done) / float32(len(items)) * 100))
	}

	for i := range items {
		if rejected[i] {
			progress()
			continue
		}
		out := &report.Outcomes[i]
		g.Go(func() error {
			defer progress()
			if gctx.Err() != nil {
				d.skip(ctx, out)
				return nil
			}
			d.process(gctx, out)
			if out.Status == Failed && gctx.Err() != nil && errors.Is(out.Err, gctx.Err()) {
				d.skip(ctx, out)
				return nil
			}
			if out.Status == Failed && IsFatal(out.Err) {
				return out.Err
			}
			return nil
		})
	}

	report.Err = g.Wait()
	if report.Err == nil {
		report.Err = ctx.Err()
	}
	report.Duration = time.Since(start)
	return report
}

func (d *DownloadManager) limit() int {
	if d.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return d.Concurrency
}

// acquire takes a transfer slot. The returned func gives it back
func (d *DownloadManager) acquire(ctx context.Context) (func(), error) {
	d.slotsOnce.Do(func() {
		d.slots = semaphore.NewWeighted(int64(d.limit()))
	})
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { d.slots.Release(1) }, nil
}

func (d *DownloadManager) skip(ctx context.Context, out *Outcome) {
	out.Status = Skipped
	out.Err = nil
	if ctx.Err() != nil {
		out.Reason = "canceled"
	} else {
		out.Reason = "aborted after a fatal error"
	}
}

// process verifies, fetches and extracts a single item
func (d *DownloadManager) process(ctx context.Context, out *Outcome) {
	item := out.Item
	log := d.logger()

	expected := item.Checksum
	if expected.IsZero() && item.ChecksumURL != "" {
		sum, err := d.fetchChecksum(ctx, item.ChecksumURL)
		if err != nil {
			log.Debugf("no checksum for %s: %s", item.Path, err)
		} else {
			expected = sum
		}
	}

	if expected.IsZero() && item.ETagChecksum {
		if sum, ok := d.etagChecksum(ctx, item.URL); ok {
			expected = sum
		}
	}

	dest := d.Path(item.Path)
	ok, err := d.verifyExisting(dest, item, expected)
	if err != nil {
		out.Status = Failed
		out.Err = err
		return
	}

	if ok {
		out.Status = Verified
	} else {
		if err := d.fetchWithRetry(ctx, out, expected, dest); err != nil {
			out.Status = Failed
			out.Err = err
			return
		}
		out.Status = Fetched
		log.Debugf("fetched %s (%d attempts)", item.Path, out.Attempts)
	}

	if item.Extract != nil {
		if err := d.extract(item); err != nil {
			out.Status = Failed
			out.Err = err
		}
	}
}

func (d *DownloadManager) fetchWithRetry(ctx context.Context, out *Outcome, expected Checksum, dest string) error {
	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	backoff := d.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		out.Attempts = attempt
		var n int64
		n, err = d.fetch(ctx, out.Item, expected, dest)
		out.Bytes += n
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) || attempt == attempts {
			break
		}

		d.logger().Debugf("attempt %d for %s failed: %s", attempt, out.Item.Path, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return err
}

func retryable(err error) bool {
	var integrity *IntegrityError
	return ownhttp.IsTemporary(err) || errors.As(err, &integrity)
}

// fetch downloads the compressed alternate first and falls back to the plain file
func (d *DownloadManager) fetch(ctx context.Context, item Item, expected Checksum, dest string) (int64, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	var transferred int64
	if item.Compressed != nil {
		n, err := d.download(ctx, item.Compressed.URL, item.Compressed, item, expected, dest)
		transferred += n
		if err == nil || IsFatal(err) || ctx.Err() != nil || item.URL == "" {
			return transferred, err
		}
		d.logger().Debugf("compressed download of %s failed, using plain file: %s", item.Path, err)
	}
	n, err := d.download(ctx, item.URL, nil, item, expected, dest)
	return transferred + n, err
}

// etagChecksum returns the md5 an S3 style ETag carries. Multipart uploads have
// an ETag with a "-" that is not a digest of the content
func (d *DownloadManager) etagChecksum(ctx context.Context, url string) (Checksum, bool) {
	fetcher, ok := d.fetcher.(ownhttp.ETagFetcher)
	if !ok {
		return Checksum{}, false
	}
	release, err := d.acquire(ctx)
	if err != nil {
		return Checksum{}, false
	}
	defer release()

	etag, err := fetcher.ETag(ctx, url)
	if err != nil {
		d.logger().Debugf("no etag for %s: %s", url, err)
		return Checksum{}, false
	}
	sum := ChecksumFromHex(etag)
	if strings.Contains(etag, "-") || sum.Algorithm != MD5 {
		d.logger().Debugf("etag %q of %s is no md5, trusting the local file", etag, url)
		return Checksum{}, false
	}
	return sum, true
}

// fetchChecksum reads a maven style .sha1 file
func (d *DownloadManager) fetchChecksum(ctx context.Context, url string) (Checksum, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return Checksum{}, err
	}
	defer release()

	body, err := d.fetcher.Get(ctx, url)
	if err != nil {
		return Checksum{}, err
	}
	defer body.Close()
	buf, err := io.ReadAll(io.LimitReader(body, 256))
	if err != nil {
		return Checksum{}, err
	}
	var first string
	if _, err := fmt.Sscan(string(buf), &first); err != nil {
		return Checksum{}, fmt.Errorf("empty checksum file")
	}
	sum := ChecksumFromHex(first)
	if sum.IsZero() {
		return Checksum{}, fmt.Errorf("invalid checksum %q", first)
	}
	return sum, nil
}
