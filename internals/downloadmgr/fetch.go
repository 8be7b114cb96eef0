package downloadmgr

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dchest/uniuri"
	"github.com/klauspost/compress/gzip"
	"github.com/minepkg/launchcore/internals/ownhttp"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz/lzma"
)

// verifyExisting checks an already existing file. Without a checksum the size
// is compared, without a size the file just has to exist.
func (d *DownloadManager) verifyExisting(dest string, item Item, expected Checksum) (bool, error) {
	info, err := d.fs.Stat(dest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err := fsError(dest, err); IsFatal(err) {
			return false, err
		}
		return false, nil
	}
	if info.IsDir() {
		return false, &FileSystemError{Kind: PathCollision, Path: dest, Err: fmt.Errorf("is a directory")}
	}
	if item.Size > 0 && info.Size() != item.Size {
		return false, nil
	}

	if !expected.IsZero() {
		actual, err := hashFile(d.fs, dest, expected)
		if err != nil || actual != expected.Hex {
			return false, nil
		}
	}

	if item.Executable && info.Mode().Perm()&0o111 == 0 {
		if err := d.fs.Chmod(dest, 0o755); err != nil {
			return false, fsError(dest, err)
		}
	}
	return true, nil
}

func hashFile(fs afero.Fs, path string, sum Checksum) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sum.newHash()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// download writes url to a temporary file next to dest, checks it and renames
// it into place. alt is set when url serves a compressed variant.
func (d *DownloadManager) download(ctx context.Context, url string, alt *Alternate, item Item, expected Checksum, dest string) (int64, error) {
	body, err := d.fetcher.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if err := d.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fsError(filepath.Dir(dest), err)
	}

	tmp := dest + "." + uniuri.NewLen(8) + ".tmp"
	f, err := d.fs.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fsError(tmp, err)
	}
	placed := false
	defer func() {
		if !placed {
			d.fs.Remove(tmp)
		}
	}()

	received := &countingReader{r: body}
	var src io.Reader = received
	var rawHasher hash.Hash
	if alt != nil {
		if !alt.Checksum.IsZero() {
			rawHasher = alt.Checksum.newHash()
			src = io.TeeReader(src, rawHasher)
		}
		src, err = decoder(alt.Encoding, src)
		if err != nil {
			f.Close()
			return received.n, &IntegrityError{Kind: ChecksumMismatch, Path: item.Path, Expected: string(alt.Encoding), Actual: "undecodable", Err: err}
		}
	}

	sum := expected
	if sum.IsZero() {
		sum = Checksum{Algorithm: SHA1}
	}
	hasher := sum.newHash()
	w := &errWriter{w: f}
	written, err := io.Copy(io.MultiWriter(w, hasher), src)
	if err != nil {
		f.Close()
		switch {
		case w.err != nil:
			return received.n, fsError(tmp, w.err)
		case ctx.Err() != nil:
			return received.n, ctx.Err()
		case alt != nil && !isTransportError(err):
			return received.n, &IntegrityError{Kind: ChecksumMismatch, Path: item.Path, Expected: string(alt.Encoding), Actual: "undecodable", Err: err}
		}
		return received.n, asTransportError(url, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return received.n, fsError(tmp, err)
	}
	if err := f.Close(); err != nil {
		return received.n, fsError(tmp, err)
	}

	if alt != nil {
		if alt.Size > 0 && received.n != alt.Size {
			return received.n, &IntegrityError{Kind: SizeMismatch, Path: item.Path, Expected: fmt.Sprint(alt.Size), Actual: fmt.Sprint(received.n)}
		}
		if rawHasher != nil {
			if actual := hex.EncodeToString(rawHasher.Sum(nil)); actual != alt.Checksum.Hex {
				return received.n, &IntegrityError{Kind: ChecksumMismatch, Path: item.Path, Expected: alt.Checksum.Hex, Actual: actual}
			}
		}
	}
	if item.Size > 0 && written != item.Size {
		return received.n, &IntegrityError{Kind: SizeMismatch, Path: item.Path, Expected: fmt.Sprint(item.Size), Actual: fmt.Sprint(written)}
	}
	if !expected.IsZero() {
		if actual := hex.EncodeToString(hasher.Sum(nil)); actual != expected.Hex {
			return received.n, &IntegrityError{Kind: ChecksumMismatch, Path: item.Path, Expected: expected.Hex, Actual: actual}
		}
	}

	if item.Executable {
		if err := d.fs.Chmod(tmp, 0o755); err != nil {
			return received.n, fsError(tmp, err)
		}
	}
	if err := d.fs.Rename(tmp, dest); err != nil {
		return received.n, fsError(dest, err)
	}
	placed = true
	return received.n, nil
}

func decoder(encoding Encoding, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(string(encoding)) {
	case string(EncodingLZMA):
		return lzma.NewReader(r)
	case string(EncodingGzip):
		return gzip.NewReader(r)
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

func isTransportError(err error) bool {
	var tErr *ownhttp.TransportError
	return errors.As(err, &tErr)
}

func asTransportError(url string, err error) error {
	if isTransportError(err) {
		return err
	}
	return &ownhttp.TransportError{Kind: ownhttp.ConnectionFailed, URL: url, Err: err}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// errWriter remembers write errors so they are not mistaken for network errors
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
