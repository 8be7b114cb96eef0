package downloadmgr

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dchest/uniuri"
	archiver "github.com/mholt/archiver/v3"
)

var errIllegalPath = errors.New("illegal member path")

// extract unpacks the members of a native archive that pass the extraction
// rules. Existing files are overwritten.
func (d *DownloadManager) extract(item Item) error {
	archivePath := d.Path(item.Path)
	f, err := d.fs.Open(archivePath)
	if err != nil {
		return &ExtractionError{Kind: IOFailure, Archive: item.Path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &ExtractionError{Kind: IOFailure, Archive: item.Path, Err: err}
	}

	z := archiver.NewZip()
	if err := z.Open(f, info.Size()); err != nil {
		return &ExtractionError{Kind: CorruptArchive, Archive: item.Path, Err: err}
	}
	defer z.Close()

	targetDir := d.Path(item.Extract.Dir)
	if err := d.fs.MkdirAll(targetDir, 0o755); err != nil {
		return fsError(targetDir, err)
	}

	for {
		file, err := z.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if file.ReadCloser != nil {
				file.Close()
			}
			return &ExtractionError{Kind: CorruptArchive, Archive: item.Path, Err: err}
		}

		name := file.Name()
		if header, ok := file.Header.(zip.FileHeader); ok {
			name = header.Name
		}

		if file.IsDir() || !item.Extract.Rules.ShouldExtract(name) {
			file.Close()
			continue
		}

		err = d.extractMember(targetDir, name, file)
		file.Close()
		if err != nil {
			if IsFatal(err) {
				return err
			}
			if errors.Is(err, errIllegalPath) {
				return &ExtractionError{Kind: CorruptArchive, Archive: item.Path, Member: name, Err: err}
			}
			return &ExtractionError{Kind: IOFailure, Archive: item.Path, Member: name, Err: err}
		}
	}
	return nil
}

func (d *DownloadManager) extractMember(targetDir string, name string, r io.Reader) error {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w %q", errIllegalPath, name)
	}
	dest := filepath.Join(targetDir, filepath.FromSlash(clean))

	if err := d.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fsError(filepath.Dir(dest), err)
	}

	tmp := dest + "." + uniuri.NewLen(8) + ".tmp"
	out, err := d.fs.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fsError(tmp, err)
	}
	w := &errWriter{w: out}
	_, err = io.Copy(w, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		d.fs.Remove(tmp)
		if w.err != nil {
			return fsError(tmp, w.err)
		}
		return err
	}
	if err := d.fs.Rename(tmp, dest); err != nil {
		d.fs.Remove(tmp)
		return fsError(dest, err)
	}
	return nil
}
