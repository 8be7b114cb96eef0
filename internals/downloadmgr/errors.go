package downloadmgr

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	ErrSizeMismatch     = errors.New("size mismatch")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrCorruptArchive   = errors.New("corrupt archive")
	ErrExtractionIO     = errors.New("extraction failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDiskFull         = errors.New("disk full")
	ErrPathCollision    = errors.New("path collision")
)

// IntegrityErrorKind tells which check failed
type IntegrityErrorKind int

const (
	SizeMismatch IntegrityErrorKind = iota
	ChecksumMismatch
)

// IntegrityError is returned when downloaded content does not match its descriptor
type IntegrityError struct {
	Kind     IntegrityErrorKind
	Path     string
	Expected string
	Actual   string
	Err      error
}

func (e *IntegrityError) Error() string {
	what := "checksum"
	if e.Kind == SizeMismatch {
		what = "size"
	}
	msg := fmt.Sprintf("file corrupted: %s %s is invalid. expected %q but actually is %q", e.Path, what, e.Expected, e.Actual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IntegrityError) Unwrap() error { return e.Err }

func (e *IntegrityError) Is(target error) bool {
	return (target == ErrSizeMismatch && e.Kind == SizeMismatch) ||
		(target == ErrChecksumMismatch && e.Kind == ChecksumMismatch)
}

// ExtractionErrorKind tells why extracting a native archive failed
type ExtractionErrorKind int

const (
	CorruptArchive ExtractionErrorKind = iota
	IOFailure
)

// ExtractionError is returned when a native archive can not be unpacked.
// The archive itself stays in place.
type ExtractionError struct {
	Kind    ExtractionErrorKind
	Archive string
	Member  string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("extracting %s from %s: %s", e.Member, e.Archive, e.Err)
	}
	return fmt.Sprintf("extracting %s: %s", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool {
	return (target == ErrCorruptArchive && e.Kind == CorruptArchive) ||
		(target == ErrExtractionIO && e.Kind == IOFailure)
}

// FileSystemErrorKind classifies file system failures
type FileSystemErrorKind int

const (
	Other FileSystemErrorKind = iota
	PermissionDenied
	DiskFull
	PathCollision
)

// FileSystemError wraps errors of the file system. PermissionDenied and
// DiskFull abort the whole batch.
type FileSystemError struct {
	Kind FileSystemErrorKind
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	switch e.Kind {
	case PathCollision:
		return fmt.Sprintf("path collision at %s: %s", e.Path, e.Err)
	case DiskFull:
		return fmt.Sprintf("disk full while writing %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

func (e *FileSystemError) Is(target error) bool {
	return (target == ErrPermissionDenied && e.Kind == PermissionDenied) ||
		(target == ErrDiskFull && e.Kind == DiskFull) ||
		(target == ErrPathCollision && e.Kind == PathCollision)
}

// Fatal reports if this error will make every other write fail too
func (e *FileSystemError) Fatal() bool {
	return e.Kind == PermissionDenied || e.Kind == DiskFull
}

// AsFileSystemError classifies a file system error of path as a [FileSystemError].
// It returns nil for a nil err
func AsFileSystemError(path string, err error) error {
	return fsError(path, err)
}

// fsError classifies err
func fsError(path string, err error) error {
	if err == nil {
		return nil
	}
	var fsErr *FileSystemError
	if errors.As(err, &fsErr) {
		return err
	}
	kind := Other
	switch {
	case errors.Is(err, syscall.ENOSPC):
		kind = DiskFull
	case errors.Is(err, fs.ErrPermission):
		kind = PermissionDenied
	}
	return &FileSystemError{Kind: kind, Path: path, Err: err}
}

// IsFatal reports if err should abort the remaining downloads
func IsFatal(err error) bool {
	var fsErr *FileSystemError
	return errors.As(err, &fsErr) && fsErr.Fatal()
}
