package versions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a version does not exist
	ErrNotFound = errors.New("version not found")
	// ErrMalformed is returned for manifests that can not be used
	ErrMalformed = errors.New("malformed version manifest")
	// ErrInheritanceCycle is returned when inheritsFrom loops or the chain is too long
	ErrInheritanceCycle = errors.New("inheritance cycle")
	// ErrFetchFailed is returned when a manifest could not be fetched
	ErrFetchFailed = errors.New("fetching version manifest failed")
)

// ManifestErrorKind classifies a [ManifestError]
type ManifestErrorKind int

const (
	NotFound ManifestErrorKind = iota
	Malformed
	InheritanceCycle
	FetchFailed
)

func (k ManifestErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Malformed:
		return "malformed"
	case InheritanceCycle:
		return "inheritance cycle"
	case FetchFailed:
		return "fetch failed"
	}
	return "unknown"
}

// ManifestError is returned by the [Resolver]
type ManifestError struct {
	Kind ManifestErrorKind
	// ID of the manifest that failed
	ID string
	// Chain is the inheritance chain up to the failing manifest, child first
	Chain []string
	Err   error
}

func (e *ManifestError) Error() string {
	msg := fmt.Sprintf("version %s: %s", e.ID, e.Kind)
	if len(e.Chain) > 1 {
		msg += " (" + strings.Join(e.Chain, " -> ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ManifestError) Unwrap() error { return e.Err }

func (e *ManifestError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrMalformed:
		return e.Kind == Malformed
	case ErrInheritanceCycle:
		return e.Kind == InheritanceCycle
	case ErrFetchFailed:
		return e.Kind == FetchFailed
	}
	return false
}
