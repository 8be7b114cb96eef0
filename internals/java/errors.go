package java

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned if there is no runtime build for the platform
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrManifestMissing is returned if the runtime manifest does not exist
	ErrManifestMissing = errors.New("runtime manifest missing")
	// ErrInvalidVersionString is returned for java versions that can not be parsed
	ErrInvalidVersionString = errors.New("invalid java version")
)

// RuntimeErrorKind classifies a [RuntimeError]
type RuntimeErrorKind int

const (
	UnsupportedPlatform RuntimeErrorKind = iota
	ManifestMissing
)

// RuntimeError is returned by [Factory.Provision]
type RuntimeError struct {
	Kind      RuntimeErrorKind
	Component string
	Platform  string
	Err       error
}

func (e *RuntimeError) Error() string {
	var msg string
	switch e.Kind {
	case UnsupportedPlatform:
		msg = fmt.Sprintf("java runtime %s is not available for %s", e.Component, e.Platform)
	case ManifestMissing:
		msg = fmt.Sprintf("there is no manifest for java runtime %s (%s)", e.Component, e.Platform)
	default:
		msg = "java runtime error"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func (e *RuntimeError) Is(target error) bool {
	return (target == ErrUnsupportedPlatform && e.Kind == UnsupportedPlatform) ||
		(target == ErrManifestMissing && e.Kind == ManifestMissing)
}
