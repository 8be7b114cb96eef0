package downloadmgr

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"path"
	"strings"

	"github.com/minepkg/launchcore/internals/minecraft"
)

// Kind of an [Item]
type Kind int

const (
	KindLibrary Kind = iota
	KindNative
	KindClientJar
	KindLogConfig
	KindAsset
	KindAssetIndex
	KindRuntimeFile
	KindVersionManifest
	KindRuntimeManifest
)

func (k Kind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindNative:
		return "native"
	case KindClientJar:
		return "client-jar"
	case KindLogConfig:
		return "log-config"
	case KindAsset:
		return "asset"
	case KindAssetIndex:
		return "asset-index"
	case KindRuntimeFile:
		return "runtime-file"
	case KindVersionManifest:
		return "version-manifest"
	case KindRuntimeManifest:
		return "runtime-manifest"
	}
	return "unknown"
}

// Algorithm of a [Checksum]
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

// Checksum is an expected digest in lowercase hex
type Checksum struct {
	Algorithm Algorithm
	Hex       string
}

// SHA1Sum is a shorthand for a sha1 [Checksum]
func SHA1Sum(hex string) Checksum {
	if hex == "" {
		return Checksum{}
	}
	return Checksum{Algorithm: SHA1, Hex: strings.ToLower(hex)}
}

// ChecksumFromHex guesses the algorithm by the length of the digest.
// Legacy assets use md5.
func ChecksumFromHex(hex string) Checksum {
	hex = strings.ToLower(strings.TrimSpace(hex))
	switch len(hex) {
	case 40:
		return Checksum{Algorithm: SHA1, Hex: hex}
	case 32:
		return Checksum{Algorithm: MD5, Hex: hex}
	case 64:
		return Checksum{Algorithm: SHA256, Hex: hex}
	}
	return Checksum{}
}

// IsZero reports if no checksum is known
func (c Checksum) IsZero() bool {
	return c.Hex == ""
}

func (c Checksum) String() string {
	if c.IsZero() {
		return "none"
	}
	return string(c.Algorithm) + ":" + c.Hex
}

func (c Checksum) newHash() hash.Hash {
	switch c.Algorithm {
	case MD5:
		return md5.New()
	case SHA256:
		return sha256.New()
	}
	return sha1.New()
}

// Encoding of a compressed [Alternate]
type Encoding string

const (
	EncodingLZMA Encoding = "lzma"
	EncodingGzip Encoding = "gzip"
)

// Alternate is a compressed variant of an item. Checksum and Size describe the
// compressed payload, the decoded content is checked against the item.
type Alternate struct {
	URL      string
	Checksum Checksum
	Size     int64
	Encoding Encoding
}

// Extraction unpacks a native archive after it was verified
type Extraction struct {
	// Dir is the target directory (slash separated, relative to the root)
	Dir   string
	Rules *minecraft.ExtractRules
}

// Item is one file that should exist at Path (slash separated, relative to the root)
type Item struct {
	Kind     Kind
	Path     string
	URL      string
	Checksum Checksum
	// ChecksumURL serves the sha1 if Checksum is not known (maven style <url>.sha1)
	ChecksumURL string
	// ETagChecksum reads an md5 from the ETag of URL if Checksum is not known.
	// Old S3 hosted files have no other checksum
	ETagChecksum bool
	// Size in bytes, 0 if unknown
	Size       int64
	Compressed *Alternate
	Extract    *Extraction
	Executable bool
	// Optional items can fail without breaking the launch
	Optional bool
}

// ErrUnsafePath is returned for paths that would leave the data root
var ErrUnsafePath = errors.New("path leaves the data root")

// CleanPath cleans a slash separated path relative to the data root. Absolute
// paths and paths leaving the root return [ErrUnsafePath]
func CleanPath(rel string) (string, error) {
	clean := path.Clean(rel)
	switch {
	case rel == "", clean == ".", clean == "..",
		path.IsAbs(clean),
		strings.HasPrefix(clean, "../"),
		strings.Contains(rel, "\\"),
		len(rel) > 1 && rel[1] == ':':
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	return clean, nil
}
