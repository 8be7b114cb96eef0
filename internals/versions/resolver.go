// Package versions resolves version manifests and their inheritsFrom chains
package versions

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/ownhttp"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxDepth is the longest inheritance chain that is followed
	DefaultMaxDepth = 16
	// LauncherVersion is the highest minimumLauncherVersion we know how to handle
	LauncherVersion = 21

	defaultCacheSize = 128
)

// Source returns the raw manifest of a version. Unknown versions
// should return an error wrapping [ErrNotFound]
type Source interface {
	Fetch(ctx context.Context, id string) (json.RawMessage, error)
}

// Resolver flattens version manifests
type Resolver struct {
	source Source
	cache  *lru.Cache[string, *minecraft.LaunchManifest]

	MaxDepth int
	Logger   *cmdlog.Logger
}

// NewResolver returns a resolver reading manifests from source
func NewResolver(source Source) *Resolver {
	cache, err := lru.New[string, *minecraft.LaunchManifest](defaultCacheSize)
	if err != nil {
		// only happens for a size <= 0
		panic(err)
	}
	return &Resolver{
		source:   source,
		cache:    cache,
		MaxDepth: DefaultMaxDepth,
	}
}

func (r *Resolver) logger() *cmdlog.Logger {
	if r.Logger == nil {
		return cmdlog.Discard()
	}
	return r.Logger
}

// Resolve returns the manifest of id with all inherited manifests merged into it.
// The result has no InheritsFrom and is not shared with other calls.
func (r *Resolver) Resolve(ctx context.Context, id string) (*minecraft.LaunchManifest, error) {
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	chain := make([]*minecraft.LaunchManifest, 0, 2)
	ids := make([]string, 0, 2)
	visited := make(map[string]bool)

	for next := id; next != ""; {
		if visited[next] {
			return nil, &ManifestError{
				Kind:  InheritanceCycle,
				ID:    next,
				Chain: append(ids, next),
				Err:   fmt.Errorf("%s is inherited twice", next),
			}
		}
		if len(ids) == maxDepth {
			return nil, &ManifestError{
				Kind:  InheritanceCycle,
				ID:    next,
				Chain: append(ids, next),
				Err:   fmt.Errorf("chain is longer than %d manifests", maxDepth),
			}
		}
		visited[next] = true
		ids = append(ids, next)

		if err := ValidateID(next); err != nil {
			return nil, &ManifestError{Kind: Malformed, ID: next, Chain: ids, Err: err}
		}
		manifest, err := r.load(ctx, next)
		if err != nil {
			err.Chain = append([]string(nil), ids...)
			return nil, err
		}
		chain = append(chain, manifest)
		next = manifest.InheritsFrom
	}

	// fold from the root, so every child overrides its parent
	resolved := &minecraft.LaunchManifest{}
	for i := len(chain) - 1; i >= 0; i-- {
		resolved = minecraft.Merge(resolved, chain[i])
	}
	resolved.ID = id
	resolved.InheritsFrom = ""

	if resolved.MainClass == "" {
		return nil, &ManifestError{Kind: Malformed, ID: id, Chain: ids, Err: errors.New("no mainClass after merging")}
	}
	if resolved.MinimumLauncherVersion > LauncherVersion {
		r.logger().Warnf(
			"%s requires launcher version %d (we are %d). It might not start correctly",
			id,
			resolved.MinimumLauncherVersion,
			LauncherVersion,
		)
	}
	return resolved, nil
}

// load returns a single parsed manifest. Cached manifests are never modified
func (r *Resolver) load(ctx context.Context, id string) (*minecraft.LaunchManifest, *ManifestError) {
	if cached, ok := r.cache.Get(id); ok {
		return cached, nil
	}

	raw, err := r.source.Fetch(ctx, id)
	if err != nil {
		kind := FetchFailed
		if isNotFound(err) {
			kind = NotFound
		}
		return nil, &ManifestError{Kind: kind, ID: id, Err: err}
	}

	manifest := &minecraft.LaunchManifest{}
	if err := json.Unmarshal(raw, manifest); err != nil {
		return nil, &ManifestError{Kind: Malformed, ID: id, Err: errors.Wrap(err, "decoding manifest")}
	}
	if manifest.ID == "" {
		return nil, &ManifestError{Kind: Malformed, ID: id, Err: errors.New("manifest has no id")}
	}
	if manifest.ID != id {
		r.logger().Debugf("manifest %s declares the id %s", id, manifest.ID)
	}

	r.cache.Add(id, manifest)
	return manifest, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var tErr *ownhttp.TransportError
	return errors.As(err, &tErr) && tErr.Kind == ownhttp.HTTPStatus && tErr.StatusCode == 404
}
