package versions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/ownhttp"
	"github.com/spf13/afero"
)

// VersionListURL lists all official versions
const VersionListURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

var (
	// TypeRelease is a full "normal" release
	TypeRelease = "release"
	// TypeSnapshot is a snapshot release
	TypeSnapshot = "snapshot"
	// TypeOldBeta is a "old_beta" release
	TypeOldBeta = "old_beta"
	// TypeOldAlpha is a "old_alpha" release
	TypeOldAlpha = "old_alpha"
)

// Repository is a [Source] for official versions. Manifests are cached in
// versions/<id>/<id>.json and only downloaded again when their sha1 changed.
// Manifests that are not in the version list (like mod loader profiles) are
// read from the cache only.
type Repository struct {
	mgr *downloadmgr.DownloadManager

	// ListURL defaults to [VersionListURL]
	ListURL string
	Logger  *cmdlog.Logger

	mu   sync.Mutex
	list *minecraft.VersionList
}

// NewRepository stores manifests with mgr
func NewRepository(mgr *downloadmgr.DownloadManager) *Repository {
	return &Repository{mgr: mgr, ListURL: VersionListURL}
}

func (r *Repository) logger() *cmdlog.Logger {
	if r.Logger == nil {
		return cmdlog.Discard()
	}
	return r.Logger
}

// ManifestPath returns the cache path of a manifest relative to the data root
func ManifestPath(id string) string {
	return path.Join("versions", id, id+".json")
}

// ErrInvalidID is returned for version ids that can not be used as a folder name
var ErrInvalidID = errors.New("invalid version id")

// ValidateID checks that id names exactly one folder inside of versions/
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\:") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// VersionList returns the remote version list. It is only fetched once
func (r *Repository) VersionList(ctx context.Context) (*minecraft.VersionList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.list != nil {
		return r.list, nil
	}
	list := &minecraft.VersionList{}
	if err := ownhttp.GetJSON(ctx, r.mgr.Fetcher(), r.ListURL, list); err != nil {
		return nil, err
	}
	r.list = list
	return list, nil
}

// Versions returns all remote versions of the given type, newest first.
// An empty type returns all versions.
func (r *Repository) Versions(ctx context.Context, releaseType string) ([]minecraft.VersionListEntry, error) {
	list, err := r.VersionList(ctx)
	if err != nil {
		return nil, err
	}
	if releaseType == "" {
		return list.Versions, nil
	}
	filtered := make([]minecraft.VersionListEntry, 0, len(list.Versions))
	for _, v := range list.Versions {
		if v.Type == releaseType {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

// Latest resolves the "release" and "snapshot" aliases
func (r *Repository) Latest(ctx context.Context, releaseType string) (string, error) {
	list, err := r.VersionList(ctx)
	if err != nil {
		return "", err
	}
	var id string
	switch releaseType {
	case TypeRelease:
		id = list.Latest.Release
	case TypeSnapshot:
		id = list.Latest.Snapshot
	default:
		return "", fmt.Errorf("there is no latest %q version", releaseType)
	}
	if id == "" {
		return "", fmt.Errorf("%w: latest %s", ErrNotFound, releaseType)
	}
	return id, nil
}

// Installed returns the ids of all versions with a cached manifest
func (r *Repository) Installed() ([]string, error) {
	fs := r.mgr.Fs()
	entries, err := afero.ReadDir(fs, r.mgr.Path("versions"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	installed := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if ok, _ := afero.Exists(fs, r.mgr.Path(ManifestPath(id))); !ok {
			r.logger().Debugf("versions/%s has no manifest, skipping", id)
			continue
		}
		installed = append(installed, id)
	}
	return installed, nil
}

// Fetch implements [Source]
func (r *Repository) Fetch(ctx context.Context, id string) (json.RawMessage, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	rel := ManifestPath(id)
	local, localErr := afero.ReadFile(r.mgr.Fs(), r.mgr.Path(rel))
	cached := localErr == nil

	list, err := r.VersionList(ctx)
	if err != nil {
		if cached && ctx.Err() == nil {
			r.logger().Warnf("Could not fetch the version list, using the cached %s manifest (%s)", id, err)
			return local, nil
		}
		return nil, err
	}

	entry, ok := list.Find(id)
	if !ok {
		if cached {
			return local, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	report := r.mgr.Materialize(ctx, []downloadmgr.Item{{
		Kind:     downloadmgr.KindVersionManifest,
		Path:     rel,
		URL:      entry.URL,
		Checksum: downloadmgr.SHA1Sum(entry.Sha1),
	}})
	if err := report.Failure(); err != nil {
		if cached && ctx.Err() == nil && !downloadmgr.IsFatal(err) {
			r.logger().Warnf("Could not update the %s manifest, using the cached one (%s)", id, err)
			return local, nil
		}
		return nil, err
	}
	if report.Outcomes[0].Status == downloadmgr.Verified && cached {
		return local, nil
	}
	return afero.ReadFile(r.mgr.Fs(), r.mgr.Path(rel))
}
