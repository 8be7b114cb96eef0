package java

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/ownhttp"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Factory provisions java runtimes below runtime/ of the download manager root
type Factory struct {
	mgr        *downloadmgr.DownloadManager
	CatalogURL string
	Logger     *cmdlog.Logger

	mu      sync.Mutex
	catalog Catalog
}

// NewFactory returns a factory that downloads with mgr
func NewFactory(mgr *downloadmgr.DownloadManager) *Factory {
	return &Factory{mgr: mgr, CatalogURL: CatalogURL}
}

func (f *Factory) logger() *cmdlog.Logger {
	if f.Logger == nil {
		return cmdlog.Discard()
	}
	return f.Logger
}

// Catalog returns the runtime catalog. It is only fetched once
func (f *Factory) Catalog(ctx context.Context) (Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalog != nil {
		return f.catalog, nil
	}
	catalog := make(Catalog)
	if err := ownhttp.GetJSON(ctx, f.mgr.Fetcher(), f.CatalogURL, &catalog); err != nil {
		return nil, fmt.Errorf("could not fetch java runtime catalog: %w", err)
	}
	f.catalog = catalog
	return catalog, nil
}

// Report is the result of [Factory.Provision]
type Report struct {
	Java    *Java
	Version string
	// Files is the report of all regular files
	Files       *downloadmgr.BatchReport
	Directories int
	Links       int
}

// Failure returns an error if a runtime file is missing
func (r *Report) Failure() error {
	if r.Files == nil {
		return nil
	}
	return r.Files.Failure()
}

// Provision makes sure the runtime component exists for platform p.
// Directories are created first, then files are downloaded, links come last.
func (f *Factory) Provision(ctx context.Context, component string, p minecraft.Platform) (*Report, error) {
	key, ok := PlatformKey(p)
	if !ok {
		return nil, &RuntimeError{Kind: UnsupportedPlatform, Component: component, Platform: p.OS + "-" + p.Arch}
	}

	catalog, err := f.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := f.pick(catalog, component, key)
	if err != nil {
		return nil, err
	}

	manifest, err := f.manifest(ctx, component, key, entry)
	if err != nil {
		return nil, err
	}

	base := path.Join("runtime", component, key)
	report := &Report{
		Java:    &Java{dir: f.mgr.Path(base), platform: key},
		Version: entry.Version.Name,
	}

	names := maps.Keys(manifest.Files)
	slices.Sort(names)

	var items []downloadmgr.Item
	var links []string
	for _, name := range names {
		file := manifest.Files[name]
		rel, err := runtimePath(base, name)
		if err != nil {
			return nil, err
		}
		switch file.Type {
		case TypeDirectory:
			if err := f.mgr.MkdirAll(rel); err != nil {
				return nil, err
			}
			report.Directories++
		case TypeFile:
			item, err := fileItem(rel, name, file)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		case TypeLink:
			links = append(links, name)
		default:
			f.logger().Warnf("runtime %s has %s with unknown type %q", component, name, file.Type)
		}
	}

	f.logger().Debugf("provisioning %s %s: %d files", component, entry.Version.Name, len(items))
	report.Files = f.mgr.Materialize(ctx, items)
	if err := report.Files.Failure(); err != nil {
		return report, err
	}

	for _, name := range links {
		created, err := f.link(base, name, manifest.Files[name].Target)
		if err != nil {
			return report, err
		}
		if created {
			report.Links++
		}
	}

	return report, nil
}

func (f *Factory) pick(catalog Catalog, component string, key string) (*CatalogEntry, error) {
	components, ok := catalog[key]
	if !ok {
		return nil, &RuntimeError{Kind: UnsupportedPlatform, Component: component, Platform: key}
	}
	if entry := newest(components[component]); entry != nil {
		return entry, nil
	}
	if catalog.HasComponent(component) {
		return nil, &RuntimeError{Kind: UnsupportedPlatform, Component: component, Platform: key}
	}
	return nil, &RuntimeError{
		Kind:      ManifestMissing,
		Component: component,
		Platform:  key,
		Err:       errors.New("unknown runtime component"),
	}
}

// manifest materializes the runtime manifest next to the runtime folder
func (f *Factory) manifest(ctx context.Context, component string, key string, entry *CatalogEntry) (*Manifest, error) {
	if entry.Manifest.URL == "" {
		return nil, &RuntimeError{Kind: ManifestMissing, Component: component, Platform: key}
	}

	item := downloadmgr.Item{
		Kind:     downloadmgr.KindRuntimeManifest,
		Path:     path.Join("runtime", component, key+".json"),
		URL:      entry.Manifest.URL,
		Checksum: downloadmgr.SHA1Sum(entry.Manifest.Sha1),
		Size:     entry.Manifest.Size,
	}
	if err := f.mgr.Materialize(ctx, []downloadmgr.Item{item}).Failure(); err != nil {
		var tErr *ownhttp.TransportError
		if errors.As(err, &tErr) && tErr.Kind == ownhttp.HTTPStatus && tErr.StatusCode == 404 {
			return nil, &RuntimeError{Kind: ManifestMissing, Component: component, Platform: key, Err: err}
		}
		return nil, err
	}

	buf, err := afero.ReadFile(f.mgr.Fs(), f.mgr.Path(item.Path))
	if err != nil {
		return nil, err
	}
	manifest := &Manifest{}
	if err := json.Unmarshal(buf, manifest); err != nil {
		return nil, fmt.Errorf("runtime manifest of %s is invalid: %w", component, err)
	}
	return manifest, nil
}

func fileItem(rel string, name string, file File) (downloadmgr.Item, error) {
	if file.Downloads == nil || file.Downloads.Raw == nil {
		return downloadmgr.Item{}, fmt.Errorf("runtime file %s has no download", name)
	}
	raw := file.Downloads.Raw
	item := downloadmgr.Item{
		Kind:       downloadmgr.KindRuntimeFile,
		Path:       rel,
		URL:        raw.URL,
		Checksum:   downloadmgr.SHA1Sum(raw.Sha1),
		Size:       raw.Size,
		Executable: file.Executable,
	}
	if lzma := file.Downloads.LZMA; lzma != nil && lzma.URL != "" {
		item.Compressed = &downloadmgr.Alternate{
			URL:      lzma.URL,
			Checksum: downloadmgr.SHA1Sum(lzma.Sha1),
			Size:     lzma.Size,
			Encoding: downloadmgr.EncodingLZMA,
		}
	}
	return item, nil
}

// link creates a symlink. It returns false if the link already existed
func (f *Factory) link(base string, name string, target string) (bool, error) {
	if target == "" || path.IsAbs(target) || strings.HasPrefix(target, "/") {
		return false, fmt.Errorf("runtime link %s has an invalid target %q", name, target)
	}
	// the target is relative to the directory of the link
	resolved := path.Join(path.Dir(name), target)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return false, fmt.Errorf("runtime link %s points outside of the runtime (%s)", name, target)
	}

	rel, err := runtimePath(base, name)
	if err != nil {
		return false, err
	}
	dest := f.mgr.Path(rel)
	fs := f.mgr.Fs()

	linker, ok := fs.(afero.Linker)
	if !ok {
		f.logger().Warnf("file system does not support links, skipping %s", name)
		return false, nil
	}
	if reader, ok := fs.(afero.LinkReader); ok {
		if existing, err := reader.ReadlinkIfPossible(dest); err == nil && existing == filepath.FromSlash(target) {
			return false, nil
		}
	}

	if err := f.mgr.MkdirAll(path.Dir(rel)); err != nil {
		return false, err
	}
	if err := fs.Remove(dest); err != nil && !os.IsNotExist(err) {
		return false, downloadmgr.AsFileSystemError(dest, err)
	}
	if err := linker.SymlinkIfPossible(filepath.FromSlash(target), dest); err != nil {
		return false, downloadmgr.AsFileSystemError(dest, err)
	}
	return true, nil
}

// runtimePath joins a manifest name to base and rejects names that escape it
func runtimePath(base string, name string) (string, error) {
	clean, err := downloadmgr.CleanPath(name)
	if err != nil {
		return "", fmt.Errorf("runtime file %q points outside of the runtime: %w", name, err)
	}
	return path.Join(base, clean), nil
}
