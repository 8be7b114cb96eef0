// Package planner turns a resolved version manifest into the files that are needed to launch it
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// LegacyDownloadURL hosts client jars of versions without a client download
const LegacyDownloadURL = "https://s3.amazonaws.com/Minecraft.Download/"

// Options for a single [Planner.Plan] call
type Options struct {
	Platform minecraft.Platform
	Features minecraft.Features
	// SkipAssets leaves out the asset index and all asset objects
	SkipAssets bool
	// AssetsOptional marks asset objects as optional, so a missing sound
	// does not prevent a launch
	AssetsOptional bool
	// ResourcesURL defaults to [minecraft.DefaultResourcesURL]
	ResourcesURL string
}

// Plan is everything needed to launch a version
type Plan struct {
	// Items have unique paths
	Items []downloadmgr.Item
	// Warnings are things that are odd but did not stop planning
	Warnings []string

	// Classpath has the library jars in manifest order followed by the client jar
	Classpath  []string
	ClientJar  string
	NativesDir string
	LogConfig  string

	AssetIndex *minecraft.AssetIndex
	// AssetsRoot is the assets folder
	AssetsRoot string
	// GameAssets is the folder old versions read their assets from
	GameAssets string
}

// Count returns the number of items of the given kind
func (p *Plan) Count(kind downloadmgr.Kind) int {
	n := 0
	for _, item := range p.Items {
		if item.Kind == kind {
			n++
		}
	}
	return n
}

// Planner creates [Plan]s. The asset index is materialized while planning
type Planner struct {
	mgr    *downloadmgr.DownloadManager
	Logger *cmdlog.Logger
}

// New returns a planner that fetches asset indexes with mgr
func New(mgr *downloadmgr.DownloadManager) *Planner {
	return &Planner{mgr: mgr}
}

func (p *Planner) logger() *cmdlog.Logger {
	if p.Logger == nil {
		return cmdlog.Discard()
	}
	return p.Logger
}

// Plan returns all items needed to launch spec on the given platform
func (p *Planner) Plan(ctx context.Context, spec *minecraft.LaunchManifest, opts Options) (*Plan, error) {
	if spec.InheritsFrom != "" {
		return nil, fmt.Errorf("%s is not resolved (inherits from %s)", spec.ID, spec.InheritsFrom)
	}

	b := &builder{plan: &Plan{
		NativesDir: path.Join("versions", spec.ID, "natives"),
		AssetsRoot: "assets",
		GameAssets: "assets",
	}, index: make(map[string]int)}

	p.planLibraries(b, spec, opts)
	if err := p.planClient(b, spec); err != nil {
		return nil, err
	}
	p.planLogging(b, spec)

	if !opts.SkipAssets {
		if err := p.planAssets(ctx, b, spec, opts); err != nil {
			return nil, err
		}
	}

	for _, w := range b.plan.Warnings {
		p.logger().Warn(w)
	}
	p.logger().Debugf(
		"planned %d items for %s (%d libraries, %d natives, %d assets)",
		len(b.plan.Items),
		spec.ID,
		b.plan.Count(downloadmgr.KindLibrary),
		b.plan.Count(downloadmgr.KindNative),
		b.plan.Count(downloadmgr.KindAsset),
	)
	return b.plan, nil
}

func (p *Planner) planLibraries(b *builder, spec *minecraft.LaunchManifest, opts Options) {
	for i := range spec.Libraries {
		lib := &spec.Libraries[i]
		if !lib.Applies(opts.Platform, opts.Features) {
			continue
		}

		if a, ok := lib.MainArtifact(); ok {
			rel := path.Join("libraries", a.Path)
			item := artifactItem(downloadmgr.KindLibrary, rel, a)
			if item.Checksum.IsZero() {
				// maven repositories have a .sha1 next to every file
				item.ChecksumURL = a.URL + ".sha1"
			}
			if b.add(item) {
				b.classpath(item.Path)
			}
		}

		if a, ok := lib.NativeArtifact(opts.Platform); ok {
			item := artifactItem(downloadmgr.KindNative, path.Join("libraries", a.Path), a)
			item.Extract = &downloadmgr.Extraction{Dir: b.plan.NativesDir, Rules: lib.Extract}
			b.add(item)
		}
	}
}

func (p *Planner) planClient(b *builder, spec *minecraft.LaunchManifest) error {
	jar := spec.JarName()
	rel, err := downloadmgr.CleanPath(path.Join("versions", jar, jar+".jar"))
	if err != nil || strings.Count(rel, "/") != 2 {
		return fmt.Errorf("%s has an invalid jar name %q: %w", spec.ID, jar, downloadmgr.ErrUnsafePath)
	}

	item := downloadmgr.Item{Kind: downloadmgr.KindClientJar, Path: rel}
	if client, ok := spec.Downloads["client"]; ok && client.URL != "" {
		item.URL = client.URL
		item.Checksum = downloadmgr.SHA1Sum(client.Sha1)
		item.Size = client.Size
	} else {
		// the old bucket has no checksums, the ETag is the md5 of the jar
		item.URL = LegacyDownloadURL + rel
		item.ETagChecksum = true
		b.warn(fmt.Sprintf("%s has no client download, trying %s", spec.ID, item.URL))
	}
	b.add(item)
	b.classpath(rel)
	b.plan.ClientJar = rel
	return nil
}

func (p *Planner) planLogging(b *builder, spec *minecraft.LaunchManifest) {
	if spec.Logging == nil || spec.Logging.Client == nil || spec.Logging.Client.File.URL == "" {
		return
	}
	file := spec.Logging.Client.File
	id := file.ID
	if id == "" {
		id = path.Base(file.URL)
	}
	rel := path.Join("assets", "log_configs", id)
	b.add(artifactItem(downloadmgr.KindLogConfig, rel, &file))
	b.plan.LogConfig = rel
}

// planAssets materializes the asset index and adds one item per object
func (p *Planner) planAssets(ctx context.Context, b *builder, spec *minecraft.LaunchManifest, opts Options) error {
	ref := spec.AssetIndex
	if ref == nil || ref.URL == "" {
		b.warn(fmt.Sprintf("%s has no asset index", spec.ID))
		return nil
	}
	id := spec.AssetsID()

	indexItem := downloadmgr.Item{
		Kind:     downloadmgr.KindAssetIndex,
		Path:     path.Join("assets", "indexes", id+".json"),
		URL:      ref.URL,
		Checksum: downloadmgr.SHA1Sum(ref.Sha1),
		Size:     ref.Size,
	}
	report := p.mgr.Materialize(ctx, []downloadmgr.Item{indexItem})
	if err := report.Failure(); err != nil {
		return fmt.Errorf("could not fetch asset index %s: %w", id, err)
	}
	b.add(indexItem)

	buf, err := afero.ReadFile(p.mgr.Fs(), p.mgr.Path(indexItem.Path))
	if err != nil {
		return fmt.Errorf("could not read asset index %s: %w", id, err)
	}
	index := &minecraft.AssetIndex{}
	if err := json.Unmarshal(buf, index); err != nil {
		return fmt.Errorf("asset index %s is invalid: %w", id, err)
	}
	b.plan.AssetIndex = index

	switch {
	case index.MapToResources:
		b.plan.GameAssets = "resources"
	case index.Virtual:
		b.plan.GameAssets = path.Join("assets", "virtual", id)
	}

	names := maps.Keys(index.Objects)
	slices.Sort(names)

	planned := make(map[string]bool, len(names))
	for _, name := range names {
		obj := index.Objects[name]
		if len(obj.Hash) < 2 {
			b.warn(fmt.Sprintf("asset %s has an invalid hash %q", name, obj.Hash))
			continue
		}
		item := assetItem(obj, opts)

		if !planned[obj.Hash] {
			planned[obj.Hash] = true
			b.add(item)
		}

		if b.plan.GameAssets == "assets" {
			continue
		}
		clean := path.Clean(name)
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			b.warn(fmt.Sprintf("asset %s points outside of the assets folder", name))
			continue
		}
		mirror := item
		mirror.Path = path.Join(b.plan.GameAssets, clean)
		b.add(mirror)
	}
	return nil
}

func assetItem(obj minecraft.AssetObject, opts Options) downloadmgr.Item {
	item := downloadmgr.Item{
		Kind:     downloadmgr.KindAsset,
		Path:     path.Join("assets", "objects", obj.UnixPath()),
		URL:      obj.DownloadURL(opts.ResourcesURL),
		Checksum: downloadmgr.ChecksumFromHex(obj.Hash),
		Size:     obj.Size,
		Optional: opts.AssetsOptional,
	}
	if len(obj.CompressedHash) > 2 {
		item.Compressed = &downloadmgr.Alternate{
			URL:      obj.CompressedURL(opts.ResourcesURL),
			Checksum: downloadmgr.ChecksumFromHex(obj.CompressedHash),
			Size:     obj.CompressedSize,
			Encoding: downloadmgr.EncodingGzip,
		}
	}
	return item
}

func artifactItem(kind downloadmgr.Kind, rel string, a *minecraft.Artifact) downloadmgr.Item {
	return downloadmgr.Item{
		Kind:     kind,
		Path:     rel,
		URL:      a.URL,
		Checksum: downloadmgr.SHA1Sum(a.Sha1),
		Size:     a.Size,
	}
}

type builder struct {
	plan   *Plan
	index  map[string]int
	cpSeen map[string]bool
}

// add appends item. An item with the same path is replaced, but keeps its position
// add plans item. Items whose path leaves the data root are dropped with a warning
func (b *builder) add(item downloadmgr.Item) bool {
	clean, err := downloadmgr.CleanPath(item.Path)
	if err != nil {
		b.warn(fmt.Sprintf("ignoring %s: %s", item.URL, err))
		return false
	}
	item.Path = clean
	if at, ok := b.index[item.Path]; ok {
		old := b.plan.Items[at]
		if old.URL != item.URL || old.Checksum != item.Checksum {
			b.warn(fmt.Sprintf("%s is planned twice, using %s instead of %s", item.Path, item.URL, old.URL))
		}
		b.plan.Items[at] = item
		return true
	}
	b.index[item.Path] = len(b.plan.Items)
	b.plan.Items = append(b.plan.Items, item)
	return true
}

func (b *builder) classpath(rel string) {
	if b.cpSeen == nil {
		b.cpSeen = make(map[string]bool)
	}
	if b.cpSeen[rel] {
		return
	}
	b.cpSeen[rel] = true
	b.plan.Classpath = append(b.plan.Classpath, rel)
}

func (b *builder) warn(w string) {
	b.plan.Warnings = append(b.plan.Warnings, w)
}
