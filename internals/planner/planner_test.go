package planner

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/ownhttp/ownhttptest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var linux = minecraft.Platform{OS: "linux", Version: "6.1.0", Arch: "x64"}

func newTestPlanner() (*Planner, *ownhttptest.Fetcher, afero.Fs) {
	fs := afero.NewMemMapFs()
	fetcher := ownhttptest.New()
	mgr := downloadmgr.New(fs, "/mc", fetcher)
	mgr.Backoff = time.Millisecond
	return New(mgr), fetcher, fs
}

func parseManifest(t *testing.T, raw string) *minecraft.LaunchManifest {
	t.Helper()
	m := &minecraft.LaunchManifest{}
	require.NoError(t, json.Unmarshal([]byte(raw), m))
	return m
}

func paths(items []downloadmgr.Item) []string {
	p := make([]string, len(items))
	for i, item := range items {
		p[i] = item.Path
	}
	return p
}

func TestPlan_ConditionalLibraries(t *testing.T) {
	planner, _, _ := newTestPlanner()
	spec := parseManifest(t, `{
		"id": "1.20",
		"mainClass": "net.minecraft.client.main.Main",
		"downloads": {"client": {"sha1": "0123456789012345678901234567890123456789", "size": 100, "url": "https://piston-data.mojang.com/v1/objects/client.jar"}},
		"libraries": [
			{"name": "org.lwjgl:lwjgl:3.3.1"},
			{"name": "org.lwjgl:lwjgl-natives:3.3.1", "rules": [{"action": "allow", "os": {"name": "windows"}}]}
		]
	}`)

	plan, err := planner.Plan(context.Background(), spec, Options{Platform: linux})
	require.NoError(t, err)

	require.Equal(t, []string{
		"libraries/org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar",
		"versions/1.20/1.20.jar",
	}, paths(plan.Items))
	require.Equal(t, downloadmgr.KindLibrary, plan.Items[0].Kind)
	require.Equal(t, downloadmgr.KindClientJar, plan.Items[1].Kind)
	require.Equal(t, plan.Classpath, paths(plan.Items))

	// no sha1 is known for the library, it is looked up next to the jar
	require.True(t, plan.Items[0].Checksum.IsZero())
	require.Equal(t, "https://libraries.minecraft.net/org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar.sha1", plan.Items[0].ChecksumURL)
	require.Equal(t, "0123456789012345678901234567890123456789", plan.Items[1].Checksum.Hex)

	// the same manifest on windows gets both
	plan, err = planner.Plan(context.Background(), spec, Options{Platform: minecraft.Platform{OS: "windows", Arch: "x64"}})
	require.NoError(t, err)
	require.Equal(t, 2, plan.Count(downloadmgr.KindLibrary))
}

func TestPlan_Natives(t *testing.T) {
	planner, _, _ := newTestPlanner()
	spec := parseManifest(t, `{
		"id": "1.12.2",
		"mainClass": "net.minecraft.client.main.Main",
		"libraries": [{
			"name": "org.lwjgl.lwjgl:lwjgl-platform:2.9.4-nightly-20150209",
			"natives": {"linux": "natives-linux", "osx": "natives-osx", "windows": "natives-windows"},
			"extract": {"exclude": ["META-INF/"]},
			"downloads": {
				"artifact": {"path": "org/lwjgl/lwjgl/lwjgl-platform/2.9.4-nightly-20150209/lwjgl-platform-2.9.4-nightly-20150209.jar", "sha1": "b04f3ee8f5e43fa3b162981b50bb72fe1acabb33", "size": 22, "url": "https://libraries.minecraft.net/org/lwjgl/lwjgl/lwjgl-platform/2.9.4-nightly-20150209/lwjgl-platform-2.9.4-nightly-20150209.jar"},
				"classifiers": {
					"natives-linux": {"path": "org/lwjgl/lwjgl/lwjgl-platform/2.9.4-nightly-20150209/lwjgl-platform-2.9.4-nightly-20150209-natives-linux.jar", "sha1": "931074f46c795d2f7b30ed6395df5715cfd7675b", "size": 578680, "url": "https://libraries.minecraft.net/org/lwjgl/lwjgl/lwjgl-platform/2.9.4-nightly-20150209/lwjgl-platform-2.9.4-nightly-20150209-natives-linux.jar"}
				}
			}
		}]
	}`)

	plan, err := planner.Plan(context.Background(), spec, Options{Platform: linux, SkipAssets: true})
	require.NoError(t, err)
	require.Equal(t, 1, plan.Count(downloadmgr.KindNative))
	require.Equal(t, "versions/1.12.2/natives", plan.NativesDir)

	var native downloadmgr.Item
	for _, item := range plan.Items {
		if item.Kind == downloadmgr.KindNative {
			native = item
		}
	}
	require.True(t, strings.HasSuffix(native.Path, "-natives-linux.jar"))
	require.NotNil(t, native.Extract)
	require.Equal(t, "versions/1.12.2/natives", native.Extract.Dir)
	require.False(t, native.Extract.Rules.ShouldExtract("META-INF/MANIFEST.MF"))
	require.NotContains(t, plan.Classpath, native.Path)

	// osx has a classifier, but no download for it
	plan, err = planner.Plan(context.Background(), spec, Options{Platform: minecraft.Platform{OS: "osx", Arch: "arm64"}, SkipAssets: true})
	require.NoError(t, err)
	require.Equal(t, 0, plan.Count(downloadmgr.KindNative))
}

func TestPlan_Collisions(t *testing.T) {
	planner, _, _ := newTestPlanner()
	spec := parseManifest(t, `{
		"id": "1.20",
		"mainClass": "Main",
		"libraries": [
			{"name": "com.example:first:1.0", "downloads": {"artifact": {"path": "com/example/shared.jar", "sha1": "1111111111111111111111111111111111111111", "url": "https://a.example.com/shared.jar"}}},
			{"name": "com.example:second:1.0", "downloads": {"artifact": {"path": "com/example/shared.jar", "sha1": "2222222222222222222222222222222222222222", "url": "https://b.example.com/shared.jar"}}}
		]
	}`)

	plan, err := planner.Plan(context.Background(), spec, Options{Platform: linux, SkipAssets: true})
	require.NoError(t, err)
	require.Equal(t, 1, plan.Count(downloadmgr.KindLibrary))
	require.Equal(t, "https://b.example.com/shared.jar", plan.Items[0].URL)
	require.Len(t, plan.Classpath, 2)

	require.Len(t, plan.Warnings, 2)
	require.Contains(t, plan.Warnings[0], "planned twice")
	require.Contains(t, plan.Warnings[1], "no client download")

	seen := map[string]bool{}
	for _, item := range plan.Items {
		require.False(t, seen[item.Path], item.Path)
		seen[item.Path] = true
	}
}

func TestPlan_Logging(t *testing.T) {
	planner, _, _ := newTestPlanner()
	spec := parseManifest(t, `{
		"id": "1.20",
		"mainClass": "Main",
		"logging": {"client": {
			"argument": "-Dlog4j.configurationFile=${path}",
			"file": {"id": "client-1.12.xml", "sha1": "bd65e7d2e3c237be76cfbef4c2405033d7f91521", "size": 888, "url": "https://piston-data.mojang.com/v1/objects/bd65e7d2e3c237be76cfbef4c2405033d7f91521/client-1.12.xml"},
			"type": "log4j2-xml"
		}}
	}`)

	plan, err := planner.Plan(context.Background(), spec, Options{Platform: linux, SkipAssets: true})
	require.NoError(t, err)
	require.Equal(t, "assets/log_configs/client-1.12.xml", plan.LogConfig)
	require.Equal(t, 1, plan.Count(downloadmgr.KindLogConfig))
}

func sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

const indexURL = "https://piston-meta.example.com/v1/packages/5.json"

func assetSpec(t *testing.T, index []byte) *minecraft.LaunchManifest {
	t.Helper()
	return parseManifest(t, `{
		"id": "1.20",
		"mainClass": "Main",
		"assets": "5",
		"assetIndex": {"id": "5", "sha1": "`+sha1Hex(index)+`", "size": `+strconv.Itoa(len(index))+`, "url": "`+indexURL+`"}
	}`)
}

func TestPlan_Assets(t *testing.T) {
	planner, fetcher, fs := newTestPlanner()
	index := []byte(`{"objects": {
		"minecraft/sounds/a.ogg": {"hash": "aa00000000000000000000000000000000000000", "size": 10},
		"minecraft/sounds/b.ogg": {"hash": "aa00000000000000000000000000000000000000", "size": 10},
		"minecraft/lang/de_de.json": {"hash": "bb00000000000000000000000000000000000000", "size": 20, "compressed_hash": "cc00000000000000000000000000000000000000", "compressed_size": 5}
	}}`)
	fetcher.Add(indexURL, index)

	plan, err := planner.Plan(context.Background(), assetSpec(t, index), Options{Platform: linux, AssetsOptional: true})
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.Requests(indexURL))
	require.Equal(t, 1, plan.Count(downloadmgr.KindAssetIndex))
	require.Equal(t, 2, plan.Count(downloadmgr.KindAsset))
	require.Len(t, plan.AssetIndex.Objects, 3)
	require.Equal(t, "assets", plan.GameAssets)

	for _, item := range plan.Items {
		if item.Kind != downloadmgr.KindAsset {
			continue
		}
		require.True(t, item.Optional)
		if strings.HasSuffix(item.Path, "bb00000000000000000000000000000000000000") {
			require.Equal(t, "assets/objects/bb/bb00000000000000000000000000000000000000", item.Path)
			require.Equal(t, "https://resources.download.minecraft.net/bb/bb00000000000000000000000000000000000000", item.URL)
			require.NotNil(t, item.Compressed)
			require.Equal(t, downloadmgr.EncodingGzip, item.Compressed.Encoding)
		}
	}

	cached, err := afero.ReadFile(fs, "/mc/assets/indexes/5.json")
	require.NoError(t, err)
	require.Equal(t, index, cached)
}

func TestPlan_CachedAssetIndex(t *testing.T) {
	planner, fetcher, fs := newTestPlanner()
	index := []byte(`{"objects": {"icons/icon_16x16.png": {"hash": "bdf48ef6b5d0d23bbb02e17d04865216179f510a", "size": 3665}}}`)
	require.NoError(t, afero.WriteFile(fs, "/mc/assets/indexes/5.json", index, 0o644))

	plan, err := planner.Plan(context.Background(), assetSpec(t, index), Options{Platform: linux})
	require.NoError(t, err)
	require.Equal(t, 0, fetcher.TotalRequests())
	require.Equal(t, 1, plan.Count(downloadmgr.KindAsset))

	// a stale index is replaced
	require.NoError(t, afero.WriteFile(fs, "/mc/assets/indexes/5.json", []byte(`{"objects": {}}`), 0o644))
	fetcher.Add(indexURL, index)
	plan, err = planner.Plan(context.Background(), assetSpec(t, index), Options{Platform: linux})
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.Requests(indexURL))
	require.Equal(t, 1, plan.Count(downloadmgr.KindAsset))
}

func TestPlan_VirtualAssets(t *testing.T) {
	planner, fetcher, _ := newTestPlanner()
	index := []byte(`{"virtual": true, "objects": {
		"sound/step/grass1.ogg": {"hash": "aa00000000000000000000000000000000000000", "size": 10},
		"../../escape": {"hash": "bb00000000000000000000000000000000000000", "size": 10}
	}}`)
	fetcher.Add(indexURL, index)

	plan, err := planner.Plan(context.Background(), assetSpec(t, index), Options{Platform: linux})
	require.NoError(t, err)
	require.Equal(t, "assets/virtual/5", plan.GameAssets)
	require.Contains(t, paths(plan.Items), "assets/virtual/5/sound/step/grass1.ogg")
	require.Equal(t, 3, plan.Count(downloadmgr.KindAsset))
	require.Len(t, plan.Warnings, 2)
}

func TestPlan_AssetIndexMissing(t *testing.T) {
	planner, _, _ := newTestPlanner()
	_, err := planner.Plan(context.Background(), assetSpec(t, []byte(`{}`)), Options{Platform: linux})
	require.Error(t, err)
	require.Contains(t, err.Error(), "asset index 5")
}

func TestPlan_Unresolved(t *testing.T) {
	planner, _, _ := newTestPlanner()
	_, err := planner.Plan(context.Background(), &minecraft.LaunchManifest{ID: "child", InheritsFrom: "1.20"}, Options{})
	require.Error(t, err)
}

func TestPlan_LegacyClientUsesETag(t *testing.T) {
	planner, _, _ := newTestPlanner()
	spec := parseManifest(t, `{"id": "1.2.5", "mainClass": "Main"}`)

	plan, err := planner.Plan(context.Background(), spec, Options{Platform: linux, SkipAssets: true})
	require.NoError(t, err)
	require.Len(t, plan.Items, 1)
	client := plan.Items[0]
	require.Equal(t, LegacyDownloadURL+"versions/1.2.5/1.2.5.jar", client.URL)
	require.True(t, client.Checksum.IsZero())
	require.True(t, client.ETagChecksum)
}

func TestPlan_PathOutsideRoot(t *testing.T) {
	planner, _, _ := newTestPlanner()
	spec := parseManifest(t, `{
		"id": "1.20",
		"mainClass": "Main",
		"downloads": {"client": {"sha1": "0123456789012345678901234567890123456789", "url": "https://piston-data.mojang.com/v1/objects/client.jar"}},
		"libraries": [
			{"name": "com.example:evil:1.0", "downloads": {"artifact": {"path": "../../evil.jar", "sha1": "1111111111111111111111111111111111111111", "url": "https://a.example.com/evil.jar"}}},
			{"name": "com.example:fine:1.0", "downloads": {"artifact": {"path": "com/example/fine.jar", "sha1": "2222222222222222222222222222222222222222", "url": "https://a.example.com/fine.jar"}}}
		]
	}`)

	plan, err := planner.Plan(context.Background(), spec, Options{Platform: linux, SkipAssets: true})
	require.NoError(t, err)
	require.Equal(t, []string{"libraries/com/example/fine.jar", "versions/1.20/1.20.jar"}, paths(plan.Items))
	require.Equal(t, paths(plan.Items), plan.Classpath)
	require.Len(t, plan.Warnings, 1)
	require.Contains(t, plan.Warnings[0], "evil.jar")

	for _, jar := range []string{"../../x", "a/b"} {
		spec.Jar = jar
		_, err = planner.Plan(context.Background(), spec, Options{Platform: linux, SkipAssets: true})
		require.ErrorIs(t, err, downloadmgr.ErrUnsafePath, jar)
	}
}
