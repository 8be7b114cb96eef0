package versions

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/ownhttp/ownhttptest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const manifestURL = "https://piston-meta.example.com/v1/packages/1.20.json"

func newTestRepository(t *testing.T, manifest string) (*Repository, *ownhttptest.Fetcher, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	fetcher := ownhttptest.New()
	mgr := downloadmgr.New(fs, "/mc", fetcher)
	mgr.Backoff = time.Millisecond

	sum := sha1.Sum([]byte(manifest))
	list := minecraft.VersionList{
		Versions: []minecraft.VersionListEntry{
			{ID: "23w31a", Type: TypeSnapshot, URL: "https://piston-meta.example.com/23w31a.json"},
			{ID: "1.20", Type: TypeRelease, URL: manifestURL, Sha1: hex.EncodeToString(sum[:])},
		},
	}
	list.Latest.Release = "1.20"
	list.Latest.Snapshot = "23w31a"
	fetcher.AddJSON(VersionListURL, list)
	fetcher.Add(manifestURL, []byte(manifest))

	return NewRepository(mgr), fetcher, fs
}

func TestRepository_Fetch(t *testing.T) {
	repo, fetcher, fs := newTestRepository(t, vanilla)

	raw, err := repo.Fetch(context.Background(), "1.20")
	require.NoError(t, err)
	require.JSONEq(t, vanilla, string(raw))

	cached, err := afero.ReadFile(fs, "/mc/versions/1.20/1.20.json")
	require.NoError(t, err)
	require.Equal(t, vanilla, string(cached))

	// verified from disk the second time
	_, err = repo.Fetch(context.Background(), "1.20")
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.Requests(manifestURL))
	require.Equal(t, 1, fetcher.Requests(VersionListURL))
}

func TestRepository_StaleCache(t *testing.T) {
	repo, fetcher, fs := newTestRepository(t, vanilla)
	require.NoError(t, afero.WriteFile(fs, "/mc/versions/1.20/1.20.json", []byte(`{"id": "1.20", "mainClass": "Old"}`), 0o644))

	raw, err := repo.Fetch(context.Background(), "1.20")
	require.NoError(t, err)
	require.JSONEq(t, vanilla, string(raw))
	require.Equal(t, 1, fetcher.Requests(manifestURL))
}

func TestRepository_Offline(t *testing.T) {
	repo, fetcher, fs := newTestRepository(t, vanilla)
	fetcher.FailNext(VersionListURL, 1, ownhttptest.Status(VersionListURL, http.StatusBadGateway))
	require.NoError(t, afero.WriteFile(fs, "/mc/versions/1.20/1.20.json", []byte(vanilla), 0o644))

	raw, err := repo.Fetch(context.Background(), "1.20")
	require.NoError(t, err)
	require.JSONEq(t, vanilla, string(raw))
}

func TestRepository_LocalProfiles(t *testing.T) {
	repo, _, fs := newTestRepository(t, vanilla)
	require.NoError(t, afero.WriteFile(fs, "/mc/versions/fabric-loader-0.14.21-1.20/fabric-loader-0.14.21-1.20.json", []byte(fabric), 0o644))

	r := NewResolver(repo)
	m, err := r.Resolve(context.Background(), "fabric-loader-0.14.21-1.20")
	require.NoError(t, err)
	require.Equal(t, "net.fabricmc.loader.impl.launch.knot.KnotClient", m.MainClass)
	require.Len(t, m.Libraries, 3)

	installed, err := repo.Installed()
	require.NoError(t, err)
	require.Equal(t, []string{"1.20", "fabric-loader-0.14.21-1.20"}, installed)
}

func TestRepository_NotFound(t *testing.T) {
	repo, _, _ := newTestRepository(t, vanilla)

	_, err := NewResolver(repo).Resolve(context.Background(), "1.99")
	require.True(t, errors.Is(err, ErrNotFound), err)
}

func TestRepository_InvalidID(t *testing.T) {
	repo, fetcher, _ := newTestRepository(t, vanilla)

	for _, id := range []string{"", "..", "../..", "1.20/../..", `..\..`} {
		_, err := repo.Fetch(context.Background(), id)
		require.ErrorIs(t, err, ErrInvalidID, id)
	}
	require.Zero(t, fetcher.TotalRequests())
}

func TestRepository_Latest(t *testing.T) {
	repo, _, _ := newTestRepository(t, vanilla)

	release, err := repo.Latest(context.Background(), TypeRelease)
	require.NoError(t, err)
	require.Equal(t, "1.20", release)

	snapshot, err := repo.Latest(context.Background(), TypeSnapshot)
	require.NoError(t, err)
	require.Equal(t, "23w31a", snapshot)

	_, err = repo.Latest(context.Background(), TypeOldAlpha)
	require.Error(t, err)

	releases, err := repo.Versions(context.Background(), TypeRelease)
	require.NoError(t, err)
	require.Len(t, releases, 1)
}
