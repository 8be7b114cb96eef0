package launcher

import (
	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/java"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/ownhttp"
	"github.com/minepkg/launchcore/internals/planner"
	"github.com/minepkg/launchcore/internals/versions"
	"github.com/spf13/afero"
)

// SystemJava can be used as JavaVersion to skip the runtime download
const SystemJava = "system"

// Launcher prepares versions in a data root so they can be launched
type Launcher struct {
	Downloads  *downloadmgr.DownloadManager
	Repository *versions.Repository
	Resolver   *versions.Resolver
	Planner    *planner.Planner
	Java       *java.Factory

	Platform minecraft.Platform
	Features minecraft.Features

	// JavaVersion overwrites the runtime the manifest wants.
	// Examples: 17, java-runtime-gamma, system
	JavaVersion string
	// SkipAssets does not download any assets (used for servers)
	SkipAssets bool
	// AssetsOptional lets the preparation succeed with missing assets
	AssetsOptional bool
	// NonInteractive determines if fancy spinners should be displayed
	NonInteractive bool

	Logger *cmdlog.Logger
}

// New wires all components to download with fetcher into root
func New(fs afero.Fs, root string, fetcher ownhttp.Fetcher) *Launcher {
	mgr := downloadmgr.New(fs, root, fetcher)
	repo := versions.NewRepository(mgr)
	return &Launcher{
		Downloads:  mgr,
		Repository: repo,
		Resolver:   versions.NewResolver(repo),
		Planner:    planner.New(mgr),
		Java:       java.NewFactory(mgr),
		Platform:   minecraft.CurrentPlatform(),
		Features:   minecraft.Features{},
	}
}

// SetLogger sets logger on every component
func (l *Launcher) SetLogger(logger *cmdlog.Logger) {
	l.Logger = logger
	l.Downloads.Logger = logger
	l.Repository.Logger = logger
	l.Resolver.Logger = logger
	l.Planner.Logger = logger
	l.Java.Logger = logger
}

func (l *Launcher) logger() *cmdlog.Logger {
	if l.Logger == nil {
		return cmdlog.Discard()
	}
	return l.Logger
}
