package launcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/java"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/planner"
)

// ErrIncompatible is returned if the compatibility rules of a version reject the platform
var ErrIncompatible = errors.New("version is not compatible with this platform")

// Result of [Launcher.Prepare]
type Result struct {
	Manifest *minecraft.LaunchManifest
	Plan     *planner.Plan
	Files    *downloadmgr.BatchReport

	// JavaComponent is empty when the system java is used
	JavaComponent string
	Runtime       *java.Report
	RuntimeErr    error
}

// Ready returns an error if the version can not be launched
func (r *Result) Ready() error {
	if err := r.Files.Failure(); err != nil {
		return err
	}
	if r.RuntimeErr != nil {
		return r.RuntimeErr
	}
	if r.Runtime != nil {
		return r.Runtime.Failure()
	}
	return nil
}

// JavaBin returns the java executable to launch with
func (r *Result) JavaBin() string {
	if r.Runtime == nil || r.Runtime.Java == nil {
		return "java"
	}
	return r.Runtime.Java.Bin()
}

// Prepare resolves id and makes sure all files needed to launch it exist.
// The java runtime is provisioned while libraries and assets are downloaded.
// Failed downloads do not return an error, use [Result.Ready] to check them.
func (l *Launcher) Prepare(ctx context.Context, id string) (*Result, error) {
	manifest, err := l.Resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(manifest.CompatibilityRules) != 0 && !manifest.CompatibilityRules.Allows(l.Platform, l.Features) {
		return nil, fmt.Errorf("%s: %w", manifest.ID, ErrIncompatible)
	}

	// cancel the runtime download if planning fails
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	javaUpdate := l.prepareJavaBg(ctx, manifest)

	plan, err := l.Planner.Plan(ctx, manifest, planner.Options{
		Platform:       l.Platform,
		Features:       l.Features,
		SkipAssets:     l.SkipAssets,
		AssetsOptional: l.AssetsOptional,
	})
	if err != nil {
		cancel()
		<-javaUpdate
		return nil, err
	}

	files := l.Downloads.Materialize(ctx, plan.Items)
	l.logger().Debugf("%s: %s", manifest.ID, files.Summary())

	rt := <-javaUpdate

	return &Result{
		Manifest:      manifest,
		Plan:          plan,
		Files:         files,
		JavaComponent: rt.component,
		Runtime:       rt.report,
		RuntimeErr:    rt.err,
	}, nil
}
