package launcher

import (
	"context"
	"fmt"

	"github.com/minepkg/launchcore/internals/java"
	"github.com/minepkg/launchcore/internals/minecraft"
)

type javaResult struct {
	component string
	report    *java.Report
	err       error
}

// javaComponent returns the runtime component to provision, or "" for the system java
func (l *Launcher) javaComponent(m *minecraft.LaunchManifest) (string, error) {
	if l.JavaVersion == SystemJava {
		return "", nil
	}
	return java.WantedComponent(l.JavaVersion, m)
}

// prepareJavaBg provisions the java runtime in the background. The channel
// receives exactly one result.
func (l *Launcher) prepareJavaBg(ctx context.Context, m *minecraft.LaunchManifest) chan javaResult {
	javaUpdate := make(chan javaResult, 1)

	component, err := l.javaComponent(m)
	if err != nil {
		javaUpdate <- javaResult{err: err}
		return javaUpdate
	}
	if component == "" {
		// nothing gets downloaded. this is a success
		javaUpdate <- javaResult{}
		return javaUpdate
	}

	l.logger().Debugf("provisioning java runtime %s in the background", component)
	go func() {
		report, err := l.Java.Provision(ctx, component, l.Platform)
		if err != nil {
			err = fmt.Errorf("could not provision java (%s): %w", component, err)
		}
		javaUpdate <- javaResult{component: component, report: report, err: err}
	}()
	return javaUpdate
}
