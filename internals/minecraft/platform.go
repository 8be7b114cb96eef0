package minecraft

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
)

// Platform describes the host a version gets prepared for.
// The names are the ones used in version manifests (not the go names).
type Platform struct {
	// OS is one of "windows", "osx" or "linux"
	OS string
	// Version of the os, matched against the version regex of rules
	Version string
	// Arch is one of "x64", "x86", "arm64" or "arm32"
	Arch string
}

// Features are flags like "is_demo_user" that can be used in rules.
// Features that are not set are treated as false.
type Features map[string]bool

// NormalizeOS maps go os names to the ones used in manifests
func NormalizeOS(goos string) string {
	if goos == "darwin" {
		return "osx"
	}
	return goos
}

// NormalizeArch maps go arch names to the ones used in manifests
func NormalizeArch(goarch string) string {
	switch goarch {
	case "amd64", "x86_64":
		return "x64"
	case "386", "i386":
		return "x86"
	case "arm":
		return "arm32"
	}
	// note: we don't know how other platforms are named
	return goarch
}

// CurrentPlatform returns the platform of the running process without an os version
func CurrentPlatform() Platform {
	return Platform{
		OS:   NormalizeOS(runtime.GOOS),
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

// DetectPlatform returns the platform of the running process including the
// os version. Java reports the kernel version as os.version on linux, so
// we do the same.
func DetectPlatform(ctx context.Context) (Platform, error) {
	p := CurrentPlatform()
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return p, err
	}
	if p.OS == "linux" {
		p.Version = info.KernelVersion
	} else {
		p.Version = info.PlatformVersion
	}
	return p, nil
}

// Bits returns "64" or "32", used for the ${arch} placeholder in native classifiers
func (p Platform) Bits() string {
	switch p.Arch {
	case "x86", "arm32":
		return "32"
	}
	return "64"
}
