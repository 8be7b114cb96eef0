package launcher

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// OverwriteFlags are cli flags used to overwrite preparation behavior
type OverwriteFlags struct {
	Java           string
	SkipAssets     bool
	AssetsOptional bool
	Features       []string
	OS             string
	Arch           string
}

// CmdOverwriteFlags registers the overwrite flags on cmd
func CmdOverwriteFlags(cmd *cobra.Command) *OverwriteFlags {
	flags := OverwriteFlags{}
	cmd.Flags().StringVar(&flags.Java, "java", "", "Overwrite the Java runtime. Examples: 17, java-runtime-gamma, system")
	cmd.Flags().BoolVar(&flags.SkipAssets, "skip-assets", false, "Do not download any assets")
	cmd.Flags().BoolVar(&flags.AssetsOptional, "assets-optional", false, "Do not fail if assets are missing")
	cmd.Flags().StringSliceVar(&flags.Features, "feature", nil, "Enable a rule feature like is_demo_user (can be repeated)")
	cmd.Flags().StringVar(&flags.OS, "os", "", "Prepare for another os (windows, osx, linux)")
	cmd.Flags().StringVar(&flags.Arch, "arch", "", "Prepare for another architecture (x64, x86, arm64)")

	return &flags
}

// ApplyOverWrites applies the flags to the launcher
func (l *Launcher) ApplyOverWrites(o *OverwriteFlags) error {
	l.JavaVersion = o.Java
	l.SkipAssets = o.SkipAssets
	l.AssetsOptional = o.AssetsOptional

	for _, f := range o.Features {
		name, value, found := strings.Cut(f, "=")
		if name == "" {
			return fmt.Errorf("invalid feature %q", f)
		}
		l.Features[name] = !found || value == "true"
	}

	if o.OS != "" {
		switch o.OS {
		case "windows", "osx", "linux":
			l.Platform.OS = o.OS
			// the host version does not apply to another os
			l.Platform.Version = ""
		default:
			return fmt.Errorf("unknown os %q", o.OS)
		}
	}
	if o.Arch != "" {
		l.Platform.Arch = o.Arch
	}
	return nil
}
