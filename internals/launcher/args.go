package launcher

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/planner"
	"github.com/minepkg/launchcore/internals/versions"
	"github.com/pbnjay/memory"
)

// LauncherName is passed to the game as ${launcher_name}
const LauncherName = "launchcore"

var variableRegex = regexp.MustCompile(`\$\{[a-zA-Z0-9_]+\}`)

// ArgumentOptions are the values needed to fill the argument templates
type ArgumentOptions struct {
	Platform minecraft.Platform
	Features minecraft.Features
	Plan     *planner.Plan
	// Root is the data root all plan paths are relative to
	Root string
	// GameDir contains saves and options. Defaults to Root
	GameDir         string
	LauncherVersion string
	// Values are additional variables, like auth_player_name
	Values map[string]string
	// RamMiB sets -Xms and -Xmx. 0 determines the amount by available system ram
	RamMiB int
	Logger *cmdlog.Logger
}

// LaunchArguments is the command line without the java executable
type LaunchArguments struct {
	JVM       []string
	MainClass string
	Game      []string
}

// Command returns all arguments in order
func (a *LaunchArguments) Command() []string {
	cmd := make([]string, 0, len(a.JVM)+1+len(a.Game))
	cmd = append(cmd, a.JVM...)
	cmd = append(cmd, a.MainClass)
	return append(cmd, a.Game...)
}

// legacyJVMArgs are used for manifests without jvm arguments (before 1.13)
var legacyJVMArgs = []string{"-Djava.library.path=${natives_directory}", "-cp", "${classpath}"}

// BuildArguments substitutes the argument templates of a resolved manifest.
// Tokens whose rules do not apply are left out. Variables without a value
// are removed together with the flag in front of them.
func BuildArguments(spec *minecraft.LaunchManifest, opts ArgumentOptions) (*LaunchArguments, error) {
	if spec.MainClass == "" {
		return nil, errors.New("manifest has no main class")
	}
	if opts.Plan == nil {
		return nil, errors.New("arguments need a plan")
	}
	logger := opts.Logger
	if logger == nil {
		logger = cmdlog.Discard()
	}

	abs := func(rel string) string {
		return filepath.Join(opts.Root, filepath.FromSlash(rel))
	}
	sep := classpathSeparator(opts.Platform)

	classpath := make([]string, len(opts.Plan.Classpath))
	for i, rel := range opts.Plan.Classpath {
		classpath[i] = abs(rel)
	}

	gameDir := opts.GameDir
	if gameDir == "" {
		gameDir = opts.Root
	}
	launcherVersion := opts.LauncherVersion
	if launcherVersion == "" {
		launcherVersion = strconv.Itoa(versions.LauncherVersion)
	}

	values := map[string]string{
		"version_name":        spec.ID,
		"version_type":        spec.Type,
		"game_directory":      gameDir,
		"assets_root":         abs(opts.Plan.AssetsRoot),
		"assets_index_name":   spec.AssetsID(),
		"game_assets":         abs(opts.Plan.GameAssets),
		"launcher_name":       LauncherName,
		"launcher_version":    launcherVersion,
		"classpath":           strings.Join(classpath, sep),
		"classpath_separator": sep,
		"natives_directory":   abs(opts.Plan.NativesDir),
		"library_directory":   abs("libraries"),
		// used by pre 1.6 versions
		"user_properties": "{}",
	}
	for k, v := range opts.Values {
		values[k] = v
	}

	replacerArgs := make([]string, 0, len(values)*2)
	for k, v := range values {
		replacerArgs = append(replacerArgs, "${"+k+"}", v)
	}
	replacer := strings.NewReplacer(replacerArgs...)

	jvmTemplate := spec.Arguments.JVM.Tokens(opts.Platform, opts.Features)
	if len(jvmTemplate) == 0 {
		jvmTemplate = append([]string{}, legacyJVMArgs...)
		// HACK: prepend this so macos does not crash
		if opts.Platform.OS == "osx" {
			jvmTemplate = append([]string{"-XstartOnFirstThread"}, jvmTemplate...)
		}
	}

	if spec.Logging != nil && spec.Logging.Client != nil && spec.Logging.Client.Argument != "" && opts.Plan.LogConfig != "" {
		logArg := strings.ReplaceAll(spec.Logging.Client.Argument, "${path}", abs(opts.Plan.LogConfig))
		jvmTemplate = append(jvmTemplate, logArg)
	}

	jvm := substitute(jvmTemplate, replacer, logger)
	switch {
	case opts.RamMiB != 0:
		jvm = append([]string{
			fmt.Sprintf("-Xms%dM", opts.RamMiB),
			fmt.Sprintf("-Xmx%dM", opts.RamMiB),
		}, withoutHeapArgs(jvm)...)
	case !hasHeapArg(jvm):
		jvm = append([]string{fmt.Sprintf("-Xmx%dM", defaultHeapMiB())}, jvm...)
	}

	return &LaunchArguments{
		JVM:       jvm,
		MainClass: spec.MainClass,
		Game:      substitute(spec.LaunchArgs(opts.Platform, opts.Features), replacer, logger),
	}, nil
}

// substitute replaces all ${var} in templates. Unknown variables are removed,
// if nothing is left the preceding flag is dropped too.
func substitute(templates []string, replacer *strings.Replacer, logger *cmdlog.Logger) []string {
	args := make([]string, 0, len(templates))
	for _, template := range templates {
		replaced := replacer.Replace(template)

		if variableRegex.MatchString(replaced) {
			logger.Debugf("unresolvable variable in launch argument %s", replaced)
			replaced = variableRegex.ReplaceAllString(replaced, "")
			if replaced == "" {
				if n := len(args); n != 0 && strings.HasPrefix(args[n-1], "--") {
					args = args[:n-1]
				}
				continue
			}
		}

		args = append(args, replaced)
	}
	return args
}

func hasHeapArg(args []string) bool {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-Xmx") {
			return true
		}
	}
	return false
}

func withoutHeapArgs(args []string) []string {
	filtered := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-Xmx") && !strings.HasPrefix(arg, "-Xms") {
			filtered = append(filtered, arg)
		}
	}
	return filtered
}

// defaultHeapMiB is based on the system memory
func defaultHeapMiB() int {
	sysMemMiB := float64(memory.TotalMemory()) / 1024 / 1024
	if sysMemMiB == 0 {
		return 2048
	}

	// 2GiB for base Minecraft
	maxRamMiB := 2048.0
	// we take 1/4 of the system memory if that is more
	maxRamMiB = math.Max(maxRamMiB, sysMemMiB/4)
	// but not more than 85% of the memory
	maxRamMiB = math.Min(maxRamMiB, sysMemMiB*0.85)
	return int(maxRamMiB)
}

func classpathSeparator(p minecraft.Platform) string {
	if p.OS == "windows" {
		return ";"
	}
	return ":"
}
