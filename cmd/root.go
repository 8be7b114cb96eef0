package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwalton/gchalk"
	"github.com/mattn/go-isatty"
	"github.com/minepkg/launchcore/cmd/config"
	"github.com/minepkg/launchcore/internals/cmdlog"
	"github.com/minepkg/launchcore/internals/commands"
	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/java"
	"github.com/minepkg/launchcore/internals/launcher"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/ownhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// set by main
var (
	Version = "dev"
	Commit  string
)

// TODO: this logger should not be global
var logger *cmdlog.Logger = cmdlog.New()

var (
	cfgFile       string
	disableColors bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "launchcore",
	Short: "Prepares Minecraft versions for launching",
	Long:  "Resolves, downloads and verifies everything a Minecraft version needs to run",

	Example: `
  launchcore prepare 1.20.1
  launchcore prepare 1.20.1 --java system --print-args
  launchcore runtime java-runtime-gamma
  launchcore versions --type snapshot`,
}

var completionCmd = &cobra.Command{
	Use:   "completion",
	Args:  cobra.MaximumNArgs(1),
	Short: "Output shell completion code for bash",
	Long: `To load completion run

. <(launchcore completion)

You can add that line to your ~/.bashrc or ~/.profile to
persist completion in your shell.
`,
	Run: func(cmd *cobra.Command, args []string) {
		rootCmd.GenBashCompletion(os.Stdout)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = Version
	if Commit != "" {
		rootCmd.Version += " (" + Commit + ")"
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&disableColors, "no-color", "", false, "disable color output")
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.launchcore.toml)")
	flags.String("root", "", "data directory (default is the user config dir/launchcore)")
	flags.Int("concurrency", downloadmgr.DefaultConcurrency, "maximum number of downloads at the same time")
	flags.Int("attempts", downloadmgr.DefaultMaxAttempts, "attempts per download")
	flags.Float64("rps", 0, "maximum new requests per second (0 is unlimited)")
	flags.String("runtime-catalog", java.CatalogURL, "url of the java runtime catalog")
	flags.Bool("non-interactive", false, "do not show spinners or prompts")
	flags.BoolP("verbose", "v", false, "print debug output")

	for _, key := range config.Keys() {
		if f := flags.Lookup(key); f != nil {
			viper.BindPFlag(key, f)
		}
	}

	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(config.SubCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if disableColors || os.Getenv("CI") != "" {
		gchalk.SetLevel(gchalk.LevelNone)
		commands.EmojiEnabled = false
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".launchcore" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".launchcore")
	}

	viper.SetEnvPrefix("launchcore")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	logger.SetDebug(viper.GetBool("verbose"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logger.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

func dataRoot() (string, error) {
	if root := viper.GetString("root"); root != "" {
		return filepath.Abs(root)
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "launchcore"), nil
}

func interactive() bool {
	return !viper.GetBool("non-interactive") && os.Getenv("CI") == "" && isatty.IsTerminal(os.Stdout.Fd())
}

// newLauncher returns a launcher configured by flags, env and config file
func newLauncher(ctx context.Context) (*launcher.Launcher, error) {
	root, err := dataRoot()
	if err != nil {
		return nil, err
	}

	client := ownhttp.New(ownhttp.Options{
		UserAgent:         "launchcore/" + Version + " (+https://github.com/minepkg/launchcore)",
		RequestsPerSecond: viper.GetFloat64("rps"),
	})

	l := launcher.New(afero.NewOsFs(), root, client)
	l.Downloads.Concurrency = viper.GetInt("concurrency")
	l.Downloads.MaxAttempts = viper.GetInt("attempts")
	l.Java.CatalogURL = viper.GetString("runtime-catalog")
	l.NonInteractive = !interactive()
	l.SetLogger(logger)

	platform, err := minecraft.DetectPlatform(ctx)
	if err != nil {
		logger.Warnf("Could not detect the os version, rules with a version will not match (%s)", err)
	}
	l.Platform = platform
	logger.Debugf("data root %s, platform %s %s %s", root, platform.OS, platform.Version, platform.Arch)

	return l, nil
}
