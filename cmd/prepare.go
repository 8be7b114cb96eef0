package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwalton/gchalk"
	"github.com/manifoldco/promptui"
	"github.com/minepkg/launchcore/internals/commands"
	"github.com/minepkg/launchcore/internals/downloadmgr"
	"github.com/minepkg/launchcore/internals/java"
	"github.com/minepkg/launchcore/internals/launcher"
	"github.com/minepkg/launchcore/internals/utils"
	"github.com/minepkg/launchcore/internals/versions"
	"github.com/spf13/cobra"
)

func init() {
	runner := &prepareRunner{}
	cmd := commands.New(&cobra.Command{
		Use:   "prepare [version]",
		Short: "Downloads and verifies everything needed to launch a version",
		Long: `Resolves the version manifest (including the versions it inherits from),
downloads missing or broken libraries, natives, assets and the java runtime.

Without a version, a release can be selected interactively.`,
		Example: `
  launchcore prepare 1.20.1
  launchcore prepare 1.20.1-fabric-0.14.21 --java 17
  launchcore prepare 1.8.9 --skip-assets --print-args`,
		Args: cobra.MaximumNArgs(1),
	}, runner)

	runner.overwrites = launcher.CmdOverwriteFlags(cmd.Command)
	cmd.Flags().BoolVar(&runner.printArgs, "print-args", false, "Print the launch command after preparing")
	cmd.Flags().StringVar(&runner.username, "username", "Player", "Username used in the printed launch command")
	cmd.Flags().IntVar(&runner.ram, "ram", 0, "Amount of RAM in MiB used in the printed launch command")

	rootCmd.AddCommand(cmd.Command)
}

type prepareRunner struct {
	overwrites *launcher.OverwriteFlags
	printArgs  bool
	username   string
	ram        int
}

func (p *prepareRunner) RunE(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l, err := newLauncher(ctx)
	if err != nil {
		return err
	}
	if err := l.ApplyOverWrites(p.overwrites); err != nil {
		return err
	}

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		if l.NonInteractive {
			return &commands.CliError{
				Text:        "no version given",
				Suggestions: []string{"Run \"launchcore prepare 1.20.1\"", "Run \"launchcore versions\" to list all versions"},
			}
		}
		if id, err = selectRelease(ctx, l.Repository); err != nil {
			if errors.Is(err, utils.ErrAborted) {
				logger.Info("Aborting")
				return nil
			}
			return err
		}
	}

	// "release" and "snapshot" are aliases for the latest version
	if id == versions.TypeRelease || id == versions.TypeSnapshot {
		if id, err = l.Repository.Latest(ctx, id); err != nil {
			return err
		}
	}

	fmt.Println(titleText.Render(utils.PrettyVersion(id)))
	fmt.Println("│")

	var result *launcher.Result
	if l.NonInteractive {
		spinner := launcher.NewMaybeSpinner(false)
		l.Downloads.OnProgress = spinner.Progress("│ Downloading")
		result, err = l.Prepare(ctx, id)
	} else {
		result, err = fancyPrepare(ctx, l, id)
	}
	if err != nil {
		return prepareError(id, err)
	}

	printResult(result)

	if err := result.Ready(); err != nil {
		return readyError(result, err)
	}
	fmt.Println(commands.StyleGrass.Render(commands.Emoji("⛏  ") + "Ready to launch"))

	if p.printArgs {
		return p.printLaunchCommand(l, result)
	}
	return nil
}

func (p *prepareRunner) printLaunchCommand(l *launcher.Launcher, result *launcher.Result) error {
	values := map[string]string{
		"auth_access_token": "0",
		"user_type":         "legacy",
	}
	if p.username != "" {
		values["auth_player_name"] = p.username
	}

	launchArgs, err := launcher.BuildArguments(result.Manifest, launcher.ArgumentOptions{
		Platform:        l.Platform,
		Features:        l.Features,
		Plan:            result.Plan,
		Root:            l.Downloads.Root(),
		LauncherVersion: Version,
		Values:          values,
		RamMiB:          p.ram,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	quoted := make([]string, 0, len(launchArgs.Command())+1)
	quoted = append(quoted, shellQuote(result.JavaBin()))
	for _, arg := range launchArgs.Command() {
		quoted = append(quoted, shellQuote(arg))
	}
	fmt.Println()
	fmt.Println(strings.Join(quoted, " "))
	return nil
}

func selectRelease(ctx context.Context, repo *versions.Repository) (string, error) {
	releases, err := repo.Versions(ctx, versions.TypeRelease)
	if err != nil {
		return "", err
	}
	if len(releases) > 20 {
		releases = releases[:20]
	}
	items := make([]string, len(releases))
	for i, r := range releases {
		items[i] = r.ID
	}

	return utils.SelectPrompt(&promptui.Select{
		Label: "Version",
		Items: items,
		Size:  10,
	})
}

var pipeText = lipgloss.NewStyle().
	Border(lipgloss.Border{Left: "│"}, false).
	BorderLeft(true).
	Padding(0, 1)

var titleText = lipgloss.NewStyle().
	Border(lipgloss.Border{Left: "┃"}, false).
	BorderLeft(true).
	Background(lipgloss.Color("#FFF")).
	Foreground(lipgloss.Color("#000")).
	Padding(0, 1)

func printResult(result *launcher.Result) {
	m := result.Manifest
	fmt.Println("│ Minecraft " + m.ID + gchalk.Gray(" "+m.Type))
	fmt.Printf("│ Files     %s\n", result.Files.Summary())

	switch {
	case result.JavaComponent == "":
		fmt.Println("│ Java      " + gchalk.Gray("(system java)"))
	case result.Runtime != nil:
		fmt.Printf("│ Java      %s %s\n", result.JavaBin(), gchalk.Gray(result.JavaComponent+" "+result.Runtime.Version))
	default:
		fmt.Println("│ Java      " + gchalk.Red("not available"))
	}

	for _, w := range result.Plan.Warnings {
		fmt.Println("│ " + gchalk.Yellow(w))
	}
	fmt.Println("│")
}

func prepareError(id string, err error) error {
	switch {
	case errors.Is(err, versions.ErrNotFound):
		return &commands.CliError{
			Text:        err.Error(),
			Code:        "version-not-found",
			Suggestions: []string{"Run \"launchcore versions --type all\" to list all versions"},
		}
	case errors.Is(err, launcher.ErrIncompatible):
		return &commands.CliError{
			Text: err.Error(),
			Code: "incompatible-platform",
			Help: fmt.Sprintf("The manifest of %s excludes this platform", id),
		}
	}
	return err
}

func readyError(result *launcher.Result, err error) error {
	cliErr := &commands.CliError{Text: err.Error(), Code: "prepare-incomplete"}

	failures := result.Files.RequiredFailures()
	assetsFailed := false
	for _, f := range failures {
		if f.Item.Kind == downloadmgr.KindAsset {
			assetsFailed = true
		}
	}
	if len(failures) > 1 {
		cliErr.Help = fmt.Sprintf("%d files could not be downloaded", len(failures))
	}
	if assetsFailed {
		cliErr.Suggestions = append(cliErr.Suggestions, "Use --assets-optional to ignore missing assets")
	}
	if errors.Is(result.RuntimeErr, java.ErrUnsupportedPlatform) {
		cliErr.Suggestions = append(cliErr.Suggestions, "Use --java system to use your installed java")
	}
	if len(cliErr.Suggestions) == 0 {
		cliErr.Suggestions = append(cliErr.Suggestions, "Run the same command again, broken files will be downloaded again")
	}
	return cliErr
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'$`\\{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
