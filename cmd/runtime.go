package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/erikgeiser/promptkit/confirmation"
	"github.com/jwalton/gchalk"
	"github.com/minepkg/launchcore/internals/commands"
	"github.com/minepkg/launchcore/internals/java"
	"github.com/minepkg/launchcore/internals/launcher"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func init() {
	runner := &runtimeRunner{}
	cmd := commands.New(&cobra.Command{
		Use:   "runtime [component]",
		Short: "Installs or repairs a java runtime",
		Long: `Installs a java runtime from the official runtime catalog.
Without a component, all components available for this platform are listed.`,
		Example: `
  launchcore runtime
  launchcore runtime java-runtime-gamma
  launchcore runtime 8 --reinstall`,
		Args: cobra.MaximumNArgs(1),
	}, runner)

	cmd.Flags().BoolVar(&runner.reinstall, "reinstall", false, "Remove the runtime before installing it")
	cmd.Flags().BoolVarP(&runner.yes, "yes", "y", false, "Do not ask before removing a runtime")
	rootCmd.AddCommand(cmd.Command)
}

type runtimeRunner struct {
	reinstall bool
	yes       bool
}

func (r *runtimeRunner) RunE(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l, err := newLauncher(ctx)
	if err != nil {
		return err
	}
	key, ok := java.PlatformKey(l.Platform)
	if !ok {
		return &commands.CliError{
			Text: fmt.Sprintf("there are no java runtimes for %s %s", l.Platform.OS, l.Platform.Arch),
			Help: "Install java yourself and use --java system when preparing",
		}
	}

	if len(args) == 0 {
		return listRuntimes(ctx, l.Java, key)
	}

	component, err := java.WantedComponent(args[0], nil)
	if err != nil {
		return err
	}

	if r.reinstall {
		dir := filepath.Join(l.Downloads.Root(), "runtime", component, key)
		if !r.yes && !l.NonInteractive {
			input := confirmation.New(fmt.Sprintf("Remove %s?", dir), confirmation.No)
			remove, err := input.RunPrompt()
			if err != nil || !remove {
				logger.Info("Aborting")
				return nil
			}
		}
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}

	spinner := launcher.NewMaybeSpinner(!l.NonInteractive)
	spinner.Msg = "Installing " + component
	l.Downloads.OnProgress = spinner.Progress("Installing " + component)
	spinner.Start()
	report, err := l.Java.Provision(ctx, component, l.Platform)
	spinner.Stop()
	if err != nil {
		return err
	}

	fmt.Println(titleText.Render(component + " " + report.Version))
	fmt.Printf("│ Files       %s\n", report.Files.Summary())
	fmt.Printf("│ Directories %d, links %d\n", report.Directories, report.Links)
	fmt.Println("│ Java        " + report.Java.Bin())
	return nil
}

func listRuntimes(ctx context.Context, factory *java.Factory, key string) error {
	catalog, err := factory.Catalog(ctx)
	if err != nil {
		return err
	}
	components := maps.Keys(catalog[key])
	slices.Sort(components)

	fmt.Println(titleText.Render("Java runtimes for " + key))
	for _, component := range components {
		entries := catalog[key][component]
		if len(entries) == 0 {
			fmt.Println("│ " + component + gchalk.Gray(" (not available)"))
			continue
		}
		fmt.Printf("│ %-22s %s\n", component, gchalk.Gray(entries[0].Version.Name))
	}
	return nil
}
