package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jwalton/gchalk"
	"github.com/minepkg/launchcore/internals/commands"
	"github.com/minepkg/launchcore/internals/minecraft"
	"github.com/minepkg/launchcore/internals/utils"
	"github.com/minepkg/launchcore/internals/versions"
	"github.com/spf13/cobra"
)

func init() {
	runner := &versionsRunner{}
	cmd := commands.New(&cobra.Command{
		Use:   "versions",
		Short: "Lists available or installed versions",
		Args:  cobra.NoArgs,
	}, runner)

	cmd.Flags().StringVarP(&runner.releaseType, "type", "t", versions.TypeRelease, "Release type (release, snapshot, old_beta, old_alpha or all)")
	cmd.Flags().BoolVar(&runner.installed, "installed", false, "List versions with a manifest in the data directory")
	cmd.Flags().BoolVar(&runner.latest, "latest", false, "Only print the latest version of the type")
	cmd.Flags().IntVarP(&runner.limit, "limit", "n", 20, "Maximum number of versions to list (0 lists all)")
	rootCmd.AddCommand(cmd.Command)
}

type versionsRunner struct {
	releaseType string
	installed   bool
	latest      bool
	limit       int
}

func (v *versionsRunner) RunE(cmd *cobra.Command, args []string) error {
	l, err := newLauncher(cmd.Context())
	if err != nil {
		return err
	}

	if v.installed {
		installed, err := l.Repository.Installed()
		if err != nil {
			return err
		}
		for _, id := range installed {
			fmt.Println(utils.PrettyVersion(id))
		}
		return nil
	}

	if v.latest {
		id, err := l.Repository.Latest(cmd.Context(), v.releaseType)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	}

	releaseType := v.releaseType
	if releaseType == "all" {
		releaseType = ""
	}
	list, err := l.Repository.Versions(cmd.Context(), releaseType)
	if err != nil {
		return err
	}
	if v.limit > 0 && len(list) > v.limit {
		list = list[:v.limit]
	}
	for _, entry := range list {
		fmt.Println(versionLine(entry))
	}
	return nil
}

func versionLine(entry minecraft.VersionListEntry) string {
	released := ""
	if t, err := time.Parse(time.RFC3339, entry.ReleaseTime); err == nil {
		released = humanize.Time(t)
	}
	// padding is applied before coloring
	id := fmt.Sprintf("%-24s", entry.ID)
	return fmt.Sprintf("%s %-10s %s", utils.PrettyVersion(id), entry.Type, gchalk.Gray(released))
}
