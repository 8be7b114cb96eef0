package config

import (
	"fmt"
	"strings"

	"github.com/jwalton/gchalk"
	"github.com/minepkg/launchcore/internals/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cmd := commands.New(&cobra.Command{
		Use:   "get [key]",
		Short: "Gets a global config value (or all of them)",
		Args:  cobra.MaximumNArgs(1),
	}, &getRunner{})

	SubCmd.AddCommand(cmd.Command)
}

type getRunner struct{}

func (i *getRunner) RunE(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, key := range Keys() {
			fmt.Printf("  %s: %v %s\n", key, viper.Get(key), gchalk.Gray("# "+config[key].help))
		}
		return nil
	}

	key := strings.ToLower(args[0])
	if _, ok := config[key]; !ok {
		return &commands.CliError{
			Text:        fmt.Sprintf("config key \"%s\" does not exist", key),
			Suggestions: []string{"Run \"launchcore config get\" to list all keys"},
		}
	}

	fmt.Printf("  %s: %v\n", key, viper.Get(key))
	return nil
}
