package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jwalton/gchalk"
	"github.com/minepkg/launchcore/internals/commands"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	runner := &resolveRunner{}
	cmd := commands.New(&cobra.Command{
		Use:   "resolve <version>",
		Short: "Prints the resolved version manifest",
		Long:  "Fetches the manifest and every manifest it inherits from and prints the merged result",
		Args:  cobra.ExactArgs(1),
	}, runner)

	cmd.Flags().StringVarP(&runner.format, "format", "f", "summary", "Output format (summary, json or yaml)")
	rootCmd.AddCommand(cmd.Command)
}

type resolveRunner struct {
	format string
}

func (r *resolveRunner) RunE(cmd *cobra.Command, args []string) error {
	l, err := newLauncher(cmd.Context())
	if err != nil {
		return err
	}

	m, err := l.Resolver.Resolve(cmd.Context(), args[0])
	if err != nil {
		return prepareError(args[0], err)
	}

	switch r.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case "yaml":
		// go through json so the field names match the manifest
		buf, err := json.Marshal(m)
		if err != nil {
			return err
		}
		var generic map[string]interface{}
		if err := json.Unmarshal(buf, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	case "summary":
	default:
		return fmt.Errorf("unknown format %q", r.format)
	}

	applies := 0
	for i := range m.Libraries {
		if m.Libraries[i].Applies(l.Platform, l.Features) {
			applies++
		}
	}

	fmt.Println(titleText.Render(m.ID))
	fmt.Println("│ Type       " + m.Type)
	fmt.Println("│ Main class " + m.MainClass)
	fmt.Printf("│ Libraries  %d %s\n", len(m.Libraries), gchalk.Gray(fmt.Sprintf("(%d for this platform)", applies)))
	fmt.Println("│ Assets     " + m.AssetsID())
	java := m.Java()
	fmt.Printf("│ Java       %s %s\n", java.Component, gchalk.Gray(fmt.Sprintf("(java %d)", java.MajorVersion)))
	if m.ReleaseTime != "" {
		fmt.Println("│ Released   " + m.ReleaseTime)
	}
	return nil
}
