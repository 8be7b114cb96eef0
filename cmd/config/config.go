package config

import (
	"sort"

	"github.com/spf13/cobra"
)

const (
	configKindString = iota
	configKindBool
	configKindInt
	configKindFloat
)

type configEntry struct {
	kind int
	help string
}

var config = map[string]configEntry{
	"root":            {configKindString, "data directory"},
	"concurrency":     {configKindInt, "maximum number of downloads at the same time"},
	"attempts":        {configKindInt, "attempts per download"},
	"rps":             {configKindFloat, "maximum new requests per second"},
	"runtime-catalog": {configKindString, "url of the java runtime catalog"},
	"non-interactive": {configKindBool, "do not show spinners or prompts"},
	"verbose":         {configKindBool, "print debug output"},
}

// Keys returns all config keys sorted
func Keys() []string {
	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var SubCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage global config options",
}
