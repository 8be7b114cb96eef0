package utils

import (
	"strings"

	"github.com/jwalton/gchalk"
)

// PrettyVersion returns a pretty colored version id for terminal printing.
// Loader suffixes like "-fabric-0.14.21" are dimmed
func PrettyVersion(id string) string {
	// we trim first to avoid broken colors
	if len(id) >= 32 {
		id = id[:28] + " …"
	}

	parts := strings.SplitN(id, "-", 2)
	if len(parts) == 1 || !isLoaderSuffix(parts[1]) {
		return id
	}
	return parts[0] + gchalk.Gray("-"+parts[1])
}

func isLoaderSuffix(suffix string) bool {
	for _, loader := range []string{"fabric", "forge", "quilt", "neoforge", "optifine"} {
		if strings.HasPrefix(strings.ToLower(suffix), loader) {
			return true
		}
	}
	return false
}
