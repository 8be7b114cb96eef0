package java

import (
	"path/filepath"
	"strings"
)

// Java is a provisioned runtime
type Java struct {
	dir      string
	platform string
}

// Dir is the runtime folder
func (j *Java) Dir() string {
	return j.dir
}

// Bin returns the path of the java executable
func (j *Java) Bin() string {
	var bin string
	switch {
	case strings.HasPrefix(j.platform, "windows"):
		bin = "bin/java.exe"
	case strings.HasPrefix(j.platform, "mac-os"):
		bin = "jre.bundle/Contents/Home/bin/java"
	default:
		bin = "bin/java"
	}

	return filepath.Join(j.dir, filepath.FromSlash(bin))
}
