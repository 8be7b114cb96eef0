package java

import (
	"github.com/Masterminds/semver/v3"
	"github.com/minepkg/launchcore/internals/minecraft"
)

// CatalogURL lists all java runtimes per platform
const CatalogURL = "https://launchermeta.mojang.com/v1/products/java-runtime/2ec0cc96c44e5a76b9c8b7c39df7210883d12871/all.json"

// Catalog maps a platform key to the runtimes available for it
type Catalog map[string]map[string][]CatalogEntry

// CatalogEntry is one build of a runtime component
type CatalogEntry struct {
	Availability struct {
		Group    int `json:"group"`
		Progress int `json:"progress"`
	} `json:"availability"`
	Manifest minecraft.Artifact `json:"manifest"`
	Version  struct {
		Name     string `json:"name"`
		Released string `json:"released"`
	} `json:"version"`
}

// HasComponent reports if any platform provides component
func (c Catalog) HasComponent(component string) bool {
	for _, components := range c {
		if len(components[component]) != 0 {
			return true
		}
	}
	return false
}

// newest returns the entry with the highest version. Versions that are no
// semver (like "8u51") only win if nothing else can be parsed.
func newest(entries []CatalogEntry) *CatalogEntry {
	var best *CatalogEntry
	var bestVersion *semver.Version
	for i := range entries {
		v, err := semver.NewVersion(entries[i].Version.Name)
		if err != nil {
			if best == nil {
				best = &entries[i]
			}
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best = &entries[i]
			bestVersion = v
		}
	}
	return best
}

// FileType of a runtime [File]
type FileType string

const (
	TypeFile      FileType = "file"
	TypeDirectory FileType = "directory"
	TypeLink      FileType = "link"
)

// Manifest lists every file of a runtime
type Manifest struct {
	Files map[string]File `json:"files"`
}

// File is a file, directory or symlink of a runtime
type File struct {
	Type       FileType       `json:"type"`
	Executable bool           `json:"executable,omitempty"`
	Downloads  *FileDownloads `json:"downloads,omitempty"`
	// Target of a link, relative to the link
	Target string `json:"target,omitempty"`
}

// FileDownloads has the plain file and optionally a lzma compressed variant
type FileDownloads struct {
	Raw  *minecraft.Artifact `json:"raw,omitempty"`
	LZMA *minecraft.Artifact `json:"lzma,omitempty"`
}

// PlatformKey returns the catalog key of a platform
func PlatformKey(p minecraft.Platform) (string, bool) {
	switch p.OS {
	case "linux":
		switch p.Arch {
		case "x64":
			return "linux", true
		case "x86":
			return "linux-i386", true
		}
	case "osx":
		switch p.Arch {
		case "x64":
			return "mac-os", true
		case "arm64":
			return "mac-os-arm64", true
		}
	case "windows":
		switch p.Arch {
		case "x64":
			return "windows-x64", true
		case "x86":
			return "windows-x86", true
		case "arm64":
			return "windows-arm64", true
		}
	}
	return "", false
}
