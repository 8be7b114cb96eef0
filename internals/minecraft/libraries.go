package minecraft

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// DefaultLibrariesURL is used for libraries that have no download url
const DefaultLibrariesURL = "https://libraries.minecraft.net/"

// Libraries as a collection of minecraft libs
type Libraries []Library

// Required returns only the libraries that apply to the given platform
func (l Libraries) Required(p Platform, f Features) Libraries {
	required := make(Libraries, 0, len(l))
	for _, lib := range l {
		if lib.Applies(p, f) {
			required = append(required, lib)
		}
	}
	return required
}

// Library is a minecraft library
type Library struct {
	// Name is the maven coordinate ("group:artifact:version[:classifier][@ext]")
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	// URL is a maven repository base url. Used by mod loaders that don't set downloads
	URL string `json:"url,omitempty"`
	// Rules is a list of rules that determine whether this library should be included.
	// If no rules are specified, the library is included by default.
	Rules Rules `json:"rules,omitempty"`
	// Natives is a map of OS names to native classifiers.
	// This field is no longer used after 1.19
	// Newer library versions extract the native library from a jar at runtime.
	Natives map[string]string `json:"natives,omitempty"`
	// Extract limits what gets unpacked from a native archive
	Extract *ExtractRules `json:"extract,omitempty"`
}

// LibraryDownloads are the download descriptors of a [Library]
type LibraryDownloads struct {
	Artifact *Artifact `json:"artifact,omitempty"`
	// Classifiers is a list of additional artifacts.
	// It is used to download native libraries.
	// The `Natives` field is used to determine which classifier to use.
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

// Identity is the key used to de-duplicate libraries when manifests are merged.
// Rules are not part of it: a child restating a coordinate replaces the parent entry.
// Older manifests list the same coordinate as a plain jar and as a natives carrier,
// so the natives marker is.
func (l *Library) Identity() string {
	if len(l.Natives) != 0 {
		return l.Name + "#natives"
	}
	return l.Name
}

// Applies checks the rules and if a native library has a build for this platform
func (l *Library) Applies(p Platform, f Features) bool {
	if !l.Rules.Allows(p, f) {
		return false
	}
	if len(l.Natives) != 0 {
		_, ok := l.NativeClassifier(p)
		return ok
	}
	return true
}

// NativeClassifier returns the classifier of the native archive for the platform
// with the ${arch} placeholder replaced
func (l *Library) NativeClassifier(p Platform) (string, bool) {
	classifier, ok := l.Natives[p.OS]
	if !ok || classifier == "" {
		return "", false
	}
	return strings.ReplaceAll(classifier, "${arch}", p.Bits()), true
}

// MainArtifact returns the jar that goes on the classpath. Libraries that only
// carry natives have none.
func (l *Library) MainArtifact() (*Artifact, bool) {
	if l.Downloads != nil {
		if l.Downloads.Artifact == nil || (l.Downloads.Artifact.URL == "" && l.Downloads.Artifact.Path == "") {
			return nil, false
		}
		a := *l.Downloads.Artifact
		if a.Path == "" {
			a.Path = l.Filepath("")
		}
		if a.URL == "" {
			a.URL = l.baseURL() + a.Path
		}
		return &a, true
	}
	if len(l.Natives) != 0 {
		return nil, false
	}
	a := l.mavenArtifact("")
	return &a, true
}

// NativeArtifact returns the native archive for the platform
func (l *Library) NativeArtifact(p Platform) (*Artifact, bool) {
	classifier, ok := l.NativeClassifier(p)
	if !ok {
		return nil, false
	}
	if l.Downloads != nil {
		native, ok := l.Downloads.Classifiers[classifier]
		if !ok {
			return nil, false
		}
		if native.Path == "" {
			native.Path = l.Filepath(classifier)
		}
		if native.URL == "" {
			native.URL = l.baseURL() + native.Path
		}
		return &native, true
	}
	a := l.mavenArtifact(classifier)
	return &a, true
}

func (l *Library) mavenArtifact(classifier string) Artifact {
	p := l.Filepath(classifier)
	return Artifact{Path: p, URL: l.baseURL() + p}
}

func (l *Library) baseURL() string {
	if l.URL == "" {
		return DefaultLibrariesURL
	}
	if !strings.HasSuffix(l.URL, "/") {
		return l.URL + "/"
	}
	return l.URL
}

// Filepath returns the maven path (slash separated, relative to the libraries folder).
// The classifier overwrites the one in the name if it is set.
func (l *Library) Filepath(classifier string) string {
	name := l.Name
	ext := "jar"
	if i := strings.LastIndex(name, "@"); i != -1 {
		ext = name[i+1:]
		name = name[:i]
	}

	grouped := strings.Split(name, ":")
	if len(grouped) < 3 {
		// not a maven coordinate, use it as is
		return name + "." + ext
	}
	basePath := strings.ReplaceAll(grouped[0], ".", "/")
	artifactID := grouped[1]
	version := grouped[2]
	if classifier == "" && len(grouped) > 3 {
		classifier = grouped[3]
	}

	file := artifactID + "-" + version
	if classifier != "" {
		file += "-" + classifier
	}
	return path.Join(basePath, artifactID, version, file+"."+ext)
}

// ExtractRules filter the members of a native archive
type ExtractRules struct {
	// Include limits extraction to matching members, everything is included when empty
	Include []string `json:"include,omitempty"`
	// Exclude skips matching members. "META-INF/" style entries exclude a directory
	Exclude []string `json:"exclude,omitempty"`
}

// ShouldExtract reports whether the archive member (slash separated) should be extracted
func (e *ExtractRules) ShouldExtract(member string) bool {
	if e == nil {
		return true
	}
	if len(e.Include) != 0 && !matchAny(e.Include, member) {
		return false
	}
	return !matchAny(e.Exclude, member)
}

func matchAny(patterns []string, member string) bool {
	base := path.Base(member)
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") || !strings.ContainsAny(pattern, "*?[{") {
			if strings.HasPrefix(member, pattern) {
				return true
			}
		}
		// patterns without a slash match on the file name alone
		target := member
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}
