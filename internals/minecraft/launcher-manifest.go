package minecraft

import (
	"encoding/json"
	"strings"
)

// LaunchManifest is a version.json manifest that is used to launch minecraft instances
type LaunchManifest struct {
	ID string `json:"id"`
	// InheritsFrom is the id of the parent manifest. Empty after resolving
	InheritsFrom string `json:"inheritsFrom,omitempty"`
	// Type is the release type (release, snapshot, old_beta …)
	Type      string `json:"type,omitempty"`
	MainClass string `json:"mainClass,omitempty"`
	// MinecraftArguments are used before 1.13
	MinecraftArguments string `json:"minecraftArguments,omitempty"`
	// Arguments is the new (complicated) system
	Arguments              Arguments           `json:"arguments"`
	Libraries              Libraries           `json:"libraries,omitempty"`
	Assets                 string              `json:"assets,omitempty"`
	AssetIndex             *AssetIndexRef      `json:"assetIndex,omitempty"`
	Downloads              map[string]Artifact `json:"downloads,omitempty"`
	Logging                *Logging            `json:"logging,omitempty"`
	MinimumLauncherVersion int                 `json:"minimumLauncherVersion,omitempty"`
	JavaVersion            *JavaVersion        `json:"javaVersion,omitempty"`
	Jar                    string              `json:"jar,omitempty"`
	CompatibilityRules     Rules               `json:"compatibilityRules,omitempty"`
	ReleaseTime            string              `json:"releaseTime,omitempty"`
	Time                   string              `json:"time,omitempty"`
}

// Arguments are the templates for the game and jvm command line
type Arguments struct {
	Game ArgumentList `json:"game,omitempty"`
	JVM  ArgumentList `json:"jvm,omitempty"`
}

// Argument is a literal token or a group of tokens guarded by rules
type Argument struct {
	// Value is the actual argument
	Value stringSlice
	Rules Rules
}

// NewArgument returns a literal argument
func NewArgument(value ...string) Argument {
	return Argument{Value: value}
}

type rawArgument struct {
	Rules Rules       `json:"rules,omitempty"`
	Value stringSlice `json:"value"`
}

// UnmarshalJSON accepts plain strings and {rules, value} objects
func (a *Argument) UnmarshalJSON(data []byte) error {
	if len(data) != 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Argument{Value: stringSlice{s}}
		return nil
	}
	var raw rawArgument
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Argument{Value: raw.Value, Rules: raw.Rules}
	return nil
}

// MarshalJSON writes unconditional single tokens as plain strings
func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Value) == 1 {
		return json.Marshal(a.Value[0])
	}
	return json.Marshal(rawArgument{Rules: a.Rules, Value: a.Value})
}

// Identity is the token content together with the rules guarding it
func (a *Argument) Identity() string {
	return strings.Join(a.Value, "\x00") + "|" + a.Rules.Fingerprint()
}

func (a *Argument) literal() (string, bool) {
	if len(a.Rules) != 0 || len(a.Value) != 1 {
		return "", false
	}
	return a.Value[0], true
}

// Applies checks the rules of this argument
func (a *Argument) Applies(p Platform, f Features) bool {
	return a.Rules.Allows(p, f)
}

// ArgumentList is the token list of one argument kind
type ArgumentList []Argument

// units groups a literal flag with the literal value following it, so
// "--tweakClass a" and "--tweakClass b" are kept apart when merging
func (l ArgumentList) units() []ArgumentList {
	units := make([]ArgumentList, 0, len(l))
	for i := 0; i < len(l); i++ {
		flag, ok := l[i].literal()
		if ok && strings.HasPrefix(flag, "-") && i+1 < len(l) {
			if value, ok := l[i+1].literal(); ok && !strings.HasPrefix(value, "-") {
				units = append(units, l[i:i+2:i+2])
				i++
				continue
			}
		}
		units = append(units, l[i:i+1:i+1])
	}
	return units
}

func unitIdentity(u *ArgumentList) string {
	keys := make([]string, len(*u))
	for i := range *u {
		keys[i] = (*u)[i].Identity()
	}
	return strings.Join(keys, "\x01")
}

func mergeArguments(parent ArgumentList, child ArgumentList) ArgumentList {
	units := mergeByIdentity(parent.units(), child.units(), unitIdentity)
	if units == nil {
		return nil
	}
	merged := make(ArgumentList, 0, len(parent)+len(child))
	for _, u := range units {
		merged = append(merged, u...)
	}
	return merged
}

// JarName returns the name of the client jar (without extension)
func (l *LaunchManifest) JarName() string {
	if l.Jar != "" {
		return l.Jar
	}
	return l.ID
}

// AssetsID returns the asset index id of this version
func (l *LaunchManifest) AssetsID() string {
	switch {
	case l.AssetIndex != nil && l.AssetIndex.ID != "":
		return l.AssetIndex.ID
	case l.Assets != "":
		return l.Assets
	}
	return "legacy"
}

// Java returns the wanted java runtime
func (l *LaunchManifest) Java() JavaVersion {
	if l.JavaVersion == nil || l.JavaVersion.Component == "" {
		return DefaultJavaVersion
	}
	return *l.JavaVersion
}

// Merge merges child onto parent and returns the result. Neither input is modified.
// Scalar fields of the child win if they are set, lists are concatenated (parent first)
// and de-duplicated by identity. The last occurrence wins, but keeps the position
// of the first one.
func Merge(parent *LaunchManifest, child *LaunchManifest) *LaunchManifest {
	merged := *parent

	if child.ID != "" {
		merged.ID = child.ID
	}
	if child.Type != "" {
		merged.Type = child.Type
	}
	if child.MainClass != "" {
		merged.MainClass = child.MainClass
	}
	if child.MinecraftArguments != "" {
		merged.MinecraftArguments = child.MinecraftArguments
	}
	if child.Assets != "" {
		merged.Assets = child.Assets
	}
	if child.AssetIndex != nil {
		ref := *child.AssetIndex
		merged.AssetIndex = &ref
	}
	if child.Logging != nil {
		logging := *child.Logging
		merged.Logging = &logging
	}
	if child.MinimumLauncherVersion != 0 {
		merged.MinimumLauncherVersion = child.MinimumLauncherVersion
	}
	if child.JavaVersion != nil {
		java := *child.JavaVersion
		merged.JavaVersion = &java
	}
	if child.Jar != "" {
		merged.Jar = child.Jar
	}
	if child.ReleaseTime != "" {
		merged.ReleaseTime = child.ReleaseTime
	}
	if child.Time != "" {
		merged.Time = child.Time
	}

	if len(parent.Downloads) != 0 || len(child.Downloads) != 0 {
		merged.Downloads = make(map[string]Artifact, len(parent.Downloads)+len(child.Downloads))
		for k, v := range parent.Downloads {
			merged.Downloads[k] = v
		}
		for k, v := range child.Downloads {
			merged.Downloads[k] = v
		}
	}

	merged.Libraries = mergeByIdentity(parent.Libraries, child.Libraries, func(l *Library) string { return l.Identity() })
	merged.Arguments = Arguments{
		Game: mergeArguments(parent.Arguments.Game, child.Arguments.Game),
		JVM:  mergeArguments(parent.Arguments.JVM, child.Arguments.JVM),
	}
	merged.CompatibilityRules = mergeByIdentity(parent.CompatibilityRules, child.CompatibilityRules, func(r *Rule) string { return r.String() })

	return &merged
}

// mergeByIdentity always returns a new slice (or nil if both are empty)
func mergeByIdentity[S ~[]T, T any](parent S, child S, identity func(*T) string) S {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	merged := make(S, 0, len(parent)+len(child))
	index := make(map[string]int, len(parent)+len(child))
	for _, list := range []S{parent, child} {
		for i := range list {
			key := identity(&list[i])
			if at, ok := index[key]; ok {
				merged[at] = list[i]
				continue
			}
			index[key] = len(merged)
			merged = append(merged, list[i])
		}
	}
	return merged
}

// LaunchArgs returns the game arguments that apply for the platform.
// Only the raw templates are returned, see the launcher for substitution.
func (l *LaunchManifest) LaunchArgs(p Platform, f Features) []string {
	// easy minecraft versions before 1.13
	if l.MinecraftArguments != "" {
		return strings.Fields(l.MinecraftArguments)
	}
	return l.Arguments.Game.Tokens(p, f)
}

// Tokens returns the values of all arguments that apply
func (l ArgumentList) Tokens(p Platform, f Features) []string {
	tokens := make([]string, 0, len(l))
	for i := range l {
		if !l[i].Applies(p, f) {
			continue
		}
		tokens = append(tokens, l[i].Value...)
	}
	return tokens
}

// VersionList is the version_manifest_v2.json
type VersionList struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionListEntry `json:"versions"`
}

// VersionListEntry is one version in the [VersionList]
type VersionListEntry struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Time        string `json:"time,omitempty"`
	ReleaseTime string `json:"releaseTime,omitempty"`
	Sha1        string `json:"sha1,omitempty"`
}

// Find returns the entry with the given id
func (v *VersionList) Find(id string) (*VersionListEntry, bool) {
	for i := range v.Versions {
		if v.Versions[i].ID == id {
			return &v.Versions[i], true
		}
	}
	return nil, false
}
