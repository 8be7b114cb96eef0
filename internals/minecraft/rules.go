package minecraft

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Action of a [Rule]
type Action string

const (
	ActionAllow    Action = "allow"
	ActionDisallow Action = "disallow"
)

// ConditionKind is the fact a [Condition] checks
type ConditionKind int

const (
	// ConditionOSName checks the os family
	ConditionOSName ConditionKind = iota
	// ConditionOSVersion checks the os version against a regex
	ConditionOSVersion
	// ConditionOSArch checks the architecture
	ConditionOSArch
	// ConditionFeature checks a feature flag
	ConditionFeature
)

// Condition is a single check of a [Rule]
type Condition struct {
	Kind ConditionKind
	// Value is the os name, version pattern, arch or feature name
	Value string
	// Want is the required value of a feature flag
	Want bool
}

// Matches reports whether the condition holds for the given platform and features
func (c Condition) Matches(p Platform, f Features) bool {
	switch c.Kind {
	case ConditionOSName:
		return c.Value == p.OS
	case ConditionOSArch:
		return c.Value == p.Arch
	case ConditionOSVersion:
		re, err := regexp.Compile(c.Value)
		if err != nil {
			// invalid patterns never match
			return false
		}
		return re.MatchString(p.Version)
	case ConditionFeature:
		return f[c.Value] == c.Want
	}
	return false
}

func (c Condition) String() string {
	switch c.Kind {
	case ConditionOSName:
		return "os.name=" + c.Value
	case ConditionOSVersion:
		return "os.version=" + c.Value
	case ConditionOSArch:
		return "os.arch=" + c.Value
	case ConditionFeature:
		return "feature." + c.Value + "=" + strconv.FormatBool(c.Want)
	}
	return "unknown"
}

// Rule is a rule that can be applied to an argument or library.
// All conditions have to match for the rule to apply.
type Rule struct {
	Action     Action
	Conditions []Condition
}

// OS is the json representation of the os conditions of a [Rule]
type OS struct {
	Name string `json:"name,omitempty"`
	// Version of the os (can be a regex string)
	Version string `json:"version,omitempty"`
	// Arch of the system
	Arch string `json:"arch,omitempty"`
}

type rawRule struct {
	Action   Action          `json:"action"`
	OS       *OS             `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// UnmarshalJSON turns the json object into a closed set of conditions
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw rawRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Action {
	case ActionAllow, ActionDisallow:
	default:
		return fmt.Errorf("unknown rule action %q", raw.Action)
	}

	conditions := make([]Condition, 0)
	if raw.OS != nil {
		if raw.OS.Name != "" {
			conditions = append(conditions, Condition{Kind: ConditionOSName, Value: raw.OS.Name})
		}
		if raw.OS.Version != "" {
			conditions = append(conditions, Condition{Kind: ConditionOSVersion, Value: raw.OS.Version})
		}
		if raw.OS.Arch != "" {
			conditions = append(conditions, Condition{Kind: ConditionOSArch, Value: raw.OS.Arch})
		}
	}

	// map order is random, sort to keep rules comparable
	names := make([]string, 0, len(raw.Features))
	for name := range raw.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		conditions = append(conditions, Condition{Kind: ConditionFeature, Value: name, Want: raw.Features[name]})
	}

	*r = Rule{Action: raw.Action, Conditions: conditions}
	return nil
}

// MarshalJSON writes the rule in the manifest format
func (r Rule) MarshalJSON() ([]byte, error) {
	raw := rawRule{Action: r.Action}
	for _, c := range r.Conditions {
		switch c.Kind {
		case ConditionFeature:
			if raw.Features == nil {
				raw.Features = make(map[string]bool)
			}
			raw.Features[c.Value] = c.Want
			continue
		}
		if raw.OS == nil {
			raw.OS = &OS{}
		}
		switch c.Kind {
		case ConditionOSName:
			raw.OS.Name = c.Value
		case ConditionOSVersion:
			raw.OS.Version = c.Value
		case ConditionOSArch:
			raw.OS.Arch = c.Value
		}
	}
	return json.Marshal(raw)
}

// Matches reports whether every condition of this rule holds
func (r Rule) Matches(p Platform, f Features) bool {
	for _, c := range r.Conditions {
		if !c.Matches(p, f) {
			return false
		}
	}
	return true
}

func (r Rule) String() string {
	parts := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		parts[i] = c.String()
	}
	return string(r.Action) + "(" + strings.Join(parts, ",") + ")"
}

// Rules is an ordered list of rules
type Rules []Rule

// Allows is a shorthand for [Evaluate]
func (r Rules) Allows(p Platform, f Features) bool {
	return Evaluate(r, p, f)
}

// Fingerprint identifies the rule list, used to tell conditional arguments apart
func (r Rules) Fingerprint() string {
	if len(r) == 0 {
		return ""
	}
	parts := make([]string, len(r))
	for i, rule := range r {
		parts[i] = rule.String()
	}
	return strings.Join(parts, ";")
}

// Evaluate decides if something guarded by rules should be used on the platform.
// An empty list allows. Otherwise the last matching rule decides and nothing
// matching means disallow.
func Evaluate(rules []Rule, p Platform, f Features) bool {
	if len(rules) == 0 {
		return true
	}

	allowed := false
	for _, rule := range rules {
		if rule.Matches(p, f) {
			allowed = rule.Action == ActionAllow
		}
	}
	return allowed
}
