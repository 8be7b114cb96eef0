package minecraft

import (
	"encoding/json"
	"testing"
)

func mustRules(t *testing.T, raw string) Rules {
	t.Helper()
	var rules Rules
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		t.Fatal(err)
	}
	return rules
}

func TestEvaluate(t *testing.T) {
	linux := Platform{OS: "linux", Version: "6.1.0-13-amd64", Arch: "x64"}
	osx := Platform{OS: "osx", Version: "10.5.8", Arch: "x64"}
	windows := Platform{OS: "windows", Version: "10.0", Arch: "x86"}

	tests := []struct {
		name     string
		rules    string
		platform Platform
		features Features
		want     bool
	}{
		{
			name:     "no rules",
			rules:    `[]`,
			platform: linux,
			want:     true,
		},
		{
			name:     "allow empty",
			rules:    `[{"action": "allow"}]`,
			platform: linux,
			want:     true,
		},
		{
			name:     "allow os",
			rules:    `[{"action": "allow", "os": {"name": "linux"}}]`,
			platform: linux,
			want:     true,
		},
		{
			name:     "allow other os",
			rules:    `[{"action": "allow", "os": {"name": "osx"}}]`,
			platform: linux,
			want:     false,
		},
		{
			name:     "allow arch",
			rules:    `[{"action": "allow", "os": {"arch": "x86"}}]`,
			platform: windows,
			want:     true,
		},
		{
			name:     "allow os arch",
			rules:    `[{"action": "allow", "os": {"name": "windows", "arch": "x86"}}]`,
			platform: windows,
			want:     true,
		},
		{
			name:     "allow os other arch",
			rules:    `[{"action": "allow", "os": {"name": "windows", "arch": "x64"}}]`,
			platform: windows,
			want:     false,
		},
		{
			name:     "disallow empty",
			rules:    `[{"action": "disallow"}]`,
			platform: linux,
			want:     false,
		},
		{
			name:     "disallow os",
			rules:    `[{"action": "allow"}, {"action": "disallow", "os": {"name": "osx"}}]`,
			platform: osx,
			want:     false,
		},
		{
			name:     "disallow other os",
			rules:    `[{"action": "allow"}, {"action": "disallow", "os": {"name": "osx"}}]`,
			platform: linux,
			want:     true,
		},
		{
			name:     "last match wins",
			rules:    `[{"action": "disallow", "os": {"name": "linux"}}, {"action": "allow"}]`,
			platform: linux,
			want:     true,
		},
		{
			name:     "os version regex",
			rules:    `[{"action": "allow"}, {"action": "disallow", "os": {"name": "osx", "version": "^10\\.5\\.\\d$"}}]`,
			platform: osx,
			want:     false,
		},
		{
			name:     "os version regex no match",
			rules:    `[{"action": "allow"}, {"action": "disallow", "os": {"name": "osx", "version": "^10\\.5\\.\\d$"}}]`,
			platform: Platform{OS: "osx", Version: "13.1", Arch: "arm64"},
			want:     true,
		},
		{
			name:     "invalid version regex never matches",
			rules:    `[{"action": "allow", "os": {"version": "(["}}]`,
			platform: osx,
			want:     false,
		},
		{
			name:     "feature set",
			rules:    `[{"action": "allow", "features": {"is_demo_user": true}}]`,
			platform: linux,
			features: Features{"is_demo_user": true},
			want:     true,
		},
		{
			name:     "feature unset is false",
			rules:    `[{"action": "allow", "features": {"is_demo_user": true}}]`,
			platform: linux,
			want:     false,
		},
		{
			name:     "feature wants false",
			rules:    `[{"action": "allow", "features": {"has_custom_resolution": false}}]`,
			platform: linux,
			want:     true,
		},
		{
			name:     "feature and os",
			rules:    `[{"action": "allow", "os": {"name": "linux"}, "features": {"is_demo_user": true}}]`,
			platform: windows,
			features: Features{"is_demo_user": true},
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := mustRules(t, tt.rules)
			if got := Evaluate(rules, tt.platform, tt.features); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRule_UnmarshalJSON(t *testing.T) {
	var rule Rule
	err := json.Unmarshal([]byte(`{"action": "allow", "features": {"b": true, "a": false}, "os": {"name": "osx"}}`), &rule)
	if err != nil {
		t.Fatal(err)
	}
	if got := rule.String(); got != "allow(os.name=osx,feature.a=false,feature.b=true)" {
		t.Fatalf("unexpected rule %s", got)
	}

	if err := json.Unmarshal([]byte(`{"action": "maybe"}`), &rule); err == nil {
		t.Fatal("expected unknown action to fail")
	}
}

func TestRule_MarshalJSON(t *testing.T) {
	rules := mustRules(t, `[{"action":"allow","os":{"name":"osx","arch":"x64"},"features":{"is_demo_user":true}}]`)
	out, err := json.Marshal(rules)
	if err != nil {
		t.Fatal(err)
	}
	again := mustRules(t, string(out))
	if again.Fingerprint() != rules.Fingerprint() {
		t.Fatalf("rules changed after encoding: %s != %s", again.Fingerprint(), rules.Fingerprint())
	}
}
