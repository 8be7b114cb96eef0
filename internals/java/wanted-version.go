package java

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minepkg/launchcore/internals/minecraft"
)

// components by java major version
var components = map[int]string{
	8:  "jre-legacy",
	16: "java-runtime-alpha",
	17: "java-runtime-gamma",
	21: "java-runtime-delta",
}

// WantedComponent returns the runtime component for a user supplied version.
// It can be a major version ("17") or a component name ("java-runtime-gamma").
// An empty string returns the component the manifest wants (m may be nil).
func WantedComponent(s string, m *minecraft.LaunchManifest) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if m == nil {
			return minecraft.DefaultJavaVersion.Component, nil
		}
		return m.Java().Component, nil
	}

	if v, err := strconv.Atoi(s); err == nil {
		component, ok := components[v]
		if !ok {
			return "", fmt.Errorf("%w: no runtime for java %d", ErrInvalidVersionString, v)
		}
		return component, nil
	}

	if s == "jre-legacy" || strings.HasPrefix(s, "java-runtime-") || s == "minecraft-java-exe" {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVersionString, s)
}
