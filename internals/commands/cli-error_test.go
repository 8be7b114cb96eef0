package commands

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCliError_RichError(t *testing.T) {
	err := &CliError{
		Text:        "no version given",
		Help:        "the version list could not be loaded",
		Suggestions: []string{"Run \"launchcore versions\""},
	}

	rendered := err.RichError()
	for _, want := range []string{"no version given", "the version list could not be loaded", "Suggestion:", "launchcore versions"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("RichError() does not contain %q:\n%s", want, rendered)
		}
	}
}

func TestCliError_As(t *testing.T) {
	var err error = fmt.Errorf("prepare: %w", &CliError{Text: "broken"})

	var cliErr *CliError
	if !errors.As(err, &cliErr) {
		t.Fatal("errors.As did not find the CliError")
	}
	if cliErr.Error() != "broken" {
		t.Errorf("Error() = %q", cliErr.Error())
	}
}

func TestPrintError(t *testing.T) {
	buf := &strings.Builder{}
	PrintError(buf, &CliError{Text: "version not found", Code: "version-not-found"})
	if !strings.Contains(buf.String(), "error code: version-not-found") {
		t.Errorf("code missing in:\n%s", buf.String())
	}

	buf.Reset()
	PrintError(buf, errors.New("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") || strings.Contains(buf.String(), "error code") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
