package cmd

import "testing"

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"java", "java"},
		{"-Xmx2048M", "-Xmx2048M"},
		{"", "''"},
		{"/home/some user/.minecraft", "'/home/some user/.minecraft'"},
		{"it's", `'it'\''s'`},
		{"{}", "'{}'"},
	}

	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
