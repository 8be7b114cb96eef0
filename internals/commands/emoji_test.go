package commands

import "testing"

func TestDetectEmojiSupport(t *testing.T) {
	tests := []struct {
		name string
		goos string
		env  map[string]string
		want bool
	}{
		{"linux", "linux", nil, true},
		{"darwin", "darwin", map[string]string{"SESSIONNAME": "Console"}, true},
		{"conhost", "windows", map[string]string{"SESSIONNAME": "Console"}, false},
		{"windows terminal", "windows", map[string]string{"SESSIONNAME": "Console", "WT_SESSION": "abc"}, true},
		{"vscode", "windows", map[string]string{"SESSIONNAME": "Console", "TERM_PROGRAM": "vscode"}, true},
		{"ssh", "windows", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string { return tt.env[key] }
			if got := detectEmojiSupport(tt.goos, getenv); got != tt.want {
				t.Errorf("detectEmojiSupport() = %v, want %v", got, tt.want)
			}
		})
	}
}
