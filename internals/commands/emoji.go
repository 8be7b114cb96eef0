package commands

import (
	"os"
	"runtime"
)

// EmojiEnabled can be set to false to never print emoji (--no-color, CI)
var EmojiEnabled = true

var emojiSupport = detectEmojiSupport(runtime.GOOS, os.Getenv)

// detectEmojiSupport guesses if the terminal can render emoji.
// Only the legacy windows console can not
func detectEmojiSupport(goos string, getenv func(string) string) bool {
	if goos != "windows" {
		return true
	}
	// windows terminal and vscode render them fine
	if getenv("WT_SESSION") != "" || getenv("TERM_PROGRAM") == "vscode" {
		return true
	}
	// cmd and powershell in conhost set SESSIONNAME
	return getenv("SESSIONNAME") == ""
}

// EmojiSupported reports if the terminal (probably) renders emoji
func EmojiSupported() bool {
	return emojiSupport
}

// Emoji returns e if emoji are supported and enabled, an empty string otherwise
func Emoji(e string) string {
	if emojiSupport && EmojiEnabled {
		return e
	}
	return ""
}
