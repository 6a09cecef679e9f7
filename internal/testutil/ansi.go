package testutil

import "regexp"

// ansiRegex matches CSI escape sequences emitted by lipgloss.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripANSI removes terminal styling so console output can be compared as text.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
