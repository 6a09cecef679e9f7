package process

import (
	"path/filepath"
	"strings"
)

// sameCommand reports whether argv, as read back from the operating system,
// is the command recorded in e. The executable may show up as the recorded
// path or its base name. An entry without a command never matches.
func (e Entry) sameCommand(argv []string) bool {
	if e.Command == "" || len(argv) == 0 {
		return false
	}
	// ps only reports a space-joined line, so compare whitespace-split words
	want := strings.Fields(strings.Join(append([]string{e.Command}, e.Args...), " "))
	got := strings.Fields(strings.Join(argv, " "))
	if len(want) != len(got) {
		return false
	}
	if got[0] != want[0] && filepath.Base(got[0]) != filepath.Base(want[0]) {
		return false
	}
	for i := 1; i < len(want); i++ {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
