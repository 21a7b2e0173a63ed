//go:build !windows

package config

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/term"
)

// CleanFileName makes name usable as a single path element: separators and
// control characters are dropped, leading dots removed so output never
// becomes hidden.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym == os.PathSeparator || sym == os.PathListSeparator || unicode.IsControl(sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimLeft(strings.TrimSpace(out), ".")
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}

// IsHidden reports dot files and directories.
func IsHidden(path string) bool {
	return isDotName(filepath.Base(path))
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
