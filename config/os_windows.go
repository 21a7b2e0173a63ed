//go:build windows

package config

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

// names which refer to devices regardless of extension
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// CleanFileName makes name usable as a single path element: characters
// Windows does not allow are dropped, trailing dots and spaces removed and
// device names prefixed.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(`<>":/\|?*`+string(os.PathListSeparator), sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimRight(strings.TrimLeft(strings.TrimSpace(out), "."), ". ")
	if len(out) == 0 {
		return "_bad_file_name_"
	}
	if stem, _, _ := strings.Cut(out, "."); reservedNames[strings.ToUpper(stem)] {
		out = "_" + out
	}
	return out
}

// IsHidden reports dot files and directories as well as ones with hidden
// attribute set.
func IsHidden(path string) bool {
	if isDotName(filepath.Base(path)) {
		return true
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}

// first Windows 10 build with virtual terminal sequences in console
const vtBuild = 10586

// EnableColorOutput checks if colorized output is possible and
// enables proper VT100 sequence processing in Windows console.
func EnableColorOutput(stream *os.File) bool {
	if v := windows.RtlGetVersion(); v.MajorVersion < 10 || v.BuildNumber < vtBuild {
		return false
	}
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}

	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
