package config

import "strings"

func isDotName(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}
