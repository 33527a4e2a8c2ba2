package module

import (
	"strconv"
	"strings"

	"github.com/warthog618/modem/info"
)

// ParseArgs splits the parameter part of a reply line on commas.
// Double quotes around a field are removed, and commas inside quotes
// do not split.
func ParseArgs(s string) []string {
	var (
		args   []string
		field  strings.Builder
		quoted bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			args = append(args, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	return append(args, field.String())
}

// ReplyArgs returns the parsed parameters of a "+XXX: a,b,c" line.
// ok is false if line is not a reply to cmd.
func ReplyArgs(line, cmd string) (args []string, ok bool) {
	if !info.HasPrefix(line, cmd) {
		return nil, false
	}
	return ParseArgs(info.TrimPrefix(line, cmd)), true
}

// Atoi parses a decimal field, tolerating surrounding spaces.
func Atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
