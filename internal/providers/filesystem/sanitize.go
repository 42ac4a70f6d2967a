package filesystem

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	strictStrip     = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	permissiveStrip = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)

	windowsDeviceNames = map[string]struct{}{
		"CON": {}, "AUX": {}, "COM1": {}, "COM2": {}, "COM3": {}, "COM4": {},
		"LPT1": {}, "LPT2": {}, "LPT3": {}, "PRN": {}, "NUL": {},
	}
)

// StrictSanitize is the allow-list policy used for uploaded and generated
// file names. Letters are folded to ASCII, whitespace becomes underscores and
// anything outside [A-Za-z0-9_.-] is dropped. Leading and trailing dots and
// underscores are trimmed, so the result may be empty.
func StrictSanitize(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if r == '/' || r == '\\' {
			return ' '
		}
		return r
	}, name)

	name = strings.Join(strings.Fields(name), "_")
	name = strictStrip.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if _, reserved := windowsDeviceNames[strings.ToUpper(strings.SplitN(name, ".", 2)[0])]; reserved && name != "" {
		name = "_" + name
	}
	return name
}

// PermissiveSanitize is the deny-list policy used by rename. It removes path
// separators, control characters and the reserved set <>:"|?* while keeping
// spaces and other punctuation.
func PermissiveSanitize(name string) string {
	return strings.TrimSpace(permissiveStrip.ReplaceAllString(name, ""))
}

// validName reports whether a sanitized name can address a directory entry.
func validName(name string) bool {
	return name != "" && name != "." && name != ".."
}
