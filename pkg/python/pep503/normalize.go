// Package pep503 implements the naming rules of PEP 503 -- Simple Repository
// API.
//
// https://www.python.org/dev/peps/pep-0503/
package pep503

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

//nolint:gochecknoglobals // Would be 'const'.
var reNameSeparators = regexp.MustCompile("[-_.]+")

// NormalizeName normalizes a project name: lowercased, with runs of `-`, `_`,
// and `.` replaced by a single `-`.  Index URLs, and comparisons between
// names from different sources, must use the normalized form.
func NormalizeName(name string) string {
	return strings.ToLower(reNameSeparators.ReplaceAllLiteralString(name, "-"))
}

// CheckName verifies that a string is a legal project name: ASCII letters,
// ASCII digits, and interior `.`, `-`, or `_` separators, beginning and
// ending with a letter or digit.
func CheckName(name string) error {
	if name == "" {
		return fmt.Errorf("empty project name")
	}
	for _, char := range name {
		if !(isAlnum(char) ||
			char == '.' ||
			char == '-' ||
			char == '_') {
			return fmt.Errorf("illegal character in project name: %q: %s",
				name, strconv.QuoteRuneToASCII(char))
		}
	}
	if !isAlnum(rune(name[0])) || !isAlnum(rune(name[len(name)-1])) {
		return fmt.Errorf("project name must start and end with a letter or digit: %q", name)
	}
	return nil
}

func isAlnum(char rune) bool {
	return ('a' <= char && char <= 'z') ||
		('A' <= char && char <= 'Z') ||
		('0' <= char && char <= '9')
}
