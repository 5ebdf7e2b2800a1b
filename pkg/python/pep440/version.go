// Package pep440 implements PEP 440 -- Version Identification and Dependency
// Specification.
//
// https://www.python.org/dev/peps/pep-0440/
//
// Only the version scheme itself is implemented (parsing, normalization, and
// ordering); pypublish never evaluates version specifiers, so the specifier
// algebra is out of scope.
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// A Version is a local version identifier: a public version identifier plus
// an optional "+local" segment.  Public-only versions simply have an empty
// Local.
type Version = LocalVersion

// PublicVersion is the "[N!]N(.N)*[{a|b|rc}N][.postN][.devN]" part of a
// version identifier.
type PublicVersion struct {
	// Epoch segment: "N!"; 0 when absent.
	Epoch int
	// Release segment: "N(.N)*".
	Release []int
	// Pre-release segment: "{a|b|rc}N"; nil when absent.
	Pre *PreRelease
	// Post-release segment: ".postN"; nil when absent.
	Post *int
	// Development release segment: ".devN"; nil when absent.
	Dev *int
}

// PreRelease is a pre-release segment; L is one of "a", "b", or "rc" after
// normalization.
type PreRelease struct {
	L string
	N int
}

// LocalVersion is a PublicVersion plus the optional local segment; local
// segments are a dot-separated mix of integer and alphanumeric parts.
type LocalVersion struct {
	PublicVersion
	Local []intstr.IntOrString
}

// The pattern is PEP 440 "Appendix B: Parsing version strings with regular
// expressions", with the alternations reordered longest-first.
//
//nolint:gochecknoglobals // Would be 'const'.
var reVersion = regexp.MustCompile(`(?i)^v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?:[-_.]?(?P<preL>alpha|beta|preview|pre|rc|a|b|c)[-_.]?(?P<preN>[0-9]+)?)?` +
	`(?:(?:-(?P<postN1>[0-9]+))|(?:[-_.]?(?P<postL>post|rev|r)[-_.]?(?P<postN2>[0-9]+)?))?` +
	`(?:[-_.]?(?P<devL>dev)[-_.]?(?P<devN>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?` +
	`$`)

// ParseVersion parses a version string, performing PEP 440 normalization
// (case folding, alternate spellings, implicit zeroes).
func ParseVersion(str string) (*Version, error) {
	match := reVersion.FindStringSubmatch(strings.TrimSpace(str))
	if match == nil {
		return nil, fmt.Errorf("pep440.ParseVersion: invalid version: %q", str)
	}
	group := func(name string) string {
		return match[reVersion.SubexpIndex(name)]
	}

	var ver Version

	if epoch := group("epoch"); epoch != "" {
		n, err := strconv.Atoi(epoch)
		if err != nil {
			return nil, fmt.Errorf("pep440.ParseVersion: %q: %w", str, err)
		}
		ver.Epoch = n
	}

	for _, segStr := range strings.Split(group("release"), ".") {
		seg, err := strconv.Atoi(segStr)
		if err != nil {
			return nil, fmt.Errorf("pep440.ParseVersion: %q: %w", str, err)
		}
		ver.Release = append(ver.Release, seg)
	}

	if preL := strings.ToLower(group("preL")); preL != "" {
		switch preL {
		case "alpha":
			preL = "a"
		case "beta":
			preL = "b"
		case "c", "pre", "preview":
			preL = "rc"
		}
		ver.Pre = &PreRelease{
			L: preL,
			N: atoiOrZero(group("preN")),
		}
	}

	switch {
	case group("postN1") != "":
		n := atoiOrZero(group("postN1"))
		ver.Post = &n
	case group("postL") != "":
		n := atoiOrZero(group("postN2"))
		ver.Post = &n
	}

	if group("devL") != "" {
		n := atoiOrZero(group("devN"))
		ver.Dev = &n
	}

	if local := strings.ToLower(group("local")); local != "" {
		for _, segStr := range strings.FieldsFunc(local, func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		}) {
			if n, err := strconv.Atoi(segStr); err == nil {
				ver.Local = append(ver.Local, intstr.FromInt32(int32(n)))
			} else {
				ver.Local = append(ver.Local, intstr.FromString(segStr))
			}
		}
	}

	return &ver, nil
}

// atoiOrZero parses an implicitly-zero number: pre/post/dev segments with no
// digits mean 0.
func atoiOrZero(str string) int {
	n, _ := strconv.Atoi(str)
	return n
}

// String renders the canonical (normalized) form of the version.
func (ver PublicVersion) String() string {
	var ret strings.Builder
	ver.writeTo(&ret)
	return ret.String()
}

func (ver PublicVersion) writeTo(ret *strings.Builder) {
	if ver.Epoch > 0 {
		fmt.Fprintf(ret, "%d!", ver.Epoch)
	}
	for i, segment := range ver.Release {
		if i > 0 {
			ret.WriteByte('.')
		}
		fmt.Fprintf(ret, "%d", segment)
	}
	if ver.Pre != nil {
		fmt.Fprintf(ret, "%s%d", ver.Pre.L, ver.Pre.N)
	}
	if ver.Post != nil {
		fmt.Fprintf(ret, ".post%d", *ver.Post)
	}
	if ver.Dev != nil {
		fmt.Fprintf(ret, ".dev%d", *ver.Dev)
	}
}

// String renders the canonical (normalized) form of the version.
func (ver LocalVersion) String() string {
	var ret strings.Builder
	ver.PublicVersion.writeTo(&ret)
	for i, segment := range ver.Local {
		if i == 0 {
			ret.WriteByte('+')
		} else {
			ret.WriteByte('.')
		}
		ret.WriteString(segment.String())
	}
	return ret.String()
}

// releaseSegment returns the n'th release segment, with missing trailing
// segments reading as zero ("1.0" and "1.0.0" agree everywhere).
func (ver PublicVersion) releaseSegment(n int) int {
	if n >= len(ver.Release) {
		return 0
	}
	return ver.Release[n]
}

func (ver PublicVersion) Major() int { return ver.releaseSegment(0) }
func (ver PublicVersion) Minor() int { return ver.releaseSegment(1) }
func (ver PublicVersion) Micro() int { return ver.releaseSegment(2) }

// IsPreRelease reports whether the version is a pre-release or developmental
// release; indexes usually hide these unless asked.
func (ver PublicVersion) IsPreRelease() bool {
	return ver.Pre != nil || ver.Dev != nil
}

// IsFinal reports whether the version is a final release: no pre, post, dev,
// or (for LocalVersion) local segment.
func (ver PublicVersion) IsFinal() bool {
	return ver.Pre == nil && ver.Post == nil && ver.Dev == nil
}

func (ver LocalVersion) IsFinal() bool {
	return ver.PublicVersion.IsFinal() && len(ver.Local) == 0
}
