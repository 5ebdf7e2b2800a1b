package pep440

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Ordering follows the "Summary of permitted suffixes and relative ordering"
// rules: within a release,
//
//	.devN < aN < bN < rcN < (final) < .postN
//
// and a local version sorts after its public version.

//nolint:gochecknoglobals // Would be 'const'.
var preReleaseOrder = map[string]int{
	"a":  0,
	"b":  1,
	"rc": 2,
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpRelease(a, b PublicVersion) int {
	n := len(a.Release)
	if len(b.Release) > n {
		n = len(b.Release)
	}
	for i := 0; i < n; i++ {
		if d := cmpInt(a.releaseSegment(i), b.releaseSegment(i)); d != 0 {
			return d
		}
	}
	return 0
}

// preKey ranks the pre-release segment: a bare .devN release sorts before
// any pre-release of the same version, and a final release after all of
// them.
func preKey(ver PublicVersion) (rank int, l int, n int) {
	switch {
	case ver.Pre == nil && ver.Post == nil && ver.Dev != nil:
		return -1, 0, 0
	case ver.Pre == nil:
		return 1, 0, 0
	default:
		return 0, preReleaseOrder[ver.Pre.L], ver.Pre.N
	}
}

func cmpPreRelease(a, b PublicVersion) int {
	aRank, aL, aN := preKey(a)
	bRank, bL, bN := preKey(b)
	if d := cmpInt(aRank, bRank); d != 0 {
		return d
	}
	if d := cmpInt(aL, bL); d != 0 {
		return d
	}
	return cmpInt(aN, bN)
}

func cmpPostRelease(a, b PublicVersion) int {
	switch {
	case a.Post == nil && b.Post == nil:
		return 0
	case a.Post == nil:
		return -1
	case b.Post == nil:
		return 1
	default:
		return cmpInt(*a.Post, *b.Post)
	}
}

func cmpDevRelease(a, b PublicVersion) int {
	switch {
	case a.Dev == nil && b.Dev == nil:
		return 0
	case a.Dev == nil:
		return 1
	case b.Dev == nil:
		return -1
	default:
		return cmpInt(*a.Dev, *b.Dev)
	}
}

// Cmp returns -1, 0, or 1 depending on whether a sorts before, equal to, or
// after b.
func (a PublicVersion) Cmp(b PublicVersion) int {
	if d := cmpInt(a.Epoch, b.Epoch); d != 0 {
		return d
	}
	if d := cmpRelease(a, b); d != 0 {
		return d
	}
	if d := cmpPreRelease(a, b); d != 0 {
		return d
	}
	if d := cmpPostRelease(a, b); d != 0 {
		return d
	}
	return cmpDevRelease(a, b)
}

// cmpLocalSegment compares one local segment: integer segments compare
// numerically and sort after alphanumeric ones.
func cmpLocalSegment(a, b intstr.IntOrString) int {
	switch {
	case a.Type == intstr.Int && b.Type == intstr.Int:
		return cmpInt(int(a.IntVal), int(b.IntVal))
	case a.Type == intstr.Int:
		return 1
	case b.Type == intstr.Int:
		return -1
	default:
		return strings.Compare(a.StrVal, b.StrVal)
	}
}

func cmpLocal(a, b LocalVersion) int {
	n := len(a.Local)
	if len(b.Local) < n {
		n = len(b.Local)
	}
	for i := 0; i < n; i++ {
		if d := cmpLocalSegment(a.Local[i], b.Local[i]); d != 0 {
			return d
		}
	}
	return cmpInt(len(a.Local), len(b.Local))
}

// Cmp returns -1, 0, or 1 depending on whether a sorts before, equal to, or
// after b.
func (a LocalVersion) Cmp(b LocalVersion) int {
	if d := a.PublicVersion.Cmp(b.PublicVersion); d != 0 {
		return d
	}
	return cmpLocal(a, b)
}
