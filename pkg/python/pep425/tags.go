// Package pep425 implements PEP 425 -- Compatibility Tags for Built
// Distributions.
//
// https://www.python.org/dev/peps/pep-0425/
package pep425

import (
	"fmt"
	"strings"
)

type Tag struct {
	Python   string
	ABI      string
	Platform string
}

// ParseTag parses a "{python}-{abi}-{platform}" tag, as found in wheel
// filenames and in a wheel's WHEEL file "Tag:" lines.
func ParseTag(str string) (*Tag, error) {
	parts := strings.Split(str, "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("pep425.ParseTag: invalid compatibility tag: %q", str)
	}
	return &Tag{
		Python:   parts[0],
		ABI:      parts[1],
		Platform: parts[2],
	}, nil
}

func (t Tag) String() string {
	return t.Python + "-" + t.ABI + "-" + t.Platform
}

// Decompress expands a compressed tag set ("py2.py3-none-any") in to the
// simple tags it stands for.
func (t Tag) Decompress() []Tag {
	var ret []Tag
	for _, x := range strings.Split(t.Python, ".") {
		for _, y := range strings.Split(t.ABI, ".") {
			for _, z := range strings.Split(t.Platform, ".") {
				ret = append(ret, Tag{x, y, z})
			}
		}
	}
	return ret
}
