// This file mimics `configparser.py`, as far as RawConfigParser's defaults:
// `=`/`:` delimiters, `#`/`;` comment lines, no inline comments, no
// interpolation, indentation-based continuation lines, strict duplicate
// handling, lowercased option names.  That is the dialect distutils and
// twine read ~/.pypirc with, which is all pypublish needs.

package python

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type Config map[string]ConfigSection

type ConfigSection map[string]string

//nolint:gochecknoglobals // Would be 'const'.
var (
	configDelimiters      = []string{"=", ":"}
	configCommentPrefixes = []string{"#", ";"}
)

// ParseConfig parses an INI-style document.
func ParseConfig(fp io.Reader) (Config, error) {
	config := make(Config)

	var (
		curIndentLevel int
		curSection     ConfigSection
		curKey         string
		curVal         []string
	)

	flushKV := func() {
		if curVal != nil {
			curSection[curKey] = strings.TrimRight(strings.Join(curVal, "\n"), "\n")
			curKey = ""
			curVal = nil
		}
	}

	fpLines := bufio.NewReader(fp)
	lineno := 0
	keepGoing := true
	for keepGoing {
		line, err := fpLines.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return nil, err
			}
			keepGoing = false
		}
		lineno++

		value := strings.TrimSpace(line)
		isComment := false
		for _, commentPrefix := range configCommentPrefixes {
			if strings.HasPrefix(value, commentPrefix) {
				isComment = true
				break
			}
		}
		if isComment {
			continue
		}
		if value == "" {
			// An empty line may be part of a multi-line value.
			if curVal != nil {
				curVal = append(curVal, value)
			}
			continue
		}

		lineIndentLevel := 0
		for i, r := range line {
			if !unicode.IsSpace(r) {
				lineIndentLevel = i
				break
			}
		}
		switch {
		case curVal != nil && lineIndentLevel > 0 && lineIndentLevel > curIndentLevel:
			// continuation line
			curVal = append(curVal, value)
		case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
			// section header
			flushKV()
			curIndentLevel = lineIndentLevel
			sectName := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
			if _, exists := config[sectName]; exists {
				return nil, fmt.Errorf("line %d: duplicate section name %q", lineno, sectName)
			}
			config[sectName] = make(ConfigSection)
			curSection = config[sectName]
		default:
			// start of a k/v pair
			flushKV()
			curIndentLevel = lineIndentLevel
			if curSection == nil {
				return nil, fmt.Errorf("line %d: no section header", lineno)
			}
			sepPos := len(value)
			sepLen := 0
			for _, sep := range configDelimiters {
				if index := strings.Index(value, sep); index >= 0 && index < sepPos {
					sepPos = index
					sepLen = len(sep)
				}
			}
			if sepPos == len(value) {
				return nil, fmt.Errorf("line %d: invalid line: %q", lineno, value)
			}
			curKey = strings.ToLower(strings.TrimSpace(value[:sepPos]))
			curVal = []string{
				strings.TrimSpace(value[sepPos+sepLen:]),
			}
			if _, exists := curSection[curKey]; exists {
				return nil, fmt.Errorf("line %d: duplicate option name %q", lineno, curKey)
			}
		}
	}
	flushKV()

	return config, nil
}
