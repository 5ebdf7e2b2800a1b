package cliutil

import (
	"strings"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

func isLineSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func wrap(indent, width int, text string) string {
	if width <= 0 {
		return text
	}
	budget := width - 5 - indent
	if budget < 1 {
		budget = 1
	}

	var out strings.Builder
	first := true
	emit := func(line string) {
		if !first {
			out.WriteByte('\n')
			if line != "" {
				out.WriteString(strings.Repeat(" ", indent))
			}
		}
		out.WriteString(line)
		first = false
	}

	for _, inLine := range strings.Split(text, "\n") {
		cur := ""
		pos := 0
		for pos < len(inLine) {
			sepStart := pos
			for pos < len(inLine) && isLineSpace(inLine[pos]) {
				pos++
			}
			sep := inLine[sepStart:pos]
			wordStart := pos
			for pos < len(inLine) && !isLineSpace(inLine[pos]) {
				pos++
			}
			word := inLine[wordStart:pos]
			if word == "" {
				// trailing whitespace
				break
			}
			switch {
			case cur == "":
				// Never break mid-word, even an over-budget one; and
				// preserve any leading whitespace the input line had.
				cur = sep + word
			case len(cur)+len(sep)+len(word) < budget:
				// The separator is kept as-is, so that deliberate spacing
				// ("two  spaces  between  sentences") survives rewrapping.
				cur += sep + word
			default:
				emit(cur)
				cur = word
			}
		}
		emit(cur)
	}
	return out.String()
}
