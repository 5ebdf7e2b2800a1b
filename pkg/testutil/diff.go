package testutil

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

func textDiff(exp, act string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(exp),
		B:        difflib.SplitLines(act),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	return diff
}

// AssertEqualText compares two multi-line strings, printing a unified diff
// rather than both strings in full when they disagree.
func AssertEqualText(t *testing.T, exp, act string) bool {
	t.Helper()
	if exp == act {
		return true
	}
	t.Errorf("Text diff:\n%s", textDiff(exp, act))
	return false
}

// AssertEqualObjects compares two values by their deep dumps, printing a
// unified diff of the dumps when they disagree.  Useful for structs that are
// too large for assert.Equal's one-line rendering to be readable.
func AssertEqualObjects(t *testing.T, exp, act interface{}) bool {
	t.Helper()

	spewConfig := spew.ConfigState{
		Indent:                  "  ",
		DisableMethods:          true,
		DisableCapacities:       true,
		DisablePointerAddresses: true,
		SortKeys:                true,
	}
	expStr := spewConfig.Sdump(exp)
	actStr := spewConfig.Sdump(act)
	if expStr == actStr {
		return true
	}
	t.Errorf("Object diff:\n%s", textDiff(expStr, actStr))
	return false
}
