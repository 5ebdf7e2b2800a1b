package python_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungsiman/pypublish/pkg/python"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`# comment at the top`,
		`[distutils]`,
		`index-servers =`,
		`    pypi`,
		`    testpypi`,
		``,
		`[pypi]`,
		`repository = https://upload.pypi.org/legacy/`,
		`Username = __token__`,
		`password: pypi-AgEIcHlwaS5vcmc`,
		`; a ";" comment`,
		``,
		`[testpypi]`,
		`description = first`,
		``,
		`    second`,
		``,
	}, "\n")

	config, err := python.ParseConfig(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, python.Config{
		"distutils": python.ConfigSection{
			// RawConfigParser keeps the newline in front of the first
			// continuation line when the value starts out empty.
			"index-servers": "\npypi\ntestpypi",
		},
		"pypi": python.ConfigSection{
			"repository": "https://upload.pypi.org/legacy/",
			"username":   "__token__",
			"password":   "pypi-AgEIcHlwaS5vcmc",
		},
		"testpypi": python.ConfigSection{
			"description": "first\n\nsecond",
		},
	}, config)
}

func TestParseConfigErrors(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		"no-section":        "key = val\n",
		"no-delimiter":      "[sect]\njust some words\n",
		"duplicate-section": "[sect]\n[sect]\n",
		"duplicate-option":  "[sect]\nkey = a\nkey = b\n",
	}
	for tcName, tcInput := range testcases {
		tcInput := tcInput
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			_, err := python.ParseConfig(strings.NewReader(tcInput))
			assert.Error(t, err)
		})
	}
}

func TestParseConfigNoTrailingNewline(t *testing.T) {
	t.Parallel()
	config, err := python.ParseConfig(strings.NewReader("[server-login]\nusername = alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice", config["server-login"]["username"])
}
