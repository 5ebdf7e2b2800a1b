// Copyright (C) 2025-2026  Rungsiman Nararatwong
//
// SPDX-License-Identifier: BSD-3-Clause

package cliutil_test

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/rungsiman/pypublish/pkg/cliutil"
)

//nolint:paralleltest // can't use .Parallel() with .Setenv()
func TestHelpTemplate(t *testing.T) {
	t.Setenv("COLUMNS", "80")
	noopRunE := func(_ *cobra.Command, _ []string) error {
		return nil
	}
	addFlags := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().StringP("repository", "r", "", "Use `NAME` from ~/.pypirc for the "+
			"upload endpoint and credentials instead of pypi")
		cmd.Flags().BoolP("skip-existing", "s", false, "Skip files that the index already has")
		return cmd
	}
	type testcase struct {
		InputCmd     *cobra.Command
		ExpectedHelp string
	}
	testcases := map[string]testcase{
		"basic": {
			InputCmd: addFlags(&cobra.Command{
				Use:   "pypub [flags] PROJECT_DIR",
				Args:  cobra.ExactArgs(1),
				Short: "Build and publish Python distributions",
				Long: "Cleans old build artifacts, runs the build tool, and uploads " +
					"the results.  This paragraph is long enough that it has to " +
					"be word-wrapped.",
				RunE: noopRunE,
			}),
			ExpectedHelp: "" +
				// 0      1         2         3         4         5         6         7         8
				// 345678901234567890123456789012345678901234567890123456789012345678901234567890
				//                                                                          \n"  \n"
				"Usage: pypub [flags] PROJECT_DIR\n" +
				"Build and publish Python distributions\n" +
				"\n" +
				"Cleans old build artifacts, runs the build tool, and uploads the results.\n" +
				"This paragraph is long enough that it has to be word-wrapped.\n" +
				"\n" +
				"Flags:\n" +
				"  -r, --repository NAME   Use NAME from ~/.pypirc for the upload endpoint\n" +
				"                          and credentials instead of pypi\n" +
				"  -s, --skip-existing     Skip files that the index already has\n" +
				"",
		},
		"no-short": {
			InputCmd: addFlags(&cobra.Command{
				Use:  "pypub [flags] PROJECT_DIR",
				Args: cobra.ExactArgs(1),
				Long: "Cleans old build artifacts, runs the build tool, and uploads " +
					"the results.  This paragraph is long enough that it has to " +
					"be word-wrapped.",
				RunE: noopRunE,
			}),
			ExpectedHelp: "" +
				// 0      1         2         3         4         5         6         7         8
				// 345678901234567890123456789012345678901234567890123456789012345678901234567890
				//                                                                          \n"  \n"
				"Usage: pypub [flags] PROJECT_DIR\n" +
				"\n" +
				"Cleans old build artifacts, runs the build tool, and uploads the results.\n" +
				"This paragraph is long enough that it has to be word-wrapped.\n" +
				"\n" +
				"Flags:\n" +
				"  -r, --repository NAME   Use NAME from ~/.pypirc for the upload endpoint\n" +
				"                          and credentials instead of pypi\n" +
				"  -s, --skip-existing     Skip files that the index already has\n" +
				"",
		},
		"no-long": {
			InputCmd: addFlags(&cobra.Command{
				Use:   "pypub [flags] PROJECT_DIR",
				Args:  cobra.ExactArgs(1),
				Short: "Build and publish Python distributions",
				RunE:  noopRunE,
			}),
			ExpectedHelp: "" +
				// 0      1         2         3         4         5         6         7         8
				// 345678901234567890123456789012345678901234567890123456789012345678901234567890
				//                                                                          \n"  \n"
				"Usage: pypub [flags] PROJECT_DIR\n" +
				"Build and publish Python distributions\n" +
				"\n" +
				"Flags:\n" +
				"  -r, --repository NAME   Use NAME from ~/.pypirc for the upload endpoint\n" +
				"                          and credentials instead of pypi\n" +
				"  -s, --skip-existing     Skip files that the index already has\n" +
				"",
		},
		"subcommandWrap": {
			InputCmd: func() *cobra.Command {
				cmd := addFlags(&cobra.Command{
					Use:   "pypub [flags] SUBCOMMAND...",
					Args:  cobra.ExactArgs(1),
					Short: "Build and publish Python distributions",
					Long: "Cleans old build artifacts, runs the build tool, and uploads " +
						"the results.  This paragraph is long enough that it has to " +
						"be word-wrapped.",
					RunE: noopRunE,
				})
				cmd.AddCommand(&cobra.Command{
					Use:   "upload [flags] DIST...",
					Args:  cobra.MinimumNArgs(1),
					Short: "Upload distribution files to a package index, after checking them",
					RunE:  noopRunE,
				})
				return cmd
			}(),
			ExpectedHelp: "" +
				// 0      1         2         3         4         5         6         7         8
				// 345678901234567890123456789012345678901234567890123456789012345678901234567890
				//                                                                         \n"   \n"
				"Usage: pypub [flags] SUBCOMMAND...\n" +
				"Build and publish Python distributions\n" +
				"\n" +
				"Cleans old build artifacts, runs the build tool, and uploads the results.\n" +
				"This paragraph is long enough that it has to be word-wrapped.\n" +
				"\n" +
				"Available Commands:\n" +
				"  upload        Upload distribution files to a package index, after\n" +
				"                checking them\n" +
				"\n" +
				"Flags:\n" +
				"  -r, --repository NAME   Use NAME from ~/.pypirc for the upload endpoint\n" +
				"                          and credentials instead of pypi\n" +
				"  -s, --skip-existing     Skip files that the index already has\n" +
				"\n" +
				"Use \"pypub [command] --help\" for more information about a command.\n" +
				"",
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			tcData.InputCmd.SetHelpTemplate(cliutil.HelpTemplate)

			var out strings.Builder
			tcData.InputCmd.SetOut(&out)
			tcData.InputCmd.HelpFunc()(tcData.InputCmd, []string{"--help"})

			assert.Equal(t, tcData.ExpectedHelp, out.String())
		})
	}
}
