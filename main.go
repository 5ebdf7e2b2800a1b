// Command pypublish cleans, builds, checks, and uploads Python distribution
// packages; the traditional `rm -rf && setup.py && twine` release ritual as
// one tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rungsiman/pypublish/pkg/cliutil"
)

//nolint:gochecknoglobals // This is the cobra idiom.
var argparser = &cobra.Command{
	Use:   "pypublish {[flags]|SUBCOMMAND...}",
	Short: "Build and publish Python distribution packages",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if rootFlags.Debug {
			logger := logrus.New()
			logger.SetLevel(logrus.DebugLevel)
			dlog.SetFallbackLogger(dlog.WrapLogrus(logger))
		}
		if rootFlags.ProjectDir != "" {
			if err := os.Chdir(rootFlags.ProjectDir); err != nil {
				return err
			}
		}
		// A project-local .env may carry PYPUBLISH_* settings; no .env is
		// fine.
		_ = godotenv.Load()
		return nil
	},

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

//nolint:gochecknoglobals // Filled in by the persistent flags.
var rootFlags struct {
	ProjectDir string
	Debug      bool
}

func init() {
	argparser.PersistentFlags().StringVarP(&rootFlags.ProjectDir, "project-dir", "C", "",
		"Run as if pypublish had been started in `DIR`")
	argparser.PersistentFlags().BoolVar(&rootFlags.Debug, "debug", false,
		"Log debug-level detail")

	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
}

func main() {
	ctx := context.Background()

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
