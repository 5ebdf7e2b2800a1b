package main

import (
	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/rungsiman/pypublish/pkg/cliutil"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check [flags] DIST...",
		Short: "Validate distribution files locally",
		Long: "Open each distribution file and validate it without talking to any " +
			"index: the filename must parse, the embedded core metadata must " +
			"parse and pass validation, a wheel's WHEEL file must agree with " +
			"the filename, and its RECORD hashes must all match the archive " +
			"contents." +
			"\n\n" +
			"Every file is checked even after one fails; the exit status only " +
			"says whether all of them passed.",
		Args: cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, err := expandDistArgs(args)
			if err != nil {
				return err
			}
			var errs derror.MultiError
			for _, path := range paths {
				file, err := checkFile(path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				dlog.Infof(ctx, "%s: OK", file.Filename())
			}
			if len(errs) > 0 {
				return errs
			}
			return nil
		},
	}

	argparser.AddCommand(cmd)
}
