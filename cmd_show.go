package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/rungsiman/pypublish/pkg/cliutil"
	"github.com/rungsiman/pypublish/pkg/python"
	"github.com/rungsiman/pypublish/pkg/python/dist"
)

// distInfo is the YAML document `pypublish show` emits per file.
type distInfo struct {
	Filename  string
	Kind      string
	Name      string
	Version   string
	PyVersion string
	Tag       string `yaml:"tag,omitempty"`
	Size      int64
	Digests   python.DigestSet
	// Metadata holds the core metadata flattened to the upload API's form
	// field names; multi-use fields are lists.
	Metadata map[string]interface{}
}

func newDistInfo(file *dist.File) (*distInfo, error) {
	size, err := file.Size()
	if err != nil {
		return nil, err
	}
	digests, err := file.Digests("md5", "sha256", python.Blake2_256)
	if err != nil {
		return nil, err
	}
	info := &distInfo{
		Filename:  file.Filename(),
		Kind:      string(file.Kind),
		Name:      file.Name,
		Version:   file.Version.String(),
		PyVersion: file.PyVersion,
		Size:      size,
		Digests:   digests,
		Metadata:  make(map[string]interface{}),
	}
	if file.Tag != nil {
		info.Tag = file.Tag.String()
	}
	for key, vals := range file.Metadata.ToForm() {
		if len(vals) == 1 {
			info.Metadata[key] = vals[0]
		} else {
			info.Metadata[key] = vals
		}
	}
	return info, nil
}

func init() {
	cmd := &cobra.Command{
		Use:   "show [flags] DIST... >INFO.yml",
		Short: "Dump distribution file metadata as YAML",
		Long: "Parse distribution files and dump what an upload would tell the " +
			"index about them: name, version, kind, compatibility tag, content " +
			"digests, and the embedded core metadata.  One YAML document per " +
			"file, on stdout.",
		Args: cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandDistArgs(args)
			if err != nil {
				return err
			}
			for i, path := range paths {
				file, err := dist.Open(path)
				if err != nil {
					return err
				}
				info, err := newDistInfo(file)
				if err != nil {
					return err
				}
				bs, err := yaml.Marshal(info)
				if err != nil {
					return err
				}
				if i > 0 {
					if _, err := os.Stdout.WriteString("---\n"); err != nil {
						return err
					}
				}
				if _, err := os.Stdout.Write(bs); err != nil {
					return err
				}
			}
			return nil
		},
	}

	argparser.AddCommand(cmd)
}
