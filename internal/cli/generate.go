package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/glorpus-work/formula/pkg/cache"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/formula"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the command that generates a formula for a published release.
func NewGenerateCmd() *cobra.Command {
	var (
		opts   formula.GenerateOptions
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a formula for a release tag",
		Long: `Generate a formula for a published release. The artifact URLs are derived
from the homepage and the tag, and their checksums are read from the
".sha256" files published next to each archive.

The tag may be a git ref such as refs/tags/v0.9.0; when --tag is omitted the
GITHUB_REF environment variable is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Tag == "" {
				opts.Tag = os.Getenv(refEnv)
			}
			if opts.Tag == "" {
				return fmt.Errorf("no tag given and %s is not set: %w", refEnv, errors.ErrInvalidTag)
			}
			fmtName, err := formula.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if opts.CacheDir, err = cacheDir(cfg, cache.ChecksumsDir); err != nil {
				return err
			}

			// --homepage is operator input, so its host may receive the token
			gen := &formula.Generator{DL: newDownloadManager(cfg, hostOf(opts.Homepage))}
			rel, err := gen.Generate(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to generate formula: %w", err)
			}

			f := &formula.Formula{Release: rel}
			return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
				return formula.Render(w, f, fmtName)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Release tag or git ref (defaults to $GITHUB_REF)")
	cmd.Flags().StringVar(&opts.Homepage, "homepage", formula.DefaultHomepage, "Project homepage hosting the releases")
	cmd.Flags().StringVar(&opts.Name, "name", formula.DefaultName, "Formula name")
	cmd.Flags().StringVar(&opts.Desc, "desc", formula.DefaultDesc, "One-line description")
	cmd.Flags().StringVar(&opts.Binary, "binary", "", "Binary name (defaults to pacaptr)")
	cmd.Flags().StringVar(&opts.MacArchive, "mac-archive", formula.DefaultMacArchive, "macOS release asset")
	cmd.Flags().StringVar(&opts.LinuxArchive, "linux-archive", formula.DefaultLinuxArchive, "Linux release asset")
	cmd.Flags().StringVar(&format, "format", string(formula.FormatBrew), "Output format: brew, yaml or go")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
