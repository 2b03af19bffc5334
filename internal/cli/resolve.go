package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	var (
		formulaPath string
		osOverride  string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the artifact selected for a platform",
		Long: `Resolve the formula for the host platform (or --os) and print the
download location and SHA-256 checksum that an install would use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, formulaPath, osOverride)
		},
	}

	cmd.Flags().StringVarP(&formulaPath, "formula", "f", "", "Formula descriptor (defaults to the built-in release)")
	cmd.Flags().StringVar(&osOverride, "os", "", "Resolve for this operating system instead of the host")

	return cmd
}

func runResolve(cmd *cobra.Command, formulaPath, osOverride string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := loadFormula(formulaPath)
	if err != nil {
		return err
	}

	family := selectPlatform(cmd.Context(), cfg, osOverride)
	artifact, err := f.Release.Resolve(family, cfg.Settings.UnsupportedPlatform)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintf(tabWriter, "name\t%s\n", f.Release.Name())
	_, _ = fmt.Fprintf(tabWriter, "version\t%s\n", f.Release.Version())
	_, _ = fmt.Fprintf(tabWriter, "platform\t%s\n", family)
	_, _ = fmt.Fprintf(tabWriter, "url\t%s\n", artifact.URL())
	_, _ = fmt.Fprintf(tabWriter, "sha256\t%s\n", artifact.Checksum())
	if artifact.Signed() {
		_, _ = fmt.Fprintf(tabWriter, "signature\t%s\n", artifact.SignatureURL())
	}
	return tabWriter.Flush()
}
