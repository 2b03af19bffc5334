package cli

import (
	"io"

	"github.com/glorpus-work/formula/pkg/formula"
	"github.com/spf13/cobra"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	var (
		formulaPath string
		format      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a formula descriptor",
		Long: `Render a formula descriptor as a Homebrew formula (brew), a descriptor
file (yaml) or the Go source of the built-in release (go).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtName, err := formula.ParseFormat(format)
			if err != nil {
				return err
			}
			f, err := loadFormula(formulaPath)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, func(w io.Writer) error {
				return formula.Render(w, f, fmtName)
			})
		},
	}

	cmd.Flags().StringVarP(&formulaPath, "formula", "f", "", "Formula descriptor (defaults to the built-in release)")
	cmd.Flags().StringVar(&format, "format", string(formula.FormatBrew), "Output format: brew, yaml or go")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
