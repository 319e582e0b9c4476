package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raysh454/owaspscan/internal/report"
)

type compareOptions struct {
	context  int
	format   string
	language string
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	var o compareOptions

	cmd := &cobra.Command{
		Use:   "compare [file|-]",
		Short: "Show the original code next to its secure rewrite",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(o.format, formatText, formatJSON); err != nil {
				return err
			}
			if o.context < 0 {
				return fmt.Errorf("--context must not be negative, got %d", o.context)
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			code, _, err := readSource(root.io.In, args)
			if err != nil {
				return err
			}
			result, _, err := analyzeSource(root, cfg, code, o.language)
			if err != nil {
				return err
			}

			cmp := report.Compare(code, result.SecureCode, result.Vulnerabilities, o.context)
			if o.format == formatJSON {
				return report.WriteJSON(root.io.Out, cmp)
			}
			return report.WriteComparison(root.io.Out, cmp)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&o.context, "context", "C", report.DefaultContextLines, "Unchanged lines shown around each finding")
	f.StringVarP(&o.format, "format", "f", formatText, "Output format: text|json")
	f.StringVarP(&o.language, "language", "l", "", "Language label, skipping detection")
	return cmd
}
