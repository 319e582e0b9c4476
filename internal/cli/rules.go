package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/report"
	"github.com/raysh454/owaspscan/internal/rules"
)

func newRulesCmd(root *rootOptions) *cobra.Command {
	var (
		language string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the detection rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			var lang model.Language
			if language != "" {
				l, ok := model.ParseLanguage(language)
				if !ok {
					return fmt.Errorf("unknown language %q", language)
				}
				lang = l
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := rules.Default(rules.WithDisabled(cfg.Engine.DisabledRules...))
			if err != nil {
				return err
			}

			infos := catalog.Describe(lang)
			if format == formatJSON {
				return report.WriteJSON(root.io.Out, infos)
			}

			w := tabwriter.NewWriter(root.io.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tSEVERITY\tLANGUAGES\tTYPE")
			for _, info := range infos {
				langs := "all"
				if len(info.Languages) > 0 {
					names := make([]string, len(info.Languages))
					for i, l := range info.Languages {
						names[i] = string(l)
					}
					langs = strings.Join(names, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", info.ID, info.Category, info.Severity, langs, info.Type)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Only rules that apply to this language")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text|json")
	return cmd
}
