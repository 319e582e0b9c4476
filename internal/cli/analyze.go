package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raysh454/owaspscan/internal/config"
	"github.com/raysh454/owaspscan/internal/engine"
	"github.com/raysh454/owaspscan/internal/model"
	"github.com/raysh454/owaspscan/internal/report"
)

// ErrEmptyInput is returned when the source to analyze is blank.
var ErrEmptyInput = errors.New("no code to analyze")

const (
	formatText  = "text"
	formatJSON  = "json"
	formatSARIF = "sarif"
)

type analyzeOptions struct {
	format    string
	language  string
	output    string
	noColor   bool
	failOn    string
	secureOut string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var o analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a file (or stdin) and report OWASP Top 10 findings",
		Example: `  owaspscan analyze app/login.py
  cat handler.js | owaspscan analyze --format sarif > results.sarif
  owaspscan analyze --fail-on high --secure-out fixed.php index.php`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(root, &o, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.format, "format", "f", formatText, "Output format: text|json|sarif")
	f.StringVarP(&o.language, "language", "l", "", "Language label, skipping detection")
	f.StringVarP(&o.output, "output", "o", "", "Write the report to this file instead of stdout")
	f.BoolVar(&o.noColor, "no-color", false, "Disable terminal styling")
	f.StringVar(&o.failOn, "fail-on", "", "Exit with status 2 when a finding is at or above this severity")
	f.StringVar(&o.secureOut, "secure-out", "", "Write the secure rewrite to this file")
	return cmd
}

func runAnalyze(root *rootOptions, o *analyzeOptions, args []string) error {
	if err := checkFormat(o.format, formatText, formatJSON, formatSARIF); err != nil {
		return err
	}
	var threshold model.Severity
	if o.failOn != "" {
		s, ok := model.ParseSeverity(o.failOn)
		if !ok {
			return fmt.Errorf("--fail-on %q is not one of critical, high, medium, low", o.failOn)
		}
		threshold = s
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	code, source, err := readSource(root.io.In, args)
	if err != nil {
		return err
	}
	result, eng, err := analyzeSource(root, cfg, code, o.language)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(root.io.Out, o.output)
	if err != nil {
		return err
	}
	defer closeOut()

	switch o.format {
	case formatJSON:
		err = report.WriteJSON(out, result)
	case formatSARIF:
		err = report.WriteSARIF(out, result, source, eng.Catalog())
	default:
		err = report.WriteText(out, result, report.TextOptions{
			Color:  !o.noColor && o.output == "",
			Source: source,
		})
	}
	if err != nil {
		return err
	}

	if o.secureOut != "" {
		if err := os.WriteFile(o.secureOut, []byte(result.SecureCode), 0o644); err != nil {
			return fmt.Errorf("writing secure code: %w", err)
		}
	}

	if threshold != "" && result.MaxSeverity().AtLeast(threshold) {
		return &ExitError{
			Code:   2,
			Reason: fmt.Sprintf("found %s severity issues (fail-on %s)",
				strings.ToLower(string(result.MaxSeverity())), strings.ToLower(string(threshold))),
		}
	}
	return nil
}

// analyzeSource builds an engine from cfg and analyzes code, honouring an
// explicit language label.
func analyzeSource(root *rootOptions, cfg *config.Config, code, language string) (model.AnalysisResult, *engine.Engine, error) {
	eng, err := engine.New(cfg.Engine, nil, root.logger(cfg))
	if err != nil {
		return model.AnalysisResult{}, nil, err
	}
	if language == "" {
		return eng.Analyze(code), eng, nil
	}
	lang, ok := model.ParseLanguage(language)
	if !ok {
		return model.AnalysisResult{}, nil, fmt.Errorf("unknown language %q", language)
	}
	return eng.AnalyzeAs(code, lang), eng, nil
}

// readSource reads the file named by args, or stdin for "-" or no args.
// The returned name labels reports.
func readSource(stdin io.Reader, args []string) (code, name string, err error) {
	var data []byte
	if len(args) == 0 || args[0] == "-" {
		name = "stdin"
		data, err = io.ReadAll(stdin)
	} else {
		name = args[0]
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", name, err)
	}
	code = string(data)
	if model.IsBlank(code) {
		return "", "", fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	return code, name, nil
}

func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(allowed, "|"))
}
