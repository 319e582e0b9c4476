// Package cli implements the owaspscan command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raysh454/owaspscan/internal/config"
	"github.com/raysh454/owaspscan/internal/logging"
)

// ExitError asks the caller to exit with Code. It is returned when a
// command ran to completion but the result should fail the process, as
// with analyze --fail-on.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string { return e.Reason }

// IO bundles the streams commands read and write.
type IO struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
}

type rootOptions struct {
	io         IO
	configPath string
	logLevel   string
}

// loadConfig resolves --config and --log-level into a validated Config.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		if !logging.ValidLevel(o.logLevel) {
			return nil, fmt.Errorf("%w: --log-level %q is not one of trace, debug, info, warn, error",
				config.ErrInvalidConfig, o.logLevel)
		}
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg *config.Config) logging.Logger {
	return cfg.Logger("owaspscan", o.io.ErrOut)
}

// NewRootCmd builds the command tree wired to streams.
func NewRootCmd(streams IO) *cobra.Command {
	opts := &rootOptions{io: streams}

	root := &cobra.Command{
		Use:           "owaspscan [command]",
		Short:         "Static analysis of source snippets against the OWASP Top 10.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `owaspscan detects OWASP Top 10 issues in a source snippet, scores the risk
and proposes a secure rewrite. It runs one-shot from the command line or as an
HTTP and WebSocket service.`,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults apply when omitted)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newCompareCmd(opts),
		newRulesCmd(opts),
		newServeCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit
// code.
func Execute(args []string, streams IO) int {
	root := NewRootCmd(streams)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		if exit.Reason != "" {
			fmt.Fprintln(streams.ErrOut, exit.Reason)
		}
		return exit.Code
	}
	fmt.Fprintf(streams.ErrOut, "Error: %v\n", err)
	return 1
}
