package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itsatony/go-spackle"
)

// streams holds the command's standard streams.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// cliConfig is read from SPACKLE_* environment variables.
type cliConfig struct {
	LogLevel      string `env:"SPACKLE_LOG_LEVEL" envDefault:"warn"`
	ErrorStrategy string `env:"SPACKLE_ERROR_STRATEGY" envDefault:"log"`
	StorageDriver string `env:"SPACKLE_STORAGE_DRIVER" envDefault:"filesystem"`
	StorageDSN    string `env:"SPACKLE_STORAGE_DSN" envDefault:".spackle/templates"`
}

// app is the state shared by all commands of one invocation.
type app struct {
	streams *streams
	config  cliConfig
	logger  *zap.Logger
}

// cliError carries the exit code for a failed command.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }

func (e *cliError) Unwrap() error { return e.err }

func usageError(msg string) error {
	return &cliError{code: ExitCodeUsageError, err: errors.New(msg)}
}

func inputError(msg string, cause error) error {
	return &cliError{code: ExitCodeInputError, err: fmt.Errorf(ErrFmtWithCause, msg, cause)}
}

func failure(msg string, cause error) error {
	return &cliError{code: ExitCodeError, err: fmt.Errorf(ErrFmtWithCause, msg, cause)}
}

// isCobraUsageError reports errors cobra raises for bad command lines.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, ErrPrefixUnknownCommand) ||
		strings.HasPrefix(msg, ErrPrefixUnknownFlag) ||
		strings.HasPrefix(msg, ErrPrefixUnknownShorthand)
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError(fmt.Sprintf(ErrFmtArgCount, ErrMsgArgCount, n, len(args)))
		}
		return nil
	}
}

func newRootCommand(s *streams) *cobra.Command {
	a := &app{streams: s, logger: zap.NewNop()}
	var logLevel string

	cmd := &cobra.Command{
		Use:           CmdNameRoot,
		Short:         CLIShort,
		Long:          CLILong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Parse(&a.config); err != nil {
				return usageError(fmt.Sprintf(ErrFmtWithDetail, ErrMsgInvalidConfig, err))
			}
			if logLevel != "" {
				a.config.LogLevel = logLevel
			}
			logger, err := newLogger(a.config.LogLevel, s.err)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &cliError{code: ExitCodeUsageError, err: err}
	})

	cmd.PersistentFlags().StringVar(&logLevel, FlagLogLevel, "", UsageLogLevel)

	cmd.AddCommand(
		newRenderCommand(a),
		newInspectCommand(a),
		newStoreCommand(a),
		newVersionCommand(a),
	)
	return cmd
}

// newLogger builds a console logger writing to w at the named level.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, usageError(fmt.Sprintf(ErrFmtWithDetail, ErrMsgInvalidLogLevel, level))
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// openStorage opens the configured template storage.
func (a *app) openStorage() (spackle.TemplateStorage, error) {
	storage, err := spackle.OpenStorage(a.config.StorageDriver, a.config.StorageDSN)
	if err != nil {
		return nil, failure(ErrMsgOpenStorageFailed, err)
	}
	return storage, nil
}

// errorStrategy resolves the strategy from the flag, falling back to the
// environment.
func (a *app) errorStrategy(flag string) (spackle.ErrorStrategy, error) {
	name := a.config.ErrorStrategy
	if flag != "" {
		name = flag
	}
	strategy, err := spackle.ParseErrorStrategy(name)
	if err != nil {
		return strategy, &cliError{code: ExitCodeUsageError, err: err}
	}
	return strategy, nil
}
