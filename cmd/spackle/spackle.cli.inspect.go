package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsatony/go-spackle"
)

func newInspectCommand(a *app) *cobra.Command {
	cfg := &renderConfig{}
	var format string

	cmd := &cobra.Command{
		Use:     CmdNameInspect,
		Short:   InspectShort,
		Example: InspectExample,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return a.inspect(cmd, cfg, format)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	f.StringArrayVarP(&cfg.sets, FlagSet, FlagSetShort, nil, UsageSet)
	f.StringVarP(&cfg.dataPath, FlagData, FlagDataShort, "", UsageData)
	f.StringVar(&cfg.envFile, FlagEnvFile, "", UsageEnvFile)
	f.StringVar(&cfg.fromStorage, FlagFromStorage, "", UsageFromStorage)
	f.StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)

	return cmd
}

// inspect reports placeholders without rendering. A template with unresolved
// substitutions exits with ExitCodeValidationError.
func (a *app) inspect(cmd *cobra.Command, cfg *renderConfig, format string) error {
	if err := checkTemplateSource(cfg); err != nil {
		return err
	}
	subs, err := renderSubstitutions(cfg)
	if err != nil {
		return err
	}

	opts := []spackle.Option{
		spackle.WithLogger(a.logger),
		spackle.WithPlugins(spackle.NewEnvPlugin()),
	}
	engine, closeStorage, err := a.loadEngine(cmd.Context(), cfg, subs, opts)
	if err != nil {
		return err
	}
	defer closeStorage()

	report := engine.Inspect()
	if format == OutputFormatJSON {
		if err := writeJSON(a, report); err != nil {
			return err
		}
	} else {
		fmt.Fprint(a.streams.out, report.String())
	}

	if !report.OK() {
		return &cliError{code: ExitCodeValidationError, err: fmt.Errorf(ErrFmtMissingCount, ErrMsgUnresolved, len(report.Missing))}
	}
	return nil
}
