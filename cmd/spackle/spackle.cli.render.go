package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itsatony/go-spackle"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	sets         []string
	dataPath     string
	envFile      string
	bindPath     string
	outputPath   string
	strategy     string
	fromStorage  string
}

func newRenderCommand(a *app) *cobra.Command {
	cfg := &renderConfig{}

	cmd := &cobra.Command{
		Use:     CmdNameRender,
		Short:   RenderShort,
		Example: RenderExample,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.render(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	f.StringArrayVarP(&cfg.sets, FlagSet, FlagSetShort, nil, UsageSet)
	f.StringVarP(&cfg.dataPath, FlagData, FlagDataShort, "", UsageData)
	f.StringVar(&cfg.envFile, FlagEnvFile, "", UsageEnvFile)
	f.StringVar(&cfg.bindPath, FlagBind, "", UsageBind)
	f.StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, UsageOutput)
	f.StringVar(&cfg.strategy, FlagStrategy, "", UsageStrategy)
	f.StringVar(&cfg.fromStorage, FlagFromStorage, "", UsageFromStorage)

	return cmd
}

func (a *app) render(cmd *cobra.Command, cfg *renderConfig) error {
	if err := checkTemplateSource(cfg); err != nil {
		return err
	}

	strategy, err := a.errorStrategy(cfg.strategy)
	if err != nil {
		return err
	}
	subs, err := renderSubstitutions(cfg)
	if err != nil {
		return err
	}
	bound, err := loadBind(cfg.bindPath)
	if err != nil {
		return err
	}

	opts := []spackle.Option{
		spackle.WithLogger(a.logger),
		spackle.WithErrorStrategy(strategy),
		spackle.WithPlugins(spackle.NewEnvPlugin()),
		spackle.WithHooks(a.renderHooks()),
	}

	ctx := cmd.Context()
	engine, closeStorage, err := a.loadEngine(ctx, cfg, subs, opts)
	if err != nil {
		return err
	}
	defer closeStorage()

	if bound != nil {
		engine.BindTo(bound)
	}

	out, err := engine.Parse(ctx)
	if err != nil {
		return failure(ErrMsgRenderFailed, err)
	}

	if err := writeOutput(cfg.outputPath, []byte(out), a.streams.out); err != nil {
		return failure(ErrMsgWriteOutputFailed, err)
	}
	return nil
}

// renderHooks logs the duration of every top-level and included parse.
func (a *app) renderHooks() *spackle.HookRegistry {
	timing, elapsed := spackle.TimingHook()
	report := func(_ context.Context, _ spackle.HookPoint, data *spackle.HookData) error {
		a.logger.Debug(LogMsgParsed,
			zap.Int(LogFieldDepth, data.Depth),
			zap.Duration(LogFieldElapsed, elapsed(data)),
			zap.Bool(LogFieldFailed, data.Error != nil),
		)
		return nil
	}
	return spackle.NewHookRegistry().
		Register(timing, spackle.HookBeforeParse).
		Register(report, spackle.HookAfterParse)
}

// checkTemplateSource requires exactly one of --template and --from-storage.
func checkTemplateSource(cfg *renderConfig) error {
	switch {
	case cfg.templatePath == "" && cfg.fromStorage == "":
		return usageError(ErrMsgMissingTemplate)
	case cfg.templatePath != "" && cfg.fromStorage != "":
		return usageError(ErrMsgTemplateAndStorage)
	}
	return nil
}

// loadEngine builds the engine for a template file, stdin or a stored
// template. The returned func releases the storage, if one was opened.
func (a *app) loadEngine(ctx context.Context, cfg *renderConfig, subs map[string]any, opts []spackle.Option) (*spackle.Engine, func(), error) {
	noop := func() {}

	switch {
	case cfg.fromStorage != "":
		opened, err := a.openStorage()
		if err != nil {
			return nil, noop, err
		}
		// includes of the same template are loaded once per render
		storage := spackle.NewCachedStorage(opened, spackle.DefaultCacheConfig())
		closeStorage := func() { _ = storage.Close() }

		opts = append(opts, spackle.WithPlugins(spackle.NewIncludePlugin()))
		engine, err := spackle.NewFromStorage(ctx, storage, cfg.fromStorage, subs, opts...)
		if err != nil {
			closeStorage()
			return nil, noop, inputError(ErrMsgLoadTemplateFailed, err)
		}
		return engine, closeStorage, nil

	case cfg.templatePath == InputSourceStdin:
		data, err := readInput(cfg.templatePath, a.streams.in)
		if err != nil {
			return nil, noop, inputError(ErrMsgReadStdinFailed, err)
		}
		doc, err := spackle.ParseFrontmatter(data)
		if err != nil {
			return nil, noop, inputError(ErrMsgLoadTemplateFailed, err)
		}
		engine := spackle.New(doc.Body, mergeMaps(doc.Substitutions, subs), opts...)
		if doc.Bind != nil {
			engine.BindTo(doc.Bind)
		}
		return engine, noop, nil

	default:
		engine, err := spackle.NewFromFile(cfg.templatePath, subs, opts...)
		if err != nil {
			return nil, noop, inputError(ErrMsgLoadTemplateFailed, err)
		}
		return engine, noop, nil
	}
}

// renderSubstitutions merges data file, env file and --set values, in
// increasing precedence.
func renderSubstitutions(cfg *renderConfig) (map[string]any, error) {
	data, err := loadData(cfg.dataPath)
	if err != nil {
		return nil, err
	}
	envVars, err := loadEnvFile(cfg.envFile)
	if err != nil {
		return nil, err
	}
	sets, err := parseSets(cfg.sets)
	if err != nil {
		return nil, err
	}
	return mergeMaps(data, envVars, sets), nil
}
