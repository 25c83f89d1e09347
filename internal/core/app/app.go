package app

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"actiongen/internal/core/config"
	"actiongen/internal/core/errors"
	"actiongen/internal/engine/actions"
	"actiongen/internal/engine/codegen"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"
)

// App runs the generation pipeline against a configuration. Each run builds
// its own compilation, nothing is cached between runs.
type App struct {
	// BaseDir anchors the source paths shown in generated comments, reports
	// and manifests.
	BaseDir string
	// ConfigPath is reloaded during Watch when set.
	ConfigPath string
	// Overrides is applied to every reloaded configuration, so command line
	// flags survive a reload.
	Overrides func(*config.Config)

	parser *parser.Parser

	mu  sync.RWMutex
	cfg *config.Config
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	loader, err := parser.NewGrammarLoader()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load grammars")
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve working directory")
	}
	return &App{
		BaseDir: wd,
		parser:  parser.NewParser(loader),
		cfg:     cfg,
	}, nil
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// SetConfig replaces the configuration used by subsequent runs.
func (a *App) SetConfig(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
}

// displayPath renders path relative to BaseDir with forward slashes, or
// unchanged when it lies outside.
func (a *App) displayPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(a.BaseDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func frontendOptions(cfg *config.Config) semantic.Options {
	return semantic.Options{
		Prelude:       cfg.PreludeEnabled(),
		RequiredTypes: append(semantic.PrimitiveTypes(), cfg.Discovery.DispatcherType),
		RequiredNames: []string{cfg.Discovery.CommandAttribute, cfg.Discovery.FunctionAttribute},
	}
}

func classifierOptions(cfg *config.Config) actions.Options {
	d := cfg.Discovery
	return actions.Options{
		CommandAttribute:  d.CommandAttribute,
		FunctionAttribute: d.FunctionAttribute,
		DispatcherType:    d.DispatcherType,
		CommandRegistrar:  d.CommandRegistrar,
		FunctionRegistrar: d.FunctionRegistrar,
		DirectFunctions:   d.DirectFunctions,
		SkipGenerated:     cfg.SkipGenerated(),
		CoroutineType:     d.CoroutineType,
		EnumeratorType:    d.EnumeratorType,
	}
}

func validatorOptions(cfg *config.Config) actions.ValidatorOptions {
	opts := actions.DefaultValidatorOptions()
	opts.StrictCommandReturns = cfg.Validation.StrictCommandReturns
	return opts
}

func emitterOptions(cfg *config.Config) codegen.Options {
	o := cfg.Output
	return codegen.Options{
		Namespace:            o.Namespace,
		Class:                o.Class,
		ToolName:             o.ToolName,
		ToolVersion:          o.ToolVersion,
		TargetType:           o.TargetType,
		RegistryMethod:       o.RegistryMethod,
		InitMethod:           o.InitMethod,
		EditorInitAttribute:  o.EditorInitAttribute,
		EditorDefine:         o.EditorDefine,
		RuntimeInitAttribute: o.RuntimeInitAttribute,
		FunctionDeclarations: o.FunctionDeclarations,
	}
}
