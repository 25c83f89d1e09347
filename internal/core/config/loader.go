package config

import (
	"os"
	"path/filepath"

	"actiongen/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load decodes the file at path, applies defaults and validates the result.
// Relative paths in the file are resolved against its directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	resolvePaths(&cfg, filepath.Dir(path))
	if err := validate(&cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOrDefault loads path when set. Otherwise DefaultFile in the working
// directory is used if present, and the defaults if not.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	return Default(), nil
}

func resolvePaths(cfg *Config, base string) {
	for i, p := range cfg.Input.Paths {
		cfg.Input.Paths[i] = ResolveRelative(base, p)
	}
	for i, p := range cfg.Frontend.References {
		cfg.Frontend.References[i] = ResolveRelative(base, p)
	}
	cfg.Output.Path = ResolveRelative(base, cfg.Output.Path)
	if cfg.Manifest.Path != "" {
		cfg.Manifest.Path = ResolveRelative(base, cfg.Manifest.Path)
	}
	if cfg.Report.Path != "" {
		cfg.Report.Path = ResolveRelative(base, cfg.Report.Path)
	}
}

// ResolveRelative joins value onto base unless it is already absolute.
func ResolveRelative(base, value string) string {
	if value == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Clean(filepath.Join(base, value))
}
