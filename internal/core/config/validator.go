package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"actiongen/internal/core/errors"
	"actiongen/internal/shared/util"

	"github.com/gobwas/glob"
)

var (
	manifestFormats = []string{"json", "yaml"}
	reportFormats   = []string{"text", "json", "sarif"}
)

// Validate lists every problem in cfg. Each error is a VALIDATION_ERROR
// carrying the offending key.
func Validate(cfg *Config) []error {
	var errs []error
	add := func(key, format string, args ...interface{}) {
		errs = append(errs, errors.AddContext(errors.Newf(errors.CodeValidationError, format, args...), errors.CtxKey, key))
	}

	for i, p := range cfg.Input.Paths {
		if strings.TrimSpace(p) == "" {
			add(fmt.Sprintf("input.paths[%d]", i), "input path must not be empty")
		}
	}
	for i, pattern := range cfg.Input.ExcludeFiles {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			add(fmt.Sprintf("input.exclude_files[%d]", i), "invalid glob %q: %v", pattern, err)
		}
	}
	for i, pattern := range cfg.Input.ExcludeDirs {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			add(fmt.Sprintf("input.exclude_dirs[%d]", i), "invalid glob %q: %v", pattern, err)
		}
	}

	required := map[string]string{
		"discovery.command_attribute":  cfg.Discovery.CommandAttribute,
		"discovery.function_attribute": cfg.Discovery.FunctionAttribute,
		"discovery.dispatcher_type":    cfg.Discovery.DispatcherType,
		"discovery.command_registrar":  cfg.Discovery.CommandRegistrar,
		"discovery.function_registrar": cfg.Discovery.FunctionRegistrar,
		"output.path":                  cfg.Output.Path,
		"output.namespace":             cfg.Output.Namespace,
		"output.class":                 cfg.Output.Class,
		"output.tool_name":             cfg.Output.ToolName,
		"output.init_method":           cfg.Output.InitMethod,
	}
	for _, key := range util.SortedStringKeys(required) {
		if strings.TrimSpace(required[key]) == "" {
			add(key, "%s must not be empty", key)
		}
	}
	if cfg.Discovery.CommandAttribute == cfg.Discovery.FunctionAttribute {
		add("discovery.function_attribute", "command and function attributes must differ, both are %q", cfg.Discovery.CommandAttribute)
	}
	for _, key := range []string{"output.class", "output.init_method"} {
		if v := required[key]; v != "" && !isIdentifier(v) {
			add(key, "%q is not a valid identifier", v)
		}
	}
	if ns := cfg.Output.Namespace; ns != "" {
		for _, part := range strings.Split(ns, ".") {
			if !isIdentifier(part) {
				add("output.namespace", "%q is not a valid namespace", ns)
				break
			}
		}
	}

	if !oneOf(cfg.Manifest.Format, manifestFormats) {
		add("manifest.format", "manifest.format must be one of %s, got %q", strings.Join(manifestFormats, ", "), cfg.Manifest.Format)
	}
	if !oneOf(cfg.Report.Format, reportFormats) {
		add("report.format", "report.format must be one of %s, got %q", strings.Join(reportFormats, ", "), cfg.Report.Format)
	}
	if cfg.Watch.Debounce < 0 {
		add("watch.debounce", "watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRunsPerSecond < 0 {
		add("watch.max_runs_per_second", "watch.max_runs_per_second must not be negative")
	}
	return errs
}

func validate(cfg *Config) error {
	errs := Validate(cfg)
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Wrap(stderrors.Join(errs...), errors.CodeValidationError, "invalid configuration")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
