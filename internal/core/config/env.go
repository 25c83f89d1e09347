package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ACTIONGEN_[SECTION]_[KEY] (e.g., ACTIONGEN_OUTPUT_NAMESPACE).
func ApplyEnvOverrides(cfg *Config) {
	// Input
	setEnvList(&cfg.Input.Paths, "ACTIONGEN_INPUT_PATHS")

	// Frontend
	setEnvBoolPtr(&cfg.Frontend.Prelude, "ACTIONGEN_FRONTEND_PRELUDE")

	// Discovery
	setEnvString(&cfg.Discovery.CommandAttribute, "ACTIONGEN_DISCOVERY_COMMAND_ATTRIBUTE")
	setEnvString(&cfg.Discovery.FunctionAttribute, "ACTIONGEN_DISCOVERY_FUNCTION_ATTRIBUTE")
	setEnvString(&cfg.Discovery.DispatcherType, "ACTIONGEN_DISCOVERY_DISPATCHER_TYPE")
	setEnvBool(&cfg.Discovery.DirectFunctions, "ACTIONGEN_DISCOVERY_DIRECT_FUNCTIONS")
	setEnvBoolPtr(&cfg.Discovery.SkipGenerated, "ACTIONGEN_DISCOVERY_SKIP_GENERATED")

	// Validation
	setEnvBool(&cfg.Validation.StrictCommandReturns, "ACTIONGEN_VALIDATION_STRICT_COMMAND_RETURNS")

	// Output
	setEnvString(&cfg.Output.Path, "ACTIONGEN_OUTPUT_PATH")
	setEnvString(&cfg.Output.Namespace, "ACTIONGEN_OUTPUT_NAMESPACE")
	setEnvString(&cfg.Output.Class, "ACTIONGEN_OUTPUT_CLASS")
	setEnvString(&cfg.Output.ToolName, "ACTIONGEN_OUTPUT_TOOL_NAME")
	setEnvString(&cfg.Output.ToolVersion, "ACTIONGEN_OUTPUT_TOOL_VERSION")
	setEnvBool(&cfg.Output.FunctionDeclarations, "ACTIONGEN_OUTPUT_FUNCTION_DECLARATIONS")
	setEnvBool(&cfg.Output.Force, "ACTIONGEN_OUTPUT_FORCE")

	// Manifest
	setEnvString(&cfg.Manifest.Path, "ACTIONGEN_MANIFEST_PATH")
	setEnvString(&cfg.Manifest.Format, "ACTIONGEN_MANIFEST_FORMAT")

	// Report
	setEnvString(&cfg.Report.Format, "ACTIONGEN_REPORT_FORMAT")
	setEnvString(&cfg.Report.Path, "ACTIONGEN_REPORT_PATH")
	setEnvBool(&cfg.Report.FailOnDiagnostics, "ACTIONGEN_REPORT_FAIL_ON_DIAGNOSTICS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ACTIONGEN_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "ACTIONGEN_WATCH_MAX_RUNS_PER_SECOND")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "ACTIONGEN_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ACTIONGEN_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "ACTIONGEN_OBSERVABILITY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Info("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma-separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		slog.Info("applying env override", "key", key, "value", val)
		*target = items
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Info("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
