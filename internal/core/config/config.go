package config

import (
	"strings"
	"time"
)

// DefaultFile is loaded from the working directory when no config path is
// given.
const DefaultFile = "actiongen.toml"

type Config struct {
	Input         Input         `toml:"input"`
	Frontend      Frontend      `toml:"frontend"`
	Discovery     Discovery     `toml:"discovery"`
	Validation    Validation    `toml:"validation"`
	Output        Output        `toml:"output"`
	Manifest      Manifest      `toml:"manifest"`
	Report        Report        `toml:"report"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Input struct {
	Paths        []string `toml:"paths"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Frontend struct {
	Prelude    *bool    `toml:"prelude"`
	References []string `toml:"references"`
}

type Discovery struct {
	CommandAttribute  string `toml:"command_attribute"`
	FunctionAttribute string `toml:"function_attribute"`
	DispatcherType    string `toml:"dispatcher_type"`
	CommandRegistrar  string `toml:"command_registrar"`
	FunctionRegistrar string `toml:"function_registrar"`
	DirectFunctions   bool   `toml:"direct_functions"`
	SkipGenerated     *bool  `toml:"skip_generated"`
	CoroutineType     string `toml:"coroutine_type"`
	EnumeratorType    string `toml:"enumerator_type"`
}

type Validation struct {
	StrictCommandReturns bool `toml:"strict_command_returns"`
}

type Output struct {
	Path                 string `toml:"path"`
	Namespace            string `toml:"namespace"`
	Class                string `toml:"class"`
	ToolName             string `toml:"tool_name"`
	ToolVersion          string `toml:"tool_version"`
	TargetType           string `toml:"target_type"`
	RegistryMethod       string `toml:"registry_method"`
	InitMethod           string `toml:"init_method"`
	EditorInitAttribute  string `toml:"editor_init_attribute"`
	EditorDefine         string `toml:"editor_define"`
	RuntimeInitAttribute string `toml:"runtime_init_attribute"`
	FunctionDeclarations bool   `toml:"function_declarations"`
	Force                bool   `toml:"force"`
}

type Manifest struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

type Report struct {
	Format            string `toml:"format"`
	Path              string `toml:"path"`
	FailOnDiagnostics bool   `toml:"fail_on_diagnostics"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// PreludeEnabled reports whether the built-in declarations are loaded.
func (c *Config) PreludeEnabled() bool {
	return c.Frontend.Prelude == nil || *c.Frontend.Prelude
}

func (c *Config) SkipGenerated() bool {
	return c.Discovery.SkipGenerated == nil || *c.Discovery.SkipGenerated
}

func applyDefaults(cfg *Config) {
	if len(cfg.Input.Paths) == 0 {
		cfg.Input.Paths = []string{"."}
	}
	if len(cfg.Input.ExcludeDirs) == 0 {
		cfg.Input.ExcludeDirs = []string{".git", "Library", "Temp", "obj", "bin"}
	}

	setDefault(&cfg.Discovery.CommandAttribute, "YarnCommandAttribute")
	setDefault(&cfg.Discovery.FunctionAttribute, "YarnFunctionAttribute")
	setDefault(&cfg.Discovery.DispatcherType, "Yarn.Unity.DialogueRunner")
	setDefault(&cfg.Discovery.CommandRegistrar, "AddCommandHandler")
	setDefault(&cfg.Discovery.FunctionRegistrar, "AddFunction")
	setDefault(&cfg.Discovery.CoroutineType, "UnityEngine.Coroutine")
	setDefault(&cfg.Discovery.EnumeratorType, "System.Collections.IEnumerator")

	setDefault(&cfg.Output.Path, "ActionRegistration.cs")
	setDefault(&cfg.Output.Namespace, "Generated.ActionRegistration")
	setDefault(&cfg.Output.Class, "ActionRegistration")
	setDefault(&cfg.Output.ToolName, "YarnActionAnalyzer")
	setDefault(&cfg.Output.ToolVersion, "1.0.0.0")
	setDefault(&cfg.Output.TargetType, "global::Yarn.Unity.IActionRegistration")
	setDefault(&cfg.Output.RegistryMethod, "global::Yarn.Unity.Actions.AddRegistrationMethod")
	setDefault(&cfg.Output.InitMethod, "AddRegisterFunction")
	setDefault(&cfg.Output.EditorInitAttribute, "global::UnityEditor.InitializeOnLoadMethod")
	setDefault(&cfg.Output.EditorDefine, "UNITY_EDITOR")
	setDefault(&cfg.Output.RuntimeInitAttribute,
		"global::UnityEngine.RuntimeInitializeOnLoadMethod(global::UnityEngine.RuntimeInitializeLoadType.BeforeSceneLoad)")

	setDefault(&cfg.Manifest.Format, "json")
	setDefault(&cfg.Report.Format, "text")

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond == 0 {
		cfg.Watch.MaxRunsPerSecond = 2
	}
	setDefault(&cfg.Observability.ServiceName, "actiongen")
}

func setDefault(target *string, value string) {
	if strings.TrimSpace(*target) == "" {
		*target = value
	}
}
