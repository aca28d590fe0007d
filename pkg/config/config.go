package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	perrors "pixelflow/internal/errors"
)

const (
	DefaultPort           = "3001"
	DefaultProcessorPath  = "./image_processor"
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	DefaultTimeout        = 2 * time.Minute
	DefaultStaleAfter     = time.Hour
	DefaultLogLevel       = "info"
)

type ServiceConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Processor    ProcessorConfig    `yaml:"processor"`
	Workspace    WorkspaceConfig    `yaml:"workspace"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Log          LogConfig          `yaml:"log"`
}

type ServerConfig struct {
	Port           string `yaml:"port"`
	ClientURL      string `yaml:"client_url"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type ProcessorConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type WorkspaceConfig struct {
	Dir        string        `yaml:"dir"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type OrchestratorConfig struct {
	MaxConcurrentInvocations int  `yaml:"max_concurrent_invocations"`
	ExclusiveBenchmark       bool `yaml:"exclusive_benchmark"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() ServiceConfig {
	c := ServiceConfig{}
	c.PopulateUnsetConfigVars()
	return c
}

func (c *ServiceConfig) PopulateUnsetConfigVars() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Processor.Path == "" {
		c.Processor.Path = DefaultProcessorPath
	}
	if c.Processor.Timeout <= 0 {
		c.Processor.Timeout = DefaultTimeout
	}
	if c.Workspace.Dir == "" {
		c.Workspace.Dir = os.TempDir()
	}
	if c.Workspace.StaleAfter <= 0 {
		c.Workspace.StaleAfter = DefaultStaleAfter
	}
	if c.Orchestrator.MaxConcurrentInvocations < 1 {
		c.Orchestrator.MaxConcurrentInvocations = runtime.NumCPU()
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c ServiceConfig) Validate() error {
	if _, err := strconv.ParseUint(c.Server.Port, 10, 16); err != nil {
		return perrors.Wrap(perrors.KindConfig, "config.validate", fmt.Sprintf("invalid port %q", c.Server.Port), err)
	}
	if c.Processor.Path == "" {
		return perrors.New(perrors.KindConfig, "config.validate", "processor path is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return perrors.Newf(perrors.KindConfig, "config.validate", "unknown log level %q", c.Log.Level)
	}
	return nil
}

// Loader resolves configuration from defaults, an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
type Loader struct {
	path      string
	useDotEnv bool
	lookupEnv func(string) (string, bool)
}

func NewLoader() *Loader {
	return &Loader{useDotEnv: true, lookupEnv: os.LookupEnv}
}

func (l *Loader) WithFile(path string) *Loader {
	l.path = path
	return l
}

func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithLookup overrides environment lookups (useful for tests).
func (l *Loader) WithLookup(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

func (l *Loader) Load() (ServiceConfig, error) {
	var cfg ServiceConfig

	if l.path != "" {
		raw, err := os.ReadFile(l.path)
		if err != nil {
			return cfg, perrors.Wrap(perrors.KindConfig, "config.load", "read config file", err)
		}
		if err = yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, perrors.Wrap(perrors.KindConfig, "config.load", "parse config file", err)
		}
	}

	if l.useDotEnv {
		// A missing .env file is normal outside of local development.
		_ = godotenv.Load()
	}

	if err := l.applyEnv(&cfg); err != nil {
		return cfg, err
	}

	cfg.PopulateUnsetConfigVars()
	return cfg, cfg.Validate()
}

func (l *Loader) applyEnv(cfg *ServiceConfig) error {
	if v, ok := l.lookupEnv("PORT"); ok && v != "" {
		cfg.Server.Port = v
	}
	if v, ok := l.lookupEnv("CLIENT_URL"); ok {
		cfg.Server.ClientURL = v
	}
	if v, ok := l.lookupEnv("PROCESSOR_PATH"); ok && v != "" {
		cfg.Processor.Path = v
	}
	if v, ok := l.lookupEnv("PIXELFLOW_TEMP_DIR"); ok && v != "" {
		cfg.Workspace.Dir = v
	}
	if v, ok := l.lookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := l.lookupEnv("PIXELFLOW_MAX_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return perrors.Wrap(perrors.KindConfig, "config.env", "invalid PIXELFLOW_MAX_CONCURRENCY", err)
		}
		cfg.Orchestrator.MaxConcurrentInvocations = n
	}
	return nil
}
