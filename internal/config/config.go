// Package config loads truefan settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvAgentSecret = "TRUEFAN_AGENT_SECRET"
	EnvAgentToken  = "CONTROL_AGENT_TOKEN"
	EnvMode        = "TRUEFAN_MODE"
	EnvAgentURL    = "TRUEFAN_AGENT_URL"
	EnvHwmonRoot   = "TRUEFAN_HWMON_ROOT"
	EnvProfileFile = "TRUEFAN_PROFILE_FILE"
	EnvLogLevel    = "TRUEFAN_LOG_LEVEL"
	EnvLogFormat   = "TRUEFAN_LOG_FORMAT"

	ModeReadOnly = "read-only"
)

var ErrMissingSecret = errors.New(EnvAgentSecret + " is required at startup")

type Config struct {
	HwmonRoot    string        `yaml:"hwmon_root"`
	DeviceRoots  []string      `yaml:"device_roots"`
	ProfileFile  string        `yaml:"profile_file"`
	IncludeHDD   bool          `yaml:"include_hdd"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Mode         string        `yaml:"mode"`

	Smart     SmartConfig     `yaml:"smart"`
	Agent     AgentConfig     `yaml:"agent"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

type SmartConfig struct {
	Binary     string        `yaml:"binary"`
	Timeout    time.Duration `yaml:"timeout"`
	NVMeDevice string        `yaml:"nvme_device"`
	HDDDevice  string        `yaml:"hdd_device"`
}

type AgentConfig struct {
	// Listen is the agent's bind address; URL is where callers reach it.
	Listen    string        `yaml:"listen"`
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	HealthTTL time.Duration `yaml:"health_ttl"`
	// Secret and Token only come from the environment.
	Secret string `yaml:"-"`
	Token  string `yaml:"-"`
}

type DashboardConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		HwmonRoot:    "/sys/class/hwmon",
		DeviceRoots:  []string{"/sys/devices"},
		ProfileFile:  "fan_profile.conf",
		PollInterval: 5 * time.Second,
		Smart: SmartConfig{
			Binary:     "smartctl",
			Timeout:    3 * time.Second,
			NVMeDevice: "/dev/nvme0",
			HDDDevice:  "/dev/sda",
		},
		Agent: AgentConfig{
			Listen:    "127.0.0.1:5088",
			URL:       "http://127.0.0.1:5088",
			Timeout:   600 * time.Millisecond,
			HealthTTL: 2 * time.Second,
		},
		Dashboard: DashboardConfig{
			Listen: ":5002",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults overlaid with path (when non-empty) and the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Agent.Secret = env(EnvAgentSecret)
	cfg.Agent.Token = env(EnvAgentToken)
	if v := env(EnvMode); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if v := env(EnvAgentURL); v != "" {
		cfg.Agent.URL = v
	}
	if v := env(EnvHwmonRoot); v != "" {
		cfg.HwmonRoot = v
	}
	if v := env(EnvProfileFile); v != "" {
		cfg.ProfileFile = v
	}
	if v := env(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (c Config) validate() error {
	if c.HwmonRoot == "" {
		return errors.New("hwmon_root must not be empty")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.Agent.Timeout <= 0 || c.Agent.HealthTTL < 0 {
		return errors.New("agent timeout must be positive and health_ttl non-negative")
	}
	if c.Smart.Timeout <= 0 {
		return errors.New("smart timeout must be positive")
	}
	return nil
}

// ReadOnly reports whether writes are disabled for the caller process.
func (c Config) ReadOnly() bool {
	return c.Mode == ModeReadOnly
}

// RequireAgentSecret fails when the agent has no secret to check bearer
// tokens against.
func (c Config) RequireAgentSecret() error {
	if c.Agent.Secret == "" {
		return ErrMissingSecret
	}
	return nil
}
