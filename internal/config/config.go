package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Power backends accepted by Power.Backend.
const (
	BackendExec   = "exec"
	BackendLogind = "logind"
)

// ErrInvalid is wrapped by every validation error returned from Load.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Paths   Paths   `yaml:"paths"`
	Locker  Locker  `yaml:"locker"`
	Idle    Idle    `yaml:"idle"`
	Outputs Outputs `yaml:"outputs"`
	Menu    Menu    `yaml:"menu"`
	Power   Power   `yaml:"power"`
	Logind  Logind  `yaml:"logind"`
	Session Session `yaml:"session"`
}

type Paths struct {
	LockFile string `yaml:"lock_file"`
	PIDFile  string `yaml:"pid_file"`
	LogFile  string `yaml:"log_file"`
}

type Locker struct {
	Command string `yaml:"command"`
	// Config is resolved against the home directory when relative.
	Config string `yaml:"config"`
}

type Idle struct {
	Command          string        `yaml:"command"`
	Timeout          time.Duration `yaml:"timeout"`
	LaunchCheckDelay time.Duration `yaml:"launch_check_delay"`
}

type Outputs struct {
	Command string `yaml:"command"`
}

type Menu struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Power struct {
	Backend string `yaml:"backend"`
}

type Logind struct {
	LockedHint bool `yaml:"locked_hint"`
}

type Session struct {
	StateFile string `yaml:"state_file"`
}

// Overrides carries values set on the command line. Zero values are ignored.
type Overrides struct {
	IdleTimeout time.Duration
	LockerCfg   string
	Backend     string
	StateFile   string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: Paths{
			LockFile: "/tmp/sway-lock.mutex",
			PIDFile:  "/tmp/sway-lock-idle.pid",
			LogFile:  "/tmp/sway-lock.log",
		},
		Locker: Locker{
			Command: "swaylock",
			Config:  filepath.Join(".config", "swaylock", "config"),
		},
		Idle: Idle{
			Command:          "swayidle",
			Timeout:          10 * time.Second,
			LaunchCheckDelay: 100 * time.Millisecond,
		},
		Outputs: Outputs{Command: "swaymsg"},
		Menu: Menu{
			Command: "wofi",
			Args:    []string{"--dmenu", "--prompt", "Power"},
		},
		Power:   Power{Backend: BackendExec},
		Session: Session{StateFile: filepath.Join(".cache", "sway-session.json")},
	}
}

// Load resolves configuration from defaults < config file < env < flags.
// An empty cfgPath means the default location; a missing default file is not an error.
func Load(cfgPath string, o Overrides) (*Config, error) {
	cfg := Default()

	explicit := cfgPath != ""
	if !explicit {
		cfgPath = DefaultPath()
	}
	if cfgPath != "" {
		data, err := os.ReadFile(cfgPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if o.IdleTimeout != 0 {
		cfg.Idle.Timeout = o.IdleTimeout
	}
	if o.Backend != "" {
		cfg.Power.Backend = o.Backend
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	cfg.Locker.Config = resolveHome(home, cfg.Locker.Config)
	cfg.Session.StateFile = resolveHome(home, cfg.Session.StateFile)

	// paths given on the command line are relative to the working directory
	if o.LockerCfg != "" {
		if cfg.Locker.Config, err = filepath.Abs(o.LockerCfg); err != nil {
			return nil, fmt.Errorf("resolve --locker-config: %w", err)
		}
	}
	if o.StateFile != "" {
		if cfg.Session.StateFile, err = filepath.Abs(o.StateFile); err != nil {
			return nil, fmt.Errorf("resolve --file: %w", err)
		}
	}

	return cfg, nil
}

// DefaultPath returns ~/.config/sessionctl/config.yaml, or "" without a home directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sessionctl", "config.yaml")
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SESSIONCTL_LOCK_FILE"); v != "" {
		cfg.Paths.LockFile = v
	}
	if v := os.Getenv("SESSIONCTL_PID_FILE"); v != "" {
		cfg.Paths.PIDFile = v
	}
	if v := os.Getenv("SESSIONCTL_LOG_FILE"); v != "" {
		cfg.Paths.LogFile = v
	}
	if v := os.Getenv("SESSIONCTL_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: SESSIONCTL_IDLE_TIMEOUT: %v", ErrInvalid, err)
		}
		cfg.Idle.Timeout = d
	}
	if v := os.Getenv("SESSIONCTL_POWER_BACKEND"); v != "" {
		cfg.Power.Backend = v
	}
	if v := os.Getenv("SESSIONCTL_LOCKED_HINT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: SESSIONCTL_LOCKED_HINT: %v", ErrInvalid, err)
		}
		cfg.Logind.LockedHint = b
	}
	return nil
}

func (c *Config) validate() error {
	required := []struct{ key, val string }{
		{"paths.lock_file", c.Paths.LockFile},
		{"paths.pid_file", c.Paths.PIDFile},
		{"paths.log_file", c.Paths.LogFile},
		{"locker.command", c.Locker.Command},
		{"idle.command", c.Idle.Command},
		{"outputs.command", c.Outputs.Command},
		{"menu.command", c.Menu.Command},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalid, r.key)
		}
	}

	// swayidle takes whole seconds
	if c.Idle.Timeout < time.Second {
		return fmt.Errorf("%w: idle.timeout must be at least 1s, got %s", ErrInvalid, c.Idle.Timeout)
	}
	if c.Idle.LaunchCheckDelay < 0 {
		return fmt.Errorf("%w: idle.launch_check_delay must not be negative", ErrInvalid)
	}

	switch c.Power.Backend {
	case BackendExec, BackendLogind:
	default:
		return fmt.Errorf("%w: power.backend must be %q or %q, got %q",
			ErrInvalid, BackendExec, BackendLogind, c.Power.Backend)
	}
	return nil
}

func resolveHome(home, p string) string {
	if p == "" {
		return p
	}
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}
