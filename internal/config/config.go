package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	AppName = "camundactl"

	// EnvPrefix prefixes environment overrides, e.g. CAMUNDACTL_LOG_LEVEL.
	EnvPrefix = "CAMUNDACTL"
	// EnvConfigFile overrides the config file location.
	EnvConfigFile = "CAMUNDACTL_CONFIG"

	FileVersion = "beta1"
)

var (
	ErrEngineNotFound = errors.New("engine not found")
	ErrEngineExists   = errors.New("engine already exists")
	ErrNoEngine       = errors.New("no engine selected, add one with 'camundactl config add-engine' or pass --engine")
	ErrAliasNotFound  = errors.New("alias not found")
)

type Auth struct {
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

type Engine struct {
	Name   string `yaml:"name" mapstructure:"name"`
	URL    string `yaml:"url" mapstructure:"url"`
	Auth   *Auth  `yaml:"auth,omitempty" mapstructure:"auth"`
	Verify bool   `yaml:"verify" mapstructure:"verify"`
}

type Template struct {
	ExtraPaths []string `yaml:"extra_paths" mapstructure:"extra_paths"`
}

type Config struct {
	Version       string            `yaml:"version" mapstructure:"version"`
	CurrentEngine string            `yaml:"current_engine" mapstructure:"current_engine"`
	Engines       []Engine          `yaml:"engines" mapstructure:"engines"`
	SpecVersion   string            `yaml:"spec_version" mapstructure:"spec_version"`
	LogLevel      string            `yaml:"log_level" mapstructure:"log_level"`
	Alias         map[string]string `yaml:"alias" mapstructure:"alias"`
	Template      Template          `yaml:"template" mapstructure:"template"`
}

func Default() *Config {
	return &Config{
		Version:     FileVersion,
		Engines:     []Engine{},
		SpecVersion: "latest",
		LogLevel:    "error",
		Alias:       map[string]string{},
	}
}

// Path returns the config file location: $CAMUNDACTL_CONFIG, else
// <user config dir>/camundactl/config.yml.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, AppName, "config.yml"), nil
}

// Load reads the config file at path, writing a default one first when it
// does not exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// viper lowercases map keys, aliases are case sensitive.
	aliases, err := readAliases(path)
	if err != nil {
		return nil, err
	}
	cfg.Alias = aliases
	return &cfg, nil
}

func readAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var file struct {
		Alias map[string]string `yaml:"alias"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if file.Alias == nil {
		file.Alias = map[string]string{}
	}
	return file.Alias, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("current_engine", "")
	v.SetDefault("spec_version", d.SpecVersion)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("template.extra_paths", []string{})
}

// Save writes cfg as YAML, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) EngineNames() []string {
	out := make([]string, 0, len(c.Engines))
	for _, e := range c.Engines {
		out = append(out, e.Name)
	}
	return out
}

func (c *Config) Engine(name string) (Engine, error) {
	for _, e := range c.Engines {
		if e.Name == name {
			return e, nil
		}
	}
	return Engine{}, fmt.Errorf("%w: %q, choose one of %s", ErrEngineNotFound, name, strings.Join(c.EngineNames(), ", "))
}

// Selected returns the engine named by override, else the current engine.
func (c *Config) Selected(override string) (Engine, error) {
	name := strings.TrimSpace(override)
	if name == "" {
		name = c.CurrentEngine
	}
	if name == "" {
		return Engine{}, ErrNoEngine
	}
	return c.Engine(name)
}

func (c *Config) AddEngine(e Engine, selectIt bool) error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("engine name must not be empty")
	}
	if _, err := c.Engine(e.Name); err == nil {
		return fmt.Errorf("%w: %q", ErrEngineExists, e.Name)
	}
	c.Engines = append(c.Engines, e)
	if selectIt {
		c.CurrentEngine = e.Name
	}
	return nil
}

// RemoveEngine drops the engine and clears the selection if it was current.
func (c *Config) RemoveEngine(name string) error {
	if _, err := c.Engine(name); err != nil {
		return err
	}
	kept := c.Engines[:0]
	for _, e := range c.Engines {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	c.Engines = kept
	if c.CurrentEngine == name {
		c.CurrentEngine = ""
	}
	return nil
}

func (c *Config) UseEngine(name string) error {
	if _, err := c.Engine(name); err != nil {
		return err
	}
	c.CurrentEngine = name
	return nil
}

// AddAlias makes alias resolve to command.
func (c *Config) AddAlias(alias, command string) error {
	if strings.TrimSpace(alias) == "" || strings.TrimSpace(command) == "" {
		return errors.New("alias and command must not be empty")
	}
	if c.Alias == nil {
		c.Alias = map[string]string{}
	}
	c.Alias[alias] = command
	return nil
}

func (c *Config) RemoveAlias(alias string) error {
	if _, ok := c.Alias[alias]; !ok {
		return fmt.Errorf("%w: %q", ErrAliasNotFound, alias)
	}
	delete(c.Alias, alias)
	return nil
}

// AliasesFor returns the sorted aliases pointing at command.
func (c *Config) AliasesFor(command string) []string {
	var out []string
	for alias, target := range c.Alias {
		if target == command {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
