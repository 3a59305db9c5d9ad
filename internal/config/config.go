package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the site configuration. It is loaded once, validated,
// and passed by value into the builder; nothing mutates it after Load.
type Config struct {
	BaseURL      string         `yaml:"baseURL"`
	LanguageCode string         `yaml:"languageCode,omitempty"`
	Title        string         `yaml:"title"`
	Description  string         `yaml:"description,omitempty"`
	Theme        string         `yaml:"theme,omitempty"`
	BuildDrafts  bool           `yaml:"buildDrafts,omitempty"`
	Content      ContentConfig  `yaml:"content,omitempty"`
	Output       OutputConfig   `yaml:"output,omitempty"`
	Menu         []MenuEntry    `yaml:"menu,omitempty"`
	Params       map[string]any `yaml:"params,omitempty"`
	Outputs      Outputs        `yaml:"outputs,omitempty"`
	LinkCheck    LinkCheck      `yaml:"linkcheck,omitempty"`
	Serve        Serve          `yaml:"serve,omitempty"`
	Metrics      Metrics        `yaml:"metrics,omitempty"`
	History      History        `yaml:"history,omitempty"`

	// path the config was loaded from; used in error messages.
	path string
}

// ContentConfig locates the input trees.
type ContentConfig struct {
	Directory string `yaml:"directory,omitempty"` // markdown sources, default "content"
	StaticDir string `yaml:"static,omitempty"`    // copied verbatim, default "static"
	LayoutDir string `yaml:"layouts,omitempty"`   // optional template overrides
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory,omitempty"`
	Clean     bool   `yaml:"clean,omitempty"` // Clean output directory before build
}

// LinkCheck configures post-build internal link verification.
type LinkCheck struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"` // optional broken-link event publishing
	Subject string `yaml:"subject,omitempty"`
	Bucket  string `yaml:"kv_bucket,omitempty"`
}

// Serve configures the local preview server.
type Serve struct {
	Port            int    `yaml:"port,omitempty"`
	LiveReload      *bool  `yaml:"live_reload,omitempty"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // optional periodic rebuild, e.g. "10m"
}

// Metrics configures the Prometheus endpoint exposed by serve.
type Metrics struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// History configures the build report store.
type History struct {
	Path string `yaml:"path,omitempty"` // sqlite file, empty disables persistence
}

// Path returns the file the config was loaded from ("" for in-memory configs).
func (c *Config) Path() string { return c.path }

// LiveReloadEnabled reports whether serve should inject the reload script.
// Defaults to on when unset.
func (s Serve) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// RebuildIntervalDuration parses RebuildInterval. A zero result disables
// periodic rebuilds; Validate has already rejected malformed values.
func (s Serve) RebuildIntervalDuration() time.Duration {
	if s.RebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.RebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env/.env.local if present. Existing process env wins.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", envPath, err)
			}
			break
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, NewConfigError(configPath, "", "configuration file not found")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, &ConfigError{File: configPath, Reason: "failed to read config file", Err: err}
	}

	// Expand environment variables in the YAML content before parsing.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, &ConfigError{File: configPath, Reason: fmt.Sprintf("failed to unmarshal config: %v", err), Err: err}
	}
	cfg.path = configPath

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills in the conventional values for everything left unset.
func (c *Config) ApplyDefaults() {
	if c.Title == "" {
		c.Title = "My Site"
	}
	if c.LanguageCode == "" {
		c.LanguageCode = "en-us"
	}
	if c.Theme == "" {
		c.Theme = "plain"
	}
	if c.Content.Directory == "" {
		c.Content.Directory = "content"
	}
	if c.Content.StaticDir == "" {
		c.Content.StaticDir = "static"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "public"
		c.Output.Clean = true
	}
	if c.Outputs == nil {
		c.Outputs = DefaultOutputs()
	} else {
		c.Outputs.fillMissingKinds()
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 1313
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.LinkCheck.Subject == "" {
		c.LinkCheck.Subject = "sitebuilder.links.broken"
	}
	if c.LinkCheck.Bucket == "" {
		c.LinkCheck.Bucket = "sitebuilder-links"
	}
}

// Validate checks the config for problems that must abort a build.
func (c *Config) Validate() error {
	if err := c.Outputs.validate(c.path); err != nil {
		return err
	}
	for i, m := range c.Menu {
		if m.Name == "" {
			return NewConfigError(c.path, fmt.Sprintf("menu[%d].name", i), "menu entry requires a name")
		}
		if m.URL == "" {
			return NewConfigError(c.path, fmt.Sprintf("menu[%d].url", i), "menu entry requires a url")
		}
	}
	if c.LinkCheck.NATSURL != "" && !c.LinkCheck.Enabled {
		return NewConfigError(c.path, "linkcheck.nats_url", "nats_url set but linkcheck is disabled")
	}
	if c.Serve.RebuildInterval != "" {
		if _, err := time.ParseDuration(c.Serve.RebuildInterval); err != nil {
			return NewConfigError(c.path, "serve.rebuild_interval", fmt.Sprintf("invalid duration %q", c.Serve.RebuildInterval))
		}
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		BaseURL:      "https://example.com/",
		LanguageCode: "en-us",
		Title:        "My Site",
		Theme:        "plain",
		Menu: []MenuEntry{
			{Identifier: "home", Name: "Home", URL: "/", Weight: 10},
			{Identifier: "posts", Name: "Posts", URL: "/posts/", Weight: 20},
		},
		Params: map[string]any{
			"author": "Your Name",
		},
		Outputs: DefaultOutputs(),
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
