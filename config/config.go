// Package config loads gosln settings from defaults, a gosln.toml file,
// GOSLN_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/willibrandon/gosln/errs"
)

// DefaultFile is read from the working directory when no file is given
const DefaultFile = "gosln.toml"

// EnvPrefix prefixes environment overrides, e.g. GOSLN_CONFIGURATION=Release
const EnvPrefix = "GOSLN_"

// Settings holds the options shared by the artifact and project commands
type Settings struct {
	Configuration     string   `koanf:"configuration"`
	Platform          string   `koanf:"platform"`
	IncludeSubfolders bool     `koanf:"subfolders"`
	Include           []string `koanf:"include"`
	Exclude           []string `koanf:"exclude"`
	BinaryExtension   string   `koanf:"binary-ext"`
	SymbolExtension   string   `koanf:"symbol-ext"`
	LinkMode          string   `koanf:"link-mode"`
	Verbosity         string   `koanf:"verbosity"`
	Trace             string   `koanf:"trace"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"configuration": "",
		"platform":      "",
		"subfolders":    true,
		"include":       []string{},
		"exclude":       []string{},
		"binary-ext":    ".dll",
		"symbol-ext":    ".pdb",
		"link-mode":     "symlink",
		"verbosity":     "normal",
		"trace":         "none",
	}
}

// Config is a loaded configuration. Settings are resolved once per profile.
type Config struct {
	Settings Settings

	defaults *koanf.Koanf
	file     *koanf.Koanf
	env      *koanf.Koanf
	flags    *koanf.Koanf

	profiles sync.Map // profile name -> Settings
}

// Load reads configuration with priority flags > environment > file > defaults.
// A missing file is not an error; an unparsable one is.
func Load(f *pflag.FlagSet, path string) (*Config, error) {
	c := &Config{
		defaults: koanf.New("."),
		file:     koanf.New("."),
		env:      koanf.New("."),
		flags:    koanf.New("."),
	}

	if err := c.defaults.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := c.file.Load(file.Provider(path), toml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.Error{Kind: errs.KindFormat, Op: "config.load", Path: path, Msg: "failed to load config file", Err: err}
		}
		if explicit {
			return nil, errs.NotFound("config.load", path, "config file not found")
		}
	}

	if err := c.env.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", "-")
		switch key {
		case "include", "exclude":
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		// Unchanged flags only fill keys nobody else set, and defaults set them all.
		base := c.merged("")
		if err := c.flags.Load(posflag.Provider(f, ".", base), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	settings, err := c.resolve("")
	if err != nil {
		return nil, err
	}
	c.Settings = settings
	return c, nil
}

// Profile returns the settings with [profiles.<name>] from the file applied on top
// of the file's top level. Environment and flags still win. Results are memoized;
// concurrent first calls agree on a single value.
func (c *Config) Profile(name string) (Settings, error) {
	if name == "" {
		return c.Settings, nil
	}
	if v, ok := c.profiles.Load(name); ok {
		return v.(Settings), nil
	}
	if !c.file.Exists("profiles." + name) {
		return Settings{}, errs.NotFound("config.profile", name, fmt.Sprintf("unknown profile (available: %s)", strings.Join(c.ProfileNames(), ", ")))
	}

	s, err := c.resolve(name)
	if err != nil {
		return Settings{}, err
	}
	actual, _ := c.profiles.LoadOrStore(name, s)
	return actual.(Settings), nil
}

// ProfileNames lists the profiles declared in the file
func (c *Config) ProfileNames() []string {
	return c.file.MapKeys("profiles")
}

func (c *Config) merged(profile string) *koanf.Koanf {
	k := koanf.New(".")
	_ = k.Merge(c.defaults)
	_ = k.Merge(c.file)
	if profile != "" {
		_ = k.Merge(c.file.Cut("profiles." + profile))
	}
	_ = k.Merge(c.env)
	_ = k.Merge(c.flags)
	return k
}

func (c *Config) resolve(profile string) (Settings, error) {
	var s Settings
	if err := c.merged(profile).Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return s, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("not implemented")
}
