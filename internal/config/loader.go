package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
)

const DefaultEnvPrefix = "RESPKV_"

var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Loader builds a ServerConfig from, in increasing priority, the defaults, a config file, the
// environment and explicit overrides (usually command line flags).
//
// Environment variables use "__" between sections so that keys may contain underscores:
// RESPKV_SERVER__MAX_CONNECTIONS sets server.max_connections.
type Loader struct {
	k         *koanf.Koanf
	fs        afero.Fs
	envPrefix string
	filePath  string
	overrides map[string]any
}

type Option func(*Loader)

func WithFs(fs afero.Fs) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets values that win over every other source. Keys are dotted paths.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		fs:        afero.NewOsFs(),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) FilePath() string {
	return l.filePath
}

// Load reads every source from scratch and returns the verified result. It can be called
// again to pick up changes.
func (l *Loader) Load() (ServerConfig, error) {
	l.k = koanf.New(".")
	cfg := Default()

	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.LoadEnv(); err != nil {
		return cfg, err
	}
	if len(l.overrides) > 0 {
		if err := l.LoadMap(l.overrides); err != nil {
			return cfg, err
		}
	}
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Verify(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l *Loader) LoadFile(path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".toml":
		parser = TOML()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err := l.k.Load(fsProvider{fs: l.fs, path: path}, parser); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return nil
}

func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}
