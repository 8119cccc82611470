package config

import (
	"bytes"
	"errors"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/maps"
	"github.com/spf13/afero"
)

var ErrReadNotSupported = errors.New("config: provider does not support Read, use ReadBytes")

var ErrReadBytesNotSupported = errors.New("config: provider does not support ReadBytes, use Read")

// fsProvider reads a config file through an afero.Fs
type fsProvider struct {
	fs   afero.Fs
	path string
}

func (p fsProvider) ReadBytes() ([]byte, error) {
	return afero.ReadFile(p.fs, p.path)
}

func (p fsProvider) Read() (map[string]any, error) {
	return nil, ErrReadNotSupported
}

// mapProvider serves dotted keys such as "server.addr" as a nested map
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	copied := make(map[string]any, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return maps.Unflatten(copied, "."), nil
}

// TOMLParser parses TOML documents for koanf
type TOMLParser struct{}

func TOML() *TOMLParser {
	return &TOMLParser{}
}

func (p *TOMLParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := toml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *TOMLParser) Marshal(o map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
