package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "LAPCE_"

// Load returns the defaults overridden by the file at path (if any) and
// then by LAPCE_ environment variables. A missing file is not an error.
// The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileLayer, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.apply(fileLayer, true); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	envLayer, err := NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.apply(envLayer, false); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a TOML or YAML file into a map. It returns nil, nil when
// the file does not exist.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes data according to the extension of path.
func Parse(path string, data []byte) (map[string]any, error) {
	var out map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			perr := &ParseError{Path: path, Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return nil, perr
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return out, nil
}

// apply decodes a layer over c. Keys absent from the layer keep their
// current values. A strict layer may not name unknown keys.
func (c *Config) apply(layer map[string]any, strict bool) error {
	if len(layer) == 0 {
		return nil
	}
	data, err := toml.Marshal(layer)
	if err != nil {
		return fmt.Errorf("encoding config layer: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(c); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return fmt.Errorf("unknown config keys: %s", serr.String())
		}
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}
