package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
)

// SetValue persists a single key into the config file at path. Everything
// else in the file is kept as written, so values that only came from
// defaults or the environment never end up on disk. The file format
// follows the extension: .yaml and .yml are YAML, anything else TOML.
func SetValue(path, key string, value interface{}) error {
	isYAML := isYAMLFile(path)
	var parser koanf.Parser = toml.Parser()
	if isYAML {
		parser = yaml.Parser()
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), parser); err != nil {
			return errors.Wrapf(err, errors.ErrConfigSave, "failed to read %s", path).
				WithDetail("path", path)
		}
	}
	if err := k.Set(key, value); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to set %s", key)
	}

	var (
		data []byte
		err  error
	)
	if isYAML {
		data, err = parser.Marshal(k.Raw())
	} else {
		data, err = gotoml.Marshal(k.Raw())
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "failed to encode configuration")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to write %s", path).
			WithDetail("path", path)
	}
	return nil
}

// JavaPathSaver returns a callback that records a newly resolved java
// path in cfg and persists runtime.java_path when it changed. The value
// goes to the config file cfg was loaded from, or to defaultPath when
// no file was loaded.
func JavaPathSaver(defaultPath string, cfg *Config) func(javaPath string) error {
	return func(javaPath string) error {
		if cfg.Runtime.JavaPath == javaPath {
			return nil
		}
		cfg.Runtime.JavaPath = javaPath

		target := cfg.File()
		if target == "" {
			target = defaultPath
		}
		return SetValue(target, "runtime.java_path", javaPath)
	}
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
