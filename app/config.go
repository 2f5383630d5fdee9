/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package app

import (
	"bytes"

	"github.com/inventario/credvault/log"
	"github.com/inventario/credvault/report"
	"github.com/inventario/credvault/storage"
	"github.com/inventario/credvault/store"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Config represents a global configuration.
type Config struct {
	Logger  log.Config     `yaml:"logger"`
	Storage storage.Config `yaml:"storage"`
	Store   store.Config   `yaml:"store"`
	Report  report.Config  `yaml:"report"`
}

// DefaultConfig returns the configuration used when no configuration file is found.
func DefaultConfig() Config {
	return Config{
		Logger:  log.Config{Level: log.InfoLevel},
		Storage: storage.DefaultConfig(),
		Store:   store.DefaultConfig(),
		Report:  report.DefaultConfig(),
	}
}

// FromFile loads global configuration from a file located in fs.
// Sections missing from the file keep their default values.
func (cfg *Config) FromFile(fs afero.Fs, configFile string) error {
	b, err := afero.ReadFile(fs, configFile)
	if err != nil {
		return errors.Wrapf(err, "app: read configuration %s", configFile)
	}
	return cfg.FromBuffer(bytes.NewBuffer(b))
}

// FromBuffer loads global configuration from a specified byte buffer.
// Sections missing from the buffer keep their default values.
func (cfg *Config) FromBuffer(buf *bytes.Buffer) error {
	*cfg = DefaultConfig()
	return yaml.Unmarshal(buf.Bytes(), cfg)
}
