/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package store

import "github.com/inventario/credvault/model"

// Config represents credential store configuration.
type Config struct {
	// WriteFormat is the format used by registration and seeding.
	WriteFormat model.Format

	// OpportunisticMigration enables upgrading plain-text lines while validating.
	OpportunisticMigration bool
}

type configProxyType struct {
	WriteFormat            string `yaml:"write_format"`
	OpportunisticMigration *bool  `yaml:"opportunistic_migration"`
}

// DefaultConfig returns the upgraded generation configuration.
func DefaultConfig() Config {
	return Config{WriteFormat: model.Hashed, OpportunisticMigration: true}
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxyType{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	f, err := model.ParseFormat(p.WriteFormat)
	if err != nil {
		return err
	}
	c.WriteFormat = f
	c.OpportunisticMigration = true
	if p.OpportunisticMigration != nil {
		c.OpportunisticMigration = *p.OpportunisticMigration
	}
	return nil
}
