/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package storage

import (
	"errors"
	"fmt"

	"github.com/inventario/credvault/storage/file"
	"github.com/inventario/credvault/storage/sql"
)

// Type represents a storage backend type.
type Type int

const (
	// File represents a plain text file storage type.
	File Type = iota

	// MySQL represents a MySQL storage type.
	MySQL

	// PgSQL represents a PostgreSQL storage type.
	PgSQL
)

// Config represents a storage configuration.
type Config struct {
	Type  Type
	File  *file.Config
	MySQL *sql.Config
	PgSQL *sql.Config
}

type configProxyType struct {
	Type  string       `yaml:"type"`
	File  *file.Config `yaml:"file"`
	MySQL *sql.Config  `yaml:"mysql"`
	PgSQL *sql.Config  `yaml:"pgsql"`
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{Type: File, File: &file.Config{Path: file.DefaultPath}}
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxyType{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	switch p.Type {
	case "", "file":
		c.Type = File
		c.File = p.File
		if c.File == nil {
			c.File = &file.Config{Path: file.DefaultPath}
		}

	case "mysql":
		if p.MySQL == nil {
			return errors.New("storage.Config: couldn't read MySQL configuration")
		}
		c.Type = MySQL
		c.MySQL = p.MySQL

	case "pgsql":
		if p.PgSQL == nil {
			return errors.New("storage.Config: couldn't read PgSQL configuration")
		}
		c.Type = PgSQL
		c.PgSQL = p.PgSQL

	default:
		return fmt.Errorf("storage.Config: unrecognized storage type: %s", p.Type)
	}
	return nil
}
