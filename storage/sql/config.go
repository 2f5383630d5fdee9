/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package sql

// DefaultPoolSize defines the default size of the database connection pool.
const DefaultPoolSize = 4

// DefaultResource is the resource name credential lines are stored under.
const DefaultResource = "usuarios"

// Config represents SQL storage configuration.
type Config struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	PoolSize int    `yaml:"pool_size"`
	Resource string `yaml:"resource"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig Config

	parsed := rawConfig{
		PoolSize: DefaultPoolSize,
		SSLMode:  "disable",
		Resource: DefaultResource,
	}
	if err := unmarshal(&parsed); err != nil {
		return err
	}
	*c = Config(parsed)
	return nil
}
