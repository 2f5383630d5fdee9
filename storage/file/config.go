/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package file

import "fmt"

// DefaultPath is the credential file location used when none is configured.
const DefaultPath = "data/usuarios.txt"

// ReplaceMode represents the strategy used to swap a rewritten file into place.
type ReplaceMode int

const (
	// DeleteThenMove writes the backup sibling, removes the original and moves the backup
	// into its place. A failure between both steps leaves no credential file behind.
	DeleteThenMove ReplaceMode = iota

	// RenameOver renames the backup sibling over the original in a single step.
	RenameOver
)

// String returns replace mode string representation.
func (m ReplaceMode) String() string {
	switch m {
	case RenameOver:
		return "rename_over"
	default:
		return "delete_then_move"
	}
}

// Config represents file storage configuration.
type Config struct {
	Path        string
	ReplaceMode ReplaceMode
}

type configProxyType struct {
	Path        string `yaml:"path"`
	ReplaceMode string `yaml:"replace_mode"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxyType{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	switch p.ReplaceMode {
	case "", "delete_then_move":
		c.ReplaceMode = DeleteThenMove
	case "rename_over":
		c.ReplaceMode = RenameOver
	default:
		return fmt.Errorf("file.Config: unrecognized replace mode: %s", p.ReplaceMode)
	}
	c.Path = p.Path
	if len(c.Path) == 0 {
		c.Path = DefaultPath
	}
	return nil
}
