/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package repository

import "context"

// Lines defines operations over a named, line-oriented resource.
//
// Lines are exchanged without their terminator. Implementations are not required
// to be safe for concurrent use.
type Lines interface {
	// Exists tells whether the underlying resource has been created.
	Exists(ctx context.Context) (bool, error)

	// Read returns every line in resource order, blank lines included.
	// A missing resource yields an empty slice.
	Read(ctx context.Context) ([]string, error)

	// Append appends a single line, creating the resource if needed.
	Append(ctx context.Context, line string) error

	// Replace substitutes the whole resource content with lines.
	Replace(ctx context.Context, lines []string) error

	// Close releases underlying resources.
	Close(ctx context.Context) error
}
