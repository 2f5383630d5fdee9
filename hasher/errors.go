/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package hasher

import "github.com/pkg/errors"

var (
	// ErrHashingUnavailable is returned when the SHA-256 primitive is not linked into the binary.
	ErrHashingUnavailable = errors.New("hasher: SHA-256 digest unavailable")

	// ErrEntropyUnavailable is returned when the secure random source cannot be read.
	ErrEntropyUnavailable = errors.New("hasher: secure random source unavailable")
)
