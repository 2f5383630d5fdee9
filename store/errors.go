/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidCredentials is returned when registering an empty username or password.
var ErrInvalidCredentials = errors.New("store: username and password must not be empty")

// IOError represents a failure reading or writing the credential resource.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

// Cause returns the underlying storage error.
func (e *IOError) Cause() error { return e.Err }

// IsIOFailure tells whether err, or any error it wraps, is an IOError.
func IsIOFailure(err error) bool {
	type causer interface {
		Cause() error
	}
	for err != nil {
		if _, ok := err.(*IOError); ok {
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}

func ioError(op string, err error) error {
	return &IOError{Op: op, Err: err}
}
