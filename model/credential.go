/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package model

import (
	"fmt"
	"strings"
)

// Format represents a credential line format.
type Format int

const (
	// Malformed classifies a line that does not hold a credential record.
	Malformed Format = iota

	// PlainText represents the legacy 'username:password' format.
	PlainText

	// Hashed represents the 'username:digest:salt' format.
	Hashed
)

// String returns format string representation.
func (f Format) String() string {
	switch f {
	case PlainText:
		return "plaintext"
	case Hashed:
		return "hashed"
	default:
		return "malformed"
	}
}

// ParseFormat returns the record format associated to a format name.
// Only record formats are accepted, so 'malformed' yields an error.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "plaintext", "plain":
		return PlainText, nil
	case "hashed", "":
		return Hashed, nil
	default:
		return Malformed, fmt.Errorf("model: unrecognized record format: %s", s)
	}
}

// Record represents a persisted user credential.
type Record struct {
	Username string
	Format   Format

	// Password is set for PlainText records.
	Password string

	// Digest and Salt are set for Hashed records.
	Digest string
	Salt   string
}

// NewPlainTextRecord returns a legacy plain-text record.
func NewPlainTextRecord(username, password string) Record {
	return Record{Username: username, Format: PlainText, Password: password}
}

// NewHashedRecord returns a salted-hash record.
func NewHashedRecord(username, digest, salt string) Record {
	return Record{Username: username, Format: Hashed, Digest: digest, Salt: salt}
}
