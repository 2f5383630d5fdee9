/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

// Package record encodes and decodes credential store lines.
//
// A line holds 'username:password' (plain text) or 'username:digest:salt' (hashed).
// Fields are split on the literal ':' character and never escaped, so a username or
// password containing ':' changes the field count and corrupts the record.
package record

import (
	"strings"

	"github.com/inventario/credvault/hasher"
	"github.com/inventario/credvault/model"
	"github.com/pkg/errors"
)

const separator = ":"

// ErrMalformed is returned when a line does not hold two or three fields.
var ErrMalformed = errors.New("record: malformed line")

// Classify returns the format of line by counting its ':' separated fields.
func Classify(line string) model.Format {
	switch len(split(line)) {
	case 2:
		return model.PlainText
	case 3:
		return model.Hashed
	default:
		return model.Malformed
	}
}

// Decode parses a single credential line.
func Decode(line string) (model.Record, error) {
	fields := split(line)
	switch len(fields) {
	case 2:
		return model.NewPlainTextRecord(fields[0], fields[1]), nil
	case 3:
		return model.NewHashedRecord(fields[0], fields[1], fields[2]), nil
	default:
		return model.Record{}, ErrMalformed
	}
}

// Encode serializes r into a newline terminated line.
func Encode(r model.Record) string {
	var sb strings.Builder
	sb.WriteString(r.Username)
	sb.WriteString(separator)
	if r.Format == model.Hashed {
		sb.WriteString(r.Digest)
		sb.WriteString(separator)
		sb.WriteString(r.Salt)
	} else {
		sb.WriteString(r.Password)
	}
	sb.WriteString("\n")
	return sb.String()
}

// Upgrade converts a plain-text line into a hashed one using a fresh salt.
// Lines that do not decode as plain text are returned unchanged, as is the input
// whenever a salt cannot be generated. The returned line carries no terminator.
func Upgrade(line string, h hasher.Hasher) string {
	r, err := Decode(line)
	if err != nil || r.Format != model.PlainText {
		return line
	}
	hr, err := Hash(r.Username, r.Password, h)
	if err != nil {
		return line
	}
	return strings.TrimSuffix(Encode(hr), "\n")
}

// Hash returns a hashed record for username and password salted with a fresh salt.
func Hash(username, password string, h hasher.Hasher) (model.Record, error) {
	salt, err := h.GenerateSalt()
	if err != nil {
		return model.Record{}, err
	}
	return model.NewHashedRecord(username, h.Hash(password, salt), salt), nil
}

func split(line string) []string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return strings.Split(line, separator)
}
