/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

// Package report builds the security audit report of a credential store.
//
// Reports are derived from raw store lines and are deterministic: identical input always
// renders identical text.
package report

import (
	"github.com/inventario/credvault/model"
	"github.com/inventario/credvault/record"
	"github.com/nbutton23/zxcvbn-go"
)

const (
	digestPrefixLength = 16
	saltPrefixLength   = 8
)

// Recommendation represents the aggregate store verdict.
type Recommendation string

const (
	// Migrate is recommended while any plain-text record remains.
	Migrate Recommendation = "MIGRATE"

	// OK means every record is hashed.
	OK Recommendation = "OK"
)

// Level represents the security level of a single record.
type Level string

const (
	// LowLevel is assigned to plain-text records.
	LowLevel Level = "LOW"

	// HighLevel is assigned to hashed records.
	HighLevel Level = "HIGH"
)

// Stats represents aggregate store statistics. Malformed lines are not counted.
type Stats struct {
	Total            int
	PlainText        int
	Hashed           int
	HashedPercentage float64
	Recommendation   Recommendation
}

// Detail represents the audit findings for a single record.
type Detail struct {
	Username string
	Format   model.Format
	Level    Level

	// Extra is a human readable summary of the record's exposed material.
	Extra string

	// Password, Strength and CrackScore are only set for plain-text records.
	Password   string
	Strength   Strength
	CrackScore int

	// DigestPrefix and SaltPrefix are only set for hashed records.
	DigestPrefix string
	SaltPrefix   string
}

// Compute returns the aggregate statistics of lines.
func Compute(lines []string) Stats {
	var st Stats
	for _, line := range lines {
		switch record.Classify(line) {
		case model.PlainText:
			st.PlainText++
		case model.Hashed:
			st.Hashed++
		default:
			continue
		}
		st.Total++
	}
	if st.Total > 0 {
		st.HashedPercentage = float64(st.Hashed) * 100 / float64(st.Total)
	}
	st.Recommendation = OK
	if st.PlainText > 0 {
		st.Recommendation = Migrate
	}
	return st
}

// Details returns one Detail per decodable line, in encounter order.
func Details(lines []string) []Detail {
	var details []Detail
	for _, line := range lines {
		r, err := record.Decode(line)
		if err != nil {
			continue
		}
		details = append(details, detail(r))
	}
	return details
}

// DetailsByUser returns the details of lines keyed by username.
// When a username appears more than once its first record wins.
func DetailsByUser(lines []string) map[string]Detail {
	m := make(map[string]Detail)
	for _, d := range Details(lines) {
		if _, ok := m[d.Username]; ok {
			continue
		}
		m[d.Username] = d
	}
	return m
}

func detail(r model.Record) Detail {
	d := Detail{Username: r.Username, Format: r.Format}
	switch r.Format {
	case model.PlainText:
		d.Level = LowLevel
		d.Password = r.Password
		d.Strength = PasswordStrength(r.Password)
		d.CrackScore = crackScore(r.Password)
		d.Extra = "password visible: " + r.Password + " (security risk)"

	case model.Hashed:
		d.Level = HighLevel
		d.DigestPrefix = prefix(r.Digest, digestPrefixLength)
		d.SaltPrefix = prefix(r.Salt, saltPrefixLength)
		d.Extra = "hash: " + d.DigestPrefix + " salt: " + d.SaltPrefix
	}
	return d
}

func crackScore(password string) int {
	if len(password) == 0 {
		return 0
	}
	return zxcvbn.PasswordStrength(password, nil).Score
}

func prefix(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return s + "..."
}
