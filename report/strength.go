/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package report

import (
	"unicode"
	"unicode/utf8"
)

// Strength represents an advisory password strength class.
type Strength int

const (
	// Weak represents a score below 3.
	Weak Strength = iota

	// Medium represents a score of 3.
	Medium

	// Strong represents a score of 4.
	Strong

	// VeryStrong represents a score of 5 or 6.
	VeryStrong
)

// String returns strength string representation.
func (s Strength) String() string {
	switch s {
	case Medium:
		return "MEDIUM"
	case Strong:
		return "STRONG"
	case VeryStrong:
		return "VERY_STRONG"
	default:
		return "WEAK"
	}
}

// PasswordStrength classifies password.
//
// One point each is granted for a length of at least 8 runes, at least 12 runes, and the
// presence of an uppercase letter, a lowercase letter, a digit and a symbol.
func PasswordStrength(password string) Strength {
	if len(password) == 0 {
		return Weak
	}
	var score int

	n := utf8.RuneCountInString(password)
	if n >= 8 {
		score++
	}
	if n >= 12 {
		score++
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}
	for _, present := range []bool{upper, lower, digit, symbol} {
		if present {
			score++
		}
	}
	switch {
	case score >= 5:
		return VeryStrong
	case score >= 4:
		return Strong
	case score >= 3:
		return Medium
	default:
		return Weak
	}
}
