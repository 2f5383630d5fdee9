/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

// Package hasher implements the salted one-way password digest used by the credential store.
//
// A digest is SHA-256 over the password bytes followed by the salt string, rendered as
// 64 lowercase hex characters. Salts are 16 random bytes, base64 encoded.
package hasher

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

// SaltLength is the number of random bytes in a generated salt.
const SaltLength = 16

// Hasher defines password digest operations.
type Hasher interface {
	// GenerateSalt returns a fresh base64 encoded salt.
	GenerateSalt() (string, error)

	// Hash returns the hex digest of password salted with salt.
	Hash(password, salt string) string

	// Verify reports whether candidate hashes to digest under salt.
	Verify(candidate, digest, salt string) bool
}

// SHA256 is the salted SHA-256 Hasher.
type SHA256 struct {
	rand io.Reader
}

// New returns a SHA-256 hasher reading salts from crypto/rand.
func New() (*SHA256, error) {
	if !crypto.SHA256.Available() {
		return nil, ErrHashingUnavailable
	}
	return &SHA256{rand: rand.Reader}, nil
}

// MustNew is like New but panics if the digest primitive is unavailable.
func MustNew() *SHA256 {
	h, err := New()
	if err != nil {
		panic(err)
	}
	return h
}

// GenerateSalt satisfies Hasher interface.
func (h *SHA256) GenerateSalt() (string, error) {
	b := make([]byte, SaltLength)
	if _, err := io.ReadFull(h.rand, b); err != nil {
		return "", errors.Wrap(ErrEntropyUnavailable, err.Error())
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Hash satisfies Hasher interface.
func (h *SHA256) Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// Verify satisfies Hasher interface.
func (h *SHA256) Verify(candidate, digest, salt string) bool {
	computed := h.Hash(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
