/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

// Package store implements the line-oriented credential store.
//
// Every operation re-reads the whole resource; no record is cached between calls.
// A Store is not safe for concurrent use.
package store

import (
	"context"
	"strings"

	"github.com/inventario/credvault/hasher"
	"github.com/inventario/credvault/log"
	"github.com/inventario/credvault/model"
	"github.com/inventario/credvault/record"
	"github.com/inventario/credvault/storage/repository"
)

// Credential is a username and password pair.
type Credential struct {
	Username string
	Password string
}

// DefaultUsers are written to a missing resource on first use.
var DefaultUsers = []Credential{
	{Username: "admin", Password: "admin123"},
	{Username: "profesor", Password: "clase2024"},
}

// Store represents a credential store.
type Store struct {
	lines  repository.Lines
	hasher hasher.Hasher
	cfg    Config
}

// New returns a credential store backed by lines.
func New(lines repository.Lines, h hasher.Hasher, cfg *Config) *Store {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Store{lines: lines, hasher: h, cfg: c}
}

// Exists tells whether the credential resource has been created.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	ok, err := s.lines.Exists(ctx)
	if err != nil {
		return false, ioError("exists", err)
	}
	return ok, nil
}

// EnsureSeeded creates the resource holding DefaultUsers when it does not exist yet.
// It reports whether seeding took place.
func (s *Store) EnsureSeeded(ctx context.Context) (bool, error) {
	ok, err := s.Exists(ctx)
	if err != nil || ok {
		return false, err
	}
	log.Infof("credential resource not found... seeding %d default users", len(DefaultUsers))

	for _, c := range DefaultUsers {
		line, err := s.encode(c.Username, c.Password)
		if err != nil {
			return false, err
		}
		if err := s.lines.Append(ctx, line); err != nil {
			return false, ioError("seed", err)
		}
	}
	return true, nil
}

// Validate reports whether password matches any record stored under username.
//
// A missing resource is seeded and the call returns false. When opportunistic migration
// is enabled, every plain-text line met during the scan is upgraded and, once the scan
// completes, the whole resource is rewritten, regardless of whether username was found.
func (s *Store) Validate(ctx context.Context, username, password string) (bool, error) {
	seeded, err := s.EnsureSeeded(ctx)
	if err != nil {
		return false, err
	}
	if seeded {
		return false, nil
	}
	lines, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	var matched, migrate bool

	rewritten := make([]string, 0, len(lines))
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		if s.cfg.OpportunisticMigration && record.Classify(line) == model.PlainText {
			if up := record.Upgrade(line, s.hasher); up != line {
				line = up
				migrate = true
			}
		}
		rewritten = append(rewritten, line)

		if matched {
			continue
		}
		r, err := record.Decode(line)
		if err != nil {
			log.Debugf("skipping malformed credential line")
			continue
		}
		if r.Username == username && s.check(r, password) {
			matched = true
		}
	}
	if migrate {
		if err := s.replace(ctx, rewritten); err != nil {
			log.Errorf("opportunistic migration failed: %v", err)
		} else {
			log.Infof("credential resource migrated to hashed format")
		}
	}
	return matched, nil
}

// UserExists reports whether any decodable record is stored under username.
// It never compares passwords nor rewrites the resource.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	lines, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		r, err := record.Decode(line)
		if err != nil {
			continue
		}
		if r.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// Register appends a new record for username in the configured write format.
// It returns false if username is already present in any format.
func (s *Store) Register(ctx context.Context, username, password string) (bool, error) {
	if len(username) == 0 || len(password) == 0 {
		return false, ErrInvalidCredentials
	}
	if _, err := s.EnsureSeeded(ctx); err != nil {
		return false, err
	}
	exists, err := s.UserExists(ctx, username)
	if err != nil {
		return false, err
	}
	if exists {
		log.Debugf("registration rejected: user %s already exists", username)
		return false, nil
	}
	line, err := s.encode(username, password)
	if err != nil {
		return false, err
	}
	if err := s.lines.Append(ctx, line); err != nil {
		return false, ioError("append", err)
	}
	log.Infof("registered user %s (%s)", username, s.cfg.WriteFormat)
	return true, nil
}

// MigrateAll upgrades every plain-text line and rewrites the resource if anything changed.
// It reports whether the resource was rewritten.
func (s *Store) MigrateAll(ctx context.Context) (bool, error) {
	ok, err := s.Exists(ctx)
	if err != nil || !ok {
		return false, err
	}
	lines, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	var migrated int

	rewritten := make([]string, 0, len(lines))
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		if record.Classify(line) == model.PlainText {
			if up := record.Upgrade(line, s.hasher); up != line {
				line = up
				migrated++
			}
		}
		rewritten = append(rewritten, line)
	}
	if migrated == 0 {
		return false, nil
	}
	if err := s.replace(ctx, rewritten); err != nil {
		return false, err
	}
	log.Infof("migrated %d plain-text credential(s) to hashed format", migrated)
	return true, nil
}

// Lines returns the raw resource lines. A missing resource yields no lines.
func (s *Store) Lines(ctx context.Context) ([]string, error) {
	return s.read(ctx)
}

func (s *Store) check(r model.Record, password string) bool {
	switch r.Format {
	case model.PlainText:
		return r.Password == password
	case model.Hashed:
		return s.hasher.Verify(password, r.Digest, r.Salt)
	default:
		return false
	}
}

func (s *Store) encode(username, password string) (string, error) {
	if s.cfg.WriteFormat == model.PlainText {
		return record.Encode(model.NewPlainTextRecord(username, password)), nil
	}
	r, err := record.Hash(username, password, s.hasher)
	if err != nil {
		return "", err
	}
	return record.Encode(r), nil
}

func (s *Store) read(ctx context.Context) ([]string, error) {
	lines, err := s.lines.Read(ctx)
	if err != nil {
		return nil, ioError("read", err)
	}
	return lines, nil
}

func (s *Store) replace(ctx context.Context, lines []string) error {
	if err := s.lines.Replace(ctx, lines); err != nil {
		return ioError("replace", err)
	}
	return nil
}

func isBlank(line string) bool {
	return len(strings.TrimSpace(line)) == 0
}
