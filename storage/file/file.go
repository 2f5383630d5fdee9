/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package file

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/inventario/credvault/log"
	"github.com/inventario/credvault/storage/repository"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// BackupSuffix is appended to the credential file path to name the rewrite sibling.
const BackupSuffix = ".backup"

const fileMode os.FileMode = 0600

var _ repository.Lines = (*Storage)(nil)

// Storage is a file backed line resource.
type Storage struct {
	fs   afero.Fs
	path string
	mode ReplaceMode
}

// New returns a file line resource located at cfg.Path within fs.
func New(cfg *Config, fs afero.Fs) *Storage {
	path := cfg.Path
	if len(path) == 0 {
		path = DefaultPath
	}
	return &Storage{fs: fs, path: path, mode: cfg.ReplaceMode}
}

// Path returns the credential file path.
func (s *Storage) Path() string { return s.path }

// BackupPath returns the path of the sibling written during a rewrite.
func (s *Storage) BackupPath() string { return s.path + BackupSuffix }

// Exists satisfies repository.Lines interface.
func (s *Storage) Exists(_ context.Context) (bool, error) {
	ok, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return false, errors.Wrapf(err, "file: stat %s", s.path)
	}
	return ok, nil
}

// Read satisfies repository.Lines interface.
func (s *Storage) Read(_ context.Context) ([]string, error) {
	f, err := s.fs.Open(s.path)
	switch {
	case os.IsNotExist(err):
		return []string{}, nil
	case err != nil:
		return nil, errors.Wrapf(err, "file: open %s", s.path)
	}
	defer func() { _ = f.Close() }()

	lines, err := readLines(f)
	if err != nil {
		return nil, errors.Wrapf(err, "file: read %s", s.path)
	}
	return lines, nil
}

// Append satisfies repository.Lines interface.
func (s *Storage) Append(_ context.Context, line string) error {
	f, err := s.fs.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, fileMode)
	if err != nil {
		return errors.Wrapf(err, "file: open %s", s.path)
	}
	if _, err := io.WriteString(f, terminate(line)); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "file: append %s", s.path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "file: close %s", s.path)
	}
	return nil
}

// Replace satisfies repository.Lines interface.
//
// The new content is fully written and synced to the backup sibling before the original
// is touched.
func (s *Storage) Replace(_ context.Context, lines []string) error {
	backup := s.BackupPath()
	if err := s.writeFile(backup, lines); err != nil {
		_ = s.fs.Remove(backup)
		return err
	}
	if s.mode == DeleteThenMove {
		if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "file: remove %s", s.path)
		}
	}
	if err := s.fs.Rename(backup, s.path); err != nil {
		if s.mode == DeleteThenMove {
			log.Errorf("credential file %s removed but backup could not be moved into place: %v", s.path, err)
		}
		return errors.Wrapf(err, "file: rename %s", backup)
	}
	return nil
}

// Close satisfies repository.Lines interface.
func (s *Storage) Close(_ context.Context) error { return nil }

func (s *Storage) writeFile(path string, lines []string) error {
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return errors.Wrapf(err, "file: create %s", path)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(terminate(line)); err != nil {
			_ = f.Close()
			return errors.Wrapf(err, "file: write %s", path)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "file: write %s", path)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "file: sync %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "file: close %s", path)
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	lines := []string{}
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
		switch {
		case err == io.EOF:
			return lines, nil
		case err != nil:
			return nil, err
		}
	}
}

func terminate(line string) string {
	if strings.HasSuffix(line, "\n") {
		return line
	}
	return line + "\n"
}
