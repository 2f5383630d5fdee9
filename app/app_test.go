/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package app

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/inventario/credvault/model"
	"github.com/inventario/credvault/record"
	"github.com/inventario/credvault/report"
	"github.com/inventario/credvault/version"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testConfig = `
logger:
  level: "off"
storage:
  type: file
  file:
    path: data/usuarios.txt
report:
  export_path: data/security_report.txt
`

type writerBuffer struct {
	mu  sync.RWMutex
	buf *bytes.Buffer
}

func newWriterBuffer() *writerBuffer {
	return &writerBuffer{buf: bytes.NewBuffer(nil)}
}

func (wb *writerBuffer) Write(p []byte) (int, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.buf.Write(p)
}

func (wb *writerBuffer) String() string {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	return wb.buf.String()
}

func newTestApplication(fs afero.Fs, w *writerBuffer, input string, args ...string) *Application {
	ap := New(w, append([]string{"./credvault", "-c", "credvault.yml"}, args...))
	ap.fs = fs
	ap.input = strings.NewReader(input)
	ap.logOutput = newWriterBuffer()
	return ap
}

func newTestFs(t *testing.T, lines ...string) afero.Fs {
	fs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(fs, "credvault.yml", []byte(testConfig), 0644))
	if len(lines) > 0 {
		require.Nil(t, afero.WriteFile(fs, "data/usuarios.txt", []byte(strings.Join(lines, "\n")+"\n"), 0600))
	}
	return fs
}

func TestApplicationEmptyArgs(t *testing.T) {
	require.NotNil(t, New(nil, nil))

	c, err := New(newWriterBuffer(), nil).Run()
	require.NotNil(t, err)
	require.Equal(t, failureCode, c)
}

func TestApplicationShowUsage(t *testing.T) {
	w := newWriterBuffer()
	c, err := New(w, []string{"./credvault", "-h"}).Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, fmt.Sprintf("%s\n", usageStr), w.String())
}

func TestApplicationPrintVersion(t *testing.T) {
	w := newWriterBuffer()
	c, err := New(w, []string{"./credvault", "--version"}).Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, fmt.Sprintf("credvault version: %v\n", version.ApplicationVersion), w.String())
}

func TestApplicationMissingCommand(t *testing.T) {
	w := newWriterBuffer()
	c, err := newTestApplication(newTestFs(t), w, "").Run()
	require.Nil(t, err)
	require.Equal(t, failureCode, c)

	w = newWriterBuffer()
	c, err = newTestApplication(newTestFs(t), w, "", "unknown").Run()
	require.Nil(t, err)
	require.Equal(t, failureCode, c)
	require.True(t, strings.HasPrefix(w.String(), "unknown command: unknown\n"))
}

func TestApplicationMissingConfigFile(t *testing.T) {
	ap := New(newWriterBuffer(), []string{"./credvault", "-c", "missing.yml", "migrate"})
	ap.fs = afero.NewMemMapFs()
	c, err := ap.Run()
	require.NotNil(t, err)
	require.Equal(t, failureCode, c)
}

func TestApplicationDefaultConfig(t *testing.T) {
	fs := afero.NewMemMapFs()

	ap := New(newWriterBuffer(), []string{"./credvault", "validate", "admin"})
	ap.fs = fs
	ap.input = strings.NewReader("admin123\n")
	ap.logOutput = newWriterBuffer()

	// first run seeds the default users and rejects
	c, err := ap.Run()
	require.Nil(t, err)
	require.Equal(t, failureCode, c)

	ok, _ := afero.Exists(fs, "data/usuarios.txt")
	require.True(t, ok)

	ap.input = strings.NewReader("admin123\n")
	c, err = ap.Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
}

func TestApplicationValidate(t *testing.T) {
	fs := newTestFs(t, "alice:pw1", "bob:pw2")

	w := newWriterBuffer()
	c, err := newTestApplication(fs, w, "pw1\n", "validate", "alice").Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, "access granted: welcome alice\n", w.String())

	b, err := afero.ReadFile(fs, "data/usuarios.txt")
	require.Nil(t, err)
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		require.Equal(t, model.Hashed, record.Classify(line))
	}

	w = newWriterBuffer()
	c, err = newTestApplication(fs, w, "wrong", "validate", "bob").Run()
	require.Nil(t, err)
	require.Equal(t, failureCode, c)
	require.Equal(t, "access denied\n", w.String())

	c, err = newTestApplication(fs, newWriterBuffer(), "pw1\n", "validate").Run()
	require.NotNil(t, err)
	require.Equal(t, failureCode, c)
}

func TestApplicationRegister(t *testing.T) {
	fs := newTestFs(t, "alice:pw1")

	w := newWriterBuffer()
	c, err := newTestApplication(fs, w, "secret\n", "register", " carol ").Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, "user carol registered\n", w.String())

	c, err = newTestApplication(fs, newWriterBuffer(), "secret\n", "register", "carol").Run()
	require.Nil(t, err)
	require.Equal(t, failureCode, c)

	w = newWriterBuffer()
	c, err = newTestApplication(fs, w, "abc\n", "register", "dave").Run()
	require.Nil(t, err)
	require.Equal(t, failureCode, c)
	require.Equal(t, "password must be at least 4 characters long\n", w.String())

	c, err = newTestApplication(fs, newWriterBuffer(), "secret\n", "validate", "carol").Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
}

func TestApplicationMigrate(t *testing.T) {
	fs := newTestFs(t, "alice:pw1")

	w := newWriterBuffer()
	c, err := newTestApplication(fs, w, "", "migrate").Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, "plain-text records migrated to hashed format\n", w.String())

	w = newWriterBuffer()
	c, err = newTestApplication(fs, w, "", "migrate").Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, "nothing to migrate\n", w.String())
}

func TestApplicationReport(t *testing.T) {
	fs := newTestFs(t, "alice:pw1")

	w := newWriterBuffer()
	c, err := newTestApplication(fs, w, "", "report").Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, report.Render([]string{"alice:pw1"}), w.String())

	w = newWriterBuffer()
	c, err = newTestApplication(fs, w, "", "report", "-o", "exports/report.txt").Run()
	require.Nil(t, err)
	require.Equal(t, successCode, c)
	require.Equal(t, "report exported to exports/report.txt\n", w.String())

	b, err := afero.ReadFile(fs, "exports/report.txt")
	require.Nil(t, err)
	require.Equal(t, report.Render([]string{"alice:pw1"}), string(b))
}
