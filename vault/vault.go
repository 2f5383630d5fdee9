/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

// Package vault exposes the credential store to user interfaces.
//
// Every call is serialized on a single run queue and storage failures are logged and
// reported as a negative result, never returned.
package vault

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/inventario/credvault/log"
	"github.com/inventario/credvault/report"
	"github.com/inventario/credvault/runqueue"
	"github.com/inventario/credvault/store"
	"github.com/spf13/afero"
)

const exportFileMode os.FileMode = 0600

// Vault represents a serialized credential store front.
type Vault struct {
	store      *store.Store
	reporter   *report.Reporter
	fs         afero.Fs
	exportPath string
	rq         *runqueue.RunQueue

	mu     sync.RWMutex
	closed bool
}

// New returns a vault operating on st. Reports are rendered by reporter and exported
// into fs, at exportPath unless a path is given.
func New(st *store.Store, reporter *report.Reporter, fs afero.Fs, exportPath string) *Vault {
	if reporter == nil {
		reporter = report.New(nil)
	}
	if len(exportPath) == 0 {
		exportPath = report.DefaultExportPath
	}
	return &Vault{
		store:      st,
		reporter:   reporter,
		fs:         fs,
		exportPath: exportPath,
		rq:         runqueue.New("vault"),
	}
}

// Validate reports whether password is valid for username.
func (v *Vault) Validate(ctx context.Context, username, password string) bool {
	var ok bool
	v.runSync(func() {
		ok = v.validate(ctx, username, password)
	})
	return ok
}

// ValidateAsync validates username and password in background and delivers the result
// to cb on its own goroutine, so cb may call back into the vault.
func (v *Vault) ValidateAsync(ctx context.Context, username, password string, cb func(bool)) {
	if !v.run(func() {
		ok := v.validate(ctx, username, password)
		go cb(ok)
	}) {
		go cb(false)
	}
}

// Register stores a new user. It returns false if the user already exists,
// the credentials are empty or the store could not be written.
func (v *Vault) Register(ctx context.Context, username, password string) bool {
	var ok bool
	v.runSync(func() {
		registered, err := v.store.Register(ctx, username, password)
		if err != nil {
			log.Errorf("vault: register %s: %v", username, err)
			return
		}
		ok = registered
	})
	return ok
}

// MigrateAll upgrades every plain-text record and reports whether anything was rewritten.
func (v *Vault) MigrateAll(ctx context.Context) bool {
	var ok bool
	v.runSync(func() {
		runID := uuid.New().String()
		log.Infof("vault: migration %s started", runID)

		migrated, err := v.store.MigrateAll(ctx)
		if err != nil {
			log.Errorf("vault: migration %s failed: %v", runID, err)
			return
		}
		if !migrated {
			log.Infof("vault: migration %s: nothing to migrate", runID)
			return
		}
		log.Infof("vault: migration %s completed", runID)
		ok = true
	})
	return ok
}

// GenerateReport returns the security report of the store, or an empty string
// if the store could not be read.
func (v *Vault) GenerateReport(ctx context.Context) string {
	var rep string
	v.runSync(func() {
		rep, _ = v.generateReport(ctx)
	})
	return rep
}

// ExportReport writes the security report to path, creating intermediate directories.
// An empty path selects the configured export path.
func (v *Vault) ExportReport(ctx context.Context, path string) bool {
	if len(path) == 0 {
		path = v.exportPath
	}
	var ok bool
	v.runSync(func() {
		rep, err := v.generateReport(ctx)
		if err != nil {
			return
		}
		if err := v.fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			log.Errorf("vault: export report to %s: %v", path, err)
			return
		}
		if err := afero.WriteFile(v.fs, path, []byte(rep), exportFileMode); err != nil {
			log.Errorf("vault: export report to %s: %v", path, err)
			return
		}
		log.Infof("vault: security report exported to %s", path)
		ok = true
	})
	return ok
}

// Close stops the vault queue once pending calls have completed.
// Calls issued after Close report a negative result.
func (v *Vault) Close(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	done := make(chan struct{})
	v.rq.Stop(func() { close(done) })
	v.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Vault) validate(ctx context.Context, username, password string) bool {
	ok, err := v.store.Validate(ctx, username, password)
	if err != nil {
		log.Errorf("vault: validate %s: %v", username, err)
		return false
	}
	return ok
}

func (v *Vault) generateReport(ctx context.Context) (string, error) {
	lines, err := v.store.Lines(ctx)
	if err != nil {
		log.Errorf("vault: generate report: %v", err)
		return "", err
	}
	return v.reporter.Render(lines), nil
}

func (v *Vault) run(fn func()) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return false
	}
	v.rq.Run(fn)
	return true
}

// runSync blocks until fn has been executed on the vault queue.
func (v *Vault) runSync(fn func()) {
	done := make(chan struct{})
	if !v.run(func() {
		defer close(done)
		fn()
	}) {
		log.Warnf("vault: call rejected: vault closed")
		return
	}
	<-done
}
