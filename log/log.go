/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const logChanBufferSize = 512

var exitHandler = func() { os.Exit(-1) }

// Logger represents a leveled logger.
type Logger interface {
	io.Closer

	// Level returns the minimum level the logger writes.
	Level() Level

	// Log writes a formatted message at the given level, tagged with its caller location.
	Log(level Level, file string, line int, format string, args ...interface{})
}

var (
	instMu sync.RWMutex
	inst   Logger = &disabledLogger{}
)

// Set sets the package level logger.
func Set(logger Logger) {
	instMu.Lock()
	inst = logger
	instMu.Unlock()
}

// Unset closes and disables the package level logger.
func Unset() {
	instMu.Lock()
	_ = inst.Close()
	inst = &disabledLogger{}
	instMu.Unlock()
}

func instance() Logger {
	instMu.RLock()
	defer instMu.RUnlock()
	return inst
}

// Debugf logs a 'debug' message.
func Debugf(format string, args ...interface{}) {
	logf(DebugLevel, format, args...)
}

// Infof logs an 'info' message.
func Infof(format string, args ...interface{}) {
	logf(InfoLevel, format, args...)
}

// Warnf logs a 'warning' message.
func Warnf(format string, args ...interface{}) {
	logf(WarningLevel, format, args...)
}

// Errorf logs an 'error' message.
func Errorf(format string, args ...interface{}) {
	logf(ErrorLevel, format, args...)
}

// Error logs an 'error' value.
func Error(err error) {
	logf(ErrorLevel, "%v", err)
}

// Fatalf logs a 'fatal' message.
// Application will terminate after logging.
func Fatalf(format string, args ...interface{}) {
	logf(FatalLevel, format, args...)
}

func logf(level Level, format string, args ...interface{}) {
	l := instance()
	if l.Level() > level {
		return
	}
	file, line := callerInfo()
	l.Log(level, file, line, format, args...)
}

func callerInfo() (string, int) {
	_, file, ln, ok := runtime.Caller(3)
	if !ok {
		return "???", 0
	}
	filename := filepath.Base(file)
	return strings.TrimSuffix(filename, filepath.Ext(filename)), ln
}

type record struct {
	level      Level
	file       string
	line       int
	log        string
	continueCh chan struct{}
}

type logger struct {
	level     Level
	output    io.Writer
	files     []io.WriteCloser
	recCh     chan record
	closeCh   chan chan struct{}
	closeOnce sync.Once
}

// New returns a logger that writes records of 'level' or above into output and every
// provided file.
func New(level Level, output io.Writer, files ...io.WriteCloser) (Logger, error) {
	if level == OffLevel {
		return &disabledLogger{}, nil
	}
	if output == nil {
		return nil, fmt.Errorf("log: nil output writer")
	}
	l := &logger{
		level:   level,
		output:  output,
		files:   files,
		recCh:   make(chan record, logChanBufferSize),
		closeCh: make(chan chan struct{}),
	}
	go l.loop()
	return l, nil
}

func (l *logger) Level() Level { return l.level }

func (l *logger) Log(level Level, file string, line int, format string, args ...interface{}) {
	rec := record{
		level:      level,
		file:       file,
		line:       line,
		log:        fmt.Sprintf(format, args...),
		continueCh: make(chan struct{}),
	}
	select {
	case l.recCh <- rec:
		if level == FatalLevel {
			<-rec.continueCh // wait until written
		}
	default:
		break // avoid blocking...
	}
}

func (l *logger) Close() error {
	l.closeOnce.Do(func() {
		ch := make(chan struct{})
		l.closeCh <- ch
		<-ch
	})
	return nil
}

func (l *logger) loop() {
	for {
		select {
		case rec := <-l.recCh:
			l.write(rec)

		case ch := <-l.closeCh:
			// flush pending records
			for {
				select {
				case rec := <-l.recCh:
					l.write(rec)
					continue
				default:
				}
				break
			}
			for _, f := range l.files {
				_ = f.Close()
			}
			close(ch)
			return
		}
	}
}

func (l *logger) write(rec record) {
	tm := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("%s [%s] %s:%d - %s\n", tm, levelAbbreviation(rec.level), rec.file, rec.line, rec.log)

	for _, f := range l.files {
		_, _ = io.WriteString(f, line)
	}
	_, _ = io.WriteString(l.output, line)

	close(rec.continueCh)
	if rec.level == FatalLevel {
		exitHandler()
	}
}

func levelAbbreviation(level Level) string {
	switch level {
	case DebugLevel:
		return "DBG"
	case InfoLevel:
		return "INF"
	case WarningLevel:
		return "WRN"
	case ErrorLevel:
		return "ERR"
	case FatalLevel:
		return "FTL"
	default:
		// should not be reached
		return ""
	}
}
