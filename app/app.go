/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package app

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inventario/credvault/hasher"
	"github.com/inventario/credvault/log"
	"github.com/inventario/credvault/report"
	"github.com/inventario/credvault/storage"
	"github.com/inventario/credvault/storage/repository"
	"github.com/inventario/credvault/store"
	"github.com/inventario/credvault/vault"
	"github.com/inventario/credvault/version"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh/terminal"
)

const (
	successCode = 0
	failureCode = 1
)

const (
	defaultConfigFile       = "credvault.yml"
	defaultShutDownWaitTime = time.Duration(5) * time.Second
	minPasswordLength       = 4
)

const usageStr = `
Usage: credvault [options] <command> [arguments]

Commands:
    validate <username>    Check a password read from the terminal or stdin
    register <username>    Register a new user
    migrate                Upgrade every plain-text record to the hashed format
    report [-o <file>]     Print the security report, or export it to a file

Options:
    -c, --config <file>    Configuration file path
Common Options:
    -h, --help             Show this message
    -v, --version          Show version
`

// Application encapsulates a credvault command line application.
type Application struct {
	output           io.Writer
	logOutput        io.Writer
	input            io.Reader
	fs               afero.Fs
	args             []string
	logger           log.Logger
	shutDownWaitSecs time.Duration
}

// New returns a runnable application given an output and a command line arguments array.
func New(output io.Writer, args []string) *Application {
	return &Application{
		output:           output,
		logOutput:        os.Stderr,
		input:            os.Stdin,
		fs:               afero.NewOsFs(),
		args:             args,
		shutDownWaitSecs: defaultShutDownWaitTime,
	}
}

// Run runs the requested command and returns the process exit code.
func (a *Application) Run() (int, error) {
	if len(a.args) == 0 {
		return failureCode, errors.New("empty command-line arguments")
	}
	var configFile string
	var showVersion, showUsage bool

	fs := flag.NewFlagSet("credvault", flag.ContinueOnError)
	fs.SetOutput(a.output)

	fs.BoolVar(&showUsage, "help", false, "Show this message")
	fs.BoolVar(&showUsage, "h", false, "Show this message")
	fs.BoolVar(&showVersion, "version", false, "Print version information.")
	fs.BoolVar(&showVersion, "v", false, "Print version information.")
	fs.StringVar(&configFile, "config", "", "Configuration file path.")
	fs.StringVar(&configFile, "c", "", "Configuration file path.")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(a.output, "%s\n", usageStr)
	}
	if err := fs.Parse(a.args[1:]); err != nil {
		return failureCode, nil
	}

	// print usage
	if showUsage {
		fs.Usage()
		return successCode, nil
	}
	// print version
	if showVersion {
		a.showVersion()
		return successCode, nil
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return failureCode, nil
	}
	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]

	// load configuration
	cfg, err := a.loadConfig(configFile)
	if err != nil {
		return failureCode, err
	}
	// initialize logger
	if err := a.initLogger(&cfg.Logger, a.logOutput); err != nil {
		return failureCode, err
	}
	defer log.Unset()

	ctx := context.Background()

	// initialize storage
	lines, err := a.initStorage(ctx, &cfg.Storage)
	if err != nil {
		return failureCode, err
	}
	defer func() { _ = lines.Close(ctx) }()

	st := store.New(lines, hasher.MustNew(), &cfg.Store)
	v := vault.New(st, report.New(&cfg.Report), a.fs, cfg.Report.ExportPath)
	defer a.shutdown(v)

	switch cmd {
	case "validate":
		return a.validate(ctx, v, cmdArgs)
	case "register":
		return a.register(ctx, v, cmdArgs)
	case "migrate":
		return a.migrate(ctx, v)
	case "report":
		return a.report(ctx, v, cmdArgs)
	default:
		_, _ = fmt.Fprintf(a.output, "unknown command: %s\n", cmd)
		fs.Usage()
		return failureCode, nil
	}
}

func (a *Application) validate(ctx context.Context, v *vault.Vault, args []string) (int, error) {
	username, err := a.username(args)
	if err != nil {
		return failureCode, err
	}
	password, err := a.readPassword()
	if err != nil {
		return failureCode, err
	}
	if !v.Validate(ctx, username, password) {
		_, _ = fmt.Fprintf(a.output, "access denied\n")
		return failureCode, nil
	}
	_, _ = fmt.Fprintf(a.output, "access granted: welcome %s\n", username)
	return successCode, nil
}

func (a *Application) register(ctx context.Context, v *vault.Vault, args []string) (int, error) {
	username, err := a.username(args)
	if err != nil {
		return failureCode, err
	}
	password, err := a.readPassword()
	if err != nil {
		return failureCode, err
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		_, _ = fmt.Fprintf(a.output, "password must be at least %d characters long\n", minPasswordLength)
		return failureCode, nil
	}
	if !v.Register(ctx, username, password) {
		_, _ = fmt.Fprintf(a.output, "could not register %s: user already exists or store unavailable\n", username)
		return failureCode, nil
	}
	_, _ = fmt.Fprintf(a.output, "user %s registered\n", username)
	return successCode, nil
}

func (a *Application) migrate(ctx context.Context, v *vault.Vault) (int, error) {
	if v.MigrateAll(ctx) {
		_, _ = fmt.Fprintf(a.output, "plain-text records migrated to hashed format\n")
	} else {
		_, _ = fmt.Fprintf(a.output, "nothing to migrate\n")
	}
	return successCode, nil
}

func (a *Application) report(ctx context.Context, v *vault.Vault, args []string) (int, error) {
	var exportPath string

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(a.output)
	fs.StringVar(&exportPath, "o", "", "Export the report to a file.")
	if err := fs.Parse(args); err != nil {
		return failureCode, nil
	}
	if len(exportPath) > 0 {
		if !v.ExportReport(ctx, exportPath) {
			_, _ = fmt.Fprintf(a.output, "could not export report to %s\n", exportPath)
			return failureCode, nil
		}
		_, _ = fmt.Fprintf(a.output, "report exported to %s\n", exportPath)
		return successCode, nil
	}
	rep := v.GenerateReport(ctx)
	if len(rep) == 0 {
		_, _ = fmt.Fprintf(a.output, "could not generate report\n")
		return failureCode, nil
	}
	_, _ = io.WriteString(a.output, rep)
	return successCode, nil
}

func (a *Application) username(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("missing username argument")
	}
	username := strings.TrimSpace(args[0])
	if len(username) == 0 {
		return "", errors.New("empty username")
	}
	return username, nil
}

func (a *Application) readPassword() (string, error) {
	if f, ok := a.input.(*os.File); ok && terminal.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprintf(a.output, "Password: ")
		b, err := terminal.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintf(a.output, "\n")
		if err != nil {
			return "", errors.Wrap(err, "app: read password")
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(a.input).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "app: read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *Application) showVersion() {
	_, _ = fmt.Fprintf(a.output, "credvault version: %v\n", version.ApplicationVersion)
}

func (a *Application) loadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if len(configFile) == 0 {
		ok, err := afero.Exists(a.fs, defaultConfigFile)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &cfg, nil
		}
		configFile = defaultConfigFile
	}
	if err := cfg.FromFile(a.fs, configFile); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (a *Application) initLogger(config *log.Config, output io.Writer) error {
	var logFiles []io.WriteCloser
	if len(config.LogPath) > 0 {
		// create logFile intermediate directories.
		if err := a.fs.MkdirAll(filepath.Dir(config.LogPath), os.ModePerm); err != nil {
			return err
		}
		f, err := a.fs.OpenFile(config.LogPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return err
		}
		logFiles = append(logFiles, f)
	}
	l, err := log.New(config.Level, output, logFiles...)
	if err != nil {
		return err
	}
	a.logger = l
	log.Set(a.logger)
	return nil
}

func (a *Application) initStorage(ctx context.Context, cfg *storage.Config) (repository.Lines, error) {
	if cfg.Type == storage.File && cfg.File != nil && len(cfg.File.Path) > 0 {
		// create credential file intermediate directories.
		if err := a.fs.MkdirAll(filepath.Dir(cfg.File.Path), os.ModePerm); err != nil {
			return nil, err
		}
	}
	return storage.New(ctx, cfg, a.fs)
}

func (a *Application) shutdown(v *vault.Vault) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(a.shutDownWaitSecs))
	defer cancel()

	if err := v.Close(ctx); err != nil {
		log.Warnf("vault shutdown: %v", err)
	}
}
