package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fichaje/internal/attendance"
	"fichaje/internal/clock"
	"fichaje/internal/config"
	"fichaje/internal/directory"
	"fichaje/internal/logging"
	"fichaje/internal/report"
	"fichaje/internal/store"
	"fichaje/internal/worker"
)

// app is the wiring a command runs against: configuration, the database
// and the services built on it.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	repo       *store.Repository
	clock      clock.Clock
	attendance *attendance.Service
	reports    *report.Aggregator
	directory  *directory.Client
	out        *OutputFormatter
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := formatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeInvalid, "invalid configuration", err)
	}

	log := opts.Logger
	if log == nil {
		log, err = logging.New(cfg.Log, opts.Verbose)
		if err != nil {
			return nil, out.Fail(ExitCommandError, ErrCodeInvalid, "invalid log configuration", err)
		}
	}

	c := opts.Clock
	if c == nil {
		loc, err := cfg.Location()
		if err != nil {
			return nil, out.Fail(ExitCommandError, ErrCodeInvalid, "invalid timezone", err)
		}
		c = clock.System{Location: loc}
	}

	repo, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeGeneric, "failed to open database", err)
	}
	out.VerboseLog("Using database %s", cfg.Database.Path)

	return &app{
		cfg:        cfg,
		log:        log,
		repo:       repo,
		clock:      c,
		attendance: attendance.NewService(repo, c, log),
		reports:    report.NewAggregator(repo, c, log),
		directory:  directory.NewClient(cfg.LDAP(), opts.Dial, log),
		out:        out,
	}, nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.log.Warn("closing database", zap.Error(err))
	}
	_ = a.log.Sync()
}

// withApp opens the app for the duration of fn.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// worker resolves a username given on the command line.
func (a *app) worker(ctx context.Context, username string) (*worker.Worker, error) {
	w, err := a.repo.GetWorkerByUsername(ctx, username)
	if errors.Is(err, worker.ErrNotFound) {
		return nil, a.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("unknown worker %q", username), err)
	}
	if err != nil {
		return nil, a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to load worker", err)
	}
	return w, nil
}

// authorize resolves the acting worker and checks it holds c.
func (a *app) authorize(ctx context.Context, username string, c worker.Capability) (*worker.Worker, error) {
	w, err := a.worker(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := w.Require(c); err != nil {
		a.log.Warn("capability denied",
			zap.String("username", w.Username),
			zap.Stringer("capability", c),
		)
		return nil, a.out.Fail(ExitFailure, ErrCodeForbidden, err.Error(), nil)
	}
	return w, nil
}

// notice prints the outcome of an attendance action. A refused action
// fails the command with ExitFailure.
func (a *app) notice(n attendance.Notice, rec *attendance.Record) error {
	if !n.OK() {
		if err := a.out.Error(ErrCodeRefused, n.Message, map[string]string{
			"level":  n.Level.String(),
			"reason": n.Reason.Error(),
		}); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, n.Message, n.Reason)
	}
	return a.out.Success(noticeView{Level: n.Level.String(), Message: n.Message, Record: recordView(*rec)})
}
