package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"fichaje/internal/attendance"
	"fichaje/internal/worker"
)

// ClockOptions holds flags for the clock commands.
type ClockOptions struct {
	*RootOptions
	User     string
	Project  int64
	Modality string
	Limit    int
}

func NewClockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Record today's attendance",
		Long: `Record the acting worker's attendance for today.

A project must be assigned before clocking in. Each worker has one
record per day; clocking in or out twice is refused.`,
	}
	cmd.PersistentFlags().StringVarP(&opts.User, "user", "u", "", "worker username")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show today's record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withToday(opts, cmd, func(ctx context.Context, a *app, rec *attendance.Record) error {
				return a.out.Success(statusView{Record: recordView(*rec), Permissions: rec.Permissions()})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "in",
		Short: "Clock in now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withToday(opts, cmd, func(ctx context.Context, a *app, rec *attendance.Record) error {
				n, err := a.attendance.ClockIn(ctx, rec)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "clock in failed", err)
				}
				return a.notice(n, rec)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "out",
		Short: "Clock out now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withToday(opts, cmd, func(ctx context.Context, a *app, rec *attendance.Record) error {
				n, err := a.attendance.ClockOut(ctx, rec)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "clock out failed", err)
				}
				return a.notice(n, rec)
			})
		},
	})

	set := &cobra.Command{
		Use:   "set",
		Short: "Assign today's project and/or modality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClockSet(opts, cmd)
		},
	}
	set.Flags().Int64VarP(&opts.Project, "project", "p", 0, "project ID")
	set.Flags().StringVarP(&opts.Modality, "modality", "m", "", "modality (on-site|remote|travel)")
	cmd.AddCommand(set)

	history := &cobra.Command{
		Use:   "history",
		Short: "List the most recent records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				w, err := a.authorize(ctx, opts.User, worker.ClockIn)
				if err != nil {
					return err
				}
				records, err := a.attendance.History(ctx, w.ID, opts.Limit)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to load history", err)
				}
				return a.out.Success(recordTable(records))
			})
		},
	}
	history.Flags().IntVarP(&opts.Limit, "limit", "n", attendance.DefaultHistory, "number of records")
	cmd.AddCommand(history)

	return cmd
}

// withToday resolves the worker and loads today's record for fn.
func withToday(opts *ClockOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app, rec *attendance.Record) error) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		w, err := a.authorize(ctx, opts.User, worker.ClockIn)
		if err != nil {
			return err
		}
		rec, err := a.attendance.Today(ctx, w.ID)
		if err != nil {
			return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to load today's record", err)
		}
		return fn(ctx, a, rec)
	})
}

func runClockSet(opts *ClockOptions, cmd *cobra.Command) error {
	var projectID *int64
	if cmd.Flags().Changed("project") {
		projectID = &opts.Project
	}
	var modality *attendance.Modality
	if cmd.Flags().Changed("modality") {
		m := attendance.Modality(opts.Modality)
		if parsed, err := attendance.ParseModality(opts.Modality); err == nil {
			m = parsed
		}
		modality = &m
	}
	if projectID == nil && modality == nil {
		return formatter(opts.RootOptions, cmd).Fail(ExitCommandError, ErrCodeInvalid,
			"nothing to set: pass --project and/or --modality", errors.New("no changes"))
	}

	return withToday(opts, cmd, func(ctx context.Context, a *app, rec *attendance.Record) error {
		n, err := a.attendance.Update(ctx, rec, projectID, modality)
		if err != nil {
			return a.out.Fail(ExitCommandError, ErrCodeGeneric, "update failed", err)
		}
		return a.notice(n, rec)
	})
}
