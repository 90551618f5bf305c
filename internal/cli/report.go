package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fichaje/internal/project"
	"fichaje/internal/report"
	"fichaje/internal/worker"
)

type ReportOptions struct {
	*RootOptions
	As   string
	From string
	To   string
}

func (o *ReportOptions) filter() report.Filter {
	return report.ParseRange(o.From, o.To)
}

func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate worked hours",
		Long: `Aggregate worked hours per project and per worker.

Dates are YYYY-MM-DD and inclusive; a missing or malformed bound is
ignored. Reports are only available to administrators.`,
	}
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "acting administrator username")
	cmd.PersistentFlags().StringVar(&opts.From, "from", "", "first day (YYYY-MM-DD)")
	cmd.PersistentFlags().StringVar(&opts.To, "to", "", "last day (YYYY-MM-DD)")
	_ = cmd.MarkPersistentFlagRequired("as")

	cmd.AddCommand(&cobra.Command{
		Use:   "projects",
		Short: "Summarise every active project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(opts, cmd, func(ctx context.Context, a *app) error {
				summaries, err := a.reports.Projects(ctx, opts.filter())
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "projects report failed", err)
				}
				return a.out.Success(projectReport(summaries))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "workers",
		Short: "Summarise every active worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(opts, cmd, func(ctx context.Context, a *app) error {
				summaries, err := a.reports.Workers(ctx, opts.filter())
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "workers report failed", err)
				}
				return a.out.Success(workerReport(summaries))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "project <id>",
		Short: "Break one project down by worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return formatter(opts.RootOptions, cmd).Fail(ExitCommandError, ErrCodeInvalid,
					fmt.Sprintf("invalid project ID %q", args[0]), err)
			}
			return withReports(opts, cmd, func(ctx context.Context, a *app) error {
				detail, err := a.reports.ProjectDetail(ctx, id, opts.filter())
				if errors.Is(err, project.ErrNotFound) {
					return a.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("project %d not found", id), err)
				}
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "project report failed", err)
				}
				return a.out.Success(projectDetailView(*detail))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "worker <id|username>",
		Short: "Break one worker down by project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(opts, cmd, func(ctx context.Context, a *app) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					w, err := a.worker(ctx, args[0])
					if err != nil {
						return err
					}
					id = w.ID
				}
				detail, err := a.reports.WorkerDetail(ctx, id, opts.filter())
				if errors.Is(err, worker.ErrNotFound) {
					return a.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("worker %d not found", id), err)
				}
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "worker report failed", err)
				}
				return a.out.Success(workerDetailView(*detail))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Headline numbers for the last thirty days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(opts, cmd, func(ctx context.Context, a *app) error {
				d, err := a.reports.Dashboard(ctx)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "dashboard failed", err)
				}
				return a.out.Success(dashboardView(*d))
			})
		},
	})

	return cmd
}

func withReports(opts *ReportOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		if _, err := a.authorize(ctx, opts.As, worker.ViewReports); err != nil {
			return err
		}
		a.out.VerboseLog("Report range: %s", opts.filter())
		return fn(ctx, a)
	})
}
