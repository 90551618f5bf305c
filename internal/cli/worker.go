package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fichaje/internal/worker"
)

type WorkerOptions struct {
	*RootOptions
	Email     string
	FirstName string
	LastName  string
	Role      string
	All       bool
}

func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage workers",
	}

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Register a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts.RootOptions, cmd)
			role, err := worker.ParseRole(opts.Role)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalid, err.Error(), err)
			}
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				w, err := worker.NewWorker(args[0], opts.Email, role)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeInvalid, err.Error(), err)
				}
				w.FirstName = opts.FirstName
				w.LastName = opts.LastName
				if err := a.repo.CreateWorker(ctx, w); err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to create worker", err)
				}
				return a.out.Success(workerView(*w))
			})
		},
	}
	add.Flags().StringVarP(&opts.Email, "email", "e", "", "email address")
	add.Flags().StringVar(&opts.FirstName, "first", "", "first name")
	add.Flags().StringVar(&opts.LastName, "last", "", "last name")
	add.Flags().StringVarP(&opts.Role, "role", "r", string(worker.RoleUser), "role (admin|hr|tech|user)")
	_ = add.MarkFlagRequired("email")
	cmd.AddCommand(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				workers, err := a.repo.ListWorkers(ctx, !opts.All)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to list workers", err)
				}
				return a.out.Success(workerList(workers))
			})
		},
	}
	list.Flags().BoolVarP(&opts.All, "all", "a", false, "include inactive workers")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate <username>",
		Short: "Mark a worker inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				w, err := a.worker(ctx, args[0])
				if err != nil {
					return err
				}
				w.Active = false
				if err := a.repo.UpdateWorker(ctx, w); err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to deactivate worker", err)
				}
				a.log.Info("worker deactivated", zap.Int64("worker_id", w.ID))
				return a.out.Success(workerView(*w))
			})
		},
	})

	return cmd
}
