package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fichaje/internal/project"
)

type ProjectOptions struct {
	*RootOptions
	Description string
	All         bool
}

func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				p, err := project.NewProject(args[0], opts.Description)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeInvalid, err.Error(), err)
				}
				if err := a.repo.CreateProject(ctx, p); err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to create project", err)
				}
				return a.out.Success(projectView(*p))
			})
		},
	}
	add.Flags().StringVarP(&opts.Description, "description", "d", "", "project description")
	cmd.AddCommand(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				projects, err := a.repo.ListProjects(ctx, !opts.All)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to list projects", err)
				}
				return a.out.Success(projectList(projects))
			})
		},
	}
	list.Flags().BoolVarP(&opts.All, "all", "a", false, "include archived projects")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "archive <id>",
		Short: "Mark a project inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts.RootOptions, cmd)
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalid, fmt.Sprintf("invalid project ID %q", args[0]), err)
			}
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				p, err := a.repo.GetProject(ctx, id)
				if errors.Is(err, project.ErrNotFound) {
					return a.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("project %d not found", id), err)
				}
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to load project", err)
				}
				p.Active = false
				if err := a.repo.UpdateProject(ctx, p); err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to archive project", err)
				}
				a.log.Info("project archived", zap.Int64("project_id", p.ID))
				return a.out.Success(projectView(*p))
			})
		},
	})

	return cmd
}
