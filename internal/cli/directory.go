package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"fichaje/internal/directory"
	"fichaje/internal/worker"
)

type DirectoryOptions struct {
	*RootOptions
	As        string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
	Staff     bool
}

func NewDirectoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DirectoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Provision and list LDAP accounts",
	}
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "acting administrator username")
	_ = cmd.MarkPersistentFlagRequired("as")

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a directory account and its group memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts.RootOptions, cmd)
			role, err := worker.ParseRole(opts.Role)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeInvalid, err.Error(), err)
			}
			return withDirectory(opts, cmd, func(ctx context.Context, a *app) error {
				account := directory.Account{
					Username:  args[0],
					FirstName: opts.FirstName,
					LastName:  opts.LastName,
					Email:     opts.Email,
					Password:  opts.Password,
					Role:      role,
					Staff:     opts.Staff,
				}
				dn, err := a.directory.Provision(account)
				if err != nil {
					return directoryFailure(a.out, err)
				}
				return a.out.Success(provisionView{DN: dn, Groups: directory.Groups(role, opts.Staff)})
			})
		},
	}
	add.Flags().StringVar(&opts.FirstName, "first", "", "first name")
	add.Flags().StringVar(&opts.LastName, "last", "", "last name")
	add.Flags().StringVarP(&opts.Email, "email", "e", "", "email address")
	add.Flags().StringVar(&opts.Password, "password", "", "initial password")
	add.Flags().StringVarP(&opts.Role, "role", "r", string(worker.RoleUser), "role (admin|hr|tech|user)")
	add.Flags().BoolVar(&opts.Staff, "staff", false, "grant staff membership")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List directory accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDirectory(opts, cmd, func(ctx context.Context, a *app) error {
				accounts, err := a.directory.Accounts()
				if err != nil {
					return directoryFailure(a.out, err)
				}
				return a.out.Success(accountList(accounts))
			})
		},
	})

	return cmd
}

func withDirectory(opts *DirectoryOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
		if _, err := a.authorize(ctx, opts.As, worker.ManageDirectory); err != nil {
			return err
		}
		return fn(ctx, a)
	})
}

func directoryFailure(out *OutputFormatter, err error) error {
	message := "directory operation failed"
	var de *directory.Error
	if errors.As(err, &de) {
		message = de.Message()
	}
	if outErr := out.Error(ErrCodeDirectory, message, map[string]string{
		"kind":  directory.KindOf(err).String(),
		"error": err.Error(),
	}); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, message, err)
}
