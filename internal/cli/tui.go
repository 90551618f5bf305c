package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fichaje/internal/tui"
	"fichaje/internal/worker"
)

func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive clock-in screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				w, err := a.authorize(ctx, user, worker.ClockIn)
				if err != nil {
					return err
				}
				m, err := tui.NewModel(ctx, a.attendance, a.repo, w, a.log)
				if err != nil {
					return a.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to start", err)
				}
				return runProgram(m)
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "worker username")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runProgram(m *tui.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-ticker.C:
				p.Send(tui.MsgTick{})
			case <-done:
				return
			}
		}
	}()

	_, err := p.Run()
	return err
}
