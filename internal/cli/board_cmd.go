package cli

import (
	"fmt"

	"github.com/alexanderramin/dealboard/internal/cli/formatter"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	var static bool

	cmd := &cobra.Command{
		Use:   "board PIPELINE",
		Short: "Show a pipeline as a kanban board",
		Long: `Show the open deals of PIPELINE as columns, one per stage. On a terminal
the board is interactive: move cards between stages with shift+arrows, drop
them on won, lost or archived with w, l and a.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolvePipeline(ctx, app, args[0])
			if err != nil {
				return err
			}
			b := app.newBoard(p)
			defer b.Close()

			if static || !app.interactive() {
				if err := b.Load(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Header(p.Name))
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatBoard(b.Stacks(), formatter.BoardOptions{FocusedStack: -1}))
				return nil
			}

			view := newBoardView(ctx, b)
			defer view.teardown()
			_, err = tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&static, "static", false, "Print the board once instead of opening it")

	return cmd
}
