package cli

import (
	"fmt"

	"github.com/alexanderramin/dealboard/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newPipelineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Manage pipelines",
	}

	cmd.AddCommand(
		newPipelineAddCmd(app),
		newPipelineListCmd(app),
		newPipelineShowCmd(app),
		newPipelineRenameCmd(app),
		newPipelineRemoveCmd(app),
	)

	return cmd
}

func newPipelineAddCmd(app *App) *cobra.Command {
	var name string
	var stages []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a pipeline with its stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("pipeline add"); err != nil {
				return err
			}
			p, err := app.Pipelines.Create(cmd.Context(), name, stages)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created pipeline %s (%d stages) %s\n", p.Name, len(p.Stages), formatter.TruncID(p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Pipeline name")
	cmd.Flags().StringArrayVar(&stages, "stage", nil, "Stage title, in board order (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("stage")

	return cmd
}

func newPipelineListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelines, err := app.Stages.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(pipelines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pipelines found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPipelineList(pipelines))
			return nil
		},
	}
}

func newPipelineShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PIPELINE",
		Short: "Show a pipeline and its stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePipeline(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPipeline(p))
			return nil
		},
	}
}

func newPipelineRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename PIPELINE NAME",
		Short: "Rename a pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("pipeline rename"); err != nil {
				return err
			}
			p, err := resolvePipeline(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Pipelines.Rename(cmd.Context(), p.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed pipeline %s to %s\n", p.Name, args[1])
			return nil
		},
	}
}

func newPipelineRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PIPELINE",
		Short: "Remove a pipeline and its deals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("pipeline remove"); err != nil {
				return err
			}
			p, err := resolvePipeline(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Pipelines.Delete(cmd.Context(), p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed pipeline %s\n", p.Name)
			return nil
		},
	}
}
