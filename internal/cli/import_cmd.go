package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a pipeline with its contacts and deals from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("import"); err != nil {
				return err
			}
			result, err := app.Import.ImportBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported pipeline %s: %d stages, %d contacts, %d deals\n",
				result.Pipeline.Name, len(result.Pipeline.Stages), result.ContactCount, result.DealCount)
			return nil
		},
	}
}
