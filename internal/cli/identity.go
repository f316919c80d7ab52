package cli

import (
	"github.com/spf13/cobra"
)

func newIdentityCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show this client's player identity",
		Long: `Show the player identity used with the server. It is generated on first
use and kept in the client storage. --name sets the display name shown in the
game view.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			ctx := cmd.Context()
			player, err := app.Identity(ctx)
			if err != nil {
				return err
			}

			if name != "" {
				if err := app.Storage.SaveUsername(ctx, name); err != nil {
					return err
				}
			}

			username, err := app.Storage.GetUsername(ctx)
			if err != nil {
				return err
			}

			newOutput(cmd.OutOrStdout()).Print(IdentityResult{PlayerID: string(player), Username: username})
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Set the display name")
	return cmd
}
