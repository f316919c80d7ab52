package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/session"
	"github.com/mcoot/scopa-go/internal/view"
)

func newCreateCmd() *cobra.Command {
	var qrPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a game and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			player, err := app.Identity(cmd.Context())
			if err != nil {
				return err
			}

			gameID, err := app.Client.CreateGame(cmd.Context(), player)
			if err != nil {
				return err
			}

			result := GameResult{GameID: gameID, PlayerID: string(player), Invite: view.InviteText(gameID)}
			if qrPath != "" {
				if err := view.WriteInviteQR(gameID, qrPath); err != nil {
					return err
				}
				result.QRPath = qrPath
			}

			newOutput(cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&qrPath, "qr", "", "Write the invite as a QR code PNG to this path")
	return cmd
}

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <game-id>",
		Short: "Take the second seat of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			player, err := app.Identity(cmd.Context())
			if err != nil {
				return err
			}

			joined, err := app.Client.JoinGame(cmd.Context(), gameID, player)
			if err != nil {
				return err
			}

			newOutput(cmd.OutOrStdout()).Print(GameResult{GameID: joined, PlayerID: string(player)})
			return nil
		},
	}
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <game-id>",
		Short: "Show your view of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			player, err := app.Identity(cmd.Context())
			if err != nil {
				return err
			}

			resp, err := app.Client.GetState(cmd.Context(), gameID, player)
			if err != nil {
				return err
			}

			state := session.StateView(resp, app.Catalog)
			newOutput(cmd.OutOrStdout()).Print(StateResult{
				GameID: gameID,
				State:  state,
				board:  view.Project(state, app.Catalog).Text(),
			})
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <game-id> <hand-index>",
		Short: "Play the card at hand-index of your hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			idx, err := strconv.Atoi(args[1])
			if err != nil || idx < 0 {
				return fmt.Errorf("invalid hand index: %s", args[1])
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			player, err := app.Identity(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.Client.Play(cmd.Context(), gameID, player, idx); err != nil {
				return err
			}

			newOutput(cmd.OutOrStdout()).Print(MoveResult{GameID: gameID, HandIndex: idx, Accepted: true})
			return nil
		},
	}
}

func parseGameID(raw string) (int, error) {
	id, ok := model.ParseGameID(raw)
	if !ok {
		return 0, fmt.Errorf("invalid game id: %s", raw)
	}
	return id, nil
}
