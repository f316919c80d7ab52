package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/mcoot/scopa-go/internal/factory"
	"github.com/mcoot/scopa-go/internal/session"
	"github.com/mcoot/scopa-go/internal/storage"
	"github.com/mcoot/scopa-go/internal/view"
)

func newPlayCmd() *cobra.Command {
	var qrPath string

	cmd := &cobra.Command{
		Use:   "play [game-id]",
		Short: "Play a match",
		Long: `Play a match in the terminal. With a game id, join that game; without
one, create a new game and wait for an opponent. If the join fails a new game
is created instead.

Type the index of a hand card and press enter to play it; q quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApp()
			if err != nil {
				return err
			}
			defer closeApp(app)

			if len(args) == 1 {
				if err := app.Storage.SavePreferredGameID(ctx, args[0]); err != nil {
					return err
				}
			}

			player, err := app.Identity(ctx)
			if err != nil {
				return err
			}

			sessionView := newSessionView(cmd.OutOrStdout(), app, storage.DisplayName(ctx, app.Storage, player))
			controller := app.NewController(player, sessionView)

			handle, err := controller.Establish(ctx)
			if err != nil {
				return err
			}

			if qrPath != "" {
				if err := view.WriteInviteQR(handle.GameID, qrPath); err != nil {
					logger.Warn("failed to write invite QR code", slog.String("error", err.Error()))
				}
			}

			if cfg.MetricsAddr != "" {
				srv := serveMetrics(cfg.MetricsAddr, app)
				defer shutdownMetrics(srv)
			}

			go readMoves(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), controller, stop)

			outcome, err := controller.Run(ctx, app.NewTrigger())
			if err != nil {
				return err
			}

			logger.Info("session finished",
				slog.Int("game_id", handle.GameID),
				slog.String("reason", string(outcome.Reason)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&qrPath, "qr", "", "Write the invite as a QR code PNG to this path")
	cmd.Flags().Duration("poll-interval", cfg.PollInterval, "State refresh period (env: SCOPA_POLL_INTERVAL)")
	cmd.Flags().String("transport", cfg.Transport, "Refresh trigger: poll, push (env: SCOPA_TRANSPORT)")
	cmd.Flags().Int("max-join-fallbacks", cfg.MaxJoinFallbacks, "Create attempts after a failed join")
	cmd.Flags().String("metrics-addr", cfg.MetricsAddr, "Serve prometheus metrics on this address while playing")
	return cmd
}

func newSessionView(w io.Writer, app *factory.App, name string) session.View {
	if cfg.Output == "json" {
		return view.NewJSONLines(w, app.Catalog)
	}
	return view.NewTerminal(w, app.Catalog,
		view.WithClearScreen(isTerminal(w)),
		view.WithPlayerName(name),
	)
}

// readMoves turns each input line into a move request: a hand index, or q to leave
func readMoves(ctx context.Context, in io.Reader, errOut io.Writer, c *session.Controller, quit func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit", "exit":
			quit()
			return
		}

		idx, err := strconv.Atoi(line)
		if err != nil || idx < 0 {
			fmt.Fprintln(errOut, "Type the index of a card in your hand, or q to quit")
			continue
		}
		if !c.SubmitMove(idx) {
			logger.Debug("move not queued", slog.Int("hand_index", idx))
		}
	}
}

func serveMetrics(addr string, app *factory.App) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", app.Metrics.Handler()).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
