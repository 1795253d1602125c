package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omochice/public-chat/internal/chat"
	ws "github.com/omochice/public-chat/internal/client/ws"
	"github.com/omochice/public-chat/internal/config"
	"github.com/omochice/public-chat/internal/endpoint"
	"github.com/omochice/public-chat/internal/surface/term"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("chat client failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:          "chat-client",
		Short:        "Join a public chat room from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			styled := !plain && color.SupportColor()
			return runChat(cmd.Context(), *cfg, cmd.InOrStdin(), cmd.OutOrStdout(), styled)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.PageURL, "page-url", cfg.PageURL, "URL of the page hosting the chat; decides ws or wss and the host")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "connect on the page's own host and port instead of the chat port")
	flags.StringVar(&cfg.RoomID, "room", cfg.RoomID, "chat room id")
	flags.IntVar(&cfg.ChatPort, "chat-port", cfg.ChatPort, "port of the chat service outside debug mode")
	flags.StringVar(&cfg.SessionID, "session-id", cfg.SessionID, "session cookie sent with the handshake")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "diagnostics level (trace, debug, info, warn, error, disabled)")
	flags.BoolVar(&plain, "plain", false, "disable colors")

	return cmd
}

// runChat connects to the room and runs the widget until ctx is done or
// input ends.
func runChat(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, styled bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	zerolog.SetGlobalLevel(cfg.Level())

	page, err := cfg.Page()
	if err != nil {
		return err
	}
	ep := endpoint.New(page, cfg.Debug, cfg.ChatPort, cfg.RoomID)

	var opts []ws.Option
	if cfg.SessionID != "" {
		cookie := &http.Cookie{Name: "sessionid", Value: cfg.SessionID}
		opts = append(opts, ws.WithHeader(http.Header{"Cookie": {cookie.String()}}))
	}
	client := ws.New(ep.String(), opts...)
	defer client.Close()

	surface := term.New(out, styled)
	widget := chat.NewWidget(client, surface.Surface())

	log.Info().Str("endpoint", ep.String()).Msg("[chat] connecting")
	client.Connect(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := surface.Input.Run(in); err != nil {
			log.Warn().Err(err).Msg("[chat] read input")
		}
		// end of input tears the chat down
		cancel()
	}()

	widget.Run(ctx)
	surface.Log.ScrollToEnd()
	log.Info().Msg("[chat] shutdown complete")
	return nil
}
