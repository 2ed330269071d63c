package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/svgpro/svgpro/internal/logging"
	"github.com/svgpro/svgpro/internal/server"
)

var (
	servePort     int
	serveDir      string
	serveNoWait   bool
	serveWaitTime time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the svgpro studio server",
	Long: `Start svgpro as a headless server exposing the session, chat, and
document HTTP API plus an SSE event stream.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
	serveCmd.Flags().BoolVar(&serveNoWait, "no-wait", false, "Skip waiting for the completion service at startup")
	serveCmd.Flags().DurationVar(&serveWaitTime, "wait-timeout", 30*time.Second, "How long to wait for the completion service")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	logging.Info().Str("version", Version).Str("directory", workDir).Msg("starting svgpro server")

	a, err := bootstrap(workDir)
	if err != nil {
		return err
	}
	defer a.close()

	if !serveNoWait {
		if err := a.waitForProvider(cmd.Context(), serveWaitTime); err != nil {
			logging.Warn().Err(err).Msg("completion service not reachable, generation will fail until it is")
		}
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = servePort

	srv := server.New(serverConfig, a.cfg, a.sessions, a.registry, a.editor)

	go func() {
		logging.Info().Int("port", servePort).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
