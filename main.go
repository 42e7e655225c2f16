package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mdp/qrterminal/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dedication-board/handlers"
	"dedication-board/utils"
)

const shutdownTimeout = 10 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:           "dedication-board",
	Short:         "Bacheca delle dediche con storage intercambiabile",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "config file path")
	rootCmd.AddCommand(serveCmd, listCmd, importCmd, deleteCmd)
}

// setup carica configurazione e logger comuni a tutti i comandi
func setup() (*utils.Config, *logrus.Logger, error) {
	cfg, err := utils.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, utils.NewLogger(cfg.Log), nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Avvia il server HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, log)
	},
}

func serve(ctx context.Context, cfg *utils.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var moderator *handlers.Moderator
	if cfg.Server.ModerationScript != "" {
		moderator, err = handlers.LoadModerator(cfg.Server.ModerationScript)
		if err != nil {
			return fmt.Errorf("moderation script: %w", err)
		}
		log.WithField("script", cfg.Server.ModerationScript).Info("Regola di moderazione caricata")
	}

	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	hub := handlers.NewHub(log)
	defer hub.Close()

	router, err := newRouter(ctx, cfg, store, hub, moderator, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.WithField("addr", srv.Addr).Info("Server avviato")
	if cfg.Server.PublicURL != "" {
		fmt.Fprintf(os.Stdout, "Bacheca disponibile su %s\n", cfg.Server.PublicURL)
		qrterminal.GenerateHalfBlock(cfg.Server.PublicURL, qrterminal.L, os.Stdout)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Arresto del server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Errore: %v\n", err)
		os.Exit(1)
	}
}
