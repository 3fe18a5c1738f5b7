package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockview/internal/api"
	"github.com/abhisek/mockview/internal/interview"
	"github.com/abhisek/mockview/internal/observability"
	"github.com/abhisek/mockview/internal/store"
	"github.com/abhisek/mockview/internal/store/memory"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		logger, err := observability.Setup(os.Stdout, cfg.Log, "json")
		if err != nil {
			return err
		}

		var (
			sessions interview.Store
			events   store.EventRepo
		)
		if inMemory, _ := cmd.Flags().GetBool("memory"); inMemory {
			mem := memory.New()
			sessions, events = mem, mem
			logger.Info("using in-memory store")
		} else {
			st, err := openStore(cmd, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			sessions, events = st.SessionRepo(), st.EventRepo()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := buildService(ctx, cfg, sessions, events, logger)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      api.NewRouter(api.NewHandler(svc), logger),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.Server.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr and MOCKVIEW_ADDR)")
	serveCmd.Flags().Bool("memory", false, "Keep sessions in memory instead of SQLite")
}
