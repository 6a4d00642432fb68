package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"docassist/internal/log"
	"docassist/internal/service"
	"docassist/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	opts, err := a.options()
	if err != nil {
		return err
	}
	if !a.cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	manager := service.NewManager(service.NewFactory(opts), service.ManagerOptions{
		TTL:         a.cfg.Server.SessionTTL(),
		MaxSessions: a.cfg.Server.MaxSessions,
	})
	srv := &http.Server{
		Addr:    addr,
		Handler: web.NewRouter(web.NewHandler(manager, a.cfg.Server.MaxUploadMB)),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go manager.Run(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "uploads", a.cfg.Storage.UploadURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
		return err
	}
	log.Info("Server exited")
	return nil
}
