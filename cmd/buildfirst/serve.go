package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/runner"
	"github.com/Vansh-04/buildfirst/internal/serve"
	"github.com/Vansh-04/buildfirst/internal/workers/chat"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built application, its model and the build status",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer done()

	h, err := serve.NewHandler(ctx, serve.Options{
		Store:  a.Store,
		Chat:   chat.Agent{Store: a.Store, LLM: a.LLM, Logger: logger},
		Logger: logger,
		Build: func(ctx context.Context) (artifact.RunStatus, error) {
			return runner.New(a.Env()).Run(ctx)
		},
	})
	if err != nil {
		return err
	}
	defer h.Close()

	addr := a.Config.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := serve.NewServer(addr, h.Routes(), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown failed", zap.Error(err))
	}
	return <-errCh
}
