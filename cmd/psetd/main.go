// Command psetd serves the PSET exchange store over gRPC.
//
// Configuration comes from the environment; see internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"xdao.co/pset/internal/config"
	"xdao.co/pset/internal/logger"
	"xdao.co/pset/storage/grpcstore"
	"xdao.co/pset/storage/localfs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "psetd",
		Short:        "PSET exchange daemon",
		Long:         `psetd stores PSETs uploaded as base64 text and serves them back by CID over gRPC`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	cfg, err := config.NewDaemonConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("PSETD_LISTEN", cfg.Listen),
		slog.String("PSETD_STORE_DIR", cfg.StoreDir),
		slog.Int("PSETD_MAX_MSG_BYTES", cfg.MaxMsgBytes),
	)

	store, err := localfs.New(cfg.StoreDir)
	if err != nil {
		appLogger.Error("Failed to open store", slog.String("error", err.Error()))
		return err
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		appLogger.Error("Failed to listen", slog.String("error", err.Error()))
		return err
	}

	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxMsgBytes),
		grpc.MaxSendMsgSize(cfg.MaxMsgBytes),
		grpc.ChainUnaryInterceptor(grpcstore.UnaryLogger(appLogger)),
	)
	grpcstore.RegisterExchangeServer(srv, &grpcstore.Server{Store: store, Logger: appLogger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("psetd listening", slog.String("addr", lis.Addr().String()))
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Error("Server error", slog.String("error", err.Error()))
		}
		return err
	case <-ctx.Done():
	}

	appLogger.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(cfg.ShutdownTimeout):
		appLogger.Warn("graceful shutdown timed out; forcing stop")
		srv.Stop()
	}

	appLogger.Info("server shutdown complete")
	return nil
}
