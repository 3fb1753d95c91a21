package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscart/tariff-optimizer/pkg/api"
)

var listenAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation API over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (overrides LISTEN_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	svc, cleanup, err := newService(false)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := api.New(api.Config{Addr: addr, Log: logger, Service: svc})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
