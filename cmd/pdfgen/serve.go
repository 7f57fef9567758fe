package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/lvillar/pdfgen/internal/api"
	"github.com/lvillar/pdfgen/internal/logging"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Addr()
			}
			return serve(cmd.Context(), a, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from configuration)")
	return cmd
}

func serve(ctx context.Context, a *app, addr string) error {
	log := logging.WithComponent("server")
	handler, err := api.FromConfig(a.cfg)
	if err != nil {
		return err
	}

	sc := a.cfg.Server
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       sc.ReadTimeout,
		WriteTimeout:      sc.WriteTimeout + 10*time.Second,
	}

	sup := suture.New("pdfgen", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().Fields(e.Map()).Msg(e.String())
		},
		Timeout: sc.ShutdownTimeout + 5*time.Second,
	})
	sup.Add(newHTTPService(srv, sc.ShutdownTimeout))

	log.Info().Str("addr", addr).Str("version", version).Msg("starting server")
	err = sup.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info().Msg("server stopped")
		return nil
	}
	return fmt.Errorf("supervisor: %w", err)
}
