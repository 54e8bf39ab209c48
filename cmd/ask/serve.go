package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/plaid-ask/internal/certs"
	"github.com/Veraticus/plaid-ask/internal/metrics"
	"github.com/Veraticus/plaid-ask/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		Long: `Serve the assistant over HTTP.

Endpoints:
  POST /v1/ask        {"question": "..."}
  POST /v1/daterange  {"text": "...", "reference_date": "YYYY-MM-DD"}
  POST /v1/enrich     {"transactions": [...]}
  GET  /healthz
  GET  /metrics`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	m := metrics.New()
	svc, err := newAssistant(ctx, cfg, m)
	if err != nil {
		return err
	}

	var tlsConfig *tls.Config
	if cfg.Server.TLS {
		store := certs.NewStore(cfg.Server.TLSDir)
		tlsConfig, err = certs.TLSConfig(store)
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		certFile, _ := store.Paths()
		slog.Info("Using self-signed certificate", "path", certFile)
	}

	return server.ListenAndServe(ctx, cfg.Server.Addr, server.NewRouter(svc, m), tlsConfig)
}
