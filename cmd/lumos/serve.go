package main

import (
	"log/slog"

	"github.com/Veraticus/lumos/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the redaction and sentiment HTTP API",
		Long: `Start an HTTP server exposing anonymization, sentiment and full document
analysis under /v1, with /healthz and Prometheus metrics on /metrics.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")

	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	p, err := buildPipeline(ctx, cfg, false, nil)
	if err != nil {
		return err
	}

	return server.New(p, slog.Default()).Run(ctx, cfg.Server.Addr)
}
