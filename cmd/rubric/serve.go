package main

import (
	"context"

	"github.com/snow-ghost/rubric/pkg/server"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globalOpts) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grading HTTP API",
		Long:  `Serves POST /v1/grade, the evaluation history, /health and Prometheus /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			a, err := newApp(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			srv := server.New(server.Options{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				CORSOrigins:     cfg.Server.CORSOrigins,
				Graders:         a.graders,
				DefaultStrategy: cfg.Grader.Strategy,
				Model:           cfg.Judge.Model,
				History:         a.history,
				Logger:          a.logger,
				Gatherer:        a.obs.Gatherer(),
			})
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides config")
	return cmd
}
