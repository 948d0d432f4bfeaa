package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lemonberrylabs/webrpg-engine/pkg/api"
	grpcapi "github.com/lemonberrylabs/webrpg-engine/pkg/api/grpc"
	"github.com/lemonberrylabs/webrpg-engine/pkg/config"
	"github.com/lemonberrylabs/webrpg-engine/pkg/metrics"
	"github.com/lemonberrylabs/webrpg-engine/pkg/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env WEBRPG_PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env WEBRPG_GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env WEBRPG_HOST)")
	cmd.Flags().String("rulesets-dir", "", "Directory of rule-set YAML/JSON files (env WEBRPG_RULESETS_DIR)")
	cmd.Flags().String("mode", "", "Default dice mode of new sessions (default additive, env WEBRPG_DEFAULT_MODE)")
	cmd.Flags().String("pushgateway", "", "Prometheus push gateway URL (env WEBRPG_PUSHGATEWAY_URL)")
	return cmd
}

// serveConfig loads the environment and applies the flags set on cmd.
func serveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("grpc-port") {
		cfg.GRPCPort, _ = flags.GetInt("grpc-port")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("rulesets-dir") {
		cfg.RuleSetsDir, _ = flags.GetString("rulesets-dir")
	}
	if flags.Changed("mode") {
		cfg.DefaultMode, _ = flags.GetString("mode")
	}
	if flags.Changed("pushgateway") {
		cfg.PushGateway, _ = flags.GetString("pushgateway")
	}

	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveConfig(cmd)
	if err != nil {
		return err
	}

	s := store.New()
	m := metrics.New()
	server := api.New(s, api.WithMetrics(m), api.WithDefaultMode(cfg.Mode()))

	if cfg.RuleSetsDir != "" {
		if err := server.LoadDir(cfg.RuleSetsDir); err != nil {
			log.Printf("Warning: failed to load rule sets directory: %v", err)
		}
	} else {
		log.Printf("No rule sets directory (set --rulesets-dir); the catalogue is empty")
	}

	grpcServer := grpcapi.New(s, grpcapi.WithMetrics(m), grpcapi.WithDefaultMode(cfg.Mode()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr())
		return grpcServer.Serve(cfg.GRPCAddr())
	})
	g.Go(func() error {
		log.Printf("webrpg engine listening on %s (default mode %s)", cfg.Addr(), cfg.Mode())
		return server.Listen(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
		return nil
	})
	if cfg.PushGateway != "" {
		g.Go(func() error {
			pushLoop(gctx, m, cfg.PushGateway, cfg.PushInterval)
			return nil
		})
	}

	return g.Wait()
}

// pushLoop pushes the counters every interval until ctx is done, then pushes
// once more so the final counts are not lost.
func pushLoop(ctx context.Context, m *metrics.Metrics, url string, interval time.Duration) {
	log.Printf("Pushing metrics to %s every %s", url, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := m.Push(url); err != nil {
				log.Printf("Warning: final metrics push failed: %v", err)
			}
			return
		case <-ticker.C:
			if err := m.Push(url); err != nil {
				log.Printf("Warning: metrics push failed: %v", err)
			}
		}
	}
}
