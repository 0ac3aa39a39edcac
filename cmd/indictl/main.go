package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/indictl/internal/client"
	"github.com/danmuck/indictl/internal/config"
	"github.com/danmuck/indictl/internal/logging"
	"github.com/danmuck/indictl/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "indictl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to indictl TOML config")
	host := flag.String("host", "", "server host (overrides config)")
	port := flag.Int("port", 0, "server port (overrides config)")
	writeConfig := flag.String("write-config", "", "write a config template to this path and exit")
	force := flag.Bool("force", false, "overwrite an existing file with -write-config")
	validate := flag.Bool("validate", false, "validate -config and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.WriteTemplate(*writeConfig, *force); err != nil {
			return err
		}
		fmt.Printf("wrote config template to %s\n", *writeConfig)
		return nil
	}

	cfg := defaultAppConfig()
	if *configPath != "" {
		if _, err := config.Validate(*configPath); err != nil {
			return err
		}
		loaded, err := loadAppConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *validate {
		if *configPath == "" {
			return fmt.Errorf("-validate requires -config")
		}
		fmt.Printf("validated config at %s\n", *configPath)
		return nil
	}
	if *host != "" {
		cfg.Client.Host = *host
	}
	if *port > 0 {
		cfg.Client.Port = *port
	}

	logging.ConfigureRuntime()
	if cfg.LogLevelSet && os.Getenv(logging.EnvLogLevel) == "" {
		zerolog.SetGlobalLevel(cfg.LogLevel)
	}
	observability.InitLogger("indictl")
	observability.RegisterMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		go func() {
			if err := observability.ServeMetrics(ctx, ln); err != nil {
				log.Error().Err(err).Msg("indictl.run metrics server stopped")
			}
		}()
	}

	mon := newMonitor(cfg.BLOBMode)
	c := client.New(cfg.Client, mon.handle)
	mon.client = c

	log.Info().
		Str("addr", cfg.Client.Addr()).
		Bool("timeout_enable", cfg.Client.TimeoutEnable).
		Dur("vector_timeout_max", cfg.Client.VectorTimeoutMax).
		Msg("indictl.run starting")
	return c.Run(ctx)
}
