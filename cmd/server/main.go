package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/me/neurolens/internal/assets"
	"github.com/me/neurolens/internal/config"
	"github.com/me/neurolens/internal/logging"
	"github.com/me/neurolens/internal/server"
	"github.com/me/neurolens/internal/store"
)

func main() {
	cfg := config.DefaultServerConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (:memory: keeps sessions in memory)")
	flag.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "Asset directory, or s3://bucket/prefix")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3 endpoint override (MinIO, localstack)")
	flag.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	flag.DurationVar(&cfg.StepDelay, "step-delay", cfg.StepDelay, "Delay before each progress update")
	flag.BoolVar(&cfg.Secure, "secure-cookies", cfg.Secure, "Mark the session cookie Secure (HTTPS deployments)")
	flag.BoolVar(&cfg.Page.LoginGate, "login-gate", cfg.Page.LoginGate, "Require the demo login")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	configFile := flag.String("config", "", "Path to a YAML config file")

	flag.Parse()

	if *configFile != "" {
		// Flags given on the command line win over the file.
		set := map[string]string{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
		if err := config.LoadFile(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		for name, value := range set {
			flag.Set(name, value)
		}
	}
	cfg.ApplyEnv()
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.DBPath)

	// Open the asset store.
	var as assets.Store
	if cfg.IsS3() {
		bucket, prefix, err := cfg.S3Location()
		if err != nil {
			fmt.Fprintf(os.Stderr, "assets: %v\n", err)
			os.Exit(1)
		}
		s3store, err := assets.NewS3FromEnv(context.Background(), bucket, prefix, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			fmt.Fprintf(os.Stderr, "assets: %v\n", err)
			os.Exit(1)
		}
		as = s3store
	} else {
		as = assets.NewLocal(cfg.AssetsDir)
	}
	logger.Info("assets ready", "location", as)

	srv := server.New(cfg, as, st, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "login_gate", cfg.Page.LoginGate)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
