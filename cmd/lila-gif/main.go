package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	appcfg "github.com/withprimer/lila-gif/internal/config"
	"github.com/withprimer/lila-gif/internal/gifcache"
	"github.com/withprimer/lila-gif/internal/obslog"
	"github.com/withprimer/lila-gif/internal/server"
	"github.com/withprimer/lila-gif/internal/theme"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	obslog.InitFromEnv()

	// A broken sprite asset means the registry cannot serve its theme;
	// refuse to start rather than fail per request.
	themes, err := theme.NewThemes()
	if err != nil {
		log.Fatalf("theme init error: %v", err)
	}

	cache, err := gifcache.New(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("cache init error: %v", err)
	}

	srv := server.New(themes, cache, cfg.MaxFrames)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.Bind) }()
	obslog.L().Info("listening",
		zap.String("bind", cfg.Bind),
		zap.Bool("cache", cache != nil))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	case sig := <-sigCh:
		obslog.L().Info("shutting down", zap.String("signal", sig.String()))
	}

	_ = srv.Shutdown()
	_ = cache.Close()
}
