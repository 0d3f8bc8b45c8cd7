package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aquoric/aquoric-dev/internal/content"
	"github.com/aquoric/aquoric-dev/internal/diag"
)

//go:embed templates static
var assets embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	debug := gin.Mode() == gin.DebugMode

	log, err := newLogger(cfg, debug)
	if err != nil {
		return err
	}
	defer log.Sync()
	cfg.applyAdminDefaults(log, debug)

	site, err := content.Default()
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	if err := site.SetProse(AboutMe, Tagline); err != nil {
		return err
	}
	if len(cfg.AudioSources) > 0 {
		site.Audio = cfg.AudioSources
	}

	failures, err := diag.Open(cfg.DiagDSN, cfg.DiagRetention, log.Named("diag"))
	if err != nil {
		return err
	}
	defer failures.Close()

	srv, err := newServer(cfg, site, failures, log)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.sessions.Run(ctx, cfg.SessionSweepInterval)
	})
	g.Go(func() error {
		return failures.Run(ctx)
	})
	g.Go(func() error {
		log.Info("listening", zap.String("addr", httpSrv.Addr), zap.Int("audio_sources", len(site.Audio)))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
