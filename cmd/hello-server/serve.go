package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/hello-login/internal/core/domain"
	"github.com/yndnr/hello-login/internal/core/service"
	"github.com/yndnr/hello-login/internal/infra/buildinfo"
	"github.com/yndnr/hello-login/internal/infra/certreload"
	"github.com/yndnr/hello-login/internal/infra/confloader"
	"github.com/yndnr/hello-login/internal/infra/shutdown"
	"github.com/yndnr/hello-login/internal/server/config"
	"github.com/yndnr/hello-login/internal/server/httpserver"
	"github.com/yndnr/hello-login/internal/server/httpserver/handler"
	"github.com/yndnr/hello-login/internal/server/httpserver/session"
	"github.com/yndnr/hello-login/internal/storage/memory"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
	"github.com/yndnr/hello-login/internal/telemetry/metric"
)

var errNotListening = errors.New("listener not open")

func serve(c *cli.Context) error {
	src := newConfigSource(c)
	cfg, err := src.load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting hello-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", src.file)

	metrics := metric.NewRegistry()
	members := memory.NewMemberStore(
		memory.WithMemberLogger(log.Slog()),
		memory.WithMemberObserver(metrics),
	)
	sessions := session.NewManager(
		session.WithCookieName(cfg.Session.CookieName),
		session.WithTokenBytes(cfg.Session.TokenBytes),
		session.WithSecureCookie(cfg.Session.SecureCookie),
		session.WithLogger(log.Slog()),
		session.WithObserver(metrics),
	)

	if c.Bool("seed-test-member") {
		members.Save(&domain.Member{LoginID: "test", Name: "tester", Password: "test!"})
	}

	var listening atomic.Bool
	app := handler.New(
		service.NewMemberService(members),
		service.NewLoginService(members),
		sessions,
		log.Slog(),
		handler.WithReadiness(func() error {
			if !listening.Load() {
				return errNotListening
			}
			return nil
		}),
	)

	trusted, err := cfg.Web.TrustedProxyPrefixes()
	if err != nil {
		return err
	}
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		App:                app,
		Sessions:           sessions,
		Logger:             log,
		Metrics:            metrics,
		MetricsHandler:     metrics.Handler(),
		LoginWhitelist:     cfg.Web.LoginWhitelist,
		CORSAllowedOrigins: cfg.Web.CORSAllowedOrigins,
		RateLimit:          cfg.Web.RateLimit,
		RateBurst:          cfg.Web.RateBurst,
		TrustedProxies:     trusted,
		EnableAudit:        cfg.Web.EnableAudit,
	})

	opts := []httpserver.ServerOption{httpserver.WithReadHeaderTimeout(cfg.Server.HTTP.ReadHeaderTimeout)}
	var certs *certreload.Reloader
	if cfg.Server.HTTP.TLSCertFile != "" {
		certs, err = certreload.New(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			certreload.WithLogger(log.Slog()))
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		opts = append(opts, httpserver.WithTLSConfig(certs.TLSConfig()))
	}
	srv := httpserver.New(cfg.Server.HTTP.Addr, router, opts...)

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	// Hooks run in reverse order: HTTP server first, then the reloaders.
	stopReload := watchReloads(src, cfg, log)
	shutdownHandler.OnShutdown(func(context.Context) error {
		return stopReload()
	})
	if certs != nil {
		certs.StartAsync()
		shutdownHandler.OnShutdown(func(context.Context) error {
			certs.Stop()
			return nil
		})
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		listening.Store(false)
		return srv.Stop(ctx)
	})

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String(), "tls", cfg.Server.HTTP.TLSCertFile != "")
		listening.Store(true)
		if err := srv.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			cancel()
		}
	}()

	if err := shutdownHandler.WaitContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	select {
	case err := <-serveErr:
		return err
	default:
	}

	log.Info("server stopped gracefully",
		"members", members.Count(),
		"sessions", sessions.Count())
	return nil
}

// watchReloads reloads log.level on SIGHUP and, when log.watch is set, on
// config file changes. The returned func stops both.
func watchReloads(src *configSource, cfg *config.ServerConfig, log logger.Logger) func() error {
	reload := func(reason string) {
		next, err := src.load()
		if err != nil {
			log.Warn("config reload failed, keeping current settings", "reason", reason, "error", err)
			return
		}
		prev := logger.GetLevel()
		changed, err := logger.SetLevel(next.Log.Level)
		if err != nil {
			log.Warn("config reload failed, keeping current settings", "reason", reason, "error", err)
			return
		}
		if changed {
			log.Info("log level changed", "reason", reason, "from", prev, "to", logger.GetLevel())
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-hup:
				reload("sighup")
			case <-done:
				return
			}
		}
	}()

	var watcher *confloader.Watcher
	if cfg.Log.Watch && src.file != "" {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
		switch {
		case err != nil:
			log.Warn("config watcher disabled", "error", err)
		case w.Watch(src.file) != nil:
			_ = w.Stop()
			log.Warn("config watcher disabled", "path", src.file)
		default:
			w.OnChange(func(string) { reload("file") })
			w.StartAsync()
			watcher = w
		}
	}

	return func() error {
		signal.Stop(hup)
		close(done)
		if watcher != nil {
			return watcher.Stop()
		}
		return nil
	}
}
