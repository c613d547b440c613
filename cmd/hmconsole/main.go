// Command hmconsole serves the hybrid-mount administration console.
// It talks to the meta-hybrid daemon CLI when one is present and falls
// back to a synthetic backend otherwise (or with --mock).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hybrid-mount/hmconsole/internal/api"
	"github.com/hybrid-mount/hmconsole/internal/bridge"
	"github.com/hybrid-mount/hmconsole/internal/events"
	"github.com/hybrid-mount/hmconsole/internal/locale"
	"github.com/hybrid-mount/hmconsole/internal/models"
	"github.com/hybrid-mount/hmconsole/internal/prefs"
	"github.com/hybrid-mount/hmconsole/internal/refresh"
	"github.com/hybrid-mount/hmconsole/internal/store"
	"github.com/hybrid-mount/hmconsole/internal/zeroconf"
)

func main() {
	var (
		mock   = flag.Bool("mock", false, "use the synthetic backend (no daemon required)")
		addr   = flag.String("addr", "127.0.0.1:8321", "HTTP listen address")
		cfgDir = flag.String("config-dir", "", "preference directory (default: ~/.config/hmconsole)")
		bin    = flag.String("bin", "meta-hybrid", "daemon CLI binary")
		mdns   = flag.Bool("mdns", false, "advertise the console over mDNS")
		debug  = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "hmconsole")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create preference directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Backend selection happens once at startup; a daemon that appears
	// later requires a restart.
	b := bridge.Detect(ctx, &bridge.ShellExecutor{Shell: "sh"}, *bin, *mock)
	slog.Info("backend selected", "live", b.IsLive())

	locales, err := locale.New()
	if err != nil {
		slog.Error("locale registry initialization failed", "err", err)
		os.Exit(1)
	}

	bus := events.NewBus()
	st := store.New(b, locales, prefs.NewStore(*cfgDir), bus)

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := st.Init(initCtx); err != nil {
		slog.Warn("initial load did not complete", "err", err)
	}
	initCancel()

	ref := refresh.New(st, models.DaemonStateFile)
	go ref.Start(ctx)

	if *mdns {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "hmconsole"
		}
		port := 8321
		if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
			if p, err := strconv.Atoi(parts[1]); err == nil {
				port = p
			}
		}
		zc := zeroconf.New(hostname, port, st.Snapshot().Version.Version, b.IsLive())
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(st, bus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no timeout, needed for SSE
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("hmconsole listening", "addr", *addr, "live", b.IsLive(), "prefs", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}
