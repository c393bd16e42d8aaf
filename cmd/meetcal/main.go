package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"meetcal/internal/agenda"
	"meetcal/internal/civil"
	"meetcal/internal/config"
	appLog "meetcal/internal/log"
	"meetcal/internal/store"
	"meetcal/internal/web"
	"meetcal/internal/zoom"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
	syncOnce   bool
}

func main() {
	appLog.Info("meetcal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"storage_driver", conf.Storage.Driver,
		"grid_start_hour", conf.Grid.StartHour,
		"grid_end_hour", conf.Grid.EndHour,
		"cell_height_px", conf.Grid.CellHeightPx,
		"zoom_configured", conf.Zoom.AccountID != "",
		"agenda_configured", conf.Agenda.Endpoint != "",
	)

	// The app timezone is a hard requirement; every stored meeting time is
	// civil in this zone, so refusing to start beats guessing.
	zone, err := civil.LoadZone(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load app timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}
	clock := civil.SystemClock{}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	st, fileStore, err := openStore(ctx, conf, flags.debug)
	if err != nil {
		appLog.Error("failed to open meeting store", err, "driver", conf.Storage.Driver)
		os.Exit(1)
	}
	defer st.Close()

	zoomClient := zoom.NewClient(conf.Zoom.AccountID, conf.Zoom.ClientID, conf.Zoom.ClientSecret)
	agendaClient := agenda.NewClient(conf.Agenda.Endpoint, conf.Agenda.APIKey, conf.Agenda.Model)

	if flags.syncOnce {
		if !zoomClient.Configured() {
			appLog.Error("sync requested but zoom is not configured", errors.New("missing credentials"))
			os.Exit(1)
		}
		if _, err := zoom.SyncMeetings(ctx, zoomClient, st, zone, conf.Zoom.UserID); err != nil {
			appLog.Error("zoom sync failed", err)
			os.Exit(1)
		}
		return
	}

	server := web.NewServer(conf, zone, clock, st, zoomClient, agendaClient, flags.debug)

	// File-store edits from outside (manual fixes, a second instance) drop
	// the web layer's snapshot cache.
	if fileStore != nil {
		go func() {
			if err := fileStore.Watch(ctx, server.InvalidateMeetings); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("store watcher stopped", err)
			}
		}()
	}

	// Periodic Zoom sync on the configured cron schedule.
	var scheduler *cron.Cron
	if zoomClient.Configured() {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(conf.RefreshCron, func() {
			syncCtx, syncCancel := context.WithTimeout(ctx, 2*time.Minute)
			defer syncCancel()
			if _, err := zoom.SyncMeetings(syncCtx, zoomClient, st, zone, conf.Zoom.UserID); err != nil {
				appLog.Error("scheduled zoom sync failed", err)
				return
			}
			server.InvalidateMeetings()
		})
		if err != nil {
			appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		scheduler.Start()
		appLog.Info("zoom sync scheduled", "refresh", conf.RefreshCron, "user_id", conf.Zoom.UserID)
	}

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}

	appLog.Info("meetcal exiting")
}

// openStore builds the configured store; the *FileStore is also returned
// when applicable so main can start its change watcher.
func openStore(ctx context.Context, conf *config.Config, debug bool) (store.Store, *store.FileStore, error) {
	switch conf.Storage.Driver {
	case "postgres":
		st, err := store.NewPostgresStore(ctx, conf.Storage.DSN)
		return st, nil, err
	default:
		path := conf.Storage.Path
		if debug {
			path = "./cache/meetings.json"
		}
		fs, err := store.NewFileStore(path)
		return fs, fs, err
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/meetcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug mode: verbose logging, relative cache paths")
	flag.BoolVar(&cfg.syncOnce, "sync-once", false, "Run one Zoom sync cycle and exit")

	flag.Parse()

	return cfg
}
