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

	"calassist/internal/app"
	"calassist/internal/calendar"
	"calassist/internal/clock"
	"calassist/internal/config"
	"calassist/internal/ics"
	appLog "calassist/internal/log"
	"calassist/internal/persist"
	"calassist/internal/store"
	"calassist/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	importPath string
	exportPath string
}

func main() {
	appLog.Info("calassist starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
		appLog.Warn("default config could not be written", "config_path", flags.configPath, "err", err.Error())
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
		appLog.SetLevel(lvl)
	} else {
		appLog.Warn("unknown log level, keeping info", "log_level", conf.LogLevel)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"storage_backend", conf.Storage.Backend,
		"storage_path", conf.Storage.Path,
		"week_start", conf.WeekStart,
		"default_view", conf.DefaultView,
		"layout", conf.Layout,
		"clock_cron", conf.ClockCron,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("calassist exited with error", err)
		os.Exit(1)
	}
	appLog.Info("calassist exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	p, closeStore, err := persist.Open(ctx, conf.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			appLog.Error("failed to close storage", err)
		}
	}()

	user, p, err := persist.LoadGuarded(ctx, p)
	if err != nil {
		appLog.Error("failed to load user record, starting empty; changes stay in memory only", err,
			"storage_path", conf.Storage.Path)
	}

	st := store.New(user, p)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			appLog.Error("pending saves not flushed", err)
		}
	}()

	a, err := app.New(st, app.Options{
		DefaultView:    calendar.Granularity(conf.DefaultView),
		WeekStart:      conf.FirstWeekday(),
		Layout:         calendar.Layout(conf.Layout),
		HourHeight:     conf.HourHeight,
		MinEventHeight: conf.MinEventHeight,
	})
	if err != nil {
		return err
	}

	if flags.importPath != "" {
		body, err := ics.NewFetcher(nil).Read(ctx, flags.importPath)
		if err != nil {
			return err
		}
		if _, err := a.ImportICS(body); err != nil {
			return err
		}
	}

	if flags.exportPath != "" {
		if err := config.WriteFileAtomic(flags.exportPath, []byte(a.ExportICS()), ".calassist-export-*.tmp"); err != nil {
			return err
		}
		appLog.Info("ics exported", "path", flags.exportPath, "event_count", len(a.Events()))
		return nil
	}

	clk, err := clock.New(conf.ClockCron)
	if err != nil {
		return err
	}
	clk.Subscribe(a.Tick)
	if err := clk.Start(ctx); err != nil {
		return err
	}
	defer clk.Stop()

	if err := web.StartServer(ctx, conf, a); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./calassist.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.importPath, "import", "", "Import events from an .ics file or http(s) URL at startup")
	flag.StringVar(&cfg.exportPath, "export", "", "Write all events to an .ics file and exit")

	flag.Parse()

	return cfg
}
