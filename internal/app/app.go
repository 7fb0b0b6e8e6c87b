// Package app assembles the pipeline from configuration and owns its
// lifecycle: config manager, logging, storage, announcer, stats, monitor.
package app

import (
	"context"
	"fmt"

	"prospector/internal/announce"
	"prospector/internal/classify"
	"prospector/internal/config"
	"prospector/internal/eventbus"
	"prospector/internal/journal"
	"prospector/internal/monitor"
	"prospector/internal/observability/debug"
	"prospector/internal/runtime/supervisor"
	"prospector/internal/stats"
	"prospector/internal/storage"
	logx "prospector/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger
	bus    eventbus.Bus

	store      storage.Store
	announcer  *announce.Service
	classifier *classify.Classifier
	agg        *stats.Aggregator
	exporter   *stats.Exporter
	mon        *monitor.Service
	procWatch  *monitor.ProcessWatcher
	debug      *debug.Service

	sup    *supervisor.Supervisor
	cfgSub chan *config.Config
}

// New loads and validates the config, then wires every component.
// Nothing runs until Start.
func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logCfg(cfg))
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	bus := eventbus.New()

	store, err := storage.Open(storageCfg(cfg), log.With(logx.String("comp", "storage")))
	if err != nil {
		logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sinks := buildSinks(cfg, log)
	announcer := announce.NewService(
		announce.Config{QueueSize: cfg.Announce.QueueSize},
		sinks,
		log.With(logx.String("comp", "announce")),
		bus,
	)

	classifier := classify.New(classify.Config{
		Thresholds:   cfg.Announce.Thresholds,
		MinRemaining: cfg.Announce.MinRemaining,
	})

	agg := stats.NewAggregator()
	var sink stats.SummarySink
	if store != nil {
		sink = store
	}
	exporter := stats.NewExporter(
		stats.ExporterConfig{Schedule: cfg.Stats.FlushSchedule},
		agg, sink,
		log.With(logx.String("comp", "stats")),
		bus,
	)

	pollEvery, err := config.ParseDurationOrDefault("journal.poll_interval", cfg.Journal.PollInterval, config.DefaultPollInterval)
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	jlog := log.With(logx.String("comp", "journal"))
	mon := monitor.New(
		monitor.Config{PollInterval: pollEvery, ResetOnRotation: cfg.Stats.ResetOnRotation},
		journal.NewTailer(cfg.Journal.Dir, cfg.Journal.Pattern, jlog, bus),
		journal.NewParser(jlog),
		classifier,
		announcer,
		agg,
		exporter,
		store,
		log.With(logx.String("comp", "monitor")),
		bus,
	)

	var procWatch *monitor.ProcessWatcher
	if cfg.Process.Name != "" {
		every, err := config.ParseDurationField("process.check_interval", cfg.Process.CheckInterval)
		if err != nil {
			logSvc.Close()
			return nil, err
		}
		procWatch = monitor.NewProcessWatcher(cfg.Process.Name, every, log.With(logx.String("comp", "process")), bus)
	}

	health := func() any {
		return map[string]any{
			"status":         "ok",
			"writer_running": procWatch != nil && procWatch.Running(),
			"session":        agg.Snapshot(),
			"announced":      announcer.History(),
		}
	}
	dbg := debug.New(debug.Config{
		Enabled:       cfg.Debug.Enabled,
		Addr:          cfg.Debug.Addr,
		Token:         cfg.Debug.Token,
		AllowInsecure: cfg.Debug.AllowInsecure,
	}, health, log.With(logx.String("comp", "debug")))

	return &App{
		cfgMgr:     mgr,
		logSvc:     logSvc,
		log:        log,
		bus:        bus,
		store:      store,
		announcer:  announcer,
		classifier: classifier,
		agg:        agg,
		exporter:   exporter,
		mon:        mon,
		procWatch:  procWatch,
		debug:      dbg,
	}, nil
}

// Start launches the announcer, exporter, monitor loop, process probe, and
// config hot reload under one supervisor.
func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return nil
	}
	sup := supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))
	a.sup = sup

	a.announcer.Start(sup.Context())
	a.exporter.Start(sup.Context())
	a.debug.Start(sup.Context())

	sup.Go("monitor", a.mon.Run)
	if a.procWatch != nil {
		sup.Go("process-watch", a.procWatch.Run)
	}
	sup.Go("config-watch", a.cfgMgr.Watch)

	a.cfgSub = a.cfgMgr.Subscribe(4)
	sub := a.cfgSub
	sup.Go("config-apply", func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg, ok := <-sub:
				if !ok {
					return nil
				}
				a.applyConfig(cfg)
			}
		}
	})

	a.log.Info("prospector started")
	return nil
}

// Stop shuts the pipeline down in dependency order: no new journal reads,
// drain pending announcements, flush stats, close storage.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	err := a.sup.Stop(ctx)
	a.sup = nil

	if a.cfgSub != nil {
		a.cfgMgr.Unsubscribe(a.cfgSub)
		a.cfgSub = nil
	}

	a.announcer.Stop(ctx)
	a.exporter.Stop(ctx)
	a.debug.Stop(ctx)

	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			a.log.Error("storage close failed", logx.Err(cerr))
		}
	}

	a.log.Info("prospector stopped")
	a.logSvc.Close()
	return err
}

// applyConfig commits the hot-reloadable subset of a validated config.
// Journal location, storage driver, and sink set changes need a restart.
func (a *App) applyConfig(cfg *config.Config) {
	a.classifier.Apply(classify.Config{
		Thresholds:   cfg.Announce.Thresholds,
		MinRemaining: cfg.Announce.MinRemaining,
	})
	a.logSvc.Apply(logCfg(cfg))
	a.log.Info("config applied", logx.Int("thresholds", len(cfg.Announce.Thresholds)))
}

func logCfg(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console || !cfg.Logging.File.Enabled,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func storageCfg(cfg *config.Config) storage.Config {
	busy, _ := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}
}

// buildSinks assembles announcement sinks per config. A sink that fails to
// construct is skipped with an error log so the pipeline still runs.
func buildSinks(cfg *config.Config, log logx.Logger) []announce.Sink {
	var sinks []announce.Sink
	if cfg.Announce.Speech.Enabled {
		timeout, _ := config.ParseDurationField("announce.speech.timeout", cfg.Announce.Speech.Timeout)
		sinks = append(sinks, announce.NewSpeechSink(
			cfg.Announce.Speech.Command,
			cfg.Announce.Speech.Args,
			timeout,
			log.With(logx.String("comp", "speech")),
		))
	}
	if cfg.Announce.Telegram.Enabled {
		tg, err := announce.NewTelegramSink(
			cfg.Announce.Telegram.Token,
			cfg.Announce.Telegram.ChatID,
			log.With(logx.String("comp", "telegram")),
		)
		if err != nil {
			log.Error("telegram sink disabled", logx.Err(err))
		} else {
			sinks = append(sinks, tg)
		}
	}
	return sinks
}
