// Package app wires config, logging, storage, the reminder service and the
// Telegram transport into a running bot.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"remindbot/internal/config"
	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	kit "remindbot/internal/transport"
	"remindbot/internal/transport/telegram"
	logx "remindbot/pkg/logx"
)

const (
	updateQueueSize  = 128
	defaultSendRate  = 20 // Telegram flood limit headroom
	defaultRetention = 24 * time.Hour
	deliveryTimeout  = 30 * time.Second
	handleTimeout    = 15 * time.Second
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store   reminder.Store
	svc     *reminder.Service
	adapter kit.Adapter
	limiter *rate.Limiter
	janitor *cron.Cron

	updates chan kit.Update

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgMgr := config.NewManager(cfgPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})
	cfgMgr.SetLogger(log.With(logx.String("comp", "config")))

	busy, _ := config.ParseDuration(cfg.Storage.BusyTimeout, 0)
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	pollTimeout, _ := config.ParseDuration(cfg.Telegram.PollTimeout, 0)
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	rps := cfg.Notify.RatePerSec
	if rps <= 0 {
		rps = defaultSendRate
	}

	a := &App{
		cfgMgr:  cfgMgr,
		logSvc:  logSvc,
		log:     log,
		store:   store,
		adapter: adapter,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		updates: make(chan kit.Update, updateQueueSize),
	}
	a.svc = reminder.NewService(store, reminder.SystemClock(), log.With(logx.String("comp", "reminder")), a.deliver)

	if spec := cfg.Retention.PruneSchedule; spec != "" {
		horizon, _ := config.ParseDuration(cfg.Retention.Horizon, defaultRetention)
		c := cron.New()
		if _, err := c.AddFunc(spec, func() { a.prune(horizon) }); err != nil {
			_ = store.Close()
			_ = logSvc.Close()
			return nil, err
		}
		a.janitor = c
	}

	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}

	// Re-arm whatever a durable store kept across the restart.
	if err := a.svc.Restore(runCtx); err != nil {
		a.log.Warn("restoring pending tasks failed", logx.Err(err))
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.consumeUpdates(runCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(runCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.applyConfigUpdates(runCtx)
	}()

	if a.janitor != nil {
		a.janitor.Start()
	}

	a.log.Info("remindbot started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.runMu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.runMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	if a.janitor != nil {
		<-a.janitor.Stop().Done()
	}
	_ = a.adapter.Stop(ctx)
	a.svc.Stop()
	a.wg.Wait()

	if err := a.store.Close(); err != nil {
		a.log.Warn("store close failed", logx.Err(err))
	}
	a.log.Info("remindbot stopped")
	return a.logSvc.Close()
}

func (a *App) consumeUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case up := <-a.updates:
			hctx, cancel := context.WithTimeout(ctx, handleTimeout)
			a.handleUpdate(hctx, up)
			cancel()
		}
	}
}

// applyConfigUpdates re-applies hot-reloadable settings (logging sinks and
// levels) when the config file changes.
func (a *App) applyConfigUpdates(ctx context.Context) {
	sub := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok || cfg == nil {
				return
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File:    logx.FileConfig(cfg.Logging.File),
			})
			a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
		}
	}
}

func (a *App) prune(horizon time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := a.store.PruneCompleted(ctx, time.Now().Add(-horizon))
	if err != nil {
		a.log.Warn("prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		a.log.Info("completed tasks pruned", logx.Int("count", n))
	}
}
