// Package app wires configuration, storage, transport and services into one
// runnable bot.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/malyarq/happiness-bot/internal/bot"
	"github.com/malyarq/happiness-bot/internal/config"
	"github.com/malyarq/happiness-bot/internal/corpus"
	"github.com/malyarq/happiness-bot/internal/dialog"
	"github.com/malyarq/happiness-bot/internal/dispatch"
	"github.com/malyarq/happiness-bot/internal/moderation"
	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/internal/transport"
	"github.com/malyarq/happiness-bot/internal/transport/telegram"
	"github.com/malyarq/happiness-bot/pkg/logx"
)

// updateQueueSize buffers inbound updates between the poll loop and the
// event loop. Overflow drops (and counts) rather than blocking the poller.
const updateQueueSize = 256

type App struct {
	cfgPath string
	cfg     *config.Config

	logs *logx.Service
	log  logx.Logger

	store   storage.Store
	adapter *telegram.Adapter
	auth    *bot.Auth
	handler *bot.Handler
	engine  *dispatch.Engine

	runMu   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	updates chan transport.Update
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})

	busy, _ := cfg.BusyTimeout()
	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	loader := corpus.NewLoader(store, cfg.Corpus.Similarity, log.With(logx.String("comp", "corpus")))
	if _, err := loader.LoadFile(context.Background(), cfg.Corpus.Path); err != nil {
		_ = store.Close()
		_ = logs.Close()
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	pollTimeout, _ := cfg.PollTimeout()
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		_ = logs.Close()
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	auth := bot.NewAuth(cfg.Telegram.AdminIDs, log.With(logx.String("comp", "auth")))
	mod := moderation.New(store, adapter, cfg.Telegram.ModeratorChat,
		log.With(logx.String("comp", "moderation")))
	handler := bot.NewHandler(store, dialog.NewSessions(), mod, adapter, auth,
		cfg.Dispatch.DefaultTime, log.With(logx.String("comp", "bot")))

	engine, err := dispatch.New(store, adapter, dispatch.Config{
		Timezone:   cfg.Dispatch.Timezone,
		RatePerSec: cfg.Dispatch.RatePerSec,
	}, log.With(logx.String("comp", "dispatch")))
	if err != nil {
		_ = store.Close()
		_ = logs.Close()
		return nil, fmt.Errorf("dispatch engine: %w", err)
	}

	return &App{
		cfgPath: cfgPath,
		cfg:     cfg,
		logs:    logs,
		log:     log,
		store:   store,
		adapter: adapter,
		auth:    auth,
		handler: handler,
		engine:  engine,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.updates = make(chan transport.Update, updateQueueSize)
	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		a.cancel = nil
		return err
	}

	// Event loop: one goroutine consumes all inbound interaction events.
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.eventLoop(runCtx)
	}()

	if err := a.engine.Start(runCtx); err != nil {
		cancel()
		return err
	}

	// Config watcher: log level and admin list are live-reloadable.
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := config.Watch(runCtx, a.cfgPath, a.log.With(logx.String("comp", "config")), a.applyConfig); err != nil {
			a.log.Warn("config watcher unavailable", logx.Err(err))
		}
	}()

	a.log.Info("bot started",
		logx.Int("admins", len(a.cfg.Telegram.AdminIDs)),
		logx.String("default_time", a.cfg.Dispatch.DefaultTime))
	return nil
}

func (a *App) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case up := <-a.updates:
			a.handleOne(ctx, up)
		}
	}
}

// handleOne isolates a single update: a panicking handler must not take the
// event loop down with it.
func (a *App) handleOne(ctx context.Context, up transport.Update) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("handler panic recovered", logx.Any("panic", r))
		}
	}()
	a.handler.HandleUpdate(ctx, up)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	a.auth.SetAdmins(cfg.Telegram.AdminIDs)
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

	if err := a.engine.Stop(ctx); err != nil {
		a.log.Warn("dispatch stop", logx.Err(err))
	}
	if err := a.adapter.Stop(ctx); err != nil {
		a.log.Warn("adapter stop", logx.Err(err))
	}
	a.wg.Wait()

	if err := a.store.Close(); err != nil {
		a.log.Warn("store close", logx.Err(err))
	}
	a.log.Info("bot stopped")
	return a.logs.Close()
}
