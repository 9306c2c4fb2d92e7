// Package dispatch delivers one random quote to every active recipient whose
// configured time-of-day matches the current minute.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/internal/transport"
	"github.com/malyarq/happiness-bot/pkg/logx"
	"github.com/malyarq/happiness-bot/pkg/tgui"
)

type Config struct {
	// Timezone is the IANA zone recipients' HH:MM values are interpreted in.
	// Empty means the process-local zone.
	Timezone string
	// RatePerSec caps outbound sends across one tick (Telegram allows ~30/s).
	RatePerSec int
}

type Engine struct {
	store   storage.Store
	sender  transport.Sender
	log     logx.Logger
	loc     *time.Location
	limiter *rate.Limiter

	c *cron.Cron
}

func New(store storage.Store, sender transport.Sender, cfg Config, log logx.Logger) (*Engine, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, err
		}
		loc = l
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 25
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		store:   store,
		sender:  sender,
		log:     log,
		loc:     loc,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Start registers the per-minute tick. The cron fires at second :00 of every
// minute, so each wall-clock minute is evaluated exactly once; a tick missed
// while the process is down is skipped, not retried.
func (e *Engine) Start(ctx context.Context) error {
	if e.c != nil {
		return nil
	}
	e.c = cron.New(cron.WithLocation(e.loc))
	_, err := e.c.AddFunc("* * * * *", func() {
		e.Tick(ctx, time.Now().In(e.loc))
	})
	if err != nil {
		return err
	}
	e.c.Start()
	e.log.Info("dispatch engine started", logx.String("tz", e.loc.String()))
	return nil
}

// Stop halts the tick and waits for an in-flight tick to finish (bounded by
// ctx).
func (e *Engine) Stop(ctx context.Context) error {
	if e.c == nil {
		return nil
	}
	done := e.c.Stop().Done()
	e.c = nil
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick evaluates all active recipients against now, truncated to minute
// resolution. One matching recipient gets exactly one send; a failing send
// is logged and never blocks the rest of the batch.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	minute := now.Format("15:04")

	users, err := e.store.ListActiveUsers(ctx)
	if err != nil {
		e.log.Error("dispatch: listing recipients failed", logx.Err(err))
		return
	}

	for _, u := range users {
		if u.SendTime != minute {
			continue
		}

		q, err := e.store.RandomQuote(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			// Empty corpus: nothing to deliver this tick.
			e.log.Debug("dispatch: corpus is empty, skipping tick")
			return
		}
		if err != nil {
			e.log.Error("dispatch: picking quote failed", logx.Err(err))
			return
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return
		}

		_, err = e.sender.SendText(ctx, transport.ChatTarget{ChatID: u.ID},
			tgui.QuoteCard(q.Text, q.Author).String(),
			&transport.SendOptions{ParseMode: tgui.ParseModeMarkdownV2})
		if err != nil {
			e.log.Warn("dispatch: send failed",
				logx.Int64("user_id", u.ID),
				logx.String("username", u.Username),
				logx.Err(err))
			continue
		}
		e.log.Info("quote delivered",
			logx.Int64("user_id", u.ID),
			logx.String("username", u.Username),
			logx.String("send_time", u.SendTime),
			logx.Int64("quote_id", q.ID))
	}
}
