// Package bot routes inbound interaction events: slash commands, keyboard
// shortcuts, dialog input and moderator callbacks.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/malyarq/happiness-bot/internal/dialog"
	"github.com/malyarq/happiness-bot/internal/moderation"
	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/internal/transport"
	"github.com/malyarq/happiness-bot/pkg/logx"
	"github.com/malyarq/happiness-bot/pkg/tgui"
)

type Handler struct {
	store    storage.Store
	sessions *dialog.Sessions
	mod      *moderation.Service
	sender   transport.Sender
	auth     *Auth

	defaultTime string
	log         logx.Logger
}

func NewHandler(store storage.Store, sessions *dialog.Sessions, mod *moderation.Service,
	sender transport.Sender, auth *Auth, defaultTime string, log logx.Logger) *Handler {
	if defaultTime == "" {
		defaultTime = "09:00"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{
		store:       store,
		sessions:    sessions,
		mod:         mod,
		sender:      sender,
		auth:        auth,
		defaultTime: defaultTime,
		log:         log,
	}
}

// HandleUpdate is the single entry point for inbound events.
// Errors are handled here; nothing propagates to crash the event loop.
func (h *Handler) HandleUpdate(ctx context.Context, up transport.Update) {
	switch up.Kind {
	case transport.UpdateMessage:
		if up.Message != nil {
			h.handleMessage(ctx, up.Message)
		}
	case transport.UpdateCallback:
		if up.Callback != nil {
			h.handleCallback(ctx, up.Callback)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *transport.Message) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, m, text)
		return
	}
	h.handleText(ctx, m, text)
}

func (h *Handler) handleCommand(ctx context.Context, m *transport.Message, text string) {
	cmd, args := splitCommand(text)
	switch cmd {
	case "start":
		h.cmdStart(ctx, m)
	case "reset":
		h.cmdReset(ctx, m)
	case "settime":
		h.cmdSetTime(ctx, m)
	case "propose":
		h.cmdPropose(ctx, m)
	case "quote":
		h.cmdQuote(ctx, m)
	case "cancel":
		h.cmdCancel(ctx, m)
	case "help":
		h.cmdHelp(ctx, m)
	case "addquote":
		h.cmdAddQuote(ctx, m, args)
	case "listquotes":
		h.cmdListQuotes(ctx, m)
	case "deletequote":
		h.cmdDeleteQuote(ctx, m, args)
	case "enable":
		h.cmdSetActive(ctx, m, true)
	case "disable":
		h.cmdSetActive(ctx, m, false)
	}
}

// handleText consumes free text: first the active dialog (if any), then the
// fixed keyword shortcuts. Anything else is silently ignored.
func (h *Handler) handleText(ctx context.Context, m *transport.Message, text string) {
	switch h.sessions.Get(m.FromID) {
	case dialog.StateAwaitTime:
		h.receiveTime(ctx, m, text)
		return
	case dialog.StateAwaitQuote:
		h.receiveQuote(ctx, m, text)
		return
	}

	switch {
	case strings.EqualFold(text, btnStart):
		h.cmdStart(ctx, m)
	case strings.EqualFold(text, btnRandom):
		h.cmdQuote(ctx, m)
	case strings.EqualFold(text, btnCancel):
		h.cmdCancel(ctx, m)
	case strings.EqualFold(text, btnSetTime):
		h.cmdSetTime(ctx, m)
	case strings.EqualFold(text, btnPropose):
		h.cmdPropose(ctx, m)
	}
}

// ---- user commands ----

func (h *Handler) cmdStart(ctx context.Context, m *transport.Message) {
	u, err := h.store.GetUser(ctx, m.FromID)
	switch {
	case err == nil:
		h.reply(ctx, m.ChatID, fmt.Sprintf(replyKnown, u.SendTime), mainKeyboard())
	case errors.Is(err, storage.ErrNotFound):
		if err := h.store.AddUser(ctx, storage.User{
			ID:       m.FromID,
			Username: m.FromUsername,
			SendTime: h.defaultTime,
			Active:   true,
		}); err != nil && !errors.Is(err, storage.ErrExists) {
			h.storeFailed(ctx, m.ChatID, "add user", err)
			return
		}
		h.reply(ctx, m.ChatID, fmt.Sprintf(replyWelcome, h.defaultTime), mainKeyboard())
	default:
		h.storeFailed(ctx, m.ChatID, "get user", err)
	}
}

func (h *Handler) cmdReset(ctx context.Context, m *transport.Message) {
	err := h.store.DeleteUser(ctx, m.FromID)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		h.storeFailed(ctx, m.ChatID, "delete user", err)
		return
	}
	h.sessions.Clear(m.FromID)
	h.reply(ctx, m.ChatID, replyReset, startKeyboard())
}

func (h *Handler) cmdSetTime(ctx context.Context, m *transport.Message) {
	if !h.requireUser(ctx, m) {
		return
	}
	h.sessions.Set(m.FromID, dialog.StateAwaitTime)
	h.reply(ctx, m.ChatID, replyAskTime, timeKeyboard())
}

func (h *Handler) cmdPropose(ctx context.Context, m *transport.Message) {
	if !h.requireUser(ctx, m) {
		return
	}
	h.sessions.Set(m.FromID, dialog.StateAwaitQuote)
	h.reply(ctx, m.ChatID, replyAskQuote, cancelKeyboard())
}

func (h *Handler) cmdQuote(ctx context.Context, m *transport.Message) {
	if !h.requireUser(ctx, m) {
		return
	}
	q, err := h.store.RandomQuote(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		h.reply(ctx, m.ChatID, replyNoQuotes, mainKeyboard())
		return
	}
	if err != nil {
		h.storeFailed(ctx, m.ChatID, "random quote", err)
		return
	}
	h.replyMD(ctx, m.ChatID, tgui.QuoteCard(q.Text, q.Author), mainKeyboard())
}

func (h *Handler) cmdCancel(ctx context.Context, m *transport.Message) {
	if h.sessions.Get(m.FromID) == dialog.StateIdle {
		return
	}
	h.sessions.Clear(m.FromID)
	h.reply(ctx, m.ChatID, replyCancelled, mainKeyboard())
}

func (h *Handler) cmdHelp(ctx context.Context, m *transport.Message) {
	if !h.requireUser(ctx, m) {
		return
	}
	text := replyHelp
	if h.auth.Allowed(m.FromID) {
		text = replyHelpAdmin
	}
	h.reply(ctx, m.ChatID, text, mainKeyboard())
}

// ---- dialog input ----

func (h *Handler) receiveTime(ctx context.Context, m *transport.Message, text string) {
	if strings.EqualFold(text, btnCancel) {
		h.cmdCancel(ctx, m)
		return
	}
	norm, err := dialog.NormalizeTime(text)
	if err != nil {
		// Stay in the dialog and re-prompt.
		h.reply(ctx, m.ChatID, replyBadTime, nil)
		return
	}
	if err := h.store.UpdateUserTime(ctx, m.FromID, norm); err != nil {
		h.storeFailed(ctx, m.ChatID, "update time", err)
		return
	}
	h.sessions.Clear(m.FromID)
	h.reply(ctx, m.ChatID, fmt.Sprintf(replyTimeUpdated, norm), mainKeyboard())
}

func (h *Handler) receiveQuote(ctx context.Context, m *transport.Message, text string) {
	if strings.EqualFold(text, btnCancel) {
		h.cmdCancel(ctx, m)
		return
	}
	quoteText, author, err := dialog.ParseQuote(text)
	if err != nil {
		h.reply(ctx, m.ChatID, replyBadQuote, nil)
		return
	}
	if _, err := h.mod.Submit(ctx, m.FromID, m.FromUsername, quoteText, author); err != nil {
		h.storeFailed(ctx, m.ChatID, "submit proposal", err)
		return
	}
	h.sessions.Clear(m.FromID)
	h.reply(ctx, m.ChatID, replyProposed, mainKeyboard())
}

// ---- helpers ----

// requireUser gates dialog entry points on registration.
func (h *Handler) requireUser(ctx context.Context, m *transport.Message) bool {
	_, err := h.store.GetUser(ctx, m.FromID)
	if err == nil {
		return true
	}
	if errors.Is(err, storage.ErrNotFound) {
		h.reply(ctx, m.ChatID, replyUnregistered, startKeyboard())
		return false
	}
	h.storeFailed(ctx, m.ChatID, "get user", err)
	return false
}

func (h *Handler) storeFailed(ctx context.Context, chatID int64, op string, err error) {
	h.log.Error("store operation failed", logx.String("op", op), logx.Err(err))
	h.reply(ctx, chatID, replyStoreFail, nil)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string, markup any) {
	_, err := h.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text,
		&transport.SendOptions{ReplyMarkup: markup})
	if err != nil {
		h.log.Warn("reply failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}

func (h *Handler) replyMD(ctx context.Context, chatID int64, text tgui.M, markup any) {
	_, err := h.sender.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text.String(),
		&transport.SendOptions{ParseMode: tgui.ParseModeMarkdownV2, ReplyMarkup: markup})
	if err != nil {
		h.log.Warn("reply failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}

// splitCommand strips the leading slash and an optional @botname suffix,
// returning the lower-cased command and the remaining argument string.
func splitCommand(text string) (cmd, args string) {
	text = strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		cmd, args = text[:i], strings.TrimSpace(text[i+1:])
	} else {
		cmd = text
	}
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), args
}
