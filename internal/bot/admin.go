package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/malyarq/happiness-bot/internal/dialog"
	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/internal/transport"
)

// listChunk caps how many quotes go into one /listquotes message.
const listChunk = 40

const (
	replyAddQuoteUsage    = "Используй: /addquote <цитата> - <автор> (дефис обязателен)"
	replyQuoteAdded       = "Цитата добавлена: \"%s\" - %s"
	replyDeleteQuoteUsage = "Используй: /deletequote <номер цитаты>"
	replyQuoteDeleted     = "Цитата с номером %d удалена."
	replyQuoteNotFound    = "Цитата с номером %d не найдена."
	replyBotDisabled      = "Рассылка отключена. Пользователи не будут получать цитаты."
	replyBotEnabled       = "Рассылка включена. Пользователи снова будут получать цитаты."
)

func (h *Handler) cmdAddQuote(ctx context.Context, m *transport.Message, args string) {
	if !h.auth.Check(m.FromID, m.FromUsername, "/addquote") {
		return
	}
	text, author, err := dialog.ParseQuote(args)
	if err != nil {
		h.reply(ctx, m.ChatID, replyAddQuoteUsage, nil)
		return
	}
	if _, err := h.store.AddQuote(ctx, text, author); err != nil {
		h.storeFailed(ctx, m.ChatID, "add quote", err)
		return
	}
	h.reply(ctx, m.ChatID, fmt.Sprintf(replyQuoteAdded, text, author), nil)
}

func (h *Handler) cmdListQuotes(ctx context.Context, m *transport.Message) {
	if !h.auth.Check(m.FromID, m.FromUsername, "/listquotes") {
		return
	}
	quotes, err := h.store.ListQuotes(ctx)
	if err != nil {
		h.storeFailed(ctx, m.ChatID, "list quotes", err)
		return
	}
	if len(quotes) == 0 {
		h.reply(ctx, m.ChatID, replyNoQuotes, nil)
		return
	}

	var b strings.Builder
	count := 0
	for _, q := range quotes {
		fmt.Fprintf(&b, "%d. \"%s\" — %s\n", q.ID, q.Text, q.Author)
		count++
		if count == listChunk {
			h.reply(ctx, m.ChatID, b.String(), nil)
			b.Reset()
			count = 0
		}
	}
	if b.Len() > 0 {
		h.reply(ctx, m.ChatID, b.String(), nil)
	}
}

func (h *Handler) cmdDeleteQuote(ctx context.Context, m *transport.Message, args string) {
	if !h.auth.Check(m.FromID, m.FromUsername, "/deletequote") {
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		h.reply(ctx, m.ChatID, replyDeleteQuoteUsage, nil)
		return
	}
	switch err := h.store.DeleteQuote(ctx, id); {
	case err == nil:
		h.reply(ctx, m.ChatID, fmt.Sprintf(replyQuoteDeleted, id), nil)
	case errors.Is(err, storage.ErrNotFound):
		h.reply(ctx, m.ChatID, fmt.Sprintf(replyQuoteNotFound, id), nil)
	default:
		h.storeFailed(ctx, m.ChatID, "delete quote", err)
	}
}

// cmdSetActive flips delivery for all recipients at once (operator broadcast
// enable/disable).
func (h *Handler) cmdSetActive(ctx context.Context, m *transport.Message, active bool) {
	action := "/disable"
	if active {
		action = "/enable"
	}
	if !h.auth.Check(m.FromID, m.FromUsername, action) {
		return
	}
	if err := h.store.SetAllActive(ctx, active); err != nil {
		h.storeFailed(ctx, m.ChatID, "set active", err)
		return
	}
	text := replyBotDisabled
	if active {
		text = replyBotEnabled
	}
	h.reply(ctx, m.ChatID, text, nil)
}
