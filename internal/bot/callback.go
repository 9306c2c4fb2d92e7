package bot

import (
	"context"
	"errors"
	"strconv"

	"github.com/malyarq/happiness-bot/internal/moderation"
	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/internal/transport"
	"github.com/malyarq/happiness-bot/pkg/logx"
	"github.com/malyarq/happiness-bot/pkg/tgui"
)

const (
	cbDecided     = "Решение сохранено."
	cbAlreadyDone = "Эта цитата уже обработана."
	cbNotFound    = "Предложение не найдено."
	cbFailed      = "Не получилось применить решение."
)

// handleCallback applies a moderator accept/reject button press.
// Callback data format: "accept:<proposer_id>:<proposal_id>".
func (h *Handler) handleCallback(ctx context.Context, cb *transport.Callback) {
	if !h.auth.Check(cb.FromID, "", "moderation callback") {
		h.answer(ctx, cb.ID, "")
		return
	}

	action, args := tgui.ParseData(cb.Data)
	if (action != moderation.ActionAccept && action != moderation.ActionReject) || len(args) != 2 {
		h.answer(ctx, cb.ID, "")
		return
	}
	proposerID, err1 := strconv.ParseInt(args[0], 10, 64)
	proposalID, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		h.answer(ctx, cb.ID, "")
		return
	}

	ref := transport.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
	err := h.mod.Decide(ctx, action, proposerID, proposalID, ref)
	switch {
	case err == nil:
		h.answer(ctx, cb.ID, cbDecided)
	case errors.Is(err, storage.ErrAlreadyDecided):
		h.answer(ctx, cb.ID, cbAlreadyDone)
	case errors.Is(err, storage.ErrNotFound):
		h.answer(ctx, cb.ID, cbNotFound)
	default:
		h.log.Error("moderation decision failed",
			logx.String("action", action),
			logx.Int64("proposal_id", proposalID),
			logx.Err(err))
		h.answer(ctx, cb.ID, cbFailed)
	}
}

func (h *Handler) answer(ctx context.Context, callbackID, text string) {
	if err := h.sender.AnswerCallback(ctx, callbackID, text); err != nil {
		h.log.Warn("callback answer failed", logx.Err(err))
	}
}
