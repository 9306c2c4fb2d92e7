// Package moderation routes recipient-proposed quotes through a single
// moderator accept/reject decision.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/internal/transport"
	"github.com/malyarq/happiness-bot/pkg/logx"
	"github.com/malyarq/happiness-bot/pkg/tgui"
)

// Decision actions carried in the moderator's callback data
// ("accept:<proposer_id>:<proposal_id>").
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

var ErrUnknownAction = errors.New("moderation: unknown action")

type Service struct {
	store  storage.Store
	sender transport.Sender
	// moderatorChat receives every proposal with its accept/reject buttons.
	moderatorChat int64
	log           logx.Logger
}

func New(store storage.Store, sender transport.Sender, moderatorChat int64, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, sender: sender, moderatorChat: moderatorChat, log: log}
}

// Submit records a pending proposal and notifies the moderator.
// The proposer must be a registered user.
func (s *Service) Submit(ctx context.Context, proposerID int64, proposerName, text, author string) (int64, error) {
	id, err := s.store.AddPendingQuote(ctx, proposerID, text, author)
	if err != nil {
		return 0, fmt.Errorf("add pending quote: %w", err)
	}

	name := proposerName
	if name == "" {
		name = fmt.Sprintf("id%d", proposerID)
	}
	msg := tgui.JoinM(" ",
		tgui.Esc(name+" предлагает цитату:"),
		tgui.QuoteCard(text, author),
	)
	kb := tgui.NewInline().Row(
		tgui.Btn("Принять", tgui.Data(ActionAccept, fmt.Sprint(proposerID), fmt.Sprint(id))),
		tgui.Btn("Отклонить", tgui.Data(ActionReject, fmt.Sprint(proposerID), fmt.Sprint(id))),
	)

	_, err = s.sender.SendText(ctx, transport.ChatTarget{ChatID: s.moderatorChat}, msg.String(), &transport.SendOptions{
		ParseMode:   tgui.ParseModeMarkdownV2,
		ReplyMarkup: kb.Markup(),
	})
	if err != nil {
		// The proposal is stored; the moderator can still decide it later.
		s.log.Warn("moderator notification failed", logx.Int64("proposal_id", id), logx.Err(err))
	}

	s.log.Info("proposal submitted",
		logx.Int64("proposal_id", id),
		logx.Int64("proposer_id", proposerID),
		logx.String("author", author))
	return id, nil
}

// Decide applies the moderator's verdict exactly once. A second call for the
// same proposal fails with storage.ErrAlreadyDecided (or ErrNotFound if the
// id never existed) instead of double-applying.
//
// ref is the moderator-facing message carrying the buttons; it is edited to
// reflect the final decision.
func (s *Service) Decide(ctx context.Context, action string, proposerID, proposalID int64, ref transport.MessageRef) error {
	p, err := s.store.GetPendingQuote(ctx, proposalID)
	if err != nil {
		return fmt.Errorf("get pending quote: %w", err)
	}

	switch action {
	case ActionAccept:
		if _, err := s.store.AcceptPendingQuote(ctx, proposalID); err != nil {
			return fmt.Errorf("accept pending quote: %w", err)
		}
		s.notifyProposer(ctx, proposerID,
			tgui.JoinM(" ", tgui.Esc("Твоя цитата:"), tgui.QuoteCard(p.Text, p.Author), tgui.Esc("добавлена!")))
		s.editDecision(ctx, ref, tgui.JoinM(" ", tgui.Esc("Цитата принята:"), tgui.QuoteCard(p.Text, p.Author)))
		s.log.Info("proposal accepted", logx.Int64("proposal_id", proposalID), logx.Int64("proposer_id", proposerID))
		return nil

	case ActionReject:
		if err := s.store.RejectPendingQuote(ctx, proposalID); err != nil {
			return fmt.Errorf("reject pending quote: %w", err)
		}
		s.notifyProposer(ctx, proposerID,
			tgui.JoinM(" ", tgui.Esc("Твоя цитата:"), tgui.QuoteCard(p.Text, p.Author), tgui.Esc("отклонена.")))
		s.editDecision(ctx, ref, tgui.JoinM(" ", tgui.Esc("Цитата отклонена:"), tgui.QuoteCard(p.Text, p.Author)))
		s.log.Info("proposal rejected", logx.Int64("proposal_id", proposalID), logx.Int64("proposer_id", proposerID))
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// notifyProposer is best-effort: a blocked proposer must not undo a decision
// that is already committed.
func (s *Service) notifyProposer(ctx context.Context, proposerID int64, msg tgui.M) {
	_, err := s.sender.SendText(ctx, transport.ChatTarget{ChatID: proposerID}, msg.String(), &transport.SendOptions{
		ParseMode: tgui.ParseModeMarkdownV2,
	})
	if err != nil {
		s.log.Warn("proposer notification failed", logx.Int64("proposer_id", proposerID), logx.Err(err))
	}
}

func (s *Service) editDecision(ctx context.Context, ref transport.MessageRef, msg tgui.M) {
	if ref.ChatID == 0 || ref.MessageID == 0 {
		return
	}
	if err := s.sender.EditText(ctx, ref, msg.String(), &transport.SendOptions{
		ParseMode: tgui.ParseModeMarkdownV2,
	}); err != nil {
		s.log.Warn("decision message edit failed", logx.Err(err))
	}
}
