package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/malyarq/happiness-bot/internal/moderation"
	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/pkg/tgui"
)

// propose registers the user and pushes one proposal through the dialog.
func propose(t *testing.T, h *Handler) {
	t.Helper()
	ctx := context.Background()
	h.HandleUpdate(ctx, msg(userID, "/start"))
	h.HandleUpdate(ctx, msg(userID, "/propose"))
	h.HandleUpdate(ctx, msg(userID, "Carpe diem - Horace"))
}

func decideData(action string) string {
	return tgui.Data(action, fmt.Sprint(userID), "1")
}

func TestCallbackAccept(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t, adminID)
	ctx := context.Background()
	propose(t, h)

	h.HandleUpdate(ctx, cb(adminID, decideData(moderation.ActionAccept)))
	if len(tr.answers) != 1 || tr.answers[0] != cbDecided {
		t.Fatalf("answers = %v, want [%q]", tr.answers, cbDecided)
	}
	if len(st.quotes) != 1 || st.quotes[0].Text != "Carpe diem" {
		t.Fatalf("corpus = %+v", st.quotes)
	}
	p, _ := st.GetPendingQuote(ctx, 1)
	if p.Status != storage.StatusAccepted {
		t.Fatalf("status = %q, want accepted", p.Status)
	}
}

func TestCallbackReject(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t, adminID)
	ctx := context.Background()
	propose(t, h)

	h.HandleUpdate(ctx, cb(adminID, decideData(moderation.ActionReject)))
	if len(tr.answers) != 1 || tr.answers[0] != cbDecided {
		t.Fatalf("answers = %v", tr.answers)
	}
	if len(st.quotes) != 0 {
		t.Fatal("reject must not touch the corpus")
	}
}

func TestCallbackDoubleDecision(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t, adminID)
	ctx := context.Background()
	propose(t, h)

	h.HandleUpdate(ctx, cb(adminID, decideData(moderation.ActionAccept)))
	h.HandleUpdate(ctx, cb(adminID, decideData(moderation.ActionReject)))
	if len(tr.answers) != 2 || tr.answers[1] != cbAlreadyDone {
		t.Fatalf("answers = %v, want second %q", tr.answers, cbAlreadyDone)
	}
	if len(st.quotes) != 1 {
		t.Fatalf("corpus = %d quotes, want 1", len(st.quotes))
	}
}

func TestCallbackUnauthorized(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t, adminID)
	ctx := context.Background()
	propose(t, h)

	// A non-admin pressing the buttons gets a silent ack and no decision.
	h.HandleUpdate(ctx, cb(userID, decideData(moderation.ActionAccept)))
	if len(tr.answers) != 1 || tr.answers[0] != "" {
		t.Fatalf("answers = %v, want one empty ack", tr.answers)
	}
	p, _ := st.GetPendingQuote(ctx, 1)
	if p.Status != storage.StatusPending {
		t.Fatalf("status = %q, want still pending", p.Status)
	}
}

func TestCallbackMalformedData(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t, adminID)
	ctx := context.Background()
	propose(t, h)

	for _, data := range []string{
		"",
		"accept",
		"accept:42",
		"accept:42:1:extra",
		"ban:42:1",
		"accept:notanumber:1",
		"accept:42:notanumber",
	} {
		h.HandleUpdate(ctx, cb(adminID, data))
	}
	for i, a := range tr.answers {
		if a != "" {
			t.Fatalf("answer %d = %q, want empty ack for malformed data", i, a)
		}
	}
	p, _ := st.GetPendingQuote(ctx, 1)
	if p.Status != storage.StatusPending {
		t.Fatalf("status = %q, want still pending", p.Status)
	}
}

func TestCallbackMissingProposal(t *testing.T) {
	t.Parallel()
	h, _, tr := newTestBot(t, adminID)
	ctx := context.Background()

	h.HandleUpdate(ctx, cb(adminID, tgui.Data(moderation.ActionAccept, "42", "999")))
	if len(tr.answers) != 1 || tr.answers[0] != cbNotFound {
		t.Fatalf("answers = %v, want [%q]", tr.answers, cbNotFound)
	}
}
