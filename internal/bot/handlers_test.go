package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/malyarq/happiness-bot/internal/dialog"
	"github.com/malyarq/happiness-bot/internal/moderation"
	"github.com/malyarq/happiness-bot/internal/storage"
	"github.com/malyarq/happiness-bot/internal/transport"
	"github.com/malyarq/happiness-bot/pkg/logx"
)

// memStore is an in-memory storage.Store for handler tests.
type memStore struct {
	storage.Store
	users   map[int64]storage.User
	quotes  []storage.Quote
	nextQID int64
	pending map[int64]*storage.PendingQuote
	nextPID int64
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[int64]storage.User),
		pending: make(map[int64]*storage.PendingQuote),
	}
}

func (s *memStore) AddUser(ctx context.Context, u storage.User) error {
	if _, ok := s.users[u.ID]; ok {
		return storage.ErrExists
	}
	s.users[u.ID] = u
	return nil
}

func (s *memStore) GetUser(ctx context.Context, id int64) (storage.User, error) {
	u, ok := s.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *memStore) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memStore) UpdateUserTime(ctx context.Context, id int64, sendTime string) error {
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.SendTime = sendTime
	s.users[id] = u
	return nil
}

func (s *memStore) SetAllActive(ctx context.Context, active bool) error {
	for id, u := range s.users {
		u.Active = active
		s.users[id] = u
	}
	return nil
}

func (s *memStore) AddQuote(ctx context.Context, text, author string) (int64, error) {
	s.nextQID++
	s.quotes = append(s.quotes, storage.Quote{ID: s.nextQID, Text: text, Author: author})
	return s.nextQID, nil
}

func (s *memStore) DeleteQuote(ctx context.Context, id int64) error {
	for i, q := range s.quotes {
		if q.ID == id {
			s.quotes = append(s.quotes[:i], s.quotes[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) RandomQuote(ctx context.Context) (storage.Quote, error) {
	if len(s.quotes) == 0 {
		return storage.Quote{}, storage.ErrNotFound
	}
	return s.quotes[0], nil
}

func (s *memStore) ListQuotes(ctx context.Context) ([]storage.Quote, error) {
	return s.quotes, nil
}

func (s *memStore) CountQuotes(ctx context.Context) (int, error) {
	return len(s.quotes), nil
}

func (s *memStore) AddPendingQuote(ctx context.Context, userID int64, text, author string) (int64, error) {
	if _, ok := s.users[userID]; !ok {
		return 0, storage.ErrNotFound
	}
	s.nextPID++
	s.pending[s.nextPID] = &storage.PendingQuote{
		ID: s.nextPID, UserID: userID, Text: text, Author: author, Status: storage.StatusPending,
	}
	return s.nextPID, nil
}

func (s *memStore) GetPendingQuote(ctx context.Context, id int64) (storage.PendingQuote, error) {
	p, ok := s.pending[id]
	if !ok {
		return storage.PendingQuote{}, storage.ErrNotFound
	}
	return *p, nil
}

func (s *memStore) AcceptPendingQuote(ctx context.Context, id int64) (int64, error) {
	p, ok := s.pending[id]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if p.Status != storage.StatusPending {
		return 0, storage.ErrAlreadyDecided
	}
	p.Status = storage.StatusAccepted
	return s.AddQuote(ctx, p.Text, p.Author)
}

func (s *memStore) RejectPendingQuote(ctx context.Context, id int64) error {
	p, ok := s.pending[id]
	if !ok {
		return storage.ErrNotFound
	}
	if p.Status != storage.StatusPending {
		return storage.ErrAlreadyDecided
	}
	p.Status = storage.StatusRejected
	return nil
}

type outMsg struct {
	chatID int64
	text   string
}

// chatSender records replies and callback answers.
type chatSender struct {
	sent    []outMsg
	answers []string
}

func (s *chatSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	s.sent = append(s.sent, outMsg{chatID: to.ChatID, text: text})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(s.sent)}, nil
}

func (s *chatSender) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error {
	return nil
}

func (s *chatSender) AnswerCallback(ctx context.Context, callbackID, text string) error {
	s.answers = append(s.answers, text)
	return nil
}

func (s *chatSender) last(t *testing.T) outMsg {
	t.Helper()
	if len(s.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return s.sent[len(s.sent)-1]
}

const (
	userID    = int64(42)
	adminID   = int64(77)
	modChatID = int64(9000)
)

func newTestBot(t *testing.T, admins ...int64) (*Handler, *memStore, *chatSender) {
	t.Helper()
	st := newMemStore()
	tr := &chatSender{}
	auth := NewAuth(admins, logx.Nop())
	mod := moderation.New(st, tr, modChatID, logx.Nop())
	h := NewHandler(st, dialog.NewSessions(), mod, tr, auth, "09:00", logx.Nop())
	return h, st, tr
}

func msg(from int64, text string) transport.Update {
	return transport.Update{
		Kind: transport.UpdateMessage,
		Message: &transport.Message{
			ChatID: from, FromID: from, FromUsername: "tester", Text: text,
		},
	}
}

func cb(from int64, data string) transport.Update {
	return transport.Update{
		Kind: transport.UpdateCallback,
		Callback: &transport.Callback{
			ID: "cb1", FromID: from, ChatID: modChatID, MessageID: 1, Data: data,
		},
	}
}

func TestStartRegisters(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	u, err := st.GetUser(ctx, userID)
	if err != nil {
		t.Fatalf("user not registered: %v", err)
	}
	if u.SendTime != "09:00" || !u.Active {
		t.Fatalf("registered user = %+v", u)
	}
	if got := tr.last(t).text; got != fmt.Sprintf(replyWelcome, "09:00") {
		t.Fatalf("reply = %q", got)
	}

	// A second /start greets a known user instead of re-registering.
	h.HandleUpdate(ctx, msg(userID, "/start"))
	if got := tr.last(t).text; got != fmt.Sprintf(replyKnown, "09:00") {
		t.Fatalf("second /start reply = %q", got)
	}
}

func TestUnregisteredUserIsGated(t *testing.T) {
	t.Parallel()
	h, _, tr := newTestBot(t)
	ctx := context.Background()

	for _, cmd := range []string{"/settime", "/propose", "/quote", "/help"} {
		h.HandleUpdate(ctx, msg(userID, cmd))
		if got := tr.last(t).text; got != replyUnregistered {
			t.Fatalf("%s reply = %q, want unregistered notice", cmd, got)
		}
	}
}

func TestSetTimeDialog(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	h.HandleUpdate(ctx, msg(userID, "/settime"))
	if got := tr.last(t).text; got != replyAskTime {
		t.Fatalf("reply = %q, want time prompt", got)
	}

	// Invalid input re-prompts and keeps the dialog open.
	h.HandleUpdate(ctx, msg(userID, "25:61"))
	if got := tr.last(t).text; got != replyBadTime {
		t.Fatalf("reply = %q, want bad-time notice", got)
	}

	// Unpadded input is normalized before storing.
	h.HandleUpdate(ctx, msg(userID, "9:5"))
	if got := tr.last(t).text; got != fmt.Sprintf(replyTimeUpdated, "09:05") {
		t.Fatalf("reply = %q", got)
	}
	u, _ := st.GetUser(ctx, userID)
	if u.SendTime != "09:05" {
		t.Fatalf("stored time = %q, want 09:05", u.SendTime)
	}

	// Dialog is closed: the same text is now an ignored keyword.
	before := len(tr.sent)
	h.HandleUpdate(ctx, msg(userID, "10:00"))
	if len(tr.sent) != before {
		t.Fatalf("idle free text produced a reply: %q", tr.last(t).text)
	}
}

func TestProposeDialog(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	h.HandleUpdate(ctx, msg(userID, "/propose"))
	if got := tr.last(t).text; got != replyAskQuote {
		t.Fatalf("reply = %q, want quote prompt", got)
	}

	h.HandleUpdate(ctx, msg(userID, "no hyphen here"))
	if got := tr.last(t).text; got != replyBadQuote {
		t.Fatalf("reply = %q, want bad-quote notice", got)
	}

	h.HandleUpdate(ctx, msg(userID, "Carpe diem - Horace"))
	if got := tr.last(t).text; got != replyProposed {
		t.Fatalf("reply = %q, want proposed confirmation", got)
	}

	p, err := st.GetPendingQuote(ctx, 1)
	if err != nil {
		t.Fatalf("pending quote not stored: %v", err)
	}
	if p.Text != "Carpe diem" || p.Author != "Horace" || p.Status != storage.StatusPending {
		t.Fatalf("pending = %+v", p)
	}

	// The moderator chat got the proposal card.
	var modNotified bool
	for _, m := range tr.sent {
		if m.chatID == modChatID && strings.Contains(m.text, "Carpe diem") {
			modNotified = true
		}
	}
	if !modNotified {
		t.Fatal("moderator was not notified")
	}
}

func TestCancelButton(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	h.HandleUpdate(ctx, msg(userID, "/propose"))
	h.HandleUpdate(ctx, msg(userID, "Отмена"))
	if got := tr.last(t).text; got != replyCancelled {
		t.Fatalf("reply = %q, want cancelled", got)
	}
	// The would-be proposal never reached the store.
	if len(st.pending) != 0 {
		t.Fatalf("pending = %d proposals, want 0", len(st.pending))
	}

	// /cancel with no open dialog stays silent.
	before := len(tr.sent)
	h.HandleUpdate(ctx, msg(userID, "/cancel"))
	if len(tr.sent) != before {
		t.Fatal("idle /cancel should not reply")
	}
}

func TestKeyboardShortcuts(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	if _, err := st.AddQuote(ctx, "Carpe diem", "Horace"); err != nil {
		t.Fatal(err)
	}

	// Shortcut labels match case-insensitively.
	h.HandleUpdate(ctx, msg(userID, "случайная цитата"))
	if got := tr.last(t).text; !strings.Contains(got, "Carpe diem") {
		t.Fatalf("reply = %q, want a quote card", got)
	}

	h.HandleUpdate(ctx, msg(userID, "Установить время"))
	if got := tr.last(t).text; got != replyAskTime {
		t.Fatalf("reply = %q, want time prompt", got)
	}
}

func TestQuoteEmptyCorpus(t *testing.T) {
	t.Parallel()
	h, _, tr := newTestBot(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	h.HandleUpdate(ctx, msg(userID, "/quote"))
	if got := tr.last(t).text; got != replyNoQuotes {
		t.Fatalf("reply = %q, want no-quotes notice", got)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()
	h, st, tr := newTestBot(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	h.HandleUpdate(ctx, msg(userID, "/reset"))
	if got := tr.last(t).text; got != replyReset {
		t.Fatalf("reply = %q, want reset confirmation", got)
	}
	if _, err := st.GetUser(ctx, userID); err == nil {
		t.Fatal("user still registered after /reset")
	}

	// Resetting an unknown user stays silent.
	before := len(tr.sent)
	h.HandleUpdate(ctx, msg(userID, "/reset"))
	if len(tr.sent) != before {
		t.Fatal("second /reset should not reply")
	}
}

func TestHelpShowsAdminSection(t *testing.T) {
	t.Parallel()
	h, _, tr := newTestBot(t, adminID)
	ctx := context.Background()

	h.HandleUpdate(ctx, msg(userID, "/start"))
	h.HandleUpdate(ctx, msg(userID, "/help"))
	if got := tr.last(t).text; got != replyHelp {
		t.Fatalf("user help = %q", got)
	}

	h.HandleUpdate(ctx, msg(adminID, "/start"))
	h.HandleUpdate(ctx, msg(adminID, "/help"))
	if got := tr.last(t).text; got != replyHelpAdmin {
		t.Fatalf("admin help = %q", got)
	}
}

func TestCommandParsing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		cmd  string
		args string
	}{
		{"/start", "start", ""},
		{"/START", "start", ""},
		{"/addquote Carpe diem - Horace", "addquote", "Carpe diem - Horace"},
		{"/start@happiness_bot", "start", ""},
		{"/deletequote   7  ", "deletequote", "7"},
	}
	for _, tt := range tests {
		cmd, args := splitCommand(tt.in)
		if cmd != tt.cmd || args != tt.args {
			t.Fatalf("splitCommand(%q) = (%q, %q), want (%q, %q)", tt.in, cmd, args, tt.cmd, tt.args)
		}
	}
}
