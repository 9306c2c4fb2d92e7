package bot

import (
	"sync"

	"github.com/malyarq/happiness-bot/pkg/logx"
)

// Auth checks caller identity against the configured admin allow-list.
// The list is replaceable at runtime (config reload).
type Auth struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
	log logx.Logger
}

func NewAuth(adminIDs []int64, log logx.Logger) *Auth {
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Auth{log: log}
	a.SetAdmins(adminIDs)
	return a
}

func (a *Auth) SetAdmins(adminIDs []int64) {
	ids := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	a.mu.Lock()
	a.ids = ids
	a.mu.Unlock()
}

// Allowed reports whether userID is on the allow-list.
func (a *Auth) Allowed(userID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.ids[userID]
	return ok
}

// Check is Allowed plus an audit log line for refused attempts.
// Unauthorized callers get no reply; the refusal is visible to operators only.
func (a *Auth) Check(userID int64, username, action string) bool {
	if a.Allowed(userID) {
		return true
	}
	a.log.Warn("unauthorized admin action attempt",
		logx.Int64("user_id", userID),
		logx.String("username", username),
		logx.String("action", action))
	return false
}
