package telegram

import (
	"sync"
	"time"
)

// Step enumerates the conversation states of the custom-date dialogue.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingStartDate
	StepAwaitingEndDate
)

// Session is the per-chat conversation state. StartDate holds the
// validated first date while the end date is being collected.
type Session struct {
	Step      Step
	StartDate string
	UpdatedAt time.Time
}

// SessionManager handles user conversation states, keyed by chat ID.
// Two users' in-progress dialogues never observe each other.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a session manager whose sessions expire
// after ttl of inactivity.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the clock, for expiry tests.
func (sm *SessionManager) WithClock(now func() time.Time) *SessionManager {
	if now != nil {
		sm.now = now
	}
	return sm
}

// Get retrieves the current state for a chat. Absent or expired
// sessions come back as idle.
func (sm *SessionManager) Get(chatID int64) Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[chatID]
	if !exists || sm.expired(session) {
		return Session{Step: StepIdle}
	}
	return session
}

// Update stores the state for a chat and refreshes its activity stamp.
func (sm *SessionManager) Update(chatID int64, session Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session.UpdatedAt = sm.now()
	sm.sessions[chatID] = session
}

// Clear resets a chat back to idle.
func (sm *SessionManager) Clear(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, chatID)
}

// SweepExpired drops sessions past their TTL and returns how many were
// removed. Run periodically so an abandoned dialogue resets even if
// the user never writes again.
func (sm *SessionManager) SweepExpired() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for chatID, session := range sm.sessions {
		if sm.expired(session) {
			delete(sm.sessions, chatID)
			removed++
		}
	}
	return removed
}

func (sm *SessionManager) expired(session Session) bool {
	if sm.ttl <= 0 {
		return false
	}
	return sm.now().Sub(session.UpdatedAt) > sm.ttl
}
