package conversation

import (
	"sync"

	"github.com/eliseohh/notebot/internal/store"
)

type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingNoteText
	StageAwaitingDeleteID
	StageAwaitingEditID
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingNoteText:
		return "awaiting-note-text"
	case StageAwaitingDeleteID:
		return "awaiting-delete-id"
	case StageAwaitingEditID:
		return "awaiting-edit-id"
	default:
		return "unknown"
	}
}

// Session is one user's progress through a multi-step command.
// Editing is set only while a replacement text is awaited for that note.
type Session struct {
	Stage   Stage
	Editing *store.Note
}

func (s *Session) reset() {
	s.Stage = StageIdle
	s.Editing = nil
}

type sessionEntry struct {
	mu      sync.Mutex
	session Session
	refs    int // guarded by Sessions.mu
}

// Sessions holds the in-memory sessions keyed by user id. Idle sessions
// are dropped once no turn holds or waits for them.
type Sessions struct {
	mu      sync.Mutex
	entries map[int64]*sessionEntry
}

func NewSessions() *Sessions {
	return &Sessions{entries: make(map[int64]*sessionEntry)}
}

// Acquire locks the user's session for one turn. The caller must call the
// returned release func; turns of the same user run one at a time.
func (s *Sessions) Acquire(userID int64) (*Session, func()) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &sessionEntry{}
		s.entries[userID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return &e.session, func() {
		once.Do(func() {
			// e.mu is held until the entry is accounted for, so a waiting
			// turn cannot change the stage after it was read.
			s.mu.Lock()
			e.refs--
			if e.refs == 0 && e.session.Stage == StageIdle {
				delete(s.entries, userID)
			}
			s.mu.Unlock()
			e.mu.Unlock()
		})
	}
}

// Snapshot returns a copy of the user's session.
func (s *Sessions) Snapshot(userID int64) Session {
	sess, release := s.Acquire(userID)
	defer release()
	return *sess
}

// Len reports how many sessions are held: users mid-flow or mid-turn.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
