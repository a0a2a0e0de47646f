package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Sessions) refs(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		return e.refs
	}
	return 0
}

// An idle turn finishing while another turn of the same user waits must not
// drop the stage the waiting turn sets.
func TestSessions_OverlappingTurnsKeepStage(t *testing.T) {
	const user int64 = 42
	s := NewSessions()

	_, releaseIdle := s.Acquire(user)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sess, release := s.Acquire(user)
		sess.Stage = StageAwaitingDeleteID
		release()
	}()
	require.Eventually(t, func() bool { return s.refs(user) == 2 }, time.Second, time.Millisecond)

	// Hold the registry so the idle release is paused mid-way.
	s.mu.Lock()
	wg.Add(1)
	go func() {
		defer wg.Done()
		releaseIdle()
	}()
	time.Sleep(20 * time.Millisecond)
	s.mu.Unlock()

	wg.Wait()
	assert.Equal(t, StageAwaitingDeleteID, s.Snapshot(user).Stage)
	assert.Equal(t, 1, s.Len())
}

func TestSessions_ConcurrentTurnsSameUser(t *testing.T) {
	const user int64 = 7
	s := NewSessions()

	sess, release := s.Acquire(user)
	sess.Stage = StageAwaitingEditID
	release()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.Snapshot(user)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, StageAwaitingEditID, s.Snapshot(user).Stage)
	assert.Zero(t, s.refs(user))
}
