package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gameOver struct {
	reason Reason
	length int
}

type recordingHost struct {
	mu        sync.Mutex
	renders   []string
	controls  []bool
	overs     []gameOver
	afterOver int
	overCh    chan gameOver
}

func newRecordingHost() *recordingHost {
	return &recordingHost{overCh: make(chan gameOver, 1)}
}

func (h *recordingHost) Render(board string, controlsEnabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.overs) > 0 {
		h.afterOver++
	}
	h.renders = append(h.renders, board)
	h.controls = append(h.controls, controlsEnabled)
}

func (h *recordingHost) GameOver(reason Reason, finalLength int) {
	h.mu.Lock()
	h.overs = append(h.overs, gameOver{reason, finalLength})
	h.mu.Unlock()
	select {
	case h.overCh <- gameOver{reason, finalLength}:
	default:
	}
}

func (h *recordingHost) numRenders() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.renders)
}

func (h *recordingHost) wait(t *testing.T) gameOver {
	t.Helper()
	select {
	case o := <-h.overCh:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for game over")
	}
	return gameOver{}
}

// checkReleased verifies nothing reaches the host once the game is over.
func (h *recordingHost) checkReleased(t *testing.T) {
	t.Helper()
	n := h.numRenders()
	time.Sleep(50 * time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, n, len(h.renders), "render after game over")
	assert.Zero(t, h.afterOver)
	assert.Len(t, h.overs, 1)
}

func testConfig(tick, idle time.Duration) Config {
	return Config{BoardSize: 5, TickInterval: tick, IdleTimeout: idle, Rand: testRand(3)}
}

func TestSessionCollision(t *testing.T) {
	h := newRecordingHost()
	s := NewSession("alice", testConfig(5*time.Millisecond, time.Hour), h)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "alice", s.Owner())
	s.Start(context.Background())
	o := h.wait(t)
	assert.Equal(t, ReasonCollision, o.reason)
	<-s.Done()
	assert.False(t, s.Alive())
	assert.Equal(t, s.Len(), o.length)
	assert.GreaterOrEqual(t, h.numRenders(), 1)
	h.mu.Lock()
	assert.True(t, h.controls[0])
	h.mu.Unlock()
	h.checkReleased(t)
	assert.ErrorIs(t, s.SetDirection("alice", Up), ErrGameOver)
}

func TestSessionInactivity(t *testing.T) {
	h := newRecordingHost()
	s := NewSession("alice", testConfig(time.Hour, 20*time.Millisecond), h)
	s.Start(context.Background())
	o := h.wait(t)
	assert.Equal(t, gameOver{ReasonInactivity, 1}, o)
	assert.Equal(t, 1, h.numRenders(), "only the initial board")
	h.checkReleased(t)
}

func TestSessionInputResetsIdle(t *testing.T) {
	h := newRecordingHost()
	s := NewSession("alice", testConfig(time.Hour, 150*time.Millisecond), h)
	s.Start(context.Background())
	for range 10 {
		require.NoError(t, s.SetDirection("alice", Right))
		time.Sleep(30 * time.Millisecond)
	}
	assert.True(t, s.Alive(), "input every 30ms keeps a 150ms idle timer from firing")
	o := h.wait(t)
	assert.Equal(t, ReasonInactivity, o.reason)
}

func TestSessionNotOwner(t *testing.T) {
	h := newRecordingHost()
	s := NewSession("alice", testConfig(time.Hour, time.Hour), h)
	s.Start(context.Background())
	assert.ErrorIs(t, s.SetDirection("mallory", Up), ErrNotOwner)
	assert.ErrorIs(t, s.Stop("mallory"), ErrNotOwner)
	assert.True(t, s.Alive())
	assert.Equal(t, 1, h.numRenders())
	s.Close()
	assert.Equal(t, Right, s.board.Direction())
	assert.Equal(t, gameOver{ReasonStopped, 1}, h.wait(t))
}

func TestSessionDirectionAppliesOnNextTick(t *testing.T) {
	h := newRecordingHost()
	cfg := testConfig(30*time.Millisecond, time.Hour)
	cfg.BoardSize = 8
	s := NewSession("alice", cfg, h)
	s.Start(context.Background())
	require.NoError(t, s.SetDirection("alice", Down))
	o := h.wait(t)
	assert.Equal(t, ReasonCollision, o.reason)
	<-s.Done()
	assert.Equal(t, Point{4, 7}, s.board.Head())
}

func TestSessionStop(t *testing.T) {
	h := newRecordingHost()
	s := NewSession("alice", testConfig(time.Hour, time.Hour), h)
	s.Start(context.Background())
	require.NoError(t, s.Stop("alice"))
	assert.False(t, s.Alive())
	assert.Equal(t, gameOver{ReasonStopped, 1}, h.wait(t))
	assert.ErrorIs(t, s.Stop("alice"), ErrGameOver)
	assert.ErrorIs(t, s.SetDirection("alice", Left), ErrGameOver)
	s.Close() // idempotent
	h.checkReleased(t)
}

func TestSessionContextCancel(t *testing.T) {
	h := newRecordingHost()
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession("alice", testConfig(time.Hour, time.Hour), h)
	s.Start(ctx)
	cancel()
	assert.Equal(t, ReasonStopped, h.wait(t).reason)
	<-s.Done()
}

func TestSessionCloseBeforeStart(t *testing.T) {
	h := newRecordingHost()
	s := NewSession("alice", testConfig(time.Millisecond, time.Hour), h)
	s.Close()
	assert.Equal(t, gameOver{ReasonStopped, 1}, h.wait(t))
	s.Start(context.Background())
	assert.Zero(t, h.numRenders())
	h.checkReleased(t)
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, DefaultBoardSize, c.BoardSize)
	assert.Equal(t, DefaultTickInterval, c.TickInterval)
	assert.Equal(t, DefaultIdleTimeout, c.IdleTimeout)
	assert.Equal(t, DefaultGlyphs, *c.Glyphs)
}
