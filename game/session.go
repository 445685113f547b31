package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"fortio.org/log"
	"github.com/google/uuid"
)

var (
	ErrNotOwner = errors.New("not your game")
	ErrGameOver = errors.New("game is over")
)

// Reason a session ended.
type Reason int

const (
	// ReasonCollision: the snake hit a wall or itself.
	ReasonCollision Reason = iota
	// ReasonInactivity: no input was accepted within the idle timeout.
	ReasonInactivity
	// ReasonStopped: the owner stopped the game, or it was closed.
	ReasonStopped
)

func (r Reason) String() string {
	switch r {
	case ReasonCollision:
		return "collision"
	case ReasonInactivity:
		return "inactivity"
	case ReasonStopped:
		return "stopped"
	}
	return "unknown"
}

// Host displays a session. Calls come from the session goroutine, one at a
// time, and GameOver is always the last one. Implementations must not block
// for long: the tick loop waits for them.
type Host interface {
	Render(board string, controlsEnabled bool)
	GameOver(reason Reason, finalLength int)
}

// Defaults used for zero Config values.
const (
	DefaultBoardSize    = 8
	DefaultTickInterval = time.Second
	DefaultIdleTimeout  = time.Minute
)

// Config of a Session, zero values get the defaults.
type Config struct {
	BoardSize    int
	TickInterval time.Duration
	// IdleTimeout ends the game when no input was accepted for that long.
	IdleTimeout time.Duration
	Glyphs      *Glyphs    // nil means DefaultGlyphs
	Rand        *rand.Rand // nil means randomly seeded
}

func (c Config) withDefaults() Config {
	if c.BoardSize <= 0 {
		c.BoardSize = DefaultBoardSize
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.Glyphs == nil {
		c.Glyphs = &DefaultGlyphs
	}
	return c
}

// Session is one player's running game. The board is only touched by the
// session goroutine once Start is called.
type Session struct {
	id     string
	owner  string
	cfg    Config
	host   Host
	board  *Board
	input  chan Direction
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	start  sync.Once
	alive  atomic.Bool
	length atomic.Int64
}

// NewSession creates a session owned by owner. Nothing runs until Start.
func NewSession(owner string, cfg Config, host Host) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		id:    uuid.New().String(),
		owner: owner,
		cfg:   cfg,
		host:  host,
		board: NewBoard(cfg.BoardSize, cfg.Rand),
		input: make(chan Direction),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	s.alive.Store(true)
	s.length.Store(1)
	return s
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Owner() string { return s.owner }
func (s *Session) Alive() bool   { return s.alive.Load() }

// Len is the snake length as of the last tick.
func (s *Session) Len() int { return int(s.length.Load()) }

// Done is closed once the session is terminal and its goroutine exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start renders the initial board and starts ticking. Cancelling ctx stops
// the session like Close. Calling Start more than once has no effect.
func (s *Session) Start(ctx context.Context) {
	s.start.Do(func() {
		s.host.Render(Render(s.board, *s.cfg.Glyphs), true)
		go s.run(ctx)
	})
}

// SetDirection queues a direction change from caller for the next tick.
// The session must have been started.
func (s *Session) SetDirection(caller string, d Direction) error {
	if caller != s.owner {
		log.LogVf("Session %s: ignoring input from %s (owner %s)", s.id, caller, s.owner)
		return ErrNotOwner
	}
	select {
	case s.input <- d:
		return nil
	case <-s.done:
		return ErrGameOver
	}
}

// Stop ends the session on the owner's request.
func (s *Session) Stop(caller string) error {
	if caller != s.owner {
		return ErrNotOwner
	}
	if !s.Alive() {
		return ErrGameOver
	}
	s.Close()
	return nil
}

// Close ends the session regardless of who asks and waits for it to finish.
// Must not be called from a Host callback.
func (s *Session) Close() {
	s.once.Do(func() { close(s.stop) })
	// Never started: there is no goroutine to report the end.
	s.start.Do(func() { s.finish(ReasonStopped) })
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	idle := time.NewTimer(s.cfg.IdleTimeout)
	defer func() {
		ticker.Stop()
		idle.Stop()
	}()
	for {
		select {
		case d := <-s.input:
			s.board.SetDirection(d)
			idle.Reset(s.cfg.IdleTimeout)
		case <-ticker.C:
			outcome := s.board.Tick()
			s.length.Store(int64(s.board.Len()))
			log.LogVf("Session %s tick: %v len %d", s.id, outcome, s.board.Len())
			if outcome == Collided {
				s.finish(ReasonCollision)
				return
			}
			s.host.Render(Render(s.board, *s.cfg.Glyphs), true)
		case <-idle.C:
			s.finish(ReasonInactivity)
			return
		case <-s.stop:
			s.finish(ReasonStopped)
			return
		case <-ctx.Done():
			s.finish(ReasonStopped)
			return
		}
	}
}

// finish marks the session terminal, reports it and releases waiters.
func (s *Session) finish(reason Reason) {
	s.alive.Store(false)
	length := s.board.Len()
	log.S(log.Info, "snake game over", log.String("id", s.id), log.String("owner", s.owner),
		log.String("reason", reason.String()), log.Any("length", length))
	s.host.GameOver(reason, length)
	close(s.done)
}
