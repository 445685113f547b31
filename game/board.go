// Package game implements the snake game engine: a pure board state machine
// (Board) and a timer driven, single player Session that reports every state
// change to a Host.
package game

import (
	"math/rand/v2"

	"fortio.org/sets"
)

// Outcome of a single Tick.
type Outcome int

const (
	// Moved means the snake advanced one cell, length unchanged.
	Moved Outcome = iota
	// Ate means the head reached the apple, the snake grew by one.
	Ate
	// Collided means the head left the board or hit the body, the board is now dead.
	Collided
	// Terminal means the board was already dead and nothing changed.
	Terminal
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Ate:
		return "ate"
	case Collided:
		return "collided"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// Number of random draws before falling back to enumerating the free cells.
const maxAppleDraws = 32

// Board is the state of one game. Not safe for concurrent use, Session
// serializes access to it.
type Board struct {
	size     int
	snake    []Point // head first
	occupied sets.Set[Point]
	apple    Point
	hasApple bool
	dir      Direction
	alive    bool
	rng      *rand.Rand
}

// NewBoard returns a board of size x size cells with a one cell snake in the
// center heading right and an apple on a random free cell.
func NewBoard(size int, rng *rand.Rand) *Board {
	if size < 1 {
		panic("board size must be at least 1")
	}
	if rng == nil {
		rng = newRand()
	}
	center := Point{X: size / 2, Y: size / 2}
	b := &Board{
		size:     size,
		snake:    []Point{center},
		occupied: sets.New(center),
		dir:      Right,
		alive:    true,
		rng:      rng,
	}
	b.spawnApple()
	return b
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // game, not crypto.
}

func (b *Board) Size() int            { return b.size }
func (b *Board) Len() int             { return len(b.snake) }
func (b *Board) Head() Point          { return b.snake[0] }
func (b *Board) Apple() Point         { return b.apple }
func (b *Board) HasApple() bool       { return b.hasApple }
func (b *Board) Direction() Direction { return b.dir }
func (b *Board) Alive() bool          { return b.alive }

// Snake returns a copy of the body, head first.
func (b *Board) Snake() []Point {
	res := make([]Point, len(b.snake))
	copy(res, b.snake)
	return res
}

// SetDirection changes the direction used by the next tick. Reversing into
// the body is allowed and collides on that tick.
func (b *Board) SetDirection(d Direction) {
	if !b.alive {
		return
	}
	b.dir = d
}

// InBounds reports whether p is on the board.
func (b *Board) InBounds(p Point) bool {
	return p.X >= 0 && p.X < b.size && p.Y >= 0 && p.Y < b.size
}

// Tick advances the snake one cell in the current direction.
func (b *Board) Tick() Outcome {
	if !b.alive {
		return Terminal
	}
	next := b.snake[0].Add(b.dir.Delta())
	// The body is checked before moving, so the cell the tail is about to
	// leave still counts as a hit.
	if !b.InBounds(next) || b.occupied.Has(next) {
		b.alive = false
		return Collided
	}
	b.snake = append(b.snake, Point{})
	copy(b.snake[1:], b.snake)
	b.snake[0] = next
	b.occupied.Add(next)
	if b.hasApple && next == b.apple {
		b.spawnApple()
		return Ate
	}
	tail := b.snake[len(b.snake)-1]
	b.snake = b.snake[:len(b.snake)-1]
	b.occupied.Remove(tail)
	return Moved
}

// spawnApple places the apple on a uniformly random free cell, or clears it
// when the snake covers the whole board.
func (b *Board) spawnApple() {
	free := b.size*b.size - len(b.occupied)
	if free <= 0 {
		b.hasApple = false
		return
	}
	b.hasApple = true
	for range maxAppleDraws {
		p := Point{X: b.rng.IntN(b.size), Y: b.rng.IntN(b.size)}
		if !b.occupied.Has(p) {
			b.apple = p
			return
		}
	}
	// Mostly full board: pick among the free cells directly.
	n := b.rng.IntN(free)
	for y := range b.size {
		for x := range b.size {
			p := Point{X: x, Y: y}
			if b.occupied.Has(p) {
				continue
			}
			if n == 0 {
				b.apple = p
				return
			}
			n--
		}
	}
}
