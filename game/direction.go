package game

import "strings"

// Point is a board cell, X grows to the right and Y grows downward.
type Point struct {
	X, Y int
}

// Add returns p moved by delta.
func (p Point) Add(delta Point) Point {
	return Point{X: p.X + delta.X, Y: p.Y + delta.Y}
}

// Direction the snake heads to.
type Direction int

// The four directions, Up decreases Y.
const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionNames = [...]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

func (d Direction) String() string {
	if d < Up || d > Right {
		return "unknown"
	}
	return directionNames[d]
}

// Delta is the one cell step for the direction.
func (d Direction) Delta() Point {
	switch d {
	case Up:
		return Point{0, -1}
	case Down:
		return Point{0, 1}
	case Left:
		return Point{-1, 0}
	case Right:
		return Point{1, 0}
	}
	return Point{}
}

// ParseDirection accepts the direction names, case insensitive.
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range directionNames {
		if name == s {
			return Direction(d), true
		}
	}
	return Up, false
}
