package game

import "strings"

// Glyphs are the strings used for each kind of cell.
type Glyphs struct {
	Empty, Body, Head, Apple string
}

var (
	DefaultGlyphs = Glyphs{Empty: "⬛", Body: "🟩", Head: "🐍", Apple: "🍎"}
	// PlainGlyphs draws the head like the rest of the body.
	PlainGlyphs = Glyphs{Empty: "⬛", Body: "🟩", Head: "🟩", Apple: "🍎"}
)

// Render draws the board row by row, one line per row.
func Render(b *Board, g Glyphs) string {
	var sb strings.Builder
	head := b.Head()
	for y := range b.size {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range b.size {
			p := Point{X: x, Y: y}
			switch {
			case p == head:
				sb.WriteString(g.Head)
			case b.occupied.Has(p):
				sb.WriteString(g.Body)
			case b.hasApple && p == b.apple:
				sb.WriteString(g.Apple)
			default:
				sb.WriteString(g.Empty)
			}
		}
	}
	return sb.String()
}
