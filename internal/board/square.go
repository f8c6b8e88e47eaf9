// Package board implements the draughts rule engine: an N×N board with
// flying kings, mandatory maximal captures and reversible move application.
package board

import "fmt"

// Square addresses a board cell by row and column, both in [0, size).
// Row 0 is the top of the board, White's promotion row.
type Square struct {
	Row int
	Col int
}

// Sq creates a square from row and column.
func Sq(row, col int) Square {
	return Square{Row: row, Col: col}
}

// String returns the square as "(row,col)".
func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

// Step returns the square n steps away along d.
func (s Square) Step(d Direction, n int) Square {
	return Square{Row: s.Row + d.DRow*n, Col: s.Col + d.DCol*n}
}

// IsPlayable returns true for the dark squares pieces stand on.
func (s Square) IsPlayable() bool {
	return (s.Row+s.Col)%2 == 1
}

// Direction is a unit diagonal step.
type Direction struct {
	DRow int
	DCol int
}

// Diagonals lists the four diagonal directions in generation order.
var Diagonals = [4]Direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// forward returns the row delta a man of color c moves along.
func forward(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

// promotionRow returns the farthest row for color c.
func promotionRow(c Color, size int) int {
	if c == White {
		return 0
	}
	return size - 1
}
