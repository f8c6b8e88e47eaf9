package board

import "errors"

var (
	// ErrInvalidMove is returned when a move request cannot be applied to the
	// current board. The board is left untouched.
	ErrInvalidMove = errors.New("invalid move")

	// ErrInvalidConfig is returned for malformed board rules.
	ErrInvalidConfig = errors.New("invalid board configuration")

	// ErrInvalidDiagram is returned when a text diagram cannot be parsed.
	ErrInvalidDiagram = errors.New("invalid board diagram")
)
