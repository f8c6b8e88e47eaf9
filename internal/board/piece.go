package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// Rank is the promotion state of a piece.
type Rank uint8

const (
	Man Rank = iota
	King
)

// String returns the rank name.
func (r Rank) String() string {
	if r == King {
		return "King"
	}
	return "Man"
}

// Piece is a single checker. The board stores pointers so that undo can put
// back the exact instance that was moved or captured.
type Piece struct {
	Color Color
	Rank  Rank
}

// NewPiece creates a piece of the given color and rank.
func NewPiece(c Color, r Rank) *Piece {
	return &Piece{Color: c, Rank: r}
}

// IsKing returns true if the piece has been promoted.
func (p *Piece) IsKing() bool {
	return p.Rank == King
}

// IsOpponent returns true if other is a piece of the opposite color.
func (p *Piece) IsOpponent(other *Piece) bool {
	return other != nil && other.Color != p.Color
}

// Code returns the diagram character for the piece:
// 'w'/'b' for men, 'W'/'B' for kings.
func (p *Piece) Code() byte {
	if p == nil {
		return '.'
	}
	c := byte('w')
	if p.Color == Black {
		c = 'b'
	}
	if p.Rank == King {
		c -= 'a' - 'A'
	}
	return c
}

// String returns the diagram character as a string.
func (p *Piece) String() string {
	return string(p.Code())
}

// PieceFromCode converts a diagram character to a piece.
// Returns nil for '.' and for unknown characters.
func PieceFromCode(c byte) *Piece {
	switch c {
	case 'w':
		return NewPiece(White, Man)
	case 'W':
		return NewPiece(White, King)
	case 'b':
		return NewPiece(Black, Man)
	case 'B':
		return NewPiece(Black, King)
	default:
		return nil
	}
}
