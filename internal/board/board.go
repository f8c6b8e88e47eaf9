package board

import (
	"fmt"
	"strings"
)

// Board is a draughts position plus the game-length bookkeeping needed for
// draw detection. It is not safe for concurrent use.
type Board struct {
	rules   Rules
	size    int
	grid    []*Piece
	zobrist *zobristTable
	hash    uint64

	noCaptureRun int      // Consecutive committed moves without a capture
	history      []uint64 // One hash per committed move, plus the initial position
}

// New creates the starting position: size/2-1 rows of men per side on the
// dark squares, Black on top and White at the bottom.
func New(rules Rules) (*Board, error) {
	b, err := NewEmpty(rules)
	if err != nil {
		return nil, err
	}

	rows := b.size/2 - 1
	for r := 0; r < rows; r++ {
		for c := 0; c < b.size; c++ {
			if sq := Sq(r, c); sq.IsPlayable() {
				b.put(sq, NewPiece(Black, Man))
			}
		}
	}
	for r := b.size - rows; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if sq := Sq(r, c); sq.IsPlayable() {
				b.put(sq, NewPiece(White, Man))
			}
		}
	}

	b.resetHistory()
	return b, nil
}

// NewDefault creates the 10×10 starting position.
func NewDefault() *Board {
	b, _ := New(DefaultRules())
	return b
}

// NewEmpty creates a board with no pieces.
func NewEmpty(rules Rules) (*Board, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	b := &Board{
		rules:   rules,
		size:    rules.Size,
		grid:    make([]*Piece, rules.Size*rules.Size),
		zobrist: zobristFor(rules.Size),
	}
	b.resetHistory()
	return b, nil
}

// Rules returns the rules the board was created with.
func (b *Board) Rules() Rules {
	return b.rules
}

// Size returns the board dimension.
func (b *Board) Size() int {
	return b.size
}

// Inside returns true if sq lies on the board.
func (b *Board) Inside(sq Square) bool {
	return sq.Row >= 0 && sq.Row < b.size && sq.Col >= 0 && sq.Col < b.size
}

// At returns the piece on sq, or nil if the square is empty or off the board.
func (b *Board) At(sq Square) *Piece {
	if !b.Inside(sq) {
		return nil
	}
	return b.grid[b.index(sq)]
}

// IsEmpty returns true if sq is on the board and unoccupied.
func (b *Board) IsEmpty(sq Square) bool {
	return b.Inside(sq) && b.grid[b.index(sq)] == nil
}

// Hash returns the Zobrist hash of the piece placement.
func (b *Board) Hash() uint64 {
	return b.hash
}

// Place puts p on sq (nil clears it). It is meant for setting up positions:
// the history log restarts from the resulting position.
func (b *Board) Place(sq Square, p *Piece) error {
	if !b.Inside(sq) {
		return fmt.Errorf("%w: %s is off the board", ErrInvalidConfig, sq)
	}
	if p != nil && !sq.IsPlayable() {
		return fmt.Errorf("%w: %s is not a playable square", ErrInvalidConfig, sq)
	}
	b.remove(sq)
	if p != nil {
		b.put(sq, p)
	}
	b.resetHistory()
	return nil
}

// CountPieces returns the number of pieces of color c.
func (b *Board) CountPieces(c Color) int {
	n := 0
	for _, p := range b.grid {
		if p != nil && p.Color == c {
			n++
		}
	}
	return n
}

// Squares returns the squares holding pieces of color c in scan order.
func (b *Board) Squares(c Color) []Square {
	var out []Square
	for i, p := range b.grid {
		if p != nil && p.Color == c {
			out = append(out, Sq(i/b.size, i%b.size))
		}
	}
	return out
}

// NoCaptureRun returns the number of consecutive committed moves without a capture.
func (b *Board) NoCaptureRun() int {
	return b.noCaptureRun
}

// History returns a copy of the committed position hashes, oldest first.
func (b *Board) History() []uint64 {
	return append([]uint64(nil), b.history...)
}

// Copy creates a deep copy. Pieces are duplicated, so the copy can be driven
// independently of the original.
func (b *Board) Copy() *Board {
	nb := *b
	nb.grid = make([]*Piece, len(b.grid))
	for i, p := range b.grid {
		if p != nil {
			cp := *p
			nb.grid[i] = &cp
		}
	}
	nb.history = append([]uint64(nil), b.history...)
	return &nb
}

// Fingerprint returns the exact occupancy encoding: one character per square,
// row by row ('.', 'w', 'W', 'b', 'B').
func (b *Board) Fingerprint() string {
	buf := make([]byte, len(b.grid))
	for i, p := range b.grid {
		buf[i] = p.Code()
	}
	return string(buf)
}

// String returns a printable diagram of the board.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(b.grid[r*b.size+c].Code())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Parse builds a board from a diagram of rows separated by newlines. Each row
// lists size characters from '.', 'w', 'W', 'b', 'B'; spaces are ignored.
func Parse(rules Rules, diagram string) (*Board, error) {
	b, err := NewEmpty(rules)
	if err != nil {
		return nil, err
	}

	var rows []string
	for _, line := range strings.Split(diagram, "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) != b.size {
		return nil, fmt.Errorf("%w: got %d rows, want %d", ErrInvalidDiagram, len(rows), b.size)
	}

	for r, row := range rows {
		if len(row) != b.size {
			return nil, fmt.Errorf("%w: row %d has %d squares, want %d", ErrInvalidDiagram, r, len(row), b.size)
		}
		for c := 0; c < b.size; c++ {
			ch := row[c]
			if ch == '.' {
				continue
			}
			p := PieceFromCode(ch)
			if p == nil {
				return nil, fmt.Errorf("%w: unknown piece %q at %s", ErrInvalidDiagram, ch, Sq(r, c))
			}
			if !Sq(r, c).IsPlayable() {
				return nil, fmt.Errorf("%w: piece on light square %s", ErrInvalidDiagram, Sq(r, c))
			}
			b.put(Sq(r, c), p)
		}
	}

	b.resetHistory()
	return b, nil
}

func (b *Board) index(sq Square) int {
	return sq.Row*b.size + sq.Col
}

// put places a piece on an empty square and updates the hash.
func (b *Board) put(sq Square, p *Piece) {
	b.grid[b.index(sq)] = p
	b.hash ^= b.zobrist.piece(sq, p)
}

// remove clears a square and returns what was on it.
func (b *Board) remove(sq Square) *Piece {
	idx := b.index(sq)
	p := b.grid[idx]
	if p != nil {
		b.hash ^= b.zobrist.piece(sq, p)
		b.grid[idx] = nil
	}
	return p
}

// setRank changes the rank of the piece on sq, keeping the hash in sync.
func (b *Board) setRank(sq Square, p *Piece, r Rank) {
	b.hash ^= b.zobrist.piece(sq, p)
	p.Rank = r
	b.hash ^= b.zobrist.piece(sq, p)
}

func (b *Board) resetHistory() {
	b.noCaptureRun = 0
	b.history = append(b.history[:0], b.hash)
}
