package board

import "fmt"

// MakeMove applies m to the board and returns the record that inverts it.
// It does not touch the no-capture run or the history log, so it is the
// primitive for search and step-by-step replay. Requests that do not fit the
// current position are rejected with ErrInvalidMove and leave the board as is.
func (b *Board) MakeMove(m Move) (UndoRecord, error) {
	if err := b.validate(m); err != nil {
		return UndoRecord{}, err
	}
	p := b.At(m.Start)
	return b.makeMove(m, b.crowns(p, m)), nil
}

// UndoMove restores the board to its state before the MakeMove call that
// produced u. Records must be undone in LIFO order.
func (b *Board) UndoMove(u UndoRecord) {
	if end := b.index(u.End); b.grid[end] == u.Piece {
		b.grid[end] = nil
	}
	if u.Promoted {
		u.Piece.Rank = u.PrevRank
	}
	b.grid[b.index(u.Start)] = u.Piece
	for i := len(u.Captured) - 1; i >= 0; i-- {
		c := u.Captured[i]
		b.grid[b.index(c.Square)] = c.Piece
	}
	b.hash = u.Hash
}

// ApplyMove commits m to the game record: it applies the move, updates the
// no-capture run and appends the new position to the history log.
func (b *Board) ApplyMove(m Move) error {
	if _, err := b.MakeMove(m); err != nil {
		return err
	}
	if m.IsCapture() {
		b.noCaptureRun = 0
	} else {
		b.noCaptureRun++
	}
	b.history = append(b.history, b.hash)
	return nil
}

// makeMove performs the mutation without validation.
func (b *Board) makeMove(m Move, crown bool) UndoRecord {
	u := UndoRecord{
		Start: m.Start,
		End:   m.End(),
		Hash:  b.hash,
	}

	p := b.remove(m.Start)
	u.Piece = p
	u.PrevRank = p.Rank

	if len(m.Captured) > 0 {
		u.Captured = make([]CapturedPiece, 0, len(m.Captured))
		for _, sq := range m.Captured {
			u.Captured = append(u.Captured, CapturedPiece{Square: sq, Piece: b.remove(sq)})
		}
	}

	b.put(u.End, p)
	if crown && p.Rank == Man {
		b.setRank(u.End, p, King)
		u.Promoted = true
	}
	return u
}

// crowns reports whether p is promoted by m. A man is crowned when it ends on
// its promotion row, or, with MidCapturePromotion, when any hop lands there.
func (b *Board) crowns(p *Piece, m Move) bool {
	if p.Rank == King {
		return false
	}
	row := promotionRow(p.Color, b.size)
	if m.End().Row == row {
		return true
	}
	if b.rules.MidCapturePromotion && m.IsCapture() {
		for _, sq := range m.Path {
			if sq.Row == row {
				return true
			}
		}
	}
	return false
}

func (b *Board) validate(m Move) error {
	p := b.At(m.Start)
	if p == nil {
		return fmt.Errorf("%w: no piece at %s", ErrInvalidMove, m.Start)
	}
	if len(m.Path) == 0 {
		return fmt.Errorf("%w: empty path from %s", ErrInvalidMove, m.Start)
	}
	if len(m.Captured) != 0 && len(m.Captured) != len(m.Path) {
		return fmt.Errorf("%w: %d captures for %d hops", ErrInvalidMove, len(m.Captured), len(m.Path))
	}
	for _, sq := range m.Path {
		if !b.Inside(sq) {
			return fmt.Errorf("%w: %s is off the board", ErrInvalidMove, sq)
		}
	}
	// A flying king may finish on a square it emptied earlier in the chain.
	if end := m.End(); end != m.Start && b.At(end) != nil && !containsSquare(m.Captured, end) {
		return fmt.Errorf("%w: landing square %s is occupied", ErrInvalidMove, end)
	}
	for i, sq := range m.Captured {
		if !p.IsOpponent(b.At(sq)) {
			return fmt.Errorf("%w: no enemy piece to capture at %s", ErrInvalidMove, sq)
		}
		for _, prev := range m.Captured[:i] {
			if prev == sq {
				return fmt.Errorf("%w: %s captured twice", ErrInvalidMove, sq)
			}
		}
	}
	return nil
}
