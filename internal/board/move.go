package board

import "strings"

// Move is one full turn: a simple step or slide (len(Captured) == 0), or a
// capture chain with one hop per captured piece (len(Captured) == len(Path)).
type Move struct {
	Start    Square
	Path     []Square
	Captured []Square
}

// End returns the final landing square.
func (m Move) End() Square {
	if len(m.Path) == 0 {
		return m.Start
	}
	return m.Path[len(m.Path)-1]
}

// IsCapture returns true if the move removes at least one piece.
func (m Move) IsCapture() bool {
	return len(m.Captured) > 0
}

// Equal returns true if both moves have the same start, path and captures.
func (m Move) Equal(o Move) bool {
	if m.Start != o.Start || len(m.Path) != len(o.Path) || len(m.Captured) != len(o.Captured) {
		return false
	}
	for i := range m.Path {
		if m.Path[i] != o.Path[i] {
			return false
		}
	}
	for i := range m.Captured {
		if m.Captured[i] != o.Captured[i] {
			return false
		}
	}
	return true
}

// Hops splits a capture chain into single-hop moves that can be made and
// undone one at a time. A simple move is returned as its only hop.
func (m Move) Hops() []Move {
	if !m.IsCapture() {
		return []Move{m}
	}
	hops := make([]Move, len(m.Path))
	from := m.Start
	for i, to := range m.Path {
		hops[i] = Move{Start: from, Path: []Square{to}, Captured: []Square{m.Captured[i]}}
		from = to
	}
	return hops
}

// String formats simple moves as "(r,c)-(r,c)" and captures as
// "(r,c)x(r,c)x(r,c)" listing every landing square.
func (m Move) String() string {
	var sb strings.Builder
	sb.WriteString(m.Start.String())
	sep := "-"
	if m.IsCapture() {
		sep = "x"
	}
	for _, sq := range m.Path {
		sb.WriteString(sep)
		sb.WriteString(sq.String())
	}
	return sb.String()
}

// CapturedPiece pairs a removed piece with the square it was taken from.
type CapturedPiece struct {
	Square Square
	Piece  *Piece
}

// UndoRecord stores everything MakeMove changed, so UndoMove can invert it.
type UndoRecord struct {
	Start    Square
	End      Square
	Piece    *Piece
	Promoted bool
	PrevRank Rank
	Captured []CapturedPiece // In removal order
	Hash     uint64
}
