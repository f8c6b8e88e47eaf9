package engine

import (
	"sort"

	"github.com/hailam/draughtsplay/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for captures
	PromotionScore  = 950000   // Quiet move that crowns a man
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
)

const historyLimit = 400000

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused cutoffs)
	killers [MaxPly][2]board.Move

	// History heuristic indexed by from*squares+to, sized for one board
	history []int
	squares int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.Move{}
		mo.killers[i][1] = board.Move{}
	}

	// Age history scores (divide by 2 to prevent overflow)
	for i := range mo.history {
		mo.history[i] /= 2
	}
}

// prepare sizes the history table for the board being searched.
func (mo *MoveOrderer) prepare(size int) {
	if squares := size * size; squares != mo.squares {
		mo.squares = squares
		mo.history = make([]int, squares*squares)
	}
}

func (mo *MoveOrderer) historyIndex(m board.Move, size int) int {
	from := m.Start.Row*size + m.Start.Col
	to := m.End().Row*size + m.End().Col
	return from*mo.squares + to
}

// Order returns moves sorted by descending ordering score. Equal scores keep
// their generation order, so the result is deterministic.
func (mo *MoveOrderer) Order(b *board.Board, moves []board.Move, ply int, ttMove board.Move) []board.Move {
	mo.prepare(b.Size())

	scores := make([]int, len(moves))
	idx := make([]int, len(moves))
	for i, m := range moves {
		idx[i] = i
		scores[i] = mo.scoreMove(b, m, ply, ttMove)
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return scores[idx[i]] > scores[idx[j]]
	})

	ordered := make([]board.Move, len(moves))
	for i, k := range idx {
		ordered[i] = moves[k]
	}
	return ordered
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(b *board.Board, m board.Move, ply int, ttMove board.Move) int {
	if len(ttMove.Path) > 0 && m.Equal(ttMove) {
		return TTMoveScore
	}

	// Captures: longer chains first, kings before men
	if m.IsCapture() {
		score := GoodCaptureBase + len(m.Captured)*1000
		for _, sq := range m.Captured {
			if p := b.At(sq); p != nil && p.IsKing() {
				score += 100
			}
		}
		return score
	}

	if p := b.At(m.Start); p != nil && !p.IsKing() && crowns(p.Color, m.End().Row, b.Size()) {
		return PromotionScore
	}

	if ply < MaxPly {
		if m.Equal(mo.killers[ply][0]) {
			return KillerScore1
		}
		if m.Equal(mo.killers[ply][1]) {
			return KillerScore2
		}
	}

	// History heuristic for quiet moves
	return mo.history[mo.historyIndex(m, b.Size())]
}

func crowns(c board.Color, row, size int) bool {
	if c == board.White {
		return row == 0
	}
	return row == size-1
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || m.IsCapture() {
		return
	}

	// Don't store if it's already the first killer
	if mo.killers[ply][0].Equal(m) {
		return
	}

	// Shift killers
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet move that caused a cutoff.
func (mo *MoveOrderer) UpdateHistory(b *board.Board, m board.Move, depth int) {
	if m.IsCapture() {
		return
	}
	mo.prepare(b.Size())

	i := mo.historyIndex(m, b.Size())
	mo.history[i] += depth * depth
	if mo.history[i] > historyLimit {
		for j := range mo.history {
			mo.history[j] /= 2
		}
	}
}

// HistoryScore returns the history score for a move.
func (mo *MoveOrderer) HistoryScore(b *board.Board, m board.Move) int {
	mo.prepare(b.Size())
	return mo.history[mo.historyIndex(m, b.Size())]
}
