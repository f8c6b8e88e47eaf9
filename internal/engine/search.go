package engine

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/hailam/draughtsplay/internal/board"
)

// Search constants
const (
	WinScore  = 1e6
	DrawScore = 0.0
	Infinity  = 2 * WinScore
	MaxPly    = 128
)

// Stats counts search events. Counters are shared by parallel workers.
type Stats struct {
	Nodes        atomic.Uint64
	TTHits       atomic.Uint64
	AlphaCutoffs atomic.Uint64 // Cutoffs at minimizing nodes
	BetaCutoffs  atomic.Uint64 // Cutoffs at maximizing nodes
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Nodes        uint64
	TTHits       uint64
	AlphaCutoffs uint64
	BetaCutoffs  uint64
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Nodes:        s.Nodes.Load(),
		TTHits:       s.TTHits.Load(),
		AlphaCutoffs: s.AlphaCutoffs.Load(),
		BetaCutoffs:  s.BetaCutoffs.Load(),
	}
}

func (s *Stats) reset() {
	s.Nodes.Store(0)
	s.TTHits.Store(0)
	s.AlphaCutoffs.Store(0)
	s.BetaCutoffs.Store(0)
}

// Searcher runs alpha-beta minimax on a board it owns exclusively. Parallel
// searches use one Searcher per goroutine, sharing the table, evaluator and
// counters.
type Searcher struct {
	b        *board.Board
	eval     Evaluator
	tt       *TranspositionTable
	orderer  *MoveOrderer
	stats    *Stats
	tm       *TimeManager
	maxColor board.Color
	sideKey  uint64

	// Draw bookkeeping along the search path, seeded from the game record
	path []uint64
	run  int
	runs []int
}

// newSearcher prepares a searcher for b, which must not be shared.
func newSearcher(b *board.Board, eval Evaluator, tt *TranspositionTable, orderer *MoveOrderer, stats *Stats, tm *TimeManager, maxColor board.Color) *Searcher {
	history := b.History()
	path := make([]uint64, 0, len(history)+MaxPly)
	path = append(path, history...)
	if len(path) == 0 || path[len(path)-1] != b.Hash() {
		path = append(path, b.Hash())
	}
	return &Searcher{
		b:        b,
		eval:     eval,
		tt:       tt,
		orderer:  orderer,
		stats:    stats,
		tm:       tm,
		maxColor: maxColor,
		sideKey:  board.ZobristSide(b.Size()),
		path:     path,
		run:      b.NoCaptureRun(),
	}
}

// side derives the color to move from the maximizing flag.
func (s *Searcher) side(maximizing bool) board.Color {
	if maximizing {
		return s.maxColor
	}
	return s.maxColor.Other()
}

// key mixes the side to move into the board hash.
func (s *Searcher) key(side board.Color) uint64 {
	if side == board.Black {
		return s.b.Hash() ^ s.sideKey
	}
	return s.b.Hash()
}

func (s *Searcher) stopped() bool {
	return s.tm.ShouldStop()
}

// push plays m and records it on the search path. A rejected move means the
// generator and the validator disagree; it is logged and skipped.
func (s *Searcher) push(m board.Move) (board.UndoRecord, error) {
	u, err := s.b.MakeMove(m)
	if err != nil {
		log.Error().Err(err).Str("move", m.String()).Str("board", s.b.Fingerprint()).Msg("generated-move-rejected")
		return u, err
	}
	s.runs = append(s.runs, s.run)
	if m.IsCapture() {
		s.run = 0
	} else {
		s.run++
	}
	s.path = append(s.path, s.b.Hash())
	return u, nil
}

// pop undoes the last push.
func (s *Searcher) pop(u board.UndoRecord) {
	s.path = s.path[:len(s.path)-1]
	s.run = s.runs[len(s.runs)-1]
	s.runs = s.runs[:len(s.runs)-1]
	s.b.UndoMove(u)
}

// terminal scores positions decided by the rules: a side without pieces,
// or a draw by the no-capture or repetition rule along the search path.
func (s *Searcher) terminal(ply int) (float64, bool) {
	switch r := s.b.Result(); r {
	case board.Undetermined:
	case board.Draw:
		return DrawScore, true
	default:
		if r.Winner() == s.maxColor {
			return WinScore - float64(ply), true
		}
		return -(WinScore - float64(ply)), true
	}

	rules := s.b.Rules()
	if s.run >= rules.NoCaptureLimit {
		return DrawScore, true
	}
	h := s.b.Hash()
	count := 0
	for _, p := range s.path {
		if p == h {
			count++
		}
	}
	if count >= rules.RepetitionLimit {
		return DrawScore, true
	}
	return 0, false
}

// lossScore is the score of a node whose side to move cannot move.
func lossScore(maximizing bool, ply int) float64 {
	if maximizing {
		return -(WinScore - float64(ply))
	}
	return WinScore - float64(ply)
}

// leaf evaluates a node without searching it.
func (s *Searcher) leaf(ply int) float64 {
	if score, ok := s.terminal(ply); ok {
		return score
	}
	return s.eval.Evaluate(s.b)
}

// minimax returns the score of the current node and the best move found.
// The move has an empty path at leaves and when the side cannot move.
func (s *Searcher) minimax(depth, ply int, alpha, beta float64, maximizing bool) (float64, board.Move) {
	s.stats.Nodes.Add(1)
	if s.tm.Visit() {
		return 0, board.Move{}
	}

	if score, ok := s.terminal(ply); ok {
		return score, board.Move{}
	}
	if depth <= 0 || ply >= MaxPly {
		return s.eval.Evaluate(s.b), board.Move{}
	}

	side := s.side(maximizing)
	key := s.key(side)

	var ttMove board.Move
	if e, ok := s.tt.Probe(key); ok {
		ttMove = e.BestMove
		if int(e.Depth) >= depth {
			score := AdjustScoreFromTT(e.Score, ply)
			switch e.Flag {
			case TTExact:
				s.stats.TTHits.Add(1)
				return score, e.BestMove
			case TTLowerBound:
				alpha = max(alpha, score)
			case TTUpperBound:
				beta = min(beta, score)
			}
			if alpha >= beta {
				s.stats.TTHits.Add(1)
				return score, e.BestMove
			}
		}
	}

	moves := s.b.LegalMoves(side)
	if len(moves) == 0 {
		return lossScore(maximizing, ply), board.Move{}
	}

	alphaOrig, betaOrig := alpha, beta
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	var bestMove board.Move
	played := 0

	for _, m := range s.orderer.Order(s.b, moves, ply, ttMove) {
		u, err := s.push(m)
		if err != nil {
			continue
		}
		played++
		score, _ := s.minimax(depth-1, ply+1, alpha, beta, !maximizing)
		s.pop(u)

		if s.stopped() {
			return 0, board.Move{}
		}

		if maximizing {
			if score > best {
				best, bestMove = score, m
			}
			alpha = max(alpha, best)
		} else {
			if score < best {
				best, bestMove = score, m
			}
			beta = min(beta, best)
		}

		if alpha >= beta {
			if maximizing {
				s.stats.BetaCutoffs.Add(1)
			} else {
				s.stats.AlphaCutoffs.Add(1)
			}
			s.orderer.UpdateKillers(m, ply)
			s.orderer.UpdateHistory(s.b, m, depth)
			break
		}
	}

	if played == 0 {
		return lossScore(maximizing, ply), board.Move{}
	}

	flag := TTExact
	switch {
	case best <= alphaOrig:
		flag = TTUpperBound
	case best >= betaOrig:
		flag = TTLowerBound
	}
	s.tt.Store(key, depth, AdjustScoreToTT(best, ply), flag, bestMove)

	return best, bestMove
}
