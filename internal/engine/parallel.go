package engine

import (
	"golang.org/x/sync/errgroup"

	"github.com/hailam/draughtsplay/internal/board"
)

// searchRootParallel splits the root moves across goroutines. Each root move
// is searched with a full window on its own board copy and move orderer, so
// every score is exact; the table is shared. The first best move in ordered
// position wins, which is the move the sequential search keeps.
func (e *Engine) searchRootParallel(b *board.Board, ordered []board.Move, depth int, maximizing bool) rootResult {
	scores := make([]float64, len(ordered))
	done := make([]bool, len(ordered))

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i := range ordered {
		g.Go(func() error {
			s := e.newSearcher(b.Copy(), NewMoveOrderer())
			u, err := s.push(ordered[i])
			if err != nil {
				return nil // Logged by push
			}
			score, _ := s.minimax(depth-1, 1, -Infinity, Infinity, !maximizing)
			s.pop(u)
			if !s.stopped() {
				scores[i] = score
				done[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	var res rootResult
	for i := range ordered {
		if !done[i] {
			continue
		}
		if res.move == nil ||
			maximizing && scores[i] > res.score ||
			!maximizing && scores[i] < res.score {
			res.score, res.move = scores[i], &ordered[i]
		}
	}
	return res
}
