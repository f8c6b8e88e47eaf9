package engine

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/draughtsplay/internal/board"
)

const (
	// DefaultSimulations is the rollout count per decision.
	DefaultSimulations = 300

	// RolloutPlies caps a random game; reaching it counts as a draw.
	RolloutPlies = 400
)

// MonteCarlo picks moves by playing random games from each candidate. It
// keeps no state between calls and is safe for concurrent use.
type MonteCarlo struct {
	Simulations int
	Workers     int
}

// NewMonteCarlo creates a player running the given number of rollouts.
func NewMonteCarlo(simulations, workers int) *MonteCarlo {
	if simulations < 1 {
		simulations = DefaultSimulations
	}
	if workers < 1 {
		workers = 1
	}
	return &MonteCarlo{Simulations: simulations, Workers: workers}
}

// mcTally accumulates rollout results per candidate move.
type mcTally struct {
	sum   []float64
	count []int
}

// ChooseMove returns the candidate with the best average rollout result for
// side (+1 win, 0 draw, -1 loss) and that average. Ties are broken at random.
// It returns nil when side has no legal move.
func (mc *MonteCarlo) ChooseMove(ctx context.Context, b *board.Board, side board.Color) (*board.Move, float64, error) {
	moves := b.LegalMoves(side)
	if len(moves) == 0 {
		return nil, -1, nil
	}

	tallies := make([]mcTally, mc.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range tallies {
		t := &tallies[w]
		t.sum = make([]float64, len(moves))
		t.count = make([]int, len(moves))

		n := mc.Simulations / mc.Workers
		if w < mc.Simulations%mc.Workers {
			n++
		}
		g.Go(func() error {
			for i := 0; i < n; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				k := frand.Intn(len(moves))
				t.sum[k] += simulate(b, moves[k], side)
				t.count[k]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var best []int
	bestScore := -2.0
	for k := range moves {
		sum, count := 0.0, 1 // Start at one so unvisited moves average to 0
		for _, t := range tallies {
			sum += t.sum[k]
			count += t.count[k]
		}
		avg := sum / float64(count)
		switch {
		case avg > bestScore:
			bestScore = avg
			best = append(best[:0], k)
		case avg == bestScore:
			best = append(best, k)
		}
	}

	m := moves[best[frand.Intn(len(best))]]
	log.Debug().
		Int("simulations", mc.Simulations).
		Float64("score", bestScore).
		Str("move", m.String()).
		Msg("monte-carlo-choice")
	return &m, bestScore, nil
}

// simulate plays m for side on a copy of b, then random moves until the game
// ends, and returns the result for side.
func simulate(b *board.Board, m board.Move, side board.Color) float64 {
	sim := b.Copy()
	if err := sim.ApplyMove(m); err != nil {
		return 0
	}

	switch winner := rollout(sim, side.Other()); winner {
	case side:
		return 1
	case board.NoColor:
		return 0
	default:
		return -1
	}
}

// rollout plays uniformly random legal moves and returns the winner, or
// NoColor for a draw.
func rollout(b *board.Board, turn board.Color) board.Color {
	if b.IsTerminal() {
		return b.Result().Winner()
	}
	for i := 0; i < RolloutPlies; i++ {
		moves := b.LegalMoves(turn)
		if len(moves) == 0 {
			return turn.Other()
		}
		if err := b.ApplyMove(moves[frand.Intn(len(moves))]); err != nil {
			return board.NoColor
		}
		if b.IsTerminal() {
			return b.Result().Winner()
		}
		turn = turn.Other()
	}
	return board.NoColor
}
