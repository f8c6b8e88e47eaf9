// Package engine implements the draughts search engine: weighted evaluation,
// alpha-beta search with a shared transposition table, and a Monte Carlo
// player.
package engine

import (
	"github.com/hailam/draughtsplay/internal/board"
)

// Evaluator scores a board. Higher is better for the evaluator's perspective
// color. Implementations must be pure functions of the board and safe for
// concurrent use.
type Evaluator interface {
	Evaluate(b *board.Board) float64
}

// Term values used by the feature extractors.
const (
	manValue  = 1.0
	kingValue = 3.0

	centerBonus     = 3.0
	wideCenterBonus = 1.0

	isolatedPenalty = -2.0
	supportedBonus  = 2.0

	freeStepWeight = 0.2

	hangingPenalty = -4.0
	lockedPenalty  = -8.0
)

// WeightedEvaluator is a linear combination of board features, weighted by
// a Profile.
type WeightedEvaluator struct {
	profile     Profile
	weights     [numFeatures]float64
	perspective board.Color
	cache       *EvalCache
	salt        uint64
}

// NewWeightedEvaluator creates an evaluator scoring from perspective's point
// of view. cache may be nil.
func NewWeightedEvaluator(p Profile, perspective board.Color, cache *EvalCache) (*WeightedEvaluator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &WeightedEvaluator{
		profile:     p.Clone(),
		weights:     p.vector(),
		perspective: perspective,
		cache:       cache,
		salt:        p.Digest() ^ (uint64(perspective)+1)*0x9E3779B97F4A7C15,
	}, nil
}

// Profile returns the weight set in use.
func (e *WeightedEvaluator) Profile() Profile {
	return e.profile.Clone()
}

// Perspective returns the color scores are oriented for.
func (e *WeightedEvaluator) Perspective() board.Color {
	return e.perspective
}

// Evaluate returns WinScore or -WinScore for decided games, 0 for draws, and
// the weighted feature sum otherwise.
func (e *WeightedEvaluator) Evaluate(b *board.Board) float64 {
	switch r := b.Result(); r {
	case board.Draw:
		return DrawScore
	case board.WhiteWins, board.BlackWins:
		if r.Winner() == e.perspective {
			return WinScore
		}
		return -WinScore
	}

	key := b.Hash() ^ e.salt
	if v, ok := e.cache.Probe(key); ok {
		return v
	}

	var score float64
	for i, w := range e.weights {
		if w != 0 {
			score += w * featureValue(Features[i], b, e.perspective)
		}
	}
	e.cache.Store(key, score)
	return score
}

// FeatureVector computes every feature for c, unweighted.
func FeatureVector(b *board.Board, c board.Color) map[Feature]float64 {
	out := make(map[Feature]float64, numFeatures)
	for _, f := range Features {
		out[f] = featureValue(f, b, c)
	}
	return out
}

func featureValue(f Feature, b *board.Board, c board.Color) float64 {
	switch f {
	case Material:
		return material(b, c)
	case Central:
		return central(b, c)
	case Structure:
		return structure(b, c)
	case Mobility:
		return float64(len(b.LegalMoves(c)) - len(b.LegalMoves(c.Other())))
	case KingActivity:
		return kingActivity(b, c)
	case Promotion:
		return promotion(b, c)
	case Safety:
		return safety(b, c)
	case Tempo:
		return tempo(b, c)
	case Locks:
		return locks(b, c)
	}
	return 0
}

// sign is +1 for c's pieces and -1 for the opponent's.
func sign(p *board.Piece, c board.Color) float64 {
	if p.Color == c {
		return 1
	}
	return -1
}

// eachPiece calls fn for every occupied square.
func eachPiece(b *board.Board, fn func(sq board.Square, p *board.Piece)) {
	n := b.Size()
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			sq := board.Sq(r, col)
			if p := b.At(sq); p != nil {
				fn(sq, p)
			}
		}
	}
}

func material(b *board.Board, c board.Color) float64 {
	var v float64
	eachPiece(b, func(_ board.Square, p *board.Piece) {
		if p.IsKing() {
			v += sign(p, c) * kingValue
		} else {
			v += sign(p, c) * manValue
		}
	})
	return v
}

func central(b *board.Board, c board.Color) float64 {
	half := b.Size() / 2
	in := func(x, lo, hi int) bool { return x >= lo && x <= hi }

	var v float64
	eachPiece(b, func(sq board.Square, p *board.Piece) {
		switch {
		case in(sq.Row, half-1, half) && in(sq.Col, half-1, half):
			v += sign(p, c) * centerBonus
		case in(sq.Row, half-2, half+1) && in(sq.Col, half-2, half+1):
			v += sign(p, c) * wideCenterBonus
		}
	})
	return v
}

// structure penalizes men without a diagonal neighbor of their color and
// rewards men backed by one from behind.
func structure(b *board.Board, c board.Color) float64 {
	var v float64
	eachPiece(b, func(sq board.Square, p *board.Piece) {
		if p.IsKing() {
			return
		}
		isolated := true
		for _, d := range board.Diagonals {
			if q := b.At(sq.Step(d, 1)); q != nil && q.Color == p.Color {
				isolated = false
				break
			}
		}
		if isolated {
			v += sign(p, c) * isolatedPenalty
		}

		back := 1
		if p.Color == board.White {
			back = -1
		}
		for _, dc := range [2]int{-1, 1} {
			if q := b.At(board.Sq(sq.Row+back, sq.Col+dc)); q != nil && q.Color == p.Color {
				v += sign(p, c) * supportedBonus
				break
			}
		}
	})
	return v
}

// kingActivity rewards kings away from the edges and with open diagonals.
func kingActivity(b *board.Board, c board.Color) float64 {
	n := b.Size()
	var v float64
	eachPiece(b, func(sq board.Square, p *board.Piece) {
		if !p.IsKing() {
			return
		}
		edge := min(sq.Row, n-1-sq.Row, sq.Col, n-1-sq.Col)
		free := 0
		for _, d := range board.Diagonals {
			for k := 1; b.IsEmpty(sq.Step(d, k)); k++ {
				free++
			}
		}
		v += sign(p, c) * (float64(edge) + freeStepWeight*float64(free))
	})
	return v
}

// promotion rewards men close to their promotion row.
func promotion(b *board.Board, c board.Color) float64 {
	n := b.Size()
	var v float64
	eachPiece(b, func(sq board.Square, p *board.Piece) {
		if p.IsKing() {
			return
		}
		dist := sq.Row
		if p.Color == board.Black {
			dist = n - 1 - sq.Row
		}
		v += sign(p, c) * float64(n-dist)
	})
	return v
}

// safety penalizes pieces an adjacent enemy could jump right away.
func safety(b *board.Board, c board.Color) float64 {
	var v float64
	eachPiece(b, func(sq board.Square, p *board.Piece) {
		for _, d := range board.Diagonals {
			if p.IsOpponent(b.At(sq.Step(d, 1))) && b.IsEmpty(sq.Step(d, -1)) {
				v += sign(p, c) * hangingPenalty
				return
			}
		}
	})
	return v
}

// tempo measures how far the men have advanced from their own back row.
func tempo(b *board.Board, c board.Color) float64 {
	n := b.Size()
	var v float64
	eachPiece(b, func(sq board.Square, p *board.Piece) {
		if p.IsKing() {
			return
		}
		adv := sq.Row
		if p.Color == board.White {
			adv = n - 1 - sq.Row
		}
		v += sign(p, c) * float64(adv)
	})
	return v
}

// locks penalizes kings stuck on the squares next to the double corners.
func locks(b *board.Board, c board.Color) float64 {
	n := b.Size()
	squares := [...]board.Square{
		board.Sq(0, 1), board.Sq(1, 0), board.Sq(0, 3), board.Sq(3, 0),
		board.Sq(n-1, n-2), board.Sq(n-2, n-1), board.Sq(n-1, n-4), board.Sq(n-4, n-1),
	}
	var v float64
	for _, sq := range squares {
		if p := b.At(sq); p != nil && p.IsKing() {
			v += sign(p, c) * lockedPenalty
		}
	}
	return v
}
