package selfplay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/draughtsplay/internal/board"
)

// DefaultMaxPlies caps a game; reaching it is a draw.
const DefaultMaxPlies = 400

// End reasons
const (
	ReasonRules    = "rules"     // Result() decided the game
	ReasonNoMoves  = "no-moves"  // The side to move was blocked
	ReasonPlyLimit = "ply-limit" // The ply cap was reached
)

// GameRecord is the full record of a played game.
type GameRecord struct {
	White    string
	Black    string
	Rules    board.Rules
	Moves    []board.Move
	Outcome  board.Outcome
	Reason   string
	Duration time.Duration
}

// Plies returns the number of moves played.
func (g *GameRecord) Plies() int {
	return len(g.Moves)
}

// Replay rebuilds the final board from the move list.
func (g *GameRecord) Replay() (*board.Board, error) {
	b, err := board.New(g.Rules)
	if err != nil {
		return nil, err
	}
	for i, m := range g.Moves {
		if err := b.ApplyMove(m); err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
	}
	return b, nil
}

// PlayGame plays white against black from the starting position. White moves
// first. maxPlies <= 0 selects DefaultMaxPlies.
func PlayGame(ctx context.Context, white, black Player, rules board.Rules, maxPlies int) (GameRecord, error) {
	if maxPlies <= 0 {
		maxPlies = DefaultMaxPlies
	}
	rec := GameRecord{White: white.Name(), Black: black.Name(), Rules: rules}

	b, err := board.New(rules)
	if err != nil {
		return rec, err
	}

	start := time.Now()
	players := [2]Player{board.White: white, board.Black: black}
	side := board.White
	for {
		if r := b.Result(); r != board.Undetermined {
			rec.Outcome, rec.Reason = r, ReasonRules
			break
		}
		if len(rec.Moves) >= maxPlies {
			rec.Outcome, rec.Reason = board.Draw, ReasonPlyLimit
			break
		}
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		p := players[side]
		m, err := p.ChooseMove(ctx, b, side)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", p.Name(), err)
		}
		if m == nil {
			if b.HasLegalMove(side) {
				return rec, fmt.Errorf("%s passed with legal moves left", p.Name())
			}
			rec.Outcome, rec.Reason = board.LossFor(side), ReasonNoMoves
			break
		}
		if !isLegal(b, side, *m) {
			return rec, fmt.Errorf("%s played %s: %w", p.Name(), m, board.ErrInvalidMove)
		}
		if err := b.ApplyMove(*m); err != nil {
			return rec, err
		}
		rec.Moves = append(rec.Moves, *m)
		side = side.Other()
	}
	rec.Duration = time.Since(start)

	log.Debug().
		Str("white", rec.White).
		Str("black", rec.Black).
		Str("outcome", rec.Outcome.String()).
		Str("reason", rec.Reason).
		Int("plies", rec.Plies()).
		Msg("game-over")
	return rec, nil
}

func isLegal(b *board.Board, side board.Color, m board.Move) bool {
	for _, l := range b.LegalMoves(side) {
		if l.Equal(m) {
			return true
		}
	}
	return false
}
