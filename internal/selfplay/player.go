// Package selfplay runs games and round-robin tournaments between engine
// players.
package selfplay

import (
	"context"

	"github.com/hailam/draughtsplay/internal/board"
	"github.com/hailam/draughtsplay/internal/engine"
)

// Player picks moves for one side of a game.
type Player interface {
	Name() string

	// ChooseMove returns the move to play for side, or nil when side has no
	// legal move. b must not be modified.
	ChooseMove(ctx context.Context, b *board.Board, side board.Color) (*board.Move, error)
}

// EnginePlayer plays the alpha-beta engine at a fixed depth.
type EnginePlayer struct {
	name   string
	engine *engine.Engine
	depth  int
}

// NewEnginePlayer creates a player searching with profile p.
func NewEnginePlayer(p engine.Profile, depth int, opts engine.Options) (*EnginePlayer, error) {
	eng, err := engine.NewEngine(p, opts)
	if err != nil {
		return nil, err
	}
	return &EnginePlayer{name: p.Name, engine: eng, depth: depth}, nil
}

func (p *EnginePlayer) Name() string { return p.name }

func (p *EnginePlayer) ChooseMove(ctx context.Context, b *board.Board, side board.Color) (*board.Move, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	maximizing := side == p.engine.Options().MaximizingColor
	_, m := p.engine.Recommend(b, p.depth, maximizing)
	return m, nil
}

// Engine exposes the underlying engine.
func (p *EnginePlayer) Engine() *engine.Engine { return p.engine }

// Close releases the engine caches.
func (p *EnginePlayer) Close() error {
	p.engine.Close()
	return nil
}

// MonteCarloPlayer picks moves by random rollouts.
type MonteCarloPlayer struct {
	name string
	mc   *engine.MonteCarlo
}

// NewMonteCarloPlayer creates a rollout player.
func NewMonteCarloPlayer(name string, simulations, workers int) *MonteCarloPlayer {
	return &MonteCarloPlayer{name: name, mc: engine.NewMonteCarlo(simulations, workers)}
}

func (p *MonteCarloPlayer) Name() string { return p.name }

func (p *MonteCarloPlayer) ChooseMove(ctx context.Context, b *board.Board, side board.Color) (*board.Move, error) {
	m, _, err := p.mc.ChooseMove(ctx, b, side)
	return m, err
}
