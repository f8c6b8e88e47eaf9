package selfplay

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/hailam/draughtsplay/internal/board"
	"github.com/hailam/draughtsplay/internal/engine"
	"github.com/hailam/draughtsplay/internal/storage"
)

// Entrant is a tournament participant. NewPlayer is called once per game so
// concurrent games never share engine state.
type Entrant struct {
	Name      string
	NewPlayer func() (Player, error)
}

// EngineEntrant enters profile p searching at the given depth.
func EngineEntrant(p engine.Profile, depth int, opts engine.Options) Entrant {
	return Entrant{
		Name: p.Name,
		NewPlayer: func() (Player, error) {
			return NewEnginePlayer(p, depth, opts)
		},
	}
}

// MonteCarloEntrant enters a rollout player.
func MonteCarloEntrant(name string, simulations, workers int) Entrant {
	return Entrant{
		Name: name,
		NewPlayer: func() (Player, error) {
			return NewMonteCarloPlayer(name, simulations, workers), nil
		},
	}
}

// Recorder persists finished games. *storage.Storage implements it.
type Recorder interface {
	RecordMatch(storage.MatchResult) error
}

// Standing is one entrant's tournament score. A win is worth one point and
// a draw half a point.
type Standing struct {
	Name   string
	Played int
	Wins   int
	Losses int
	Draws  int
	Points float64
}

// Tournament is a round robin between entrants.
type Tournament struct {
	Entrants     []Entrant
	GamesPerPair int // Games per pair of entrants, colors drawn at random
	Workers      int // Concurrent games
	Rules        board.Rules
	MaxPlies     int
	Recorder     Recorder // Optional

	// OnGame is called after every game, serialized.
	OnGame func(GameRecord)
}

type pairing struct {
	white, black int
}

// Run plays every pairing and returns the standings sorted by points, then
// by name.
func (t *Tournament) Run(ctx context.Context) ([]Standing, error) {
	if len(t.Entrants) < 2 {
		return nil, errors.New("tournament needs at least two entrants")
	}
	if err := t.Rules.Validate(); err != nil {
		return nil, err
	}
	perPair := max(t.GamesPerPair, 1)

	var games []pairing
	for i := range t.Entrants {
		for j := i + 1; j < len(t.Entrants); j++ {
			for g := 0; g < perPair; g++ {
				if frand.Intn(2) == 0 {
					games = append(games, pairing{i, j})
				} else {
					games = append(games, pairing{j, i})
				}
			}
		}
	}

	standings := make([]Standing, len(t.Entrants))
	for i, e := range t.Entrants {
		standings[i].Name = e.Name
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(t.Workers, 1))
	for _, pg := range games {
		g.Go(func() error {
			rec, err := t.play(ctx, pg)
			if err != nil {
				return err
			}
			if t.Recorder != nil {
				err := t.Recorder.RecordMatch(storage.MatchResult{
					White:    rec.White,
					Black:    rec.Black,
					Outcome:  rec.Outcome,
					Plies:    rec.Plies(),
					Duration: rec.Duration,
				})
				if err != nil {
					return err
				}
			}

			mu.Lock()
			defer mu.Unlock()
			score(&standings[pg.white], &standings[pg.black], rec.Outcome)
			if t.OnGame != nil {
				t.OnGame(rec)
			}
			log.Info().
				Str("white", rec.White).
				Str("black", rec.Black).
				Str("outcome", rec.Outcome.String()).
				Int("plies", rec.Plies()).
				Dur("elapsed", rec.Duration).
				Msg("game-finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].Name < standings[j].Name
	})
	return standings, nil
}

// play runs one game with fresh players.
func (t *Tournament) play(ctx context.Context, pg pairing) (GameRecord, error) {
	white, err := t.Entrants[pg.white].NewPlayer()
	if err != nil {
		return GameRecord{}, err
	}
	defer closePlayer(white)

	black, err := t.Entrants[pg.black].NewPlayer()
	if err != nil {
		return GameRecord{}, err
	}
	defer closePlayer(black)

	return PlayGame(ctx, white, black, t.Rules, t.MaxPlies)
}

func closePlayer(p Player) {
	if c, ok := p.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Str("player", p.Name()).Msg("close-player")
		}
	}
}

func score(white, black *Standing, o board.Outcome) {
	white.Played++
	black.Played++
	switch o {
	case board.WhiteWins:
		white.Wins++
		white.Points++
		black.Losses++
	case board.BlackWins:
		black.Wins++
		black.Points++
		white.Losses++
	default:
		white.Draws++
		black.Draws++
		white.Points += 0.5
		black.Points += 0.5
	}
}
