// Command draughts-selfplay runs a round-robin tournament between engine
// weight profiles and records the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/draughtsplay/internal/board"
	"github.com/hailam/draughtsplay/internal/engine"
	"github.com/hailam/draughtsplay/internal/selfplay"
	"github.com/hailam/draughtsplay/internal/storage"
)

var (
	profiles   = flag.String("profiles", "expert,intermediate,losing", "comma-separated entrants: profile names, random:NAME or mc")
	games      = flag.Int("games", 2, "games per pair of entrants")
	depth      = flag.Int("depth", 4, "search depth of engine players")
	size       = flag.Int("size", 10, "board size")
	workers    = flag.Int("workers", 2, "games played concurrently")
	maxPlies   = flag.Int("max-plies", selfplay.DefaultMaxPlies, "ply cap per game, reaching it is a draw")
	mcSims     = flag.Int("mc-sims", engine.DefaultSimulations, "rollouts per move of Monte Carlo players")
	noMidCrown = flag.Bool("no-mid-capture-promotion", false, "men crowned mid-capture stop instead of continuing as kings")
	dbDir      = flag.String("db", "", "database directory (empty = $"+storage.DataDirEnv+" or the platform data dir, - = no database)")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	verbose    = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("selfplay-failed")
	}
}

func run() error {
	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu-profiling")
	}

	rules := board.DefaultRules().WithSize(*size)
	rules.MidCapturePromotion = !*noMidCrown
	if err := rules.Validate(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	entrants, err := loadEntrants(store, strings.Split(*profiles, ","))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tour := selfplay.Tournament{
		Entrants:     entrants,
		GamesPerPair: *games,
		Workers:      *workers,
		Rules:        rules,
		MaxPlies:     *maxPlies,
	}
	if store != nil {
		tour.Recorder = store
	}

	var plies int
	tour.OnGame = func(rec selfplay.GameRecord) { plies += rec.Plies() }

	start := time.Now()
	standings, err := tour.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("plies", humanize.Comma(int64(plies))).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("tournament-finished")

	printStandings(standings)
	if store != nil {
		return printHeadToHead(store, entrants)
	}
	return nil
}

func openStore() (*storage.Storage, error) {
	switch *dbDir {
	case "-":
		return nil, nil
	case "":
		return storage.NewStorage()
	default:
		return storage.Open(*dbDir)
	}
}

// loadEntrants resolves entrant specs. Stored profiles shadow the built-in
// presets; random profiles are saved so later runs can replay them.
func loadEntrants(store *storage.Storage, specs []string) ([]selfplay.Entrant, error) {
	opts := engine.DefaultOptions()

	var entrants []selfplay.Entrant
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		switch {
		case spec == "":
			continue

		case spec == "mc":
			entrants = append(entrants, selfplay.MonteCarloEntrant(fmt.Sprintf("mc-%d", *mcSims), *mcSims, 1))

		case strings.HasPrefix(spec, "random:"):
			p := engine.RandomProfile(strings.TrimPrefix(spec, "random:"))
			if store != nil {
				if err := store.SaveProfile(p); err != nil {
					return nil, err
				}
			}
			log.Info().Str("profile", p.Name).Interface("weights", p.Weights).Msg("random-profile")
			entrants = append(entrants, selfplay.EngineEntrant(p, *depth, opts))

		default:
			p, err := loadProfile(store, spec)
			if err != nil {
				return nil, err
			}
			entrants = append(entrants, selfplay.EngineEntrant(p, *depth, opts))
		}
	}
	return entrants, nil
}

func loadProfile(store *storage.Storage, name string) (engine.Profile, error) {
	if store != nil {
		p, err := store.LoadProfile(name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return engine.Profile{}, err
		}
	}
	return engine.BuiltinProfile(name)
}

func printStandings(standings []selfplay.Standing) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tENTRANT\tPLAYED\tWON\tLOST\tDRAWN\tPOINTS")
	for i, s := range standings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			humanize.Ordinal(i+1), s.Name, s.Played, s.Wins, s.Losses, s.Draws, humanize.Ftoa(s.Points))
	}
	w.Flush()
}

// printHeadToHead prints the all-time record of every pair of entrants.
func printHeadToHead(store *storage.Storage, entrants []selfplay.Entrant) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nPROFILE\tOPPONENT\tGAMES\tWIN RATE\tAVG PLIES")
	for i, a := range entrants {
		for j, b := range entrants {
			if i == j {
				continue
			}
			st, err := store.LoadMatchStats(a.Name, b.Name)
			if err != nil {
				return err
			}
			if st.GamesPlayed == 0 {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%d\n",
				a.Name, b.Name, humanize.Comma(int64(st.GamesPlayed)), st.WinRate(), st.TotalPlies/st.GamesPlayed)
		}
	}
	return w.Flush()
}
