package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/draughtsplay/internal/board"
	"github.com/hailam/draughtsplay/internal/engine"
)

// Storage keys
const (
	keyPreferences   = "preferences"
	prefixProfile    = "profile/"
	prefixMatchStats = "match/"
)

var (
	// ErrNotFound is returned when a named record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidName is returned for empty names or names containing '/'.
	ErrInvalidName = errors.New("invalid name")
)

// Preferences stores the settings of an interactive session.
type Preferences struct {
	Depth               int         `json:"depth"`
	Profile             string      `json:"profile"`
	HumanColor          board.Color `json:"human_color"`
	BoardSize           int         `json:"board_size"`
	MidCapturePromotion bool        `json:"mid_capture_promotion"`
	LastPlayed          time.Time   `json:"last_played"`
}

// DefaultPreferences returns default preferences.
func DefaultPreferences() *Preferences {
	rules := board.DefaultRules()
	return &Preferences{
		Depth:               engine.DefaultDepth,
		Profile:             "expert",
		HumanColor:          board.White,
		BoardSize:           rules.Size,
		MidCapturePromotion: rules.MidCapturePromotion,
		LastPlayed:          time.Now(),
	}
}

// Rules returns the board rules the preferences select.
func (p *Preferences) Rules() board.Rules {
	rules := board.DefaultRules().WithSize(p.BoardSize)
	rules.MidCapturePromotion = p.MidCapturePromotion
	return rules
}

// MatchStats holds the results of one profile against one opponent, seen
// from the profile's side.
type MatchStats struct {
	Profile       string        `json:"profile"`
	Opponent      string        `json:"opponent"`
	GamesPlayed   int           `json:"games_played"`
	WinsAsWhite   int           `json:"wins_as_white"`
	WinsAsBlack   int           `json:"wins_as_black"`
	LossesAsWhite int           `json:"losses_as_white"`
	LossesAsBlack int           `json:"losses_as_black"`
	Draws         int           `json:"draws"`
	TotalPlies    int           `json:"total_plies"`
	TotalPlayTime time.Duration `json:"total_play_time"`
}

// Wins returns the wins with either color.
func (s *MatchStats) Wins() int {
	return s.WinsAsWhite + s.WinsAsBlack
}

// Losses returns the losses with either color.
func (s *MatchStats) Losses() int {
	return s.LossesAsWhite + s.LossesAsBlack
}

// WinRate returns the win rate as a percentage (0-100).
func (s *MatchStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins()) / float64(s.GamesPlayed) * 100
}

// MatchResult describes a finished game between two named profiles.
type MatchResult struct {
	White    string
	Black    string
	Outcome  board.Outcome
	Plies    int
	Duration time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens or creates a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log.Logger.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func checkName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SaveProfile stores p under its name, replacing any previous version.
func (s *Storage) SaveProfile(p engine.Profile) error {
	if err := checkName(p.Name); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixProfile+p.Name), data)
	})
}

// LoadProfile returns the stored profile with the given name.
func (s *Storage) LoadProfile(name string) (engine.Profile, error) {
	var p engine.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixProfile + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("profile %q: %w", name, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	return p, err
}

// ListProfiles returns the names of all stored profiles in sorted order.
func (s *Storage) ListProfiles() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixProfile)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), prefixProfile))
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

// DeleteProfile removes a stored profile.
func (s *Storage) DeleteProfile(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixProfile + name)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("profile %q: %w", name, ErrNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// SavePreferences saves preferences and stamps LastPlayed.
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, prefs)
		})
	})

	return prefs, err
}

func matchKey(profile, opponent string) []byte {
	return []byte(prefixMatchStats + profile + "/" + opponent)
}

func getMatchStats(txn *badger.Txn, profile, opponent string) (*MatchStats, error) {
	stats := &MatchStats{Profile: profile, Opponent: opponent}
	item, err := txn.Get(matchKey(profile, opponent))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	return stats, err
}

func setMatchStats(txn *badger.Txn, stats *MatchStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return txn.Set(matchKey(stats.Profile, stats.Opponent), data)
}

// LoadMatchStats returns the record of profile against opponent. A pair that
// never met has empty stats.
func (s *Storage) LoadMatchStats(profile, opponent string) (*MatchStats, error) {
	var stats *MatchStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = getMatchStats(txn, profile, opponent)
		return err
	})
	return stats, err
}

// RecordMatch updates the stats of both players in one transaction.
// Concurrent recorders retry on conflict.
func (s *Storage) RecordMatch(result MatchResult) error {
	if err := checkName(result.White); err != nil {
		return err
	}
	if err := checkName(result.Black); err != nil {
		return err
	}

	update := func(txn *badger.Txn) error {
		white, err := getMatchStats(txn, result.White, result.Black)
		if err != nil {
			return err
		}
		// A profile playing itself keeps a single record
		black := white
		players := []*MatchStats{white}
		if result.Black != result.White {
			if black, err = getMatchStats(txn, result.Black, result.White); err != nil {
				return err
			}
			players = append(players, black)
		}

		for _, st := range players {
			st.GamesPlayed++
			st.TotalPlies += result.Plies
			st.TotalPlayTime += result.Duration
		}
		switch result.Outcome {
		case board.WhiteWins:
			white.WinsAsWhite++
			black.LossesAsBlack++
		case board.BlackWins:
			white.LossesAsWhite++
			black.WinsAsBlack++
		default:
			for _, st := range players {
				st.Draws++
			}
		}

		for _, st := range players {
			if err := setMatchStats(txn, st); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		err := s.db.Update(update)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		log.Debug().Str("white", result.White).Str("black", result.Black).Msg("record-match-retry")
	}
}

// badgerLogger routes badger's log output through zerolog. Badger's
// informational chatter is demoted to debug.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Trace().Msgf(strings.TrimSpace(format), args...)
}
