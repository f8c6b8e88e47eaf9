package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hailam/draughtsplay/internal/board"
	"github.com/hailam/draughtsplay/internal/engine"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestProfiles(t *testing.T) {
	s := openTest(t)

	if _, err := s.LoadProfile("expert"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store: got %v, want ErrNotFound", err)
	}

	expert, _ := engine.BuiltinProfile("expert")
	custom := engine.Profile{Name: "custom", Weights: engine.Weights{engine.Material: 7, engine.Tempo: 1.5}}
	for _, p := range []engine.Profile{expert, custom} {
		if err := s.SaveProfile(p); err != nil {
			t.Fatalf("SaveProfile(%s): %v", p.Name, err)
		}
	}

	got, err := s.LoadProfile("custom")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if got.Digest() != custom.Digest() || got.Name != "custom" {
		t.Errorf("loaded %+v, want %+v", got, custom)
	}

	names, err := s.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(names) != 2 || names[0] != "custom" || names[1] != "expert" {
		t.Errorf("ListProfiles = %v", names)
	}

	if err := s.DeleteProfile("custom"); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if err := s.DeleteProfile("custom"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	if names, _ := s.ListProfiles(); len(names) != 1 {
		t.Errorf("after delete: %v", names)
	}
}

func TestSaveProfileRejectsBadInput(t *testing.T) {
	s := openTest(t)

	bad := engine.Profile{Name: "bad", Weights: engine.Weights{"luck": 1}}
	if err := s.SaveProfile(bad); !errors.Is(err, engine.ErrUnknownFeature) {
		t.Errorf("unknown feature: got %v", err)
	}
	for _, name := range []string{"", "a/b"} {
		p := engine.Profile{Name: name, Weights: engine.Weights{engine.Material: 1}}
		if err := s.SaveProfile(p); !errors.Is(err, ErrInvalidName) {
			t.Errorf("name %q: got %v, want ErrInvalidName", name, err)
		}
	}
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs.BoardSize != 10 || prefs.Depth != engine.DefaultDepth || !prefs.MidCapturePromotion {
		t.Errorf("unexpected defaults %+v", prefs)
	}

	prefs.BoardSize = 8
	prefs.HumanColor = board.Black
	prefs.MidCapturePromotion = false
	prefs.Profile = "defensive"
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	loaded, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if loaded.BoardSize != 8 || loaded.HumanColor != board.Black || loaded.Profile != "defensive" {
		t.Errorf("loaded %+v", loaded)
	}
	if rules := loaded.Rules(); rules.Size != 8 || rules.MidCapturePromotion {
		t.Errorf("Rules() = %+v", rules)
	}
	if time.Since(loaded.LastPlayed) > time.Minute {
		t.Errorf("LastPlayed not stamped: %v", loaded.LastPlayed)
	}
}

func TestRecordMatch(t *testing.T) {
	s := openTest(t)

	results := []MatchResult{
		{White: "expert", Black: "losing", Outcome: board.WhiteWins, Plies: 40},
		{White: "losing", Black: "expert", Outcome: board.WhiteWins, Plies: 60},
		{White: "losing", Black: "expert", Outcome: board.BlackWins, Plies: 30},
		{White: "expert", Black: "losing", Outcome: board.Draw, Plies: 400},
	}
	for _, r := range results {
		if err := s.RecordMatch(r); err != nil {
			t.Fatalf("RecordMatch: %v", err)
		}
	}

	expert, err := s.LoadMatchStats("expert", "losing")
	if err != nil {
		t.Fatalf("LoadMatchStats: %v", err)
	}
	want := MatchStats{
		Profile: "expert", Opponent: "losing",
		GamesPlayed: 4, WinsAsWhite: 1, WinsAsBlack: 1, LossesAsBlack: 1, Draws: 1, TotalPlies: 530,
	}
	if *expert != want {
		t.Errorf("expert stats %+v, want %+v", *expert, want)
	}
	if expert.WinRate() != 50 {
		t.Errorf("WinRate = %v, want 50", expert.WinRate())
	}

	losing, _ := s.LoadMatchStats("losing", "expert")
	if losing.Wins() != 1 || losing.Losses() != 2 || losing.Draws != 1 {
		t.Errorf("losing stats %+v", *losing)
	}

	none, err := s.LoadMatchStats("expert", "nobody")
	if err != nil || none.GamesPlayed != 0 || none.WinRate() != 0 {
		t.Errorf("unplayed pair: %+v, %v", none, err)
	}
}

func TestRecordMatchSelfPlay(t *testing.T) {
	s := openTest(t)
	if err := s.RecordMatch(MatchResult{White: "expert", Black: "expert", Outcome: board.BlackWins}); err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	st, _ := s.LoadMatchStats("expert", "expert")
	if st.GamesPlayed != 1 || st.WinsAsBlack != 1 || st.LossesAsWhite != 1 {
		t.Errorf("self-play stats %+v", *st)
	}
}

func TestRecordMatchConcurrent(t *testing.T) {
	s := openTest(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.RecordMatch(MatchResult{White: "a", Black: "b", Outcome: board.Draw}); err != nil {
				t.Errorf("RecordMatch: %v", err)
			}
		}()
	}
	wg.Wait()

	st, _ := s.LoadMatchStats("b", "a")
	if st.GamesPlayed != 8 || st.Draws != 8 {
		t.Errorf("lost updates: %+v", *st)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv(DataDirEnv, "")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("Database directory missing: %v", err)
	}
}

func TestDataDirOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv(DataDirEnv, dir)

	got, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir: %v", err)
	}
	if got != dir {
		t.Errorf("GetDataDir = %s, want %s", got, dir)
	}
	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir: %v", err)
	}
	if want := filepath.Join(dir, "db"); dbDir != want {
		t.Errorf("GetDatabaseDir = %s, want %s", dbDir, want)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("database directory missing: %v", err)
	}
}
