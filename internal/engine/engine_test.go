package engine

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/draughtsplay/internal/board"
)

func newTestEngine(t *testing.T, profile string, workers int) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.TTSizeMB = 4
	opts.Workers = workers
	return newTestEngineWith(t, profile, opts)
}

func newTestEngineWith(t *testing.T, profile string, opts Options) *Engine {
	t.Helper()
	p, err := BuiltinProfile(profile)
	if err != nil {
		t.Fatalf("BuiltinProfile(%q): %v", profile, err)
	}
	eng, err := NewEngine(p, opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(eng.Close)
	return eng
}

// playPlies commits n moves from the starting position, picking moves by a
// fixed pattern so the position is reproducible.
func playPlies(t *testing.T, size, n int) (*board.Board, board.Color) {
	t.Helper()
	b, err := board.New(board.DefaultRules().WithSize(size))
	if err != nil {
		t.Fatalf("board.New: %v", err)
	}
	side := board.White
	for i := 0; i < n; i++ {
		moves := b.LegalMoves(side)
		if len(moves) == 0 {
			break
		}
		if err := b.ApplyMove(moves[(i*5)%len(moves)]); err != nil {
			t.Fatalf("ApplyMove: %v", err)
		}
		side = side.Other()
	}
	return b, side
}

// naiveMinimax is plain minimax without pruning or caching.
func naiveMinimax(b *board.Board, ev Evaluator, maxColor board.Color, depth, ply int, maximizing bool) float64 {
	switch r := b.Result(); r {
	case board.Undetermined:
	case board.Draw:
		return DrawScore
	default:
		if r.Winner() == maxColor {
			return WinScore - float64(ply)
		}
		return -(WinScore - float64(ply))
	}
	if depth == 0 {
		return ev.Evaluate(b)
	}

	side := maxColor
	if !maximizing {
		side = maxColor.Other()
	}
	moves := b.LegalMoves(side)
	if len(moves) == 0 {
		return lossScore(maximizing, ply)
	}

	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	for _, m := range moves {
		u, err := b.MakeMove(m)
		if err != nil {
			continue
		}
		v := naiveMinimax(b, ev, maxColor, depth-1, ply+1, !maximizing)
		b.UndoMove(u)
		if maximizing {
			best = math.Max(best, v)
		} else {
			best = math.Min(best, v)
		}
	}
	return best
}

func isLegal(b *board.Board, side board.Color, m *board.Move) bool {
	for _, l := range b.LegalMoves(side) {
		if l.Equal(*m) {
			return true
		}
	}
	return false
}

func TestRecommendDepthZero(t *testing.T) {
	eng := newTestEngine(t, "expert", 1)
	b, _ := playPlies(t, 10, 6)

	for _, depth := range []int{0, -3} {
		score, move := eng.Recommend(b, depth, true)
		if move != nil {
			t.Errorf("depth %d returned move %s", depth, move)
		}
		if want := eng.Evaluate(b); score != want {
			t.Errorf("depth %d score = %v, want evaluation %v", depth, score, want)
		}
	}
}

func TestRecommendNoLegalMove(t *testing.T) {
	eng := newTestEngine(t, "balanced", 1)

	// Black (the maximizing color) is walled in.
	blocked, err := board.Parse(board.DefaultRules().WithSize(8), `
		.......b
		......w.
		.....w..
		........
		........
		........
		........
		........`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	score, move := eng.Recommend(blocked, 3, true)
	if move != nil {
		t.Errorf("got move %s for a blocked side", move)
	}
	if score != -WinScore {
		t.Errorf("score = %v, want %v", score, -WinScore)
	}

	// White, the minimizing side, is walled in.
	blocked, err = board.Parse(board.DefaultRules().WithSize(8), `
		........
		........
		........
		........
		........
		..b.....
		.b......
		w.......`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	score, move = eng.Recommend(blocked, 3, false)
	if move != nil {
		t.Errorf("got move %s for a blocked side", move)
	}
	if score != WinScore {
		t.Errorf("score = %v, want %v", score, WinScore)
	}
}

func TestRecommendDepthOneIsExtremal(t *testing.T) {
	b, side := playPlies(t, 10, 8)

	// Searching for either color covers both the maximizing and the
	// minimizing root.
	for _, maxColor := range []board.Color{board.White, board.Black} {
		opts := DefaultOptions()
		opts.TTSizeMB = 4
		opts.MaximizingColor = maxColor
		eng := newTestEngineWith(t, "expert", opts)
		maximizing := side == maxColor
		if eng.SideToMove(maximizing) != side {
			t.Fatalf("SideToMove(%v) = %v, want %v", maximizing, eng.SideToMove(maximizing), side)
		}

		score, move := eng.Recommend(b, 1, maximizing)
		if move == nil {
			t.Fatal("no move recommended")
		}

		want := math.Inf(-1)
		if !maximizing {
			want = math.Inf(1)
		}
		var moveEval float64
		work := b.Copy()
		for _, m := range work.LegalMoves(side) {
			u, err := work.MakeMove(m)
			if err != nil {
				t.Fatalf("MakeMove: %v", err)
			}
			v := eng.Evaluate(work)
			work.UndoMove(u)
			if maximizing {
				want = math.Max(want, v)
			} else {
				want = math.Min(want, v)
			}
			if m.Equal(*move) {
				moveEval = v
			}
		}

		if score != want {
			t.Errorf("maximizing=%v: score %v, want extremal %v", maximizing, score, want)
		}
		if moveEval != want {
			t.Errorf("maximizing=%v: move %s evaluates to %v, want %v", maximizing, move, moveEval, want)
		}
	}
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	positions := []struct {
		name  string
		size  int
		plies int
	}{
		{"start 8x8", 8, 0},
		{"opening 8x8", 8, 6},
		{"opening 10x10", 10, 4},
	}

	for _, tc := range positions {
		t.Run(tc.name, func(t *testing.T) {
			b, side := playPlies(t, tc.size, tc.plies)
			for depth := 1; depth <= 3; depth++ {
				eng := newTestEngine(t, "intermediate", 1)
				maximizing := side == eng.Options().MaximizingColor

				got, move := eng.Recommend(b, depth, maximizing)
				want := naiveMinimax(b.Copy(), eng.eval, eng.Options().MaximizingColor, depth, 0, maximizing)
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("depth %d: alpha-beta %v, minimax %v", depth, got, want)
				}
				if move == nil || !isLegal(b, side, move) {
					t.Errorf("depth %d: illegal move %v", depth, move)
				}
			}
		})
	}
}

func TestRecommendLeavesBoardUntouched(t *testing.T) {
	eng := newTestEngine(t, "aggressive", 1)
	b, side := playPlies(t, 10, 10)

	fp, hash := b.Fingerprint(), b.Hash()
	history := len(b.History())
	run := b.NoCaptureRun()

	eng.Recommend(b, 4, side == eng.Options().MaximizingColor)

	if b.Fingerprint() != fp || b.Hash() != hash {
		t.Error("search modified the board")
	}
	if len(b.History()) != history || b.NoCaptureRun() != run {
		t.Error("search modified the game counters")
	}
}

func TestRecommendFindsWinningCapture(t *testing.T) {
	eng := newTestEngine(t, "balanced", 1)
	b, err := board.Parse(board.DefaultRules().WithSize(8), `
		........
		........
		........
		....b...
		...w....
		........
		........
		........`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	score, move := eng.Recommend(b, 3, true)
	if move == nil || !move.IsCapture() {
		t.Fatalf("expected the capture, got %v", move)
	}
	if score != WinScore-1 {
		t.Errorf("score = %v, want %v", score, WinScore-1)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	for _, plies := range []int{0, 5, 9} {
		b, side := playPlies(t, 10, plies)

		seq := newTestEngine(t, "expert", 1)
		par := newTestEngine(t, "expert", 4)
		maximizing := side == seq.Options().MaximizingColor

		s1, m1 := seq.Recommend(b, 3, maximizing)
		s2, m2 := par.Recommend(b, 3, maximizing)

		if s1 != s2 {
			t.Errorf("plies %d: sequential score %v, parallel %v", plies, s1, s2)
		}
		if m1 == nil || m2 == nil || !m1.Equal(*m2) {
			t.Errorf("plies %d: sequential move %v, parallel %v", plies, m1, m2)
		}
	}
}

func TestSearchIterativeDeepening(t *testing.T) {
	eng := newTestEngine(t, "intermediate", 1)
	b, side := playPlies(t, 10, 4)

	var depths []int
	eng.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
	}

	info := eng.Search(b, side, SearchLimits{Depth: 3})
	if info.Depth != 3 {
		t.Errorf("depth = %d, want 3", info.Depth)
	}
	if len(depths) != 3 || depths[0] != 1 || depths[2] != 3 {
		t.Errorf("iterations reported: %v", depths)
	}
	if info.Move == nil || !isLegal(b, side, info.Move) {
		t.Fatalf("illegal move %v", info.Move)
	}
	if len(info.PV) == 0 || !info.PV[0].Equal(*info.Move) {
		t.Errorf("PV %v does not start with the best move %s", info.PV, info.Move)
	}
	t.Logf("Best move: %s score %.2f nodes %d", info.Move, info.Score, info.Nodes)
}

func TestSearchRespectsLimits(t *testing.T) {
	eng := newTestEngine(t, "expert", 1)
	b, side := playPlies(t, 10, 2)

	info := eng.Search(b, side, SearchLimits{Depth: 20, Nodes: 2000})
	if info.Move == nil || !isLegal(b, side, info.Move) {
		t.Fatalf("node-limited search returned %v", info.Move)
	}
	if info.Depth >= 20 {
		t.Errorf("node limit ignored: reached depth %d", info.Depth)
	}

	start := time.Now()
	info = eng.Search(b, side, SearchLimits{Depth: 20, MoveTime: 100 * time.Millisecond})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("time-limited search took %v", elapsed)
	}
	if info.Move == nil || !isLegal(b, side, info.Move) {
		t.Fatalf("time-limited search returned %v", info.Move)
	}
}

func TestSearchDifficulty(t *testing.T) {
	eng := newTestEngine(t, "balanced", 1)
	eng.SetDifficulty(Easy)
	b, side := playPlies(t, 8, 0)

	info := eng.SearchDifficulty(b, side)
	if info.Move == nil {
		t.Fatal("no move for the starting position")
	}
	if info.Depth > DifficultySettings[Easy].Depth {
		t.Errorf("depth %d exceeds the easy preset", info.Depth)
	}
}

func TestStatsAndClear(t *testing.T) {
	eng := newTestEngine(t, "expert", 1)
	b, side := playPlies(t, 10, 6)

	eng.Recommend(b, 4, side == eng.Options().MaximizingColor)
	st := eng.Stats()
	if st.Nodes == 0 {
		t.Error("no nodes counted")
	}
	if st.AlphaCutoffs+st.BetaCutoffs == 0 {
		t.Error("no cutoffs at depth 4")
	}

	eng.Clear()
	if st := eng.Stats(); st.Nodes != 0 || st.TTHits != 0 {
		t.Errorf("stats not reset: %+v", st)
	}
	if eng.tt.HashFull() != 0 {
		t.Error("transposition table not cleared")
	}
}

func TestEnginePerft(t *testing.T) {
	eng := newTestEngine(t, "balanced", 1)
	b := board.NewDefault()
	if got := eng.Perft(b, board.White, 2); got != 81 {
		t.Errorf("perft(2) = %d, want 81", got)
	}
}

// kingLoop is a 10x10 position where White's king captures four men and
// finishes on the square of the first one. stop adds a White man that makes
// that the only legal move.
func kingLoop(t *testing.T, stop bool) *board.Board {
	t.Helper()
	b, err := board.NewEmpty(board.DefaultRules())
	if err != nil {
		t.Fatalf("NewEmpty: %v", err)
	}
	pieces := map[board.Square]*board.Piece{
		board.Sq(7, 2): board.NewPiece(board.White, board.King),
		board.Sq(5, 4): board.NewPiece(board.Black, board.Man),
		board.Sq(2, 5): board.NewPiece(board.Black, board.Man),
		board.Sq(2, 3): board.NewPiece(board.Black, board.Man),
		board.Sq(4, 3): board.NewPiece(board.Black, board.Man),
	}
	if stop {
		pieces[board.Sq(6, 5)] = board.NewPiece(board.White, board.Man)
	}
	for sq, p := range pieces {
		if err := b.Place(sq, p); err != nil {
			t.Fatalf("Place: %v", err)
		}
	}
	return b
}

// captureLogs routes error logs into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.ErrorLevel)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestRecommendKingEndsOnCapturedSquare(t *testing.T) {
	logs := captureLogs(t)
	b := kingLoop(t, true)
	want := board.Move{
		Start:    board.Sq(7, 2),
		Path:     []board.Square{board.Sq(3, 6), board.Sq(1, 4), board.Sq(3, 2), board.Sq(5, 4)},
		Captured: []board.Square{board.Sq(5, 4), board.Sq(2, 5), board.Sq(2, 3), board.Sq(4, 3)},
	}

	for _, workers := range []int{1, 4} {
		eng := newTestEngine(t, "expert", workers)
		// Black maximizes, so White is the minimizing side.
		score, move := eng.Recommend(b, 2, false)
		if move == nil || !move.Equal(want) {
			t.Fatalf("workers %d: got %v, want %s", workers, move, want)
		}
		if score != -(WinScore - 1) {
			t.Errorf("workers %d: score %v, want %v", workers, score, -(WinScore - 1))
		}
	}
	if logs.Len() > 0 {
		t.Errorf("search rejected generated moves:\n%s", logs)
	}
}

func TestSearchPlaysEveryGeneratedMove(t *testing.T) {
	logs := captureLogs(t)

	boards := []*board.Board{kingLoop(t, false)}
	for _, plies := range []int{6, 14, 30} {
		b, _ := playPlies(t, 10, plies)
		boards = append(boards, b)
	}
	for _, b := range boards {
		if b.IsTerminal() {
			continue
		}
		for _, workers := range []int{1, 4} {
			eng := newTestEngine(t, "balanced", workers)
			for _, maximizing := range []bool{true, false} {
				side := eng.SideToMove(maximizing)
				if !b.HasLegalMove(side) {
					continue
				}
				_, move := eng.Recommend(b, 3, maximizing)
				if move == nil || !isLegal(b, side, move) {
					t.Errorf("workers %d, %s to move: got %v", workers, side, move)
				}
			}
		}
	}
	if logs.Len() > 0 {
		t.Errorf("search rejected generated moves:\n%s", logs)
	}
}

func TestRootSearchSurvivesRejectedMoves(t *testing.T) {
	logs := captureLogs(t)
	eng := newTestEngine(t, "expert", 2)
	b, _ := playPlies(t, 8, 0)

	// Moving from an empty square is rejected by MakeMove.
	bogus := []board.Move{
		{Start: board.Sq(4, 3), Path: []board.Square{board.Sq(3, 4)}},
		{Start: board.Sq(4, 5), Path: []board.Square{board.Sq(3, 6)}},
	}
	if res := eng.searchRootSequential(eng.newSearcher(b, eng.orderer), bogus, 2, true); res.move != nil {
		t.Errorf("sequential search picked %s", res.move)
	}
	if res := eng.searchRootParallel(b, bogus, 2, true); res.move != nil {
		t.Errorf("parallel search picked %s", res.move)
	}
	if logs.Len() == 0 {
		t.Error("rejected moves were not logged")
	}
}

func TestRecommendClampsDepth(t *testing.T) {
	eng := newTestEngine(t, "balanced", 1)
	b, err := board.Parse(board.DefaultRules().WithSize(8), `
		........
		........
		........
		....b...
		...w....
		........
		........
		........`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	score, move := eng.Recommend(b, 1000, true)
	if move == nil || score != WinScore-1 {
		t.Fatalf("got %v (%v), want the winning capture", move, score)
	}
	entry, ok := eng.tt.Probe(b.Hash() ^ board.ZobristSide(b.Size()))
	if !ok || int(entry.Depth) != MaxDepth {
		t.Errorf("root entry %+v (found %v), want depth %d", entry, ok, MaxDepth)
	}
}

func TestZeroWeightsPlayFirstOrderedMove(t *testing.T) {
	b, side := playPlies(t, 10, 4)
	var first *board.Move
	for i := 0; i < 3; i++ {
		eng := newTestEngine(t, "random-play", 1)
		score, move := eng.Recommend(b, 3, side == eng.Options().MaximizingColor)
		if score != 0 || move == nil {
			t.Fatalf("got %v (%v)", move, score)
		}
		if first == nil {
			first = move
		} else if !move.Equal(*first) {
			t.Errorf("run %d chose %s, earlier %s", i, move, first)
		}
	}
}
