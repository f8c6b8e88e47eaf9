package engine

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/draughtsplay/internal/board"
)

// SearchInfo contains information about a completed search iteration.
type SearchInfo struct {
	Depth    int
	Score    float64
	Move     *board.Move // nil when the side to move has no legal move
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           `json:"depth"`     // Maximum depth (0 = DefaultDepth)
	Nodes    uint64        `json:"nodes"`     // Maximum nodes (0 = no limit)
	MoveTime time.Duration `json:"move_time"` // Time for this move (0 = no limit)
}

// DefaultDepth bounds iterative deepening when no depth is given.
const DefaultDepth = 6

// MaxDepth is the deepest search the transposition table can record.
const MaxDepth = math.MaxInt8

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply, 500ms
	Medium                   // 4 ply, 2s
	Hard                     // 6 ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 4, MoveTime: 2 * time.Second},
	Hard:   {Depth: 6, MoveTime: 5 * time.Second},
}

// Options configures an Engine.
type Options struct {
	// MaximizingColor is the color whose score the engine maximizes. The side
	// to move is MaximizingColor when maximizing is true, its opponent otherwise.
	MaximizingColor  board.Color `json:"maximizing_color"`
	TTSizeMB         int         `json:"tt_size_mb"`
	EvalCacheEntries int         `json:"eval_cache_entries"` // 0 disables the cache
	Workers          int         `json:"workers"`            // Root-split goroutines, 1 = sequential
}

// DefaultOptions returns the options used by NewEngine callers that do not care.
func DefaultOptions() Options {
	return Options{
		MaximizingColor:  board.Black,
		TTSizeMB:         16,
		EvalCacheEntries: 1 << 16,
		Workers:          1,
	}
}

// Engine is the draughts AI engine. Searches on one Engine are serialized;
// use one Engine per concurrent game.
type Engine struct {
	mu sync.Mutex

	opts       Options
	eval       Evaluator
	tt         *TranspositionTable
	cache      *EvalCache
	orderer    *MoveOrderer
	stats      Stats
	tm         atomic.Pointer[TimeManager] // Budget of the running Search
	difficulty Difficulty

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine evaluating with the given weight profile.
func NewEngine(p Profile, opts Options) (*Engine, error) {
	var cache *EvalCache
	if opts.EvalCacheEntries > 0 {
		c, err := NewEvalCache(opts.EvalCacheEntries)
		if err != nil {
			return nil, err
		}
		cache = c
	}
	ev, err := NewWeightedEvaluator(p, opts.MaximizingColor, cache)
	if err != nil {
		cache.Close()
		return nil, err
	}
	e := NewEngineWithEvaluator(ev, opts)
	e.cache = cache
	return e, nil
}

// NewEngineWithEvaluator creates an engine around a custom evaluator. The
// evaluator must score from opts.MaximizingColor's point of view.
func NewEngineWithEvaluator(ev Evaluator, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{
		opts:       opts,
		eval:       ev,
		tt:         NewTranspositionTable(opts.TTSizeMB),
		orderer:    NewMoveOrderer(),
		difficulty: Medium,
	}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.mu.Lock()
	e.difficulty = d
	e.mu.Unlock()
}

// SideToMove maps the maximizing flag to a color.
func (e *Engine) SideToMove(maximizing bool) board.Color {
	if maximizing {
		return e.opts.MaximizingColor
	}
	return e.opts.MaximizingColor.Other()
}

// Recommend searches b to a fixed depth and returns the score for the
// maximizing color and the chosen move. The move is nil when the side to move
// has no legal move, or when depth <= 0 or the board is already decided; the
// score is then the evaluation, or a loss for the side to move. Depths above
// MaxDepth are clamped. b itself is never modified.
func (e *Engine) Recommend(b *board.Board, depth int, maximizing bool) (float64, *board.Move) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tt.NewSearch()
	res := e.searchRoot(b.Copy(), min(depth, MaxDepth), maximizing)
	return res.score, res.move
}

// Search runs iterative deepening for side within limits and returns the
// last completed iteration.
func (e *Engine) Search(b *board.Board, side board.Color, limits SearchLimits) SearchInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tt.NewSearch()
	e.orderer.Clear()
	tm := NewTimeManager(limits)
	e.tm.Store(tm)
	defer e.tm.Store(nil)

	maxDepth := limits.Depth
	if maxDepth <= 0 {
		maxDepth = DefaultDepth
	}
	maxDepth = min(maxDepth, MaxDepth)
	maximizing := side == e.opts.MaximizingColor
	work := b.Copy()

	var info SearchInfo
	for depth := 1; depth <= maxDepth; depth++ {
		res := e.searchRoot(work, depth, maximizing)
		if tm.ShouldStop() && depth > 1 {
			break
		}

		info = SearchInfo{
			Depth:    depth,
			Score:    res.score,
			Move:     res.move,
			Nodes:    tm.Nodes(),
			Time:     tm.Elapsed(),
			HashFull: e.tt.HashFull(),
		}
		info.PV = e.principalVariation(work, side, depth)

		log.Debug().
			Int("depth", depth).
			Float64("score", res.score).
			Uint64("nodes", info.Nodes).
			Dur("elapsed", info.Time).
			Msg("search-iteration")

		if e.OnInfo != nil {
			e.OnInfo(info)
		}

		// Nothing left to search or a forced result was found
		if res.move == nil || math.Abs(res.score) > WinScore-MaxPly {
			break
		}
		if tm.ShouldStop() || tm.PastOptimum() {
			break
		}
	}
	return info
}

// SearchDifficulty runs Search with the limits of the configured difficulty.
func (e *Engine) SearchDifficulty(b *board.Board, side board.Color) SearchInfo {
	e.mu.Lock()
	limits := DifficultySettings[e.difficulty]
	e.mu.Unlock()
	return e.Search(b, side, limits)
}

// Stop aborts the running Search, if any. Recommend is never interrupted.
func (e *Engine) Stop() {
	e.tm.Load().Stop()
}

// rootResult is the outcome of one fixed-depth root search.
type rootResult struct {
	score float64
	move  *board.Move
}

// searchRoot searches b, which the caller hands over exclusively.
func (e *Engine) searchRoot(b *board.Board, depth int, maximizing bool) rootResult {
	s := e.newSearcher(b, e.orderer)
	e.stats.Nodes.Add(1)

	if depth <= 0 {
		return rootResult{score: s.leaf(0)}
	}
	if score, ok := s.terminal(0); ok {
		return rootResult{score: score}
	}

	side := s.side(maximizing)
	moves := b.LegalMoves(side)
	if len(moves) == 0 {
		return rootResult{score: lossScore(maximizing, 0)}
	}

	var ttMove board.Move
	if entry, ok := e.tt.Probe(s.key(side)); ok {
		ttMove = entry.BestMove
	}
	ordered := e.orderer.Order(b, moves, 0, ttMove)

	var res rootResult
	if e.opts.Workers > 1 && len(ordered) > 1 {
		res = e.searchRootParallel(b, ordered, depth, maximizing)
	} else {
		res = e.searchRootSequential(s, ordered, depth, maximizing)
	}

	if s.stopped() {
		// Safety fallback: an aborted iteration still yields a legal move
		if res.move == nil {
			res.move = &ordered[0]
		}
		return res
	}
	if res.move == nil {
		// Every root move was rejected by MakeMove; treat the side as blocked
		return rootResult{score: lossScore(maximizing, 0)}
	}
	e.tt.Store(s.key(side), depth, res.score, TTExact, *res.move)
	return res
}

// searchRootSequential keeps the first best move in search order.
func (e *Engine) searchRootSequential(s *Searcher, ordered []board.Move, depth int, maximizing bool) rootResult {
	alpha, beta := -Infinity, Infinity
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	var bestMove *board.Move

	for i := range ordered {
		m := ordered[i]
		u, err := s.push(m)
		if err != nil {
			continue
		}
		score, _ := s.minimax(depth-1, 1, alpha, beta, !maximizing)
		s.pop(u)
		if s.stopped() {
			break
		}

		if maximizing && score > best || !maximizing && score < best {
			best, bestMove = score, &ordered[i]
			if maximizing {
				alpha = max(alpha, best)
			} else {
				beta = min(beta, best)
			}
		}
	}
	return rootResult{score: best, move: bestMove}
}

func (e *Engine) newSearcher(b *board.Board, orderer *MoveOrderer) *Searcher {
	return newSearcher(b, e.eval, e.tt, orderer, &e.stats, e.tm.Load(), e.opts.MaximizingColor)
}

// principalVariation follows best moves stored in the table from b.
func (e *Engine) principalVariation(b *board.Board, side board.Color, depth int) []board.Move {
	work := b.Copy()
	sideKey := board.ZobristSide(work.Size())
	var pv []board.Move
	for len(pv) < depth {
		key := work.Hash()
		if side == board.Black {
			key ^= sideKey
		}
		entry, ok := e.tt.Probe(key)
		if !ok || !entry.HasMove() {
			break
		}
		if _, err := work.MakeMove(entry.BestMove); err != nil {
			break
		}
		pv = append(pv, entry.BestMove)
		side = side.Other()
	}
	return pv
}

// Evaluate returns the static evaluation of b for the maximizing color.
func (e *Engine) Evaluate(b *board.Board) float64 {
	return e.eval.Evaluate(b)
}

// Stats returns the counters accumulated since the last Clear.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.snapshot()
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	e.cache.Clear()
	e.orderer.Clear()
	e.stats.reset()
}

// Close releases the evaluation cache.
func (e *Engine) Close() {
	e.cache.Close()
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(b *board.Board, side board.Color, depth int) uint64 {
	return b.Copy().Perft(side, depth)
}
