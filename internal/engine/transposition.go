package engine

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/hailam/draughtsplay/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// Number of shards for TT locking (power of 2 for fast modulo)
const ttShardCount = 256
const ttShardMask = ttShardCount - 1

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64     // Position hash mixed with the side to move
	BestMove board.Move // Empty path when no move is known
	Score    float64    // Score (bounded by flag)
	Depth    int8       // Remaining depth the score was searched to
	Flag     TTFlag     // Type of bound
	Age      uint8      // Generation for replacement
}

// HasMove returns true if the entry carries a best move.
func (e TTEntry) HasMove() bool {
	return len(e.BestMove.Path) > 0
}

// TranspositionTable is a hash table for storing search results.
// Uses sharded locking so root-split workers can share it.
type TranspositionTable struct {
	entries []TTEntry
	shards  [ttShardCount]sync.RWMutex // Sharded locks
	size    uint64
	mask    uint64
	age     atomic.Uint32

	// Statistics (atomic for thread-safety)
	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(unsafe.Sizeof(TTEntry{}))
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize

	// Round down to power of 2 for fast modulo
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries < ttShardCount {
		numEntries = ttShardCount
	}

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// shardIndex returns the shard index for a given entry index.
func (tt *TranspositionTable) shardIndex(idx uint64) int {
	return int(idx & ttShardMask)
}

// Probe looks up a position in the transposition table.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	tt.probes.Add(1)

	idx := key & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].RLock()
	entry := tt.entries[idx]
	tt.shards[shard].RUnlock()

	// Depth 0 entries are leaf evaluations, left to the eval cache
	if entry.Key == key && entry.Depth > 0 {
		tt.hits.Add(1)
		return entry, true
	}

	return TTEntry{}, false
}

// Store saves a search result in the transposition table.
func (tt *TranspositionTable) Store(key uint64, depth int, score float64, flag TTFlag, bestMove board.Move) {
	depth = min(depth, MaxDepth)
	idx := key & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].Lock()
	entry := &tt.entries[idx]

	// Replace entries from older searches, or shallower ones from this search
	currentAge := uint8(tt.age.Load())
	if entry.Age != currentAge || depth >= int(entry.Depth) {
		entry.Key = key
		entry.BestMove = bestMove
		entry.Score = score
		entry.Depth = int8(depth)
		entry.Flag = flag
		entry.Age = currentAge
	}
	tt.shards[shard].Unlock()
}

// NewSearch increments the age counter for a new search.
// This helps with replacement decisions.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for s := range tt.shards {
		tt.shards[s].Lock()
	}
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	for s := range tt.shards {
		tt.shards[s].Unlock()
	}
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	currentAge := uint8(tt.age.Load())
	for i := 0; i < sampleSize; i++ {
		shard := tt.shardIndex(uint64(i))
		tt.shards[shard].RLock()
		e := tt.entries[i]
		tt.shards[shard].RUnlock()
		if e.Depth > 0 && e.Age == currentAge {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT converts a stored win score back to the distance from
// the current node.
func AdjustScoreFromTT(score float64, ply int) float64 {
	if score > WinScore-MaxPly {
		return score - float64(ply)
	}
	if score < -WinScore+MaxPly {
		return score + float64(ply)
	}
	return score
}

// AdjustScoreToTT stores win scores relative to the node instead of the root.
func AdjustScoreToTT(score float64, ply int) float64 {
	if score > WinScore-MaxPly {
		return score + float64(ply)
	}
	if score < -WinScore+MaxPly {
		return score - float64(ply)
	}
	return score
}
