package board

import "sync"

// zobristTable holds hash keys for one board size.
// Index: (square index * 2 + color) * 2 + rank.
type zobristTable struct {
	size   int
	pieces []uint64
	side   uint64
}

var zobristTables = struct {
	mu     sync.Mutex
	tables map[int]*zobristTable
}{tables: make(map[int]*zobristTable)}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// zobristFor returns the key table for a board size, building it on first use.
func zobristFor(size int) *zobristTable {
	zobristTables.mu.Lock()
	defer zobristTables.mu.Unlock()
	if t, ok := zobristTables.tables[size]; ok {
		return t
	}

	rng := newPRNG(0x98F107A2BEEF1234 ^ uint64(size)) // Fixed seed per size
	t := &zobristTable{size: size, pieces: make([]uint64, size*size*4)}
	for i := range t.pieces {
		t.pieces[i] = rng.next()
	}
	t.side = rng.next()
	zobristTables.tables[size] = t
	return t
}

func (z *zobristTable) piece(sq Square, p *Piece) uint64 {
	idx := ((sq.Row*z.size+sq.Col)*2+int(p.Color))*2 + int(p.Rank)
	return z.pieces[idx]
}

// ZobristSide returns the key mixed into search keys when Black is to move.
// Board hashes themselves never include the side to move.
func ZobristSide(size int) uint64 {
	return zobristFor(size).side
}
