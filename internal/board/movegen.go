package board

import "fmt"

// SimpleMovesFrom generates the non-capturing moves of the piece on from.
// Men step one square diagonally forward; kings slide any distance along
// each diagonal until blocked.
func (b *Board) SimpleMovesFrom(from Square) []Move {
	p := b.At(from)
	if p == nil {
		return nil
	}

	var moves []Move
	if p.IsKing() {
		for _, d := range Diagonals {
			for n := 1; ; n++ {
				to := from.Step(d, n)
				if !b.IsEmpty(to) {
					break
				}
				moves = append(moves, Move{Start: from, Path: []Square{to}})
			}
		}
		return moves
	}

	dr := forward(p.Color)
	for _, dc := range [2]int{-1, 1} {
		to := Sq(from.Row+dr, from.Col+dc)
		if b.IsEmpty(to) {
			moves = append(moves, Move{Start: from, Path: []Square{to}})
		}
	}
	return moves
}

// CaptureSequencesFrom generates every complete capture chain of the piece on
// from. Hops are played on the board and undone while searching, so a piece
// can never be jumped twice and the board is unchanged on return.
func (b *Board) CaptureSequencesFrom(from Square) []Move {
	if b.At(from) == nil {
		return nil
	}
	var (
		out      []Move
		path     []Square
		captured []Square
	)
	b.captureDFS(from, from, &path, &captured, &out)
	return out
}

func (b *Board) captureDFS(start, cur Square, path, captured *[]Square, out *[]Move) {
	p := b.At(cur)
	extended := false

	for _, d := range Diagonals {
		enemy, landings := b.captureRay(cur, p, d)
		if len(landings) == 0 || containsSquare(*captured, enemy) {
			continue
		}
		crown := b.rules.MidCapturePromotion && !p.IsKing()
		for _, land := range landings {
			extended = true
			hop := Move{Start: cur, Path: []Square{land}, Captured: []Square{enemy}}
			u := b.makeMove(hop, crown && land.Row == promotionRow(p.Color, b.size))

			*path = append(*path, land)
			*captured = append(*captured, enemy)
			b.captureDFS(start, land, path, captured, out)
			*path = (*path)[:len(*path)-1]
			*captured = (*captured)[:len(*captured)-1]

			b.UndoMove(u)
		}
	}

	if !extended && len(*captured) > 0 {
		*out = append(*out, Move{
			Start:    start,
			Path:     append([]Square(nil), *path...),
			Captured: append([]Square(nil), *captured...),
		})
	}
}

// captureRay finds the single capture available to p along d: the enemy
// square and every empty landing square behind it.
func (b *Board) captureRay(from Square, p *Piece, d Direction) (Square, []Square) {
	if !p.IsKing() {
		mid, land := from.Step(d, 1), from.Step(d, 2)
		if p.IsOpponent(b.At(mid)) && b.IsEmpty(land) {
			return mid, []Square{land}
		}
		return Square{}, nil
	}

	n := 1
	for b.IsEmpty(from.Step(d, n)) {
		n++
	}
	mid := from.Step(d, n)
	if !p.IsOpponent(b.At(mid)) {
		return Square{}, nil
	}
	var landings []Square
	for k := n + 1; b.IsEmpty(from.Step(d, k)); k++ {
		landings = append(landings, from.Step(d, k))
	}
	return mid, landings
}

// LegalMoves generates all legal moves for color c. When any capture exists
// only the capture sequences of maximal length, over all of c's pieces, are
// legal; otherwise every simple move is.
func (b *Board) LegalMoves(c Color) []Move {
	var captures, simple []Move
	longest := 0

	for _, sq := range b.Squares(c) {
		for _, m := range b.CaptureSequencesFrom(sq) {
			if n := len(m.Captured); n > longest {
				longest = n
				captures = captures[:0]
			} else if n < longest {
				continue
			}
			captures = append(captures, m)
		}
		if longest == 0 {
			simple = append(simple, b.SimpleMovesFrom(sq)...)
		}
	}

	if longest > 0 {
		return captures
	}
	return simple
}

// HasLegalMove returns true if color c can move at all.
func (b *Board) HasLegalMove(c Color) bool {
	squares := b.Squares(c)
	for _, sq := range squares {
		if len(b.SimpleMovesFrom(sq)) > 0 {
			return true
		}
	}
	for _, sq := range squares {
		if len(b.CaptureSequencesFrom(sq)) > 0 {
			return true
		}
	}
	return false
}

// Perft counts the leaf nodes of the legal move tree to the given depth, with
// c to move at the root. It panics if MakeMove rejects a generated move.
func (b *Board) Perft(c Color, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := b.LegalMoves(c)
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		u, err := b.MakeMove(m)
		if err != nil {
			panic(fmt.Sprintf("perft: generated move %s rejected: %v", m, err))
		}
		nodes += b.Perft(c.Other(), depth-1)
		b.UndoMove(u)
	}
	return nodes
}

func containsSquare(list []Square, sq Square) bool {
	for _, s := range list {
		if s == sq {
			return true
		}
	}
	return false
}
