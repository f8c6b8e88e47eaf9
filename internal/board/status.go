package board

// Outcome is the result of a game.
type Outcome uint8

const (
	Undetermined Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

// String returns a short outcome name.
func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "white-wins"
	case BlackWins:
		return "black-wins"
	case Draw:
		return "draw"
	default:
		return "undetermined"
	}
}

// Winner returns the winning color, or NoColor for draws and open games.
func (o Outcome) Winner() Color {
	switch o {
	case WhiteWins:
		return White
	case BlackWins:
		return Black
	default:
		return NoColor
	}
}

// LossFor returns the outcome in which color c loses.
func LossFor(c Color) Outcome {
	if c == White {
		return BlackWins
	}
	return WhiteWins
}

// Repetitions returns how many times the current position occurs in the
// history log, the current occurrence included.
func (b *Board) Repetitions() int {
	n := 0
	for _, h := range b.history {
		if h == b.hash {
			n++
		}
	}
	return n
}

// IsTerminal returns true if a side has no pieces left, the no-capture run has
// reached its limit, or the current position has been repeated too often.
// A side with pieces but no legal move is not detected here; callers handle
// that through LegalMoves.
func (b *Board) IsTerminal() bool {
	return b.Result() != Undetermined
}

// Result classifies the board from the material, no-capture and repetition
// rules. Material is checked first.
func (b *Board) Result() Outcome {
	white, black := b.CountPieces(White), b.CountPieces(Black)
	switch {
	case white == 0 && black == 0:
		return Draw
	case white == 0:
		return BlackWins
	case black == 0:
		return WhiteWins
	}
	if b.noCaptureRun >= b.rules.NoCaptureLimit {
		return Draw
	}
	if b.Repetitions() >= b.rules.RepetitionLimit {
		return Draw
	}
	return Undetermined
}
