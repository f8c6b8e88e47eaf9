package board

import "fmt"

const (
	DefaultSize = 10
	MinSize     = 8

	// DefaultNoCaptureLimit is the number of consecutive committed moves
	// without a capture after which the game is drawn.
	DefaultNoCaptureLimit = 50

	// DefaultRepetitionLimit is the occurrence count of one position that
	// draws the game.
	DefaultRepetitionLimit = 3
)

// Rules configures a board.
type Rules struct {
	Size            int `json:"size"`
	NoCaptureLimit  int `json:"no_capture_limit"`
	RepetitionLimit int `json:"repetition_limit"`

	// MidCapturePromotion crowns a man as soon as it lands on its promotion
	// row, even in the middle of a capture sequence. The rest of that
	// sequence is then played as a king.
	MidCapturePromotion bool `json:"mid_capture_promotion"`
}

// DefaultRules returns the 10×10 international setup.
func DefaultRules() Rules {
	return Rules{
		Size:                DefaultSize,
		NoCaptureLimit:      DefaultNoCaptureLimit,
		RepetitionLimit:     DefaultRepetitionLimit,
		MidCapturePromotion: true,
	}
}

// WithSize returns a copy of the rules using another board size.
func (r Rules) WithSize(size int) Rules {
	r.Size = size
	return r
}

// Validate checks the rules for consistency.
func (r Rules) Validate() error {
	if r.Size < MinSize {
		return fmt.Errorf("%w: size %d is below %d", ErrInvalidConfig, r.Size, MinSize)
	}
	if r.Size%2 != 0 {
		return fmt.Errorf("%w: size %d is odd", ErrInvalidConfig, r.Size)
	}
	if r.NoCaptureLimit <= 0 {
		return fmt.Errorf("%w: no-capture limit must be positive, got %d", ErrInvalidConfig, r.NoCaptureLimit)
	}
	if r.RepetitionLimit <= 1 {
		return fmt.Errorf("%w: repetition limit must be at least 2, got %d", ErrInvalidConfig, r.RepetitionLimit)
	}
	return nil
}
