package transformer

import (
	"fmt"

	"github.com/samcharles93/transl8/internal/nn"
)

// Config describes the encoder-decoder stack.
type Config struct {
	Dim           int
	Heads         int
	EncoderLayers int
	DecoderLayers int
	FeedForward   int
	Dropout       float32
}

// Validate reports hyperparameters the stack cannot be built with.
func (c Config) Validate() error {
	switch {
	case c.Dim <= 0:
		return fmt.Errorf("model dim must be positive, got %d: %w", c.Dim, nn.ErrInvalidConfig)
	case c.Heads <= 0 || c.Dim%c.Heads != 0:
		return fmt.Errorf("model dim %d not divisible by %d heads: %w", c.Dim, c.Heads, nn.ErrInvalidConfig)
	case c.EncoderLayers < 0 || c.DecoderLayers < 0:
		return fmt.Errorf("layer counts must be non-negative: %w", nn.ErrInvalidConfig)
	case c.FeedForward <= 0:
		return fmt.Errorf("feedforward dim must be positive, got %d: %w", c.FeedForward, nn.ErrInvalidConfig)
	case c.Dropout < 0 || c.Dropout >= 1:
		return fmt.Errorf("dropout must be in [0,1), got %g: %w", c.Dropout, nn.ErrInvalidConfig)
	}
	return nil
}
