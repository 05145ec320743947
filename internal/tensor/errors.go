package tensor

import "errors"

var (
	// ErrShapeMismatch reports tensors whose dimensions violate an operation's contract.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrTokenOutOfRange reports a token id outside [0, vocab).
	ErrTokenOutOfRange = errors.New("token id out of range")
	// ErrSequenceTooLong reports a sequence longer than a precomputed table.
	ErrSequenceTooLong = errors.New("sequence length exceeds maximum")
)
