package api

import (
	"errors"

	"github.com/samcharles93/transl8/internal/nn"
	"github.com/samcharles93/transl8/internal/tensor"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// isClientError reports whether err was caused by the request contents
// rather than by the server.
func isClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		tensor.ErrShapeMismatch,
		tensor.ErrTokenOutOfRange,
		tensor.ErrSequenceTooLong,
		nn.ErrInvalidConfig,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
