package nn

import "errors"

// ErrInvalidConfig reports hyperparameters that cannot build a module.
var ErrInvalidConfig = errors.New("invalid module configuration")
