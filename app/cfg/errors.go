package cfg

import "errors"

var ErrInvalidConfig = errors.New("invalid config")
