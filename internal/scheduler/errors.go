package scheduler

import "errors"

var ErrInvalidConfig = errors.New("scheduler_invalid_config")
