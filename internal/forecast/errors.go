package forecast

import "errors"

// ErrProvider marks failures of the outbound weather provider call.
// Handlers map it to an upstream-failure status.
var ErrProvider = errors.New("weather provider request failed")
