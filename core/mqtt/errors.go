package mqtt

import "errors"

// ErrDecisionTimeout is returned when no decision is received before the timeout.
var ErrDecisionTimeout = errors.New("timeout waiting for decision")
