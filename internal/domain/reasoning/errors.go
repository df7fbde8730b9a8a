package reasoning

import "errors"

// ErrUnavailable indicates the reasoning model could not be reached or timed
// out. The orchestrator retries once with truncated context before giving up.
var ErrUnavailable = errors.New("reasoning model unavailable")
