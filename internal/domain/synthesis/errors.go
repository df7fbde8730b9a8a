package synthesis

import "errors"

// ErrSynthesisFailed is the only terminal error of the pipeline: the
// reasoning model was unavailable after the retry AND retrieval produced
// nothing to fall back on. Every other condition degrades sections instead.
var ErrSynthesisFailed = errors.New("synthesis failed: reasoning unavailable and no retrieval context")
