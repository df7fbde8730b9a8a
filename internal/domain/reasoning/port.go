package reasoning

import (
	"context"
	"time"
)

// Client port for the external reasoning model. The returned text is
// untrusted free text; callers must parse defensively.
type Client interface {
	Ask(ctx context.Context, prompt string, timeout time.Duration) (string, error)
}
