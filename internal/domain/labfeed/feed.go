package labfeed

import (
	"context"
	"time"
)

// Feed is the remote lab-result feed.
type Feed interface {
	// ListSince returns results with an effective timestamp at or after
	// the cursor.
	ListSince(ctx context.Context, since time.Time) ([]LabUpdate, error)
	// ListAll returns the complete result listing. Idempotent bulk fetch,
	// separate from the incremental path.
	ListAll(ctx context.Context) ([]LabUpdate, error)
}
