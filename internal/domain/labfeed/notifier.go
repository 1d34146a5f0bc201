package labfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier polls the lab feed on a fixed cadence and surfaces each result
// id at most once for its lifetime. The dedup set only grows; there is no
// re-notification. Nothing is persisted across restarts.
type Notifier struct {
	feed     feedSource
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time

	mu            sync.Mutex
	notifiedIDs   map[string]struct{}
	lastCheckedAt time.Time
	pending       []Notification
	viewActive    bool
	results       []LabUpdate

	stop chan struct{}
	done chan struct{}
}

// feedSource is the subset of Feed the notifier needs.
type feedSource interface {
	ListSince(ctx context.Context, since time.Time) ([]LabUpdate, error)
	ListAll(ctx context.Context) ([]LabUpdate, error)
}

func NewNotifier(feed feedSource, interval time.Duration, logger zerolog.Logger) *Notifier {
	return &Notifier{
		feed:        feed,
		logger:      logger,
		interval:    interval,
		now:         time.Now,
		notifiedIDs: make(map[string]struct{}),
	}
}

// Start launches the polling goroutine. It returns immediately; the loop
// runs until Stop is called or ctx is cancelled.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	if n.stop != nil {
		n.mu.Unlock()
		return
	}
	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	n.lastCheckedAt = n.now()
	stop, done := n.stop, n.done
	n.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				n.Poll(ctx)
			}
		}
	}()
}

// Stop halts the polling loop and waits for the in-flight tick, if any, to
// finish. Safe to call more than once.
func (n *Notifier) Stop() {
	n.mu.Lock()
	stop, done := n.stop, n.done
	n.stop, n.done = nil, nil
	n.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Poll runs one tick of the loop: query the feed since the cursor, surface
// the ids not seen before, and advance the cursor to the current instant.
// A failed query leaves the cursor where it was so the next tick re-queries
// the same window.
func (n *Notifier) Poll(ctx context.Context) {
	n.mu.Lock()
	since := n.lastCheckedAt
	n.mu.Unlock()

	updates, err := n.feed.ListSince(ctx, since)
	if err != nil {
		n.logger.Debug().Err(err).Time("since", since).Msg("lab feed poll failed")
		return
	}
	checkedAt := n.now()

	n.mu.Lock()
	var newOnes []LabUpdate
	for _, u := range updates {
		if _, seen := n.notifiedIDs[u.ID]; !seen {
			newOnes = append(newOnes, u)
		}
	}
	if len(newOnes) > 0 {
		note := Notification{
			ID:        uuid.New().String(),
			Updates:   newOnes,
			CreatedAt: checkedAt,
		}
		if len(newOnes) > 1 {
			note.Kind = KindAggregate
			note.Message = fmt.Sprintf("%d new lab results available", len(newOnes))
		} else {
			note.Kind = KindSingle
			note.Message = fmt.Sprintf("New lab result: %s for %s", newOnes[0].TestName, newOnes[0].PatientName)
		}
		n.pending = append(n.pending, note)
		for _, u := range newOnes {
			n.notifiedIDs[u.ID] = struct{}{}
		}
	}
	// Cursor moves to "now", not to the newest observed timestamp.
	n.lastCheckedAt = checkedAt
	refresh := n.viewActive
	n.mu.Unlock()

	if refresh {
		n.refreshResults(ctx)
	}
}

func (n *Notifier) refreshResults(ctx context.Context) {
	results, err := n.feed.ListAll(ctx)
	if err != nil {
		n.logger.Debug().Err(err).Msg("lab results refresh failed")
		return
	}
	n.mu.Lock()
	n.results = results
	n.mu.Unlock()
}

// Drain returns the notifications accumulated since the last call and
// clears the pending list. The dedup set is untouched.
func (n *Notifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}

// SetViewActive toggles the bulk refresh that runs alongside each tick
// while the results listing is on screen.
func (n *Notifier) SetViewActive(active bool) {
	n.mu.Lock()
	n.viewActive = active
	n.mu.Unlock()
}

// CachedResults returns the listing captured by the most recent bulk
// refresh.
func (n *Notifier) CachedResults() []LabUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]LabUpdate, len(n.results))
	copy(out, n.results)
	return out
}
