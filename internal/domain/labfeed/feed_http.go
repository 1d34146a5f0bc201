package labfeed

import (
	"context"
	"net/url"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

// HTTPFeed reads the lab feed from the clinic store over its REST API.
type HTTPFeed struct {
	client *store.Client
}

func NewHTTPFeed(client *store.Client) *HTTPFeed {
	return &HTTPFeed{client: client}
}

func (f *HTTPFeed) ListSince(ctx context.Context, since time.Time) ([]LabUpdate, error) {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	var updates []LabUpdate
	if err := f.client.Get(ctx, "/lab-updates", q, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (f *HTTPFeed) ListAll(ctx context.Context) ([]LabUpdate, error) {
	var updates []LabUpdate
	if err := f.client.Get(ctx, "/lab-results", nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
