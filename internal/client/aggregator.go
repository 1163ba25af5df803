package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"videohub/internal/domain"
	"videohub/internal/logging"
)

// DefaultConcurrency bounds how many endpoints are queried at once.
const DefaultConcurrency = 4

// maxFeedBytes caps one endpoint's metadata response.
const maxFeedBytes = 32 << 20

// FeedItem is a record tagged with the endpoint it came from.
type FeedItem struct {
	domain.Record
	Server string `json:"server"`
}

// URL is where the video bytes can be fetched: <server>/<path>.
func (i FeedItem) URL() string { return endpointURL(i.Server, i.Path) }

// SourceStatus is the outcome of querying one endpoint.
type SourceStatus struct {
	Endpoint string
	Count    int
	Err      error
	Skipped  bool // circuit open, no request was made
}

// FeedResult is the merged feed. Items keep endpoint registration order,
// and within one endpoint the order it returned.
type FeedResult struct {
	Items   []FeedItem
	Sources []SourceStatus
}

// Err summarises the failed endpoints, or nil when all answered.
func (r FeedResult) Err() error {
	var result *multierror.Error
	for _, s := range r.Sources {
		if s.Err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", s.Endpoint, s.Err))
		}
	}
	return result.ErrorOrNil()
}

// Aggregator collects the metadata of every registered endpoint.
type Aggregator struct {
	Endpoints   EndpointLister
	Client      *http.Client
	Concurrency int
	Breakers    *Breakers // optional
	Logger      *logging.Logger
}

// Load queries every endpoint. A failing endpoint contributes no records
// and never fails the whole load.
func (a *Aggregator) Load(ctx context.Context) FeedResult {
	endpoints := a.Endpoints.All()
	perEndpoint := make([][]FeedItem, len(endpoints))
	sources := make([]SourceStatus, len(endpoints))

	limit := a.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i, ep := range endpoints {
		g.Go(func() error {
			recs, err := a.fetchGuarded(ctx, ep)
			sources[i] = SourceStatus{Endpoint: ep, Count: len(recs), Err: err}
			if err != nil {
				sources[i].Skipped = errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrProbeInFlight)
				a.Logger.Warn("feed_endpoint_failed", map[string]any{
					"endpoint": ep,
					"skipped":  sources[i].Skipped,
					"error":    err.Error(),
				})
				return nil
			}
			items := make([]FeedItem, len(recs))
			for j, rec := range recs {
				items[j] = FeedItem{Record: rec, Server: ep}
			}
			perEndpoint[i] = items
			return nil
		})
	}
	_ = g.Wait()

	result := FeedResult{Items: []FeedItem{}, Sources: sources}
	for _, items := range perEndpoint {
		result.Items = append(result.Items, items...)
	}
	return result
}

func (a *Aggregator) fetchGuarded(ctx context.Context, endpoint string) ([]domain.Record, error) {
	if a.Breakers == nil {
		return a.fetch(ctx, endpoint)
	}
	var recs []domain.Record
	err := a.Breakers.For(endpoint).Execute(func() error {
		var err error
		recs, err = a.fetch(ctx, endpoint)
		return err
	})
	return recs, err
}

func (a *Aggregator) fetch(ctx context.Context, endpoint string) ([]domain.Record, error) {
	target := endpointURL(endpoint, "videos.php")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &domain.TransportError{Method: http.MethodGet, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c := a.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Method: http.MethodGet, URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.TransportError{
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	var recs []domain.Record
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&recs); err != nil {
		return nil, &domain.TransportError{
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode feed: %w", err),
		}
	}
	return recs, nil
}
