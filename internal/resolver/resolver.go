// Package resolver turns media addresses into assets, following addresses
// embedded in metadata until no new ones turn up.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediauri"
	"github.com/mmcdole/baldr/internal/store"
)

// DefaultConcurrency bounds the fetches issued per round.
const DefaultConcurrency = 8

// Resolver resolves media addresses within one session.
type Resolver struct {
	client  domain.MetadataClient
	session *store.Session
	logger  *slog.Logger

	bestEffort   bool
	mediaBaseURL string
	concurrency  int

	inflight singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithBestEffort controls what happens when an address discovered inside
// metadata cannot be fetched. When false (the default) the whole call fails.
// When true the reference is logged, reported in Result.Skipped and dropped.
// Addresses passed by the caller, and cancellation of ctx, always fail the
// call.
func WithBestEffort(enabled bool) Option {
	return func(r *Resolver) { r.bestEffort = enabled }
}

// WithMediaBaseURL sets the prefix joined with metadata paths to form asset
// locators.
func WithMediaBaseURL(url string) Option {
	return func(r *Resolver) { r.mediaBaseURL = url }
}

// WithConcurrency bounds the number of concurrent fetches per round.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a resolver. A nil session starts a fresh one.
func New(client domain.MetadataClient, session *store.Session, opts ...Option) *Resolver {
	if session == nil {
		session = store.NewSession()
	}
	r := &Resolver{
		client:      client,
		session:     session,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Session returns the session holding the caches.
func (r *Resolver) Session() *store.Session {
	return r.session
}

// Skipped describes a discovered reference dropped in best-effort mode.
type Skipped struct {
	URI      string
	Referrer string
	Err      error
}

// Result is the outcome of one Resolve call.
type Result struct {
	// Assets touched by the call: requested addresses first in caller order,
	// then discoveries in the order their referrers were materialized.
	Assets []*domain.Asset

	// Skipped lists references dropped in best-effort mode.
	Skipped []Skipped
}

type pending struct {
	uri      mediauri.URI
	referrer string
}

// Resolve resolves uris and every address reachable from their metadata.
// Fragments are ignored. A failure to fetch a requested address returns an
// *domain.UnresolvedMediaError; failures for discovered addresses do too
// unless best-effort mode is on. Invalid addresses and invalid metadata are
// always returned as errors.
func (r *Resolver) Resolve(ctx context.Context, uris ...string) (*Result, error) {
	visited := make(map[string]bool)
	var frontier []pending
	for _, raw := range uris {
		u, err := mediauri.Parse(raw)
		if err != nil {
			return nil, err
		}
		u = u.WithoutFragment()
		key := r.canonicalKey(u)
		if visited[key] {
			continue
		}
		visited[key] = true
		frontier = append(frontier, pending{uri: u})
	}

	result := &Result{}
	included := make(map[*domain.Asset]bool)

	for round := 1; len(frontier) > 0; round++ {
		r.logger.Debug("resolving round", "round", round, "pending", len(frontier))

		cached, raws, failures, err := r.fetchRound(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var next []pending
		for i, p := range frontier {
			if failures[i] != nil {
				r.logger.Warn("skipping unresolved media reference",
					"uri", p.uri.String(), "referrer", p.referrer, "error", failures[i])
				result.Skipped = append(result.Skipped, Skipped{URI: p.uri.String(), Referrer: p.referrer, Err: failures[i]})
				continue
			}

			asset := cached[i]
			if asset == nil {
				built, err := domain.NewAsset(p.uri, r.mediaBaseURL, raws[i])
				if err != nil {
					return nil, err
				}
				asset, _ = r.session.Register(built)
			}

			if !included[asset] {
				included[asset] = true
				result.Assets = append(result.Assets, asset)
			}
			for _, alias := range []string{asset.URI.String(), asset.RefURI(), asset.UUIDURI()} {
				if alias != "" {
					visited[alias] = true
				}
			}

			for _, ref := range asset.References {
				u, err := mediauri.Parse(ref)
				if err != nil {
					continue
				}
				key := r.canonicalKey(u)
				if visited[key] {
					continue
				}
				visited[key] = true
				next = append(next, pending{uri: u, referrer: asset.URI.String()})
			}
		}
		frontier = next
	}

	r.logger.Debug("resolved media", "requested", len(uris), "assets", len(result.Assets), "skipped", len(result.Skipped))
	return result, nil
}

// fetchRound looks up or fetches every frontier entry concurrently. For
// entry i exactly one of cached[i], raws[i] or failures[i] is set; failures
// are only recorded for references that may be skipped.
func (r *Resolver) fetchRound(ctx context.Context, frontier []pending) ([]*domain.Asset, []jsonvalue.Value, []error, error) {
	cached := make([]*domain.Asset, len(frontier))
	raws := make([]jsonvalue.Value, len(frontier))
	failures := make([]error, len(frontier))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, p := range frontier {
		if a, ok := r.session.Assets.Get(p.uri.String()); ok {
			r.logger.Debug("asset cache hit", "uri", p.uri.String())
			cached[i] = a
			continue
		}
		i, p := i, p
		g.Go(func() error {
			raw, err := r.fetch(gctx, p.uri)
			if err == nil {
				raws[i] = raw
				return nil
			}
			unresolved := &domain.UnresolvedMediaError{URI: p.uri.String(), Referrer: p.referrer, Err: err}
			if p.referrer != "" && r.bestEffort && ctx.Err() == nil {
				failures[i] = unresolved
				return nil
			}
			return unresolved
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return cached, raws, failures, nil
}

// fetch returns the metadata for a canonical address. Concurrent callers
// asking for the same address share one request; results are memoized in
// the session.
func (r *Resolver) fetch(ctx context.Context, u mediauri.URI) (jsonvalue.Value, error) {
	key := u.String()
	if raw, ok := r.session.Raw(key); ok {
		return raw, nil
	}

	ch := r.inflight.DoChan(key, func() (any, error) {
		if raw, ok := r.session.Raw(key); ok {
			return raw, nil
		}
		// Shared by all waiting callers; detached from the leader's cancellation.
		raw, err := r.client.Fetch(context.WithoutCancel(ctx), u.Scheme, u.Authority)
		if err != nil {
			r.logger.Error("failed to fetch media metadata", "error", err, "uri", key)
			return nil, err
		}
		if raw.IsNull() {
			return nil, fmt.Errorf("fetch %s: %w", key, domain.ErrNotFound)
		}
		r.session.StoreRaw(key, raw)
		r.logger.Debug("fetched media metadata", "uri", key)
		return raw, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return jsonvalue.Value{}, res.Err
		}
		return res.Val.(jsonvalue.Value), nil
	case <-ctx.Done():
		return jsonvalue.Value{}, ctx.Err()
	}
}

// canonicalKey returns the ref form of u when its uuid is known.
func (r *Resolver) canonicalKey(u mediauri.URI) string {
	u, _ = r.session.Translator.Ref(u.WithoutFragment())
	return u.String()
}

// ResolveSingle resolves one address and returns its asset.
func (r *Resolver) ResolveSingle(ctx context.Context, uri string) (*domain.Asset, error) {
	res, err := r.Resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	if len(res.Assets) == 0 {
		return nil, &domain.UnresolvedMediaError{URI: uri, Err: domain.ErrNotFound}
	}
	return res.Assets[0], nil
}

// ResolveSample resolves the asset of a sample address and returns the
// sample. An address without fragment names the complete sample.
func (r *Resolver) ResolveSample(ctx context.Context, uri string) (*domain.Sample, error) {
	if _, err := r.ResolveSingle(ctx, uri); err != nil {
		return nil, err
	}
	return r.Sample(uri)
}

// ResolveParts resolves a multi-part asset and applies the fragment of uri
// as part selector. No fragment selects every part.
func (r *Resolver) ResolveParts(ctx context.Context, uri string) (*domain.MultiPartSelection, error) {
	u, err := mediauri.Parse(uri)
	if err != nil {
		return nil, err
	}
	asset, err := r.ResolveSingle(ctx, uri)
	if err != nil {
		return nil, err
	}
	return asset.SelectParts(u.Fragment)
}

// Asset returns a cached asset without fetching.
func (r *Resolver) Asset(uri string) (*domain.Asset, bool) {
	return r.session.Assets.Get(uri)
}

// Sample returns a cached sample without fetching. An address without
// fragment names the complete sample.
func (r *Resolver) Sample(uri string) (*domain.Sample, error) {
	u, err := mediauri.Parse(uri)
	if err != nil {
		return nil, err
	}
	if !u.HasFragment() {
		u.Fragment = domain.CompleteSampleName
	}
	if s, ok := r.session.Samples.Get(u.String()); ok {
		return s, nil
	}
	return nil, &domain.SampleNotFoundError{URI: u.String()}
}

// Assets returns every cached asset in resolution order.
func (r *Resolver) Assets() []*domain.Asset {
	return r.session.Assets.All()
}

// Samples returns every cached sample in resolution order.
func (r *Resolver) Samples() []*domain.Sample {
	return r.session.Samples.All()
}

// Reset clears the session so the next call starts from scratch.
func (r *Resolver) Reset() {
	r.session.Reset()
	r.logger.Info("resolution session reset")
}

// IsUnresolved reports whether err was caused by an address that could not
// be fetched.
func IsUnresolved(err error) bool {
	var unresolved *domain.UnresolvedMediaError
	return errors.As(err, &unresolved)
}
