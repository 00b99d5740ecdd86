package shortener

import (
	"context"
	"errors"

	"github.com/abdusco/linkzip/internal"
	"github.com/abdusco/linkzip/internal/metrics"
	"github.com/rs/zerolog"
)

type LinkReader interface {
	GetByCode(ctx context.Context, code string) (*internal.ShortLink, error)
}

// LinkCache is a look-aside cache for code lookups. Get returns (nil, nil) on a miss.
type LinkCache interface {
	Get(ctx context.Context, code string) (*internal.ShortLink, error)
	Set(ctx context.Context, link *internal.ShortLink) error
	Delete(ctx context.Context, code string) error
}

type Resolver struct {
	links  LinkReader
	cache  LinkCache
	logger zerolog.Logger
}

// NewResolver builds a Resolver; cache may be nil.
func NewResolver(links LinkReader, cache LinkCache, logger zerolog.Logger) *Resolver {
	return &Resolver{
		links:  links,
		cache:  cache,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve looks up an active link by code. It fails with internal.ErrLinkNotFound or
// internal.ErrLinkInactive; an inactive link is never reported as missing.
func (r *Resolver) Resolve(ctx context.Context, code string) (*internal.ShortLink, error) {
	if ValidateCode(code) != nil {
		metrics.Resolutions.WithLabelValues("not_found").Inc()
		return nil, internal.ErrLinkNotFound
	}

	link, err := r.lookup(ctx, code)
	switch {
	case errors.Is(err, internal.ErrLinkNotFound):
		metrics.Resolutions.WithLabelValues("not_found").Inc()
		return nil, err
	case err != nil:
		metrics.Resolutions.WithLabelValues("error").Inc()
		return nil, err
	case !link.Active:
		metrics.Resolutions.WithLabelValues("inactive").Inc()
		return nil, internal.ErrLinkInactive
	}

	metrics.Resolutions.WithLabelValues("ok").Inc()
	return link, nil
}

func (r *Resolver) lookup(ctx context.Context, code string) (*internal.ShortLink, error) {
	if r.cache != nil {
		link, err := r.cache.Get(ctx, code)
		if err != nil {
			r.logger.Warn().Err(err).Str("code", code).Msg("link cache read failed")
		}
		if link != nil {
			return link, nil
		}
	}

	link, err := r.links.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, link); err != nil {
			r.logger.Warn().Err(err).Str("code", code).Msg("link cache write failed")
		}
	}
	return link, nil
}

// Forget drops a cached lookup after the link changed.
func (r *Resolver) Forget(ctx context.Context, code string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, code); err != nil {
		r.logger.Warn().Err(err).Str("code", code).Msg("link cache invalidation failed")
	}
}
