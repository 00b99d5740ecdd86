package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdusco/linkzip/internal"
	"github.com/abdusco/linkzip/internal/metrics"
	"github.com/rs/zerolog"
)

type LinkStore interface {
	CodeChecker
	LinkReader
	Create(ctx context.Context, link *internal.ShortLink) (*internal.ShortLink, error)
	GetByID(ctx context.Context, id int64) (*internal.ShortLink, error)
	SetActive(ctx context.Context, id int64, active bool) (*internal.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*internal.ShortLink, error)
}

// TitleFetcher returns a display title for a URL, falling back to the URL itself.
type TitleFetcher interface {
	Fetch(ctx context.Context, rawURL string) string
}

type ShortenInput struct {
	URL        string
	CustomCode string
	OwnerID    string
}

type Service struct {
	links      LinkStore
	allocator  *Allocator
	resolver   *Resolver
	titles     TitleFetcher
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

func NewService(links LinkStore, allocator *Allocator, resolver *Resolver, titles TitleFetcher, dispatcher *Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		links:      links,
		allocator:  allocator,
		resolver:   resolver,
		titles:     titles,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "shortener").Logger(),
	}
}

func (s *Service) Shorten(ctx context.Context, in ShortenInput) (*internal.ShortLink, error) {
	if err := ValidateURL(in.URL); err != nil {
		return nil, err
	}
	if in.CustomCode != "" {
		if err := ValidateCode(in.CustomCode); err != nil {
			return nil, err
		}
		// fail before spending the title fetch timeout on a code that cannot be used
		taken, err := s.allocator.taken(ctx, in.CustomCode)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%q: %w", in.CustomCode, internal.ErrCodeConflict)
		}
	}

	title := s.titles.Fetch(ctx, in.URL)

	var owner *string
	if in.OwnerID != "" {
		owner = &in.OwnerID
	}

	var created *internal.ShortLink
	code, err := s.allocator.Allocate(ctx, in.CustomCode, func(ctx context.Context, code string) error {
		link, err := s.links.Create(ctx, &internal.ShortLink{
			OwnerID:     owner,
			OriginalURL: in.URL,
			ShortCode:   code,
			Title:       title,
		})
		if err != nil {
			return err
		}
		created = link
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LinksCreated.Inc()
	s.logger.Info().
		Str("code", code).
		Bool("custom", in.CustomCode != "").
		Str("owner", in.OwnerID).
		Msg("url shortened")

	return created, nil
}

// Visit resolves code and hands click recording to the dispatcher without waiting for it.
func (s *Service) Visit(ctx context.Context, code string, visit Visit) (*internal.ShortLink, error) {
	link, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Submit(ctx, link.ID, visit)
	return link, nil
}

func (s *Service) ListLinks(ctx context.Context, ownerID string) ([]*internal.ShortLink, error) {
	if ownerID == "" {
		return nil, internal.ErrUnauthenticated
	}
	return s.links.ListByOwner(ctx, ownerID)
}

// SetActive flips the active flag of a link owned by ownerID.
func (s *Service) SetActive(ctx context.Context, id int64, ownerID string, active bool) (*internal.ShortLink, error) {
	if ownerID == "" {
		return nil, internal.ErrUnauthenticated
	}

	link, err := s.links.GetByID(ctx, id)
	if err != nil && !errors.Is(err, internal.ErrLinkNotFound) {
		return nil, err
	}
	if link == nil || !link.OwnedBy(ownerID) {
		return nil, internal.ErrAccessDenied
	}

	updated, err := s.links.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.resolver.Forget(ctx, updated.ShortCode)

	s.logger.Info().Int64("id", id).Bool("active", active).Msg("link activation changed")
	return updated, nil
}
