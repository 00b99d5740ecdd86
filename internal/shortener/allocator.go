package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdusco/linkzip/internal"
	"github.com/abdusco/linkzip/internal/metrics"
	"github.com/rs/zerolog"
)

const DefaultMaxAttempts = 10

// CodeChecker reports whether a short code is already assigned.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// ClaimFunc persists a record under code. It must return an error wrapping
// internal.ErrAlreadyExists when the store's uniqueness constraint rejects the code.
type ClaimFunc func(ctx context.Context, code string) error

type Allocator struct {
	codes       CodeChecker
	generator   Generator
	maxAttempts int
	logger      zerolog.Logger
}

func NewAllocator(codes CodeChecker, generator Generator, maxAttempts int, logger zerolog.Logger) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		codes:       codes,
		generator:   generator,
		maxAttempts: maxAttempts,
		logger:      logger.With().Str("component", "allocator").Logger(),
	}
}

// Allocate claims a unique short code. A non-empty candidate is used as-is or fails with
// internal.ErrCodeConflict; otherwise random candidates are tried until one is claimed or the
// attempt budget runs out (internal.ErrAllocationExhausted).
func (a *Allocator) Allocate(ctx context.Context, candidate string, claim ClaimFunc) (string, error) {
	if candidate != "" {
		if err := a.allocateCustom(ctx, candidate, claim); err != nil {
			return "", err
		}
		return candidate, nil
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := a.generator.Generate()
		if err != nil {
			return "", err
		}

		taken, err := a.taken(ctx, code)
		if err != nil {
			return "", err
		}
		if taken {
			metrics.AllocationCollisions.Inc()
			a.logger.Debug().Str("code", code).Int("attempt", attempt).Msg("generated code already taken")
			continue
		}

		err = claim(ctx, code)
		if errors.Is(err, internal.ErrAlreadyExists) {
			// lost the race to a concurrent writer between the check and the insert
			metrics.AllocationCollisions.Inc()
			a.logger.Debug().Str("code", code).Int("attempt", attempt).Msg("generated code claimed concurrently")
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}

	metrics.AllocationExhausted.Inc()
	a.logger.Error().Int("attempts", a.maxAttempts).Msg("short code allocation exhausted")
	return "", fmt.Errorf("%w after %d attempts", internal.ErrAllocationExhausted, a.maxAttempts)
}

func (a *Allocator) taken(ctx context.Context, code string) (bool, error) {
	if IsReservedCode(code) {
		return true, nil
	}
	return a.codes.CodeExists(ctx, code)
}

func (a *Allocator) allocateCustom(ctx context.Context, code string, claim ClaimFunc) error {
	taken, err := a.taken(ctx, code)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%q: %w", code, internal.ErrCodeConflict)
	}

	err = claim(ctx, code)
	if errors.Is(err, internal.ErrAlreadyExists) {
		return fmt.Errorf("%q: %w", code, internal.ErrCodeConflict)
	}
	return err
}
