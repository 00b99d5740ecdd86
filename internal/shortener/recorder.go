package shortener

import (
	"context"

	"github.com/abdusco/linkzip/internal"
	"github.com/abdusco/linkzip/internal/metrics"
	"github.com/rs/zerolog"
)

type ClickCounter interface {
	IncrementClicks(ctx context.Context, linkID int64) error
}

type ClickStore interface {
	Create(ctx context.Context, event internal.ClickEvent) error
}

// Recorder applies the two independent effects of a click: the denormalized counter update and
// the click event insert. Failures are logged and counted, never returned.
type Recorder struct {
	counter ClickCounter
	clicks  ClickStore
	logger  zerolog.Logger
}

func NewRecorder(counter ClickCounter, clicks ClickStore, logger zerolog.Logger) *Recorder {
	return &Recorder{
		counter: counter,
		clicks:  clicks,
		logger:  logger.With().Str("component", "recorder").Logger(),
	}
}

func (r *Recorder) Record(ctx context.Context, linkID int64, visit Visit) {
	logger := r.logger.With().Int64("link_id", linkID).Logger()

	if err := r.counter.IncrementClicks(ctx, linkID); err != nil {
		metrics.ClickEffects.WithLabelValues("counter", "error").Inc()
		logger.Error().Err(err).Msg("failed to update click count")
	} else {
		metrics.ClickEffects.WithLabelValues("counter", "ok").Inc()
	}

	event := internal.ClickEvent{
		LinkID:         linkID,
		ClickedAt:      visit.At,
		UserAgent:      visit.UserAgent,
		DeviceType:     ClassifyDevice(visit.UserAgent),
		ReferrerDomain: ReferrerDomain(visit.Referrer),
		IPAddress:      visit.IPAddress,
		Country:        visit.Country,
	}
	if event.IPAddress == "" {
		event.IPAddress = unknownIP
	}

	if err := r.clicks.Create(ctx, event); err != nil {
		metrics.ClickEffects.WithLabelValues("event", "error").Inc()
		logger.Error().Err(err).Msg("failed to insert click event")
		return
	}
	metrics.ClickEffects.WithLabelValues("event", "ok").Inc()
	logger.Debug().Str("device", string(event.DeviceType)).Str("referrer", event.ReferrerDomain).Msg("click recorded")
}
