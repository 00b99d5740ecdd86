package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/abdusco/linkzip/internal"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
	recentClicksLimit = 10
	dayLayout         = "2006-01-02"
)

type LinkFinder interface {
	GetByID(ctx context.Context, id int64) (*internal.ShortLink, error)
}

type ClickReader interface {
	// ListSince returns clicks at or after since, newest first.
	ListSince(ctx context.Context, linkID int64, since time.Time) ([]internal.ClickEvent, error)
}

type Aggregator struct {
	links  LinkFinder
	clicks ClickReader
	now    func() time.Time
	logger zerolog.Logger
}

func NewAggregator(links LinkFinder, clicks ClickReader, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		links:  links,
		clicks: clicks,
		now:    time.Now,
		logger: logger.With().Str("component", "analytics").Logger(),
	}
}

// Report aggregates the clicks of a link over the last days. Only the link's owner may read
// it: a missing link and someone else's link both yield internal.ErrAccessDenied.
func (a *Aggregator) Report(ctx context.Context, linkID int64, requester string, days int) (*internal.AnalyticsReport, error) {
	if requester == "" {
		return nil, internal.ErrUnauthenticated
	}

	link, err := a.links.GetByID(ctx, linkID)
	if err != nil && !errors.Is(err, internal.ErrLinkNotFound) {
		return nil, err
	}
	if link == nil || !link.OwnedBy(requester) {
		a.logger.Warn().Int64("link_id", linkID).Str("requester", requester).Msg("analytics access denied")
		return nil, internal.ErrAccessDenied
	}

	days = normalizeWindow(days)
	since := a.now().UTC().AddDate(0, 0, -days)

	events, err := a.clicks.ListSince(ctx, linkID, since)
	if err != nil {
		return nil, err
	}

	report := Aggregate(events)
	a.logger.Info().
		Int64("link_id", linkID).
		Int64("total_clicks", report.TotalClicks).
		Int("days", days).
		Msg("analytics processed")

	return report, nil
}

func normalizeWindow(days int) int {
	if days <= 0 {
		return DefaultWindowDays
	}
	return min(days, MaxWindowDays)
}

// Aggregate reduces events, ordered newest first, into a report in a single pass.
func Aggregate(events []internal.ClickEvent) *internal.AnalyticsReport {
	report := &internal.AnalyticsReport{
		TotalClicks:  int64(len(events)),
		ClicksByDay:  map[string]int64{},
		DeviceTypes:  map[string]int64{},
		Countries:    map[string]int64{},
		Referrers:    map[string]int64{},
		RecentClicks: lo.Slice(events, 0, recentClicksLimit),
	}
	if report.RecentClicks == nil {
		report.RecentClicks = []internal.ClickEvent{}
	}

	for _, e := range events {
		report.ClicksByDay[e.ClickedAt.UTC().Format(dayLayout)]++

		if e.DeviceType != "" {
			report.DeviceTypes[string(e.DeviceType)]++
		}

		if e.Country != "" {
			report.Countries[e.Country]++
		}

		referrer := e.ReferrerDomain
		if referrer == "" {
			referrer = internal.DirectReferrer
		}
		report.Referrers[referrer]++
	}

	return report
}
