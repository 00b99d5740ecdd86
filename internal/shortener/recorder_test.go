package shortener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abdusco/linkzip/internal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Record(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	visit := Visit{
		UserAgent: "Mozilla/5.0 (iPhone) Mobile",
		Referrer:  "https://news.example.org/page",
		IPAddress: "203.0.113.7",
		Country:   "DE",
		At:        at,
	}

	t.Run("applies both effects", func(t *testing.T) {
		links := newMemLinks()
		link := links.put(internal.ShortLink{ShortCode: "abc"})
		clicks := &memClicks{}

		NewRecorder(links, clicks, zerolog.Nop()).Record(ctx, link.ID, visit)

		assert.EqualValues(t, 1, links.clicks("abc"))
		events := clicks.all()
		require.Len(t, events, 1)
		assert.Equal(t, internal.ClickEvent{
			LinkID:         link.ID,
			ClickedAt:      at,
			UserAgent:      visit.UserAgent,
			DeviceType:     internal.DeviceMobile,
			ReferrerDomain: "news.example.org",
			IPAddress:      "203.0.113.7",
			Country:        "DE",
		}, events[0])
	})

	t.Run("counter failure does not block the event", func(t *testing.T) {
		links := newMemLinks()
		links.incrementErr = errors.New("locked")
		clicks := &memClicks{}

		NewRecorder(links, clicks, zerolog.Nop()).Record(ctx, 1, visit)

		assert.Equal(t, 1, links.increments)
		assert.Len(t, clicks.all(), 1)
	})

	t.Run("event failure keeps the counter update", func(t *testing.T) {
		links := newMemLinks()
		link := links.put(internal.ShortLink{ShortCode: "abc"})
		clicks := &memClicks{err: errors.New("disk full")}

		NewRecorder(links, clicks, zerolog.Nop()).Record(ctx, link.ID, visit)

		assert.EqualValues(t, 1, links.clicks("abc"))
		assert.Empty(t, clicks.all())
	})

	t.Run("missing metadata gets defaults", func(t *testing.T) {
		links := newMemLinks()
		link := links.put(internal.ShortLink{ShortCode: "abc"})
		clicks := &memClicks{}

		NewRecorder(links, clicks, zerolog.Nop()).Record(ctx, link.ID, Visit{At: at})

		events := clicks.all()
		require.Len(t, events, 1)
		assert.Equal(t, internal.DeviceDesktop, events[0].DeviceType)
		assert.Equal(t, internal.DirectReferrer, events[0].ReferrerDomain)
		assert.Equal(t, "unknown", events[0].IPAddress)
	})
}
