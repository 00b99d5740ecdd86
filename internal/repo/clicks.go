package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/abdusco/linkzip/internal"
	"github.com/abdusco/linkzip/internal/db"
	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
)

const clicksTable = "clicks"

type clickRow struct {
	ID         int64  `db:"id" goqu:"skipinsert"`
	LinkID     int64  `db:"link_id"`
	ClickedAt  Date   `db:"clicked_at"`
	UserAgent  string `db:"user_agent"`
	DeviceType string `db:"device_type"`
	Referrer   string `db:"referrer"`
	IPAddress  string `db:"ip_address"`
	Country    string `db:"country"`
}

type ClicksRepo struct {
	db *db.DB
}

func NewClicksRepo(db *db.DB) *ClicksRepo {
	return &ClicksRepo{db: db}
}

func (r *ClicksRepo) Create(ctx context.Context, event internal.ClickEvent) error {
	clickedAt := event.ClickedAt
	if clickedAt.IsZero() {
		clickedAt = time.Now()
	}

	row := clickRow{
		LinkID:     event.LinkID,
		ClickedAt:  Date(clickedAt.UTC()),
		UserAgent:  event.UserAgent,
		DeviceType: string(event.DeviceType),
		Referrer:   event.ReferrerDomain,
		IPAddress:  event.IPAddress,
		Country:    event.Country,
	}

	_, err := r.db.Insert(clicksTable).Rows(row).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert click: %w", err)
	}

	log.Ctx(ctx).Debug().Int64("link_id", event.LinkID).Str("ip", event.IPAddress).Msg("click recorded")
	return nil
}

// ListSince returns the link's clicks at or after since, newest first.
func (r *ClicksRepo) ListSince(ctx context.Context, linkID int64, since time.Time) ([]internal.ClickEvent, error) {
	var rows []clickRow
	err := r.db.From(clicksTable).
		Where(
			goqu.C("link_id").Eq(linkID),
			goqu.C("clicked_at").Gte(Date(since.UTC())),
		).
		Order(goqu.C("clicked_at").Desc(), goqu.C("id").Desc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}

	events := make([]internal.ClickEvent, len(rows))
	for i, row := range rows {
		events[i] = row.toDomain()
	}
	return events, nil
}

func (r clickRow) toDomain() internal.ClickEvent {
	return internal.ClickEvent{
		ID:             r.ID,
		LinkID:         r.LinkID,
		ClickedAt:      r.ClickedAt.Time(),
		UserAgent:      r.UserAgent,
		DeviceType:     internal.DeviceType(r.DeviceType),
		ReferrerDomain: r.Referrer,
		IPAddress:      r.IPAddress,
		Country:        r.Country,
	}
}
