package repo

import (
	"context"
	"fmt"

	"github.com/abdusco/linkzip/internal"
	"github.com/abdusco/linkzip/internal/db"
	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
)

const linksTable = "links"

type linkRow struct {
	ID          int64   `db:"id" goqu:"skipinsert,skipupdate"`
	OwnerID     *string `db:"owner_id"`
	OriginalURL string  `db:"original_url"`
	ShortCode   string  `db:"short_code" goqu:"skipupdate"`
	Title       string  `db:"title"`
	Active      bool    `db:"active"`
	ClickCount  int64   `db:"click_count"`
	CreatedAt   Date    `db:"created_at" goqu:"skipupdate"`
	UpdatedAt   Date    `db:"updated_at"`
}

type LinksRepo struct {
	db *db.DB
}

func NewLinksRepo(db *db.DB) *LinksRepo {
	return &LinksRepo{db: db}
}

// Create inserts a new link. A short code collision surfaces as internal.ErrAlreadyExists.
func (r *LinksRepo) Create(ctx context.Context, link *internal.ShortLink) (*internal.ShortLink, error) {
	log.Ctx(ctx).Debug().Str("code", link.ShortCode).Str("url", link.OriginalURL).Msg("creating link")

	ts := now()
	row := linkRow{
		OwnerID:     link.OwnerID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		Title:       link.Title,
		Active:      true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	_, err := r.db.Insert(linksTable).Rows(row).Executor().ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("short code %q: %w", link.ShortCode, internal.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to insert link: %w", err)
	}

	// The code is unique, so it identifies the row on every dialect without RETURNING support.
	created, err := r.GetByCode(ctx, link.ShortCode)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("id", created.ID).Str("code", created.ShortCode).Msg("link created")
	return created, nil
}

func (r *LinksRepo) GetByCode(ctx context.Context, code string) (*internal.ShortLink, error) {
	return r.getOne(ctx, goqu.Ex{"short_code": code})
}

func (r *LinksRepo) GetByID(ctx context.Context, id int64) (*internal.ShortLink, error) {
	return r.getOne(ctx, goqu.Ex{"id": id})
}

func (r *LinksRepo) getOne(ctx context.Context, where goqu.Ex) (*internal.ShortLink, error) {
	var row linkRow
	found, err := r.db.From(linksTable).Where(where).ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch link: %w", err)
	}
	if !found {
		return nil, internal.ErrLinkNotFound
	}
	return row.toDomain(), nil
}

func (r *LinksRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	count, err := r.db.From(linksTable).Where(goqu.Ex{"short_code": code}).CountContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return count > 0, nil
}

// IncrementClicks adds one to the counter in a single additive UPDATE, so concurrent redirects
// never overwrite each other's increments.
func (r *LinksRepo) IncrementClicks(ctx context.Context, id int64) error {
	result, err := r.db.Update(linksTable).
		Set(goqu.Record{
			"click_count": goqu.L("click_count + 1"),
			"updated_at":  now(),
		}).
		Where(goqu.Ex{"id": id}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return internal.ErrLinkNotFound
	}
	return nil
}

func (r *LinksRepo) SetActive(ctx context.Context, id int64, active bool) (*internal.ShortLink, error) {
	result, err := r.db.Update(linksTable).
		Set(goqu.Record{"active": active, "updated_at": now()}).
		Where(goqu.Ex{"id": id}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, internal.ErrLinkNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *LinksRepo) ListByOwner(ctx context.Context, ownerID string) ([]*internal.ShortLink, error) {
	var rows []linkRow
	err := r.db.From(linksTable).
		Where(goqu.Ex{"owner_id": ownerID}).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	links := make([]*internal.ShortLink, len(rows))
	for i := range rows {
		links[i] = rows[i].toDomain()
	}
	return links, nil
}

func (r *linkRow) toDomain() *internal.ShortLink {
	return &internal.ShortLink{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		OriginalURL: r.OriginalURL,
		ShortCode:   r.ShortCode,
		Title:       r.Title,
		Active:      r.Active,
		ClickCount:  r.ClickCount,
		CreatedAt:   r.CreatedAt.Time(),
		UpdatedAt:   r.UpdatedAt.Time(),
	}
}
