package shortener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abdusco/linkzip/internal"
)

// memLinks is an in-memory LinkStore with a unique index on short codes.
type memLinks struct {
	mu     sync.Mutex
	byCode map[string]*internal.ShortLink
	nextID int64

	existsErr    error
	createErr    error
	incrementErr error
	creates      int
	increments   int
}

func newMemLinks() *memLinks {
	return &memLinks{byCode: map[string]*internal.ShortLink{}}
}

func (m *memLinks) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.byCode[code]
	return ok, nil
}

func (m *memLinks) GetByCode(_ context.Context, code string) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.byCode[code]
	if !ok {
		return nil, internal.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (m *memLinks) GetByID(_ context.Context, id int64) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, link := range m.byCode {
		if link.ID == id {
			cp := *link
			return &cp, nil
		}
	}
	return nil, internal.ErrLinkNotFound
}

func (m *memLinks) Create(_ context.Context, link *internal.ShortLink) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.byCode[link.ShortCode]; ok {
		return nil, fmt.Errorf("short code %q: %w", link.ShortCode, internal.ErrAlreadyExists)
	}
	m.nextID++
	stored := *link
	stored.ID = m.nextID
	stored.Active = true
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	m.byCode[link.ShortCode] = &stored
	cp := stored
	return &cp, nil
}

func (m *memLinks) SetActive(_ context.Context, id int64, active bool) (*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, link := range m.byCode {
		if link.ID == id {
			link.Active = active
			cp := *link
			return &cp, nil
		}
	}
	return nil, internal.ErrLinkNotFound
}

func (m *memLinks) ListByOwner(_ context.Context, ownerID string) ([]*internal.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*internal.ShortLink
	for _, link := range m.byCode {
		if link.OwnedBy(ownerID) {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLinks) IncrementClicks(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.increments++
	if m.incrementErr != nil {
		return m.incrementErr
	}
	for _, link := range m.byCode {
		if link.ID == id {
			link.ClickCount++
			return nil
		}
	}
	return internal.ErrLinkNotFound
}

func (m *memLinks) put(link internal.ShortLink) *internal.ShortLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	link.ID = m.nextID
	m.byCode[link.ShortCode] = &link
	return &link
}

func (m *memLinks) clicks(code string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byCode[code].ClickCount
}

type memClicks struct {
	mu     sync.Mutex
	events []internal.ClickEvent
	err    error
}

func (m *memClicks) Create(_ context.Context, event internal.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memClicks) all() []internal.ClickEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]internal.ClickEvent(nil), m.events...)
}

// seqGenerator hands out codes in order and repeats the last one when it runs out.
type seqGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *seqGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := min(g.calls, len(g.codes)-1)
	g.calls++
	return g.codes[i], nil
}

type staticTitles struct {
	title string
}

func (s staticTitles) Fetch(_ context.Context, rawURL string) string {
	if s.title == "" {
		return rawURL
	}
	return s.title
}
