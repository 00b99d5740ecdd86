package internal

import "time"

type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
)

// DirectReferrer is the referrer bucket for visits without a usable Referer header.
const DirectReferrer = "Direct"

type ShortLink struct {
	ID          int64     `json:"id"`
	OwnerID     *string   `json:"ownerId,omitempty"`
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	Title       string    `json:"title"`
	Active      bool      `json:"isActive"`
	ClickCount  int64     `json:"clickCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnedBy reports whether the link belongs to userID. Anonymous links have no owner.
func (l *ShortLink) OwnedBy(userID string) bool {
	return l.OwnerID != nil && userID != "" && *l.OwnerID == userID
}

type ClickEvent struct {
	ID             int64      `json:"id"`
	LinkID         int64      `json:"urlId"`
	ClickedAt      time.Time  `json:"clickedAt"`
	UserAgent      string     `json:"userAgent"`
	DeviceType     DeviceType `json:"deviceType"`
	ReferrerDomain string     `json:"referrer"`
	IPAddress      string     `json:"ipAddress"`
	Country        string     `json:"country,omitempty"`
}

type AnalyticsReport struct {
	TotalClicks  int64            `json:"totalClicks"`
	ClicksByDay  map[string]int64 `json:"clicksByDay"`
	DeviceTypes  map[string]int64 `json:"deviceTypes"`
	Countries    map[string]int64 `json:"countries"`
	Referrers    map[string]int64 `json:"referrers"`
	RecentClicks []ClickEvent     `json:"recentClicks"`
}
