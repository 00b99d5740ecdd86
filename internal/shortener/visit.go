package shortener

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abdusco/linkzip/internal"
)

const unknownIP = "unknown"

// Visit is the request metadata captured for one redirect.
type Visit struct {
	UserAgent string
	Referrer  string
	IPAddress string
	Country   string
	At        time.Time
}

// VisitFromRequest captures visit metadata before the request goes out of scope.
func VisitFromRequest(r *http.Request) Visit {
	return Visit{
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		IPAddress: ClientIP(r),
		Country:   strings.ToUpper(strings.TrimSpace(r.Header.Get("CF-IPCountry"))),
		At:        time.Now().UTC(),
	}
}

func ClassifyDevice(userAgent string) internal.DeviceType {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return internal.DeviceMobile
	case strings.Contains(ua, "tablet"):
		return internal.DeviceTablet
	default:
		return internal.DeviceDesktop
	}
}

// ReferrerDomain returns the referrer's host, or internal.DirectReferrer when it is empty or
// does not parse as an absolute URL.
func ReferrerDomain(referrer string) string {
	if strings.TrimSpace(referrer) == "" {
		return internal.DirectReferrer
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return internal.DirectReferrer
	}
	return u.Hostname()
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	// X-Forwarded-For may carry a proxy chain; the first hop is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}

	return unknownIP
}
