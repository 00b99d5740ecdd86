package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	cookieName = "auth_token"
	userIDKey  = "user_id"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	errNoCredential = errors.New("no credential")
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ParseUsers parses "name:password" pairs separated by commas.
func ParseUsers(s string) ([]Credentials, error) {
	var users []Credentials
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		username, password, ok := strings.Cut(pair, ":")
		if !ok || username == "" || password == "" {
			return nil, fmt.Errorf("invalid credentials format %q", pair)
		}
		users = append(users, Credentials{Username: username, Password: password})
	}
	return users, nil
}

// Authenticator is the identity provider: it issues tokens to configured users and turns
// request credentials into a stable user id.
type Authenticator struct {
	users     map[string]string
	jwtSecret string
}

func NewAuthenticator(users []Credentials, jwtSecret string) *Authenticator {
	m := make(map[string]string, len(users))
	for _, u := range users {
		m[u.Username] = u.Password
	}
	return &Authenticator{users: m, jwtSecret: jwtSecret}
}

func (a *Authenticator) IssueToken(creds Credentials) (string, error) {
	password, ok := a.users[creds.Username]
	if !ok || password != creds.Password {
		return "", ErrUnauthorized
	}

	token, err := SignToken(creds.Username, a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Identify returns the user id carried by the request's bearer token or auth cookie.
func (a *Authenticator) Identify(r *http.Request) (string, error) {
	type strategy func(r *http.Request) (string, error)
	for _, find := range []strategy{bearerToken, cookieToken} {
		token, err := find(r)
		if errors.Is(err, errNoCredential) {
			continue
		}
		if err != nil {
			return "", err
		}

		claims, err := ValidateToken(token, a.jwtSecret)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return claims.Subject, nil
	}
	return "", errNoCredential
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errNoCredential
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrUnauthorized)
	}
	return strings.TrimSpace(token), nil
}

func cookieToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", errNoCredential
	}
	return cookie.Value, nil
}

// OptionalIdentity attaches the caller's user id when a valid credential is present and
// lets anonymous or badly authenticated requests through.
func OptionalIdentity(a *Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID, err := a.Identify(c.Request()); err == nil {
				c.Set(userIDKey, userID)
			}
			return next(c)
		}
	}
}

// RequireIdentity rejects requests without a valid credential.
func RequireIdentity(a *Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := a.Identify(c.Request())
			switch {
			case errors.Is(err, errNoCredential):
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			case err != nil:
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authentication")
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
