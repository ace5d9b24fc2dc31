// Package session управляет cookie с токеном сессии.
package session

import (
	"net/http"
	"time"

	"github.com/magabrotheeeer/content-paywall/internal/config"
)

// DefaultCookieName имя cookie, если оно не задано в конфиге.
const DefaultCookieName = "app_session_id"

// Cookies выставляет и очищает cookie сессии.
type Cookies struct {
	cfg config.SessionCookie
	ttl time.Duration
}

// NewCookies создаёт помощника для cookie с временем жизни ttl.
func NewCookies(cfg config.SessionCookie, ttl time.Duration) *Cookies {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Cookies{cfg: cfg, ttl: ttl}
}

// Name имя cookie.
func (c *Cookies) Name() string {
	return c.cfg.CookieName
}

// Set записывает токен в cookie.
func (c *Cookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(token, int(c.ttl.Seconds())))
}

// Clear удаляет cookie, выставляя отрицательное время жизни.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c *Cookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
