package middlewarectx

import (
	"net/http"
	"time"
)

// SetTokenCookie кладет сессионный токен в cookie. Cookie доступна клиентскому
// скрипту и отправляется кросс-доменно, поэтому Secure включается в production.
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode,
	})
}

// ClearTokenCookie удаляет cookie с токеном.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteNoneMode,
	})
}
