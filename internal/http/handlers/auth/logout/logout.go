// Package logout реализует выход: очистку cookie сессии.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-paywall/internal/http/response"
	"github.com/magabrotheeeer/content-paywall/internal/http/session"
)

// Handler очищает cookie сессии.
type Handler struct {
	log     *slog.Logger
	cookies *session.Cookies
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, cookies *session.Cookies) *Handler {
	return &Handler{log: log, cookies: cookies}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Удаляет cookie сессии. Токен остаётся действительным до истечения срока.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	h.log.Debug("session cookie cleared",
		slog.String("op", "handlers.auth.logout"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.OKWithData(map[string]bool{"success": true}))
}
