// Package me возвращает пользователя текущей сессии.
package me

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-paywall/internal/http/response"
)

// Handler отдаёт пользователя из контекста запроса.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Возвращает пользователя сессии или data=null для анонимного запроса.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response{data=models.Identity}
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := middlewarectx.IdentityFrom(r.Context())
	if identity == nil {
		render.JSON(w, r, response.Response{Status: response.StatusOK})
		return
	}
	render.JSON(w, r, response.OKWithData(identity))
}
