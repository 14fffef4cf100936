package handler

import (
	"context"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/mmeshcher/claimdesk/internal/service"
)

// errorResponse описывает тело любого ответа с ошибкой. Details заполняется только для 5xx.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.logger.Debug("client error",
		zap.Int("status", status),
		zap.String("path", r.URL.Path),
		zap.String("error", msg),
	)
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
	)

	resp := errorResponse{Error: msg}
	if h.opts.ExposeErrorDetails {
		resp.Details = err.Error()
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, resp)
}

// ensureStore проверяет доступность хранилища до любой бизнес-логики.
func (h *Handler) ensureStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.opts.StorePingTimeout)
		defer cancel()

		if err := h.service.Ping(ctx); err != nil {
			if !errors.Is(err, service.ErrStoreUnavailable) {
				err = errors.Join(service.ErrStoreUnavailable, err)
			}
			h.serverError(w, r, "store unavailable", err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
