// Package handler содержит HTTP-обработчики API сервиса приёма возвратов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mmeshcher/claimdesk/internal/middleware"
	"github.com/mmeshcher/claimdesk/internal/model"
	"github.com/mmeshcher/claimdesk/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error
	CheckUsersExist(ctx context.Context) (bool, error)
	CreateAdmin(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*model.Principal, error)
	SubmitClaim(ctx context.Context, sub model.ClaimSubmission) (*model.Claim, error)
}

// Options задаёт необязательные параметры обработчика.
type Options struct {
	// ExposeErrorDetails добавляет поле details в ответы 5xx.
	ExposeErrorDetails bool
	// StorePingTimeout ограничивает проверку хранилища перед каждым запросом к API.
	StorePingTimeout time.Duration
	AuthRateLimit    rate.Limit
	AuthRateBurst    int
	// Metrics включает сбор метрик и маршрут /metrics, если не nil.
	Metrics *middleware.Metrics
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	opts           Options
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, opts Options) *Handler {
	if opts.StorePingTimeout <= 0 {
		opts.StorePingTimeout = 2 * time.Second
	}
	if opts.AuthRateLimit <= 0 {
		opts.AuthRateLimit = rate.Inf
	}
	if opts.AuthRateBurst <= 0 {
		opts.AuthRateBurst = 1
	}

	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		opts:           opts,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type checkUsersResponse struct {
	Exists bool `json:"exists"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type principalResponse struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// claimRequest перечисляет все поля, которые клиент может передать.
// Остальные поля тела, включая status, отбрасываются при декодировании.
type claimRequest struct {
	OrderNumber        string `json:"orderNumber"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Address            string `json:"address"`
	PhoneNumber        string `json:"phoneNumber"`
	Brand              string `json:"brand"`
	ProblemDescription string `json:"problemDescription"`
}

type claimResponse struct {
	ID                 string `json:"id"`
	OrderNumber        string `json:"orderNumber"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Address            string `json:"address"`
	PhoneNumber        string `json:"phoneNumber"`
	Brand              string `json:"brand"`
	ProblemDescription string `json:"problemDescription"`
	Status             string `json:"status"`
	CreatedAt          string `json:"createdAt"`
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// CheckUsersExist сообщает, создан ли уже администратор.
func (h *Handler) CheckUsersExist(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.CheckUsersExist(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to check users", err)
		return
	}

	render.JSON(w, r, checkUsersResponse{Exists: exists})
}

// CreateAdmin создаёт первого администратора.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.clientError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.service.CreateAdmin(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrAlreadyInitialized):
		h.clientError(w, r, http.StatusBadRequest, "Admin account already exists")
		return
	case errors.Is(err, service.ErrInvalidInput):
		h.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	default:
		h.serverError(w, r, "failed to create admin account", err)
		return
	}

	h.logger.Info("admin account created")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, messageResponse{Message: "Admin account created successfully"})
}

// Login проверяет учётные данные и выдаёт сессионный cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.clientError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrSystemUninitialized):
		h.clientError(w, r, http.StatusNotFound, "No users exist. Please create an admin account first.")
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		h.clientError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	default:
		h.serverError(w, r, "login failed", err)
		return
	}

	if err := h.authMiddleware.SetSessionCookie(w, *p); err != nil {
		h.serverError(w, r, "login failed", err)
		return
	}

	render.JSON(w, r, principalResponse{Email: p.Email, IsAdmin: p.IsAdmin})
}

// AdminSession возвращает администратора из сессионного cookie.
func (h *Handler) AdminSession(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.clientError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	render.JSON(w, r, principalResponse{Email: p.Email, IsAdmin: p.IsAdmin})
}

// SubmitClaim принимает заявку на возврат товара.
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		h.clientError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.service.SubmitClaim(r.Context(), model.ClaimSubmission{
		OrderNumber:        req.OrderNumber,
		Email:              req.Email,
		Name:               req.Name,
		Address:            req.Address,
		PhoneNumber:        req.PhoneNumber,
		Brand:              req.Brand,
		ProblemDescription: req.ProblemDescription,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrDuplicateOrderNumber):
		h.clientError(w, r, http.StatusBadRequest, "A claim with this order number already exists.")
		return
	case errors.Is(err, service.ErrInvalidInput):
		h.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	default:
		h.serverError(w, r, "An error occurred while creating the claim", err)
		return
	}

	h.logger.Info("claim created", zap.String("id", c.ID), zap.String("order", c.OrderNumber))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, claimResponse{
		ID:                 c.ID,
		OrderNumber:        c.OrderNumber,
		Email:              c.Email,
		Name:               c.Name,
		Address:            c.Address,
		PhoneNumber:        c.PhoneNumber,
		Brand:              c.Brand,
		ProblemDescription: c.ProblemDescription,
		Status:             string(c.Status),
		CreatedAt:          c.CreatedAt.Format(time.RFC3339),
	})
}
