package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
	"github.com/samandr77/microservices/onboarding/pkg/logger"
)

// @title Entity Onboarding API
// @version 1.0
// @description Account registration, email verification and entity onboarding.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

//go:generate go run go.uber.org/mock/mockgen@latest -source=handler.go -destination=../mocks/api.go -package=mocks

type Service interface {
	Register(ctx context.Context, reg entity.Registration) (entity.Account, string, error)
	Login(ctx context.Context, email, password string) (entity.AccessToken, error)
	Session(ctx context.Context, accountID uuid.UUID) (entity.Session, error)
	VerifyEmailToken(ctx context.Context, verifyToken string) error
	VerifyEmailCode(ctx context.Context, email, code string) error
	ResendVerificationCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, password string) error
	AssignAccountToEntity(ctx context.Context, accountID uuid.UUID) (entity.Entity, error)
	EntityForAccount(ctx context.Context, accountID uuid.UUID) (entity.Entity, error)
	ListEntities(ctx context.Context, filter entity.EntityFilter) ([]entity.Entity, int, error)
	Onboarding(ctx context.Context, entityID uuid.UUID) (entity.OnboardingState, error)
	UpdateOnboarding(ctx context.Context, entityID uuid.UUID, u onboarding.StepUpdate) (entity.OnboardingState, error)
	UpdateProfile(ctx context.Context, entityID uuid.UUID, profile entity.Profile) (entity.Entity, error)
	UploadEntityImage(ctx context.Context, entityID uuid.UUID, data []byte, filename string) (entity.UploadedFile, error)
}

type Handler struct {
	s Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s: s}
}

// @Summary Health check
// @Description Reports that the server is up
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("OK\n"))
}

type RegisterRequest struct {
	Name       string            `json:"name"`
	Lastname   string            `json:"lastname"`
	EntityName string            `json:"entityName"`
	EntityType entity.EntityType `json:"entityType"`
	JobTitle   string            `json:"jobTitle"`
	Telephone  string            `json:"telephone"`
	Email      string            `json:"email"`
	Password   string            `json:"password"`
}

type RegisterResponse struct {
	Account entity.Account `json:"user"`
	// Verifies the email without the code, see POST /auth/verify-email.
	VerifyToken string `json:"verifyToken"`
}

// @Summary Register an account
// @Description Creates an unverified account and emails a verification code valid for 24 hours.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} ErrorResponse "Malformed request"
// @Failure 409 {object} ErrorResponse "Email in use or government email required"
// @Failure 422 {object} ErrorResponse "Invalid field"
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := logger.SetLogType(r.Context(), "auth")

	var req RegisterRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	account, verifyToken, err := h.s.Register(ctx, entity.Registration(req))
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusCreated, RegisterResponse{Account: account, VerifyToken: verifyToken})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse "Malformed request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := logger.SetLogType(r.Context(), "auth")

	var req LoginRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	tok, err := h.s.Login(ctx, req.Email, req.Password)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, LoginResponse{AccessToken: tok.Token, ExpiresAt: tok.ExpiresAt})
}

// @Summary Current session
// @Description Reports whether the caller is authenticated and has verified the email.
// @Tags auth
// @Produce json
// @Success 200 {object} entity.Session
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/auth/session [get]
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, ok := entity.AccountIDFromCtx(ctx)
	if !ok {
		SendServiceErr(ctx, w, entity.ErrInvalidToken)
		return
	}

	session, err := h.s.Session(ctx, accountID)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, session)
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// @Summary Verify email by token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyEmailRequest true "Verification token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Malformed request"
// @Failure 401 {object} ErrorResponse "Invalid or expired token"
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := logger.SetLogType(r.Context(), "auth")

	var req VerifyEmailRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	err = h.s.VerifyEmailToken(ctx, req.Token)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, MessageResponse{Message: "Email verified"})
}

type VerifyEmailCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// @Summary Verify email by code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyEmailCodeRequest true "Email and code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Malformed request"
// @Failure 401 {object} ErrorResponse "Invalid or expired code"
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/verify-email/code [post]
func (h *Handler) VerifyEmailCode(w http.ResponseWriter, r *http.Request) {
	ctx := logger.SetLogType(r.Context(), "auth")

	var req VerifyEmailCodeRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	err = h.s.VerifyEmailCode(ctx, req.Email, req.Code)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, MessageResponse{Message: "Email verified"})
}

type EmailRequest struct {
	Email string `json:"email"`
}

// @Summary Resend the email verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Malformed request"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/resend-code [post]
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	ctx := logger.SetLogType(r.Context(), "auth")

	var req EmailRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	err = h.s.ResendVerificationCode(ctx, req.Email)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, MessageResponse{Message: "Code sent"})
}

// @Summary Request a password reset code
// @Description Always succeeds for a well-formed request, whether or not the email is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Malformed request"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := logger.SetLogType(r.Context(), "auth")

	var req EmailRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	err = h.s.ForgotPassword(ctx, req.Email)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, MessageResponse{Message: "If the email is registered, a reset code was sent"})
}

type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// @Summary Reset the password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Email, reset code and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse "Malformed request"
// @Failure 401 {object} ErrorResponse "Invalid or expired code"
// @Failure 422 {object} ErrorResponse "Weak password"
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := logger.SetLogType(r.Context(), "auth")

	var req ResetPasswordRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	err = h.s.ResetPassword(ctx, req.Email, req.Code, req.Password)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, MessageResponse{Message: "Password updated"})
}
