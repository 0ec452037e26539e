package handler

import (
	"net/http"

	"fluentphrases/internal/api/v1/dto"
	"fluentphrases/internal/middleware"
	"fluentphrases/internal/model"
	"fluentphrases/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	errorResponder
}

func NewAuthHandler(authService service.AuthService, v *validator.Validate, logger zerolog.Logger, development bool) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		validate:       v,
		errorResponder: errorResponder{logger: logger.With().Str("handler", "AuthHandler").Logger(), development: development},
	}
}

// RegisterRoutes mounts the /auth routes. limit wraps the credential
// endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router, auth *middleware.Authenticator, limit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.With(limit).Post("/signup", h.SignUp)
		r.With(limit).Post("/signin", h.SignIn)
		r.With(limit).Post("/forgot-password", h.ForgotPassword)
		r.With(limit).Post("/reset-password", h.ResetPassword)
		r.Method(http.MethodGet, "/me", auth.Require(h.Me))
	})
}

// SignUp godoc
// @Summary Register a new account
// @Description Creates a free account and returns a session token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SignUpRequest true "Account details"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse "validation failed"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.authService.SignUp(r.Context(), service.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse(res))
}

// SignIn godoc
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.SignInRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

// ForgotPassword godoc
// @Summary Request a password reset email
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to send password reset email"
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "An email with instructions to reset your password has been sent",
	})
}

// ResetPassword godoc
// @Summary Redeem a password reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Invalid or expired token"
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Password updated"})
}

// Me godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, u *model.User) {
	writeJSON(w, http.StatusOK, toUserResponse(h.authService.Profile(u)))
}

func toUserResponse(p service.Profile) dto.UserResponse {
	return dto.UserResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Role:      string(p.Role),
	}
}

func toAuthResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{Token: res.Token, User: toUserResponse(res.User)}
}
