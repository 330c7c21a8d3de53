package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh and logout request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RequestResetRequest represents the password reset request
type RequestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmResetRequest represents the password reset confirmation
type ConfirmResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// ResetTokenStatus is returned when a reset token is checked
type ResetTokenStatus struct {
	Valid     bool  `json:"valid"`
	ExpiresAt int64 `json:"expires_at"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	User    *user.User `json:"user"`
	Message string     `json:"message"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account. A verification email is sent in the background.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email or username already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req RegisterRequest
	if !httputil.DecodeRequest(w, r, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email, "username": req.Username})

	newUser, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "account already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrUsernameTaken):
			logger.Warn("registration failed: username already exists")
			httputil.RespondErrorWithCode(w, "account already exists", httputil.CodeUsernameAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrPasswordTooLong):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err)
			httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, RegisterResponse{
		User:    newUser.Public(),
		Message: "User successfully created. Check your email for the confirmation link.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and receive access and refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthTokens
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req LoginRequest
	if !httputil.DecodeRequest(w, r, &req) {
		return
	}

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials", "email", req.Email)
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err)
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "email", req.Email)
	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Refresh handles access token refresh
// @Summary      Refresh access token
// @Description  Issue a new access token. The refresh token may be sent in the body or as a query parameter.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token"
// @Param        refresh_token query string false "Refresh token"
// @Success      200 {object} AuthTokens
// @Failure      401 {object} httputil.ErrorResponse "Invalid, expired or revoked refresh token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	refreshToken, ok := readRefreshToken(w, r)
	if !ok {
		return
	}

	tokens, err := h.service.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		if isAuthError(err) {
			logger.Warn("token refresh rejected", "error", err)
			respondAuthError(w, err, httputil.CodeInvalidRefreshToken)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err)
		httputil.RespondErrorWithCode(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Logout handles user logout
// @Summary      Logout
// @Description  Revoke the refresh token. Always succeeds for the client.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token"
// @Success      200 {object} httputil.MessageResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	refreshToken, ok := readRefreshToken(w, r)
	if !ok {
		return
	}

	// Logout never fails for the client; a bad token has nothing to revoke
	if err := h.service.Logout(r.Context(), refreshToken); err != nil {
		if isAuthError(err) {
			logger.Debug("logout with unusable refresh token", "error", err)
		} else {
			logger.Error("failed to revoke refresh token", "error", err)
		}
	}

	httputil.RespondMessage(w, "logged out successfully", http.StatusOK)
}

// VerifyEmail handles email verification links
// @Summary      Verify email
// @Description  Mark the account named by the email token as verified
// @Tags         auth
// @Produce      json
// @Param        token path string true "Email verification token"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /auth/confirmed_email/{token} [get]
// @Router       /auth/verify-email/{token} [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	token := chi.URLParam(r, "token")

	alreadyVerified, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
			logger.Warn("email verification failed", "error", err)
			httputil.RespondErrorWithCode(w, "invalid token for email verification", httputil.CodeInvalidEmailToken, http.StatusBadRequest)
		default:
			logger.Error("email verification failed: internal error", "error", err)
			httputil.RespondErrorWithCode(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if alreadyVerified {
		httputil.RespondMessage(w, "your email is already confirmed", http.StatusOK)
		return
	}

	logger.Info("email verified successfully")
	httputil.RespondMessage(w, "email confirmed", http.StatusOK)
}

// RequestPasswordReset handles password reset requests
// @Summary      Request password reset
// @Description  Email a single-use password reset token valid for one hour
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        request body RequestResetRequest true "Account email"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /password-reset/request [post]
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req RequestResetRequest
	if !httputil.DecodeRequest(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("password reset request failed", "error", err)
		httputil.RespondErrorWithCode(w, "failed to request password reset", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset requested", "email", req.Email)
	httputil.RespondMessage(w, "password reset email sent", http.StatusOK)
}

// VerifyResetToken reports whether a reset token can still be redeemed
// @Summary      Check password reset token
// @Tags         password-reset
// @Produce      json
// @Param        token path string true "Password reset token"
// @Success      200 {object} ResetTokenStatus
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Router       /password-reset/verify/{token} [get]
func (h *Handler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.VerifyResetToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			httputil.RespondErrorWithCode(w, "invalid or expired token", httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		logging.FromContext(r.Context()).Error("reset token check failed", "error", err)
		httputil.RespondErrorWithCode(w, "failed to check token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ResetTokenStatus{Valid: true, ExpiresAt: record.ExpiresAt.Unix()}, http.StatusOK)
}

// ConfirmPasswordReset handles password reset confirmation
// @Summary      Confirm password reset
// @Description  Redeem a reset token and set a new password
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        request body ConfirmResetRequest true "Reset token and new password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /password-reset/confirm [post]
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req ConfirmResetRequest
	if !httputil.DecodeRequest(w, r, &req) {
		return
	}

	updated, err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			logger.Warn("password reset rejected: invalid or expired token")
			httputil.RespondErrorWithCode(w, "invalid or expired token", httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordTooLong) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err)
		httputil.RespondErrorWithCode(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset successfully", "user_id", updated.ID)
	httputil.RespondMessage(w, "password has been reset successfully", http.StatusOK)
}


// readRefreshToken takes the refresh token from the query or the JSON body
func readRefreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if token := r.URL.Query().Get("refresh_token"); token != "" {
		return token, true
	}

	var req RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return "", false
		}
	}

	if req.RefreshToken == "" {
		httputil.RespondErrorWithCode(w, "refresh token is required", httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
		return "", false
	}

	return req.RefreshToken, true
}

func isAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrInvalidCredentials)
}

// respondAuthError writes the 401 for a rejected token
func respondAuthError(w http.ResponseWriter, err error, code string) {
	if errors.Is(err, ErrExpiredToken) {
		httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
		return
	}
	httputil.RespondErrorWithCode(w, "could not validate credentials", code, http.StatusUnauthorized)
}
