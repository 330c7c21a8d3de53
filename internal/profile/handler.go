package profile

import (
	"errors"
	"net/http"

	"github.com/redmonkez12/contacts-api/internal/auth"
	"github.com/redmonkez12/contacts-api/internal/avatar"
	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
)

// Handler serves the authenticated user's own profile
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.User
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      429 {object} httputil.ErrorResponse
// @Router       /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, u.Public(), http.StatusOK)
}

// UpdateAvatar replaces the authenticated user's avatar
// @Summary      Update avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Avatar image"
// @Success      200 {object} user.User
// @Failure      400 {object} httputil.ErrorResponse "Missing or unsupported file"
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /users/avatar [patch]
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxSize+1<<10)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("invalid avatar upload", "error", err)
		httputil.RespondErrorWithCode(w, "file is required", httputil.CodeInvalidFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > avatar.MaxSize {
		httputil.RespondErrorWithCode(w, "file is too large", httputil.CodeInvalidFile, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateAvatar(r.Context(), u, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, avatar.ErrUnsupportedType):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidFile, http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to update avatar", "error", err)
			httputil.RespondErrorWithCode(w, "failed to update avatar", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("avatar updated")
	httputil.RespondJSON(w, updated, http.StatusOK)
}
