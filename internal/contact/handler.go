package contact

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the contact endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/upcoming-birthdays", h.UpcomingBirthdays)
	r.Get("/{contactID}", h.Get)
	r.Put("/{contactID}", h.Update)
	r.Patch("/{contactID}", h.Update)
	r.Delete("/{contactID}", h.Delete)
}

// List returns contacts, optionally filtered
// @Summary      List contacts
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        first_name query string false "First name contains"
// @Param        last_name  query string false "Last name contains"
// @Param        email      query string false "Email contains"
// @Param        skip       query int    false "Offset" default(0)
// @Param        limit      query int    false "Page size" default(10) maximum(100)
// @Success      200 {array}  Contact
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /contacts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, ok := queryInt(w, q.Get("skip"), "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(w, q.Get("limit"), "limit", DefaultLimit)
	if !ok {
		return
	}

	contacts, err := h.service.List(r.Context(), ListFilter{
		FirstName: q.Get("first_name"),
		LastName:  q.Get("last_name"),
		Email:     q.Get("email"),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		h.internalError(w, r, "failed to list contacts", err)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Create adds a contact
// @Summary      Create contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateInput true "Contact"
// @Success      201 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      409 {object} httputil.ErrorResponse "Email already used by another contact"
// @Router       /contacts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if !httputil.DecodeRequest(w, r, &in) {
		return
	}

	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeContactAlreadyExists, http.StatusConflict)
			return
		}
		h.internalError(w, r, "failed to create contact", err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusCreated)
}

// Get returns a single contact
// @Summary      Get contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Success      200 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Update changes the supplied fields of a contact
// @Summary      Update contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Param        request body UpdateInput true "Fields to change"
// @Success      200 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Failure      409 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	var in UpdateInput
	if !httputil.DecodeRequest(w, r, &in) {
		return
	}

	c, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Delete removes a contact
// @Summary      Delete contact
// @Tags         contacts
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Success      204
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpcomingBirthdays lists contacts with a birthday in the next days days
// @Summary      Upcoming birthdays
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        days query int false "Look-ahead in days" default(7)
// @Success      200 {array}  Contact
// @Failure      400 {object} httputil.ErrorResponse
// @Router       /contacts/upcoming-birthdays [get]
func (h *Handler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r.URL.Query().Get("days"), "days", DefaultBirthdayWindow)
	if !ok {
		return
	}

	contacts, err := h.service.UpcomingBirthdays(r.Context(), days)
	if err != nil {
		h.internalError(w, r, "failed to list upcoming birthdays", err)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrDuplicateEmail):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeContactAlreadyExists, http.StatusConflict)
	default:
		h.internalError(w, r, "contact operation failed", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.FromContext(r.Context()).Error(msg, "error", err)
	httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
}

func contactID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "contactID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid contact id", httputil.CodeInvalidContactID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, raw, name string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		httputil.RespondErrorWithCode(w, name+" must be a non-negative integer", httputil.CodeValidationFailed, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
