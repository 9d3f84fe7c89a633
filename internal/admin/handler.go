package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spielrunde/cardtable/internal/httputil"
	"github.com/spielrunde/cardtable/internal/logging"
	"github.com/spielrunde/cardtable/internal/user"
)

// Handler contains HTTP handlers for admin user management
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UpdateRoleRequest represents the role change request body
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UserSummary represents a user in admin listings
type UserSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	RoleLabel     string    `json:"role_label"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListUsersResponse represents the paginated user listing
type ListUsersResponse struct {
	Users   []UserSummary `json:"users"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

func newUserSummary(u *user.User) UserSummary {
	return UserSummary{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role.String(),
		RoleLabel:     u.Role.Label(),
		EmailVerified: u.EmailVerified(),
		CreatedAt:     u.CreatedAt,
	}
}

// ListUsers handles the paginated user listing
// @Summary      List users
// @Description  Paginated user listing with optional role filter
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role query string false "Filter by role (player, admin, banned)"
// @Param        page query int false "Page number, 1-based"
// @Success      200 {object} ListUsersResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Router       /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	filter := user.ListFilter{
		Page:    parsePositiveInt(r.URL.Query().Get("page"), 1),
		PerPage: 20,
	}

	if roleParam := r.URL.Query().Get("role"); roleParam != "" {
		role, err := user.ParseRole(roleParam)
		if err != nil {
			respondError(w, "unknown role", httputil.CodeUnknownRole, http.StatusUnprocessableEntity)
			return
		}
		filter.Role = &role
	}

	users, total, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		respondError(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, newUserSummary(u))
	}

	respondJSON(w, ListUsersResponse{
		Users:   summaries,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}, http.StatusOK)
}

// UpdateRole handles role changes
// @Summary      Change user role
// @Description  Set a user's role to player, admin or banned
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Param        request body UpdateRoleRequest true "New role"
// @Success      200 {object} UserSummary
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      422 {object} ErrorResponse "Unknown role"
// @Router       /admin/users/{id}/role [patch]
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	role, err := user.ParseRole(req.Role)
	if err != nil {
		logger.Warn("role update failed: unknown role", "role", req.Role)
		respondError(w, "unknown role", httputil.CodeUnknownRole, http.StatusUnprocessableEntity)
		return
	}

	updated, err := h.service.UpdateRole(r.Context(), userID, role)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update role", "error", err.Error())
		respondError(w, "failed to update role", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user role updated", "user_id", userID, "role", role)

	respondJSON(w, newUserSummary(updated), http.StatusOK)
}

// Ban handles banning a user
// @Summary      Ban user
// @Description  Set a user's role to banned and revoke all their sessions
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} UserSummary
// @Failure      403 {object} ErrorResponse "Target is an admin"
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /admin/users/{id}/ban [patch]
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	banned, err := h.service.Ban(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrCannotBanAdmin) {
			logger.Warn("ban refused: target is an admin", "user_id", userID)
			respondError(w, "administrators cannot be banned", httputil.CodeCannotBanAdmin, http.StatusForbidden)
			return
		}
		logger.Error("failed to ban user", "error", err.Error())
		respondError(w, "failed to ban user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, newUserSummary(banned), http.StatusOK)
}

// Unban handles unbanning a user
// @Summary      Unban user
// @Description  Reset a user's role to player
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} UserSummary
// @Failure      404 {object} ErrorResponse "User not found"
// @Router       /admin/users/{id}/unban [patch]
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	unbanned, err := h.service.Unban(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to unban user", "error", err.Error())
		respondError(w, "failed to unban user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, newUserSummary(unbanned), http.StatusOK)
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
		return uuid.Nil, false
	}
	return userID, true
}

func parsePositiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
