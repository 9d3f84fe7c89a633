package game

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/spielrunde/cardtable/internal/auth"
	"github.com/spielrunde/cardtable/internal/httputil"
	"github.com/spielrunde/cardtable/internal/logging"
	"github.com/spielrunde/cardtable/internal/user"
)

// PlayerLister lists the registered users offered in the entry autocomplete
type PlayerLister interface {
	ListRegistered(ctx context.Context, exclude uuid.UUID) ([]*user.User, error)
}

// Handler contains HTTP handlers for the new-game draft
type Handler struct {
	players PlayerLister
}

func NewHandler(players PlayerLister) *Handler {
	return &Handler{players: players}
}

// PlayersResponse represents the known-player list
type PlayersResponse struct {
	Players []KnownPlayer `json:"players"`
}

// DraftResponse represents a validated draft
type DraftResponse struct {
	Draft   Draft  `json:"draft"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListPlayers returns users eligible for a player slot
// @Summary      List known players
// @Description  Registered, verified users for the player entry autocomplete. The caller is excluded.
// @Tags         game
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} PlayersResponse
// @Router       /game/players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	users, err := h.players.ListRegistered(r.Context(), currentUser.ID)
	if err != nil {
		logger.Error("failed to list players", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list players", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	players := make([]KnownPlayer, 0, len(users))
	for _, u := range users {
		players = append(players, KnownPlayer{Name: u.Name, Email: u.Email})
	}

	httputil.RespondJSON(w, PlayersResponse{Players: players}, http.StatusOK)
}

// SubmitDraft validates a game draft
// @Summary      Validate a game draft
// @Description  Validate the whole draft and return the normalized slots. Game creation itself is not implemented yet; nothing is persisted.
// @Tags         game
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body DraftInput true "Game draft"
// @Success      202 {object} DraftResponse
// @Failure      422 {object} DraftResponse "Draft has validation errors"
// @Router       /game/draft [post]
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	currentUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var input DraftInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Warn("invalid draft request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	known, err := h.players.ListRegistered(r.Context(), currentUser.ID)
	if err != nil {
		logger.Error("failed to list players", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to validate draft", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	knownPlayers := make([]KnownPlayer, 0, len(known))
	for _, u := range known {
		knownPlayers = append(knownPlayers, KnownPlayer{Name: u.Name, Email: u.Email})
	}

	draft := Validate(input, KnownPlayer{Name: currentUser.Name, Email: currentUser.Email}, knownPlayers)

	if !draft.Valid {
		httputil.RespondJSON(w, DraftResponse{
			Draft:   draft,
			Message: "draft has validation errors",
		}, http.StatusUnprocessableEntity)
		return
	}

	suffix, err := GenerateNameSuffix()
	if err != nil {
		logger.Error("failed to generate game name suffix", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to validate draft", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	draft.Name = draft.NamePrefix + suffix

	logger.Info("game draft accepted", "players", len(draft.Slots), "cards_per_player", draft.CardsPerPlayer)

	// Game creation is not implemented yet; the draft is accepted but nothing
	// is persisted
	httputil.RespondJSON(w, DraftResponse{
		Draft:   draft,
		Message: "draft accepted",
	}, http.StatusAccepted)
}
