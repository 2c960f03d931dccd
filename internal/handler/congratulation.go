package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/auth"
	"github.com/acme/birthdays/internal/service"
)

// CongratulationHandler serves the add-comment form submission.
type CongratulationHandler struct {
	congrats *service.CongratulationService
	logger   *slog.Logger
}

// NewCongratulationHandler creates a CongratulationHandler.
func NewCongratulationHandler(congrats *service.CongratulationService, logger *slog.Logger) *CongratulationHandler {
	return &CongratulationHandler{congrats: congrats, logger: logger}
}

// HandleAddComment posts a congratulation on a birthday and redirects back
// to its detail page. Invalid text is discarded silently: the redirect
// happens either way, only a valid comment is persisted. A missing birthday
// is still 404.
//
// HTTP: POST /birthdays/{id}/comment (auth required)
func (h *CongratulationHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}

	_, err := h.congrats.Add(r.Context(), userID, id, r.PostFormValue("text"))
	if err != nil && !errors.Is(err, apperror.ErrValidation) {
		respondError(w, r, h.logger, err)
		return
	}
	if err != nil {
		h.logger.Warn("discarding invalid congratulation",
			slog.String("birthdayID", id),
			slog.String("error", err.Error()),
		)
	}

	http.Redirect(w, r, "/birthdays/"+id+"/", http.StatusSeeOther)
}
