package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/auth"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/service"
)

// BirthdayHandler serves the list, detail, create, edit, and delete pages.
type BirthdayHandler struct {
	birthdays *service.BirthdayService
	renderer  *Renderer
	logger    *slog.Logger
}

// NewBirthdayHandler creates a BirthdayHandler.
func NewBirthdayHandler(birthdays *service.BirthdayService, renderer *Renderer, logger *slog.Logger) *BirthdayHandler {
	return &BirthdayHandler{
		birthdays: birthdays,
		renderer:  renderer,
		logger:    logger,
	}
}

// HandleList serves the paginated list page.
//
// HTTP: GET /birthdays/?page=N
func (h *BirthdayHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	result, err := h.birthdays.List(r.Context(), page)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "list", map[string]any{
		"Title":  "Birthdays",
		"UserID": userID,
		"Result": result,
	})
}

// HandleNewForm serves the empty create form.
//
// HTTP: GET /birthdays/new (auth required)
func (h *BirthdayHandler) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formState{Action: "/birthdays/new", Title: "Add birthday"})
}

// HandleCreate accepts the create form submission. A validation failure
// re-renders the form with the error; success redirects to the new record's
// detail page.
//
// HTTP: POST /birthdays/new (auth required)
func (h *BirthdayHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	in, parseErr := parseBirthdayForm(r)
	if parseErr == nil {
		b, err := h.birthdays.Create(r.Context(), userID, in)
		if err == nil {
			http.Redirect(w, r, "/birthdays/"+b.ID+"/", http.StatusSeeOther)
			return
		}
		if !errors.Is(err, apperror.ErrValidation) {
			respondError(w, r, h.logger, err)
			return
		}
		parseErr = err
	}

	h.renderForm(w, r, http.StatusOK, formState{
		Action: "/birthdays/new",
		Title:  "Add birthday",
		Input:  in,
		Err:    parseErr,
	})
}

// HandleEditForm serves the edit form pre-filled with the stored record.
// The ownership guard runs before anything is rendered: a non-author gets
// 403 without seeing the form.
//
// HTTP: GET /birthdays/{id}/edit (auth + ownership required)
func (h *BirthdayHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	b, err := h.birthdays.GetOwned(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.renderForm(w, r, http.StatusOK, formState{
		Action: "/birthdays/" + b.ID + "/edit",
		Title:  "Edit birthday",
		Input:  inputFromModel(b),
	})
}

// HandleUpdate accepts the edit form submission.
//
// HTTP: POST /birthdays/{id}/edit (auth + ownership required)
func (h *BirthdayHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	in, parseErr := parseBirthdayForm(r)
	if parseErr == nil {
		b, err := h.birthdays.Update(r.Context(), userID, id, in)
		if err == nil {
			http.Redirect(w, r, "/birthdays/"+b.ID+"/", http.StatusSeeOther)
			return
		}
		if !errors.Is(err, apperror.ErrValidation) {
			respondError(w, r, h.logger, err)
			return
		}
		parseErr = err
	} else {
		// a malformed submission still must not leak the form to non-owners
		if _, err := h.birthdays.GetOwned(r.Context(), userID, id); err != nil {
			respondError(w, r, h.logger, err)
			return
		}
	}

	h.renderForm(w, r, http.StatusOK, formState{
		Action: "/birthdays/" + id + "/edit",
		Title:  "Edit birthday",
		Input:  in,
		Err:    parseErr,
	})
}

// HandleDeleteForm serves the delete confirmation page, guarded like the
// edit form.
//
// HTTP: GET /birthdays/{id}/delete (auth + ownership required)
func (h *BirthdayHandler) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	b, err := h.birthdays.GetOwned(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "confirm_delete", map[string]any{
		"Title":    "Delete birthday",
		"UserID":   userID,
		"Birthday": b,
	})
}

// HandleDelete removes the record and redirects to the list.
//
// HTTP: POST /birthdays/{id}/delete (auth + ownership required)
func (h *BirthdayHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.birthdays.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, "/birthdays/", http.StatusSeeOther)
}

// HandleDetail serves the detail page: the record, the countdown, the
// comment thread, and an empty comment form. Open to anonymous readers.
//
// HTTP: GET /birthdays/{id}/
func (h *BirthdayHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	detail, err := h.birthdays.Detail(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	h.renderer.Render(w, http.StatusOK, "detail", map[string]any{
		"Title":           detail.Birthday.FullName(),
		"UserID":          userID,
		"Birthday":        detail.Birthday,
		"Countdown":       detail.Countdown,
		"Congratulations": detail.Congratulations,
	})
}

// formState bundles what the shared form template needs.
type formState struct {
	Action string
	Title  string
	Input  service.BirthdayInput
	Err    error
}

// renderForm renders the create/edit form, including the tag catalog and
// any validation error.
func (h *BirthdayHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, state formState) {
	tags, err := h.birthdays.Tags(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var errField, errMessage string
	if state.Err != nil {
		errMessage = "invalid input"
		var appErr *apperror.AppError
		if errors.As(state.Err, &appErr) {
			errField = appErr.Field
			errMessage = appErr.Message
		}
	}

	selected := make(map[string]bool, len(state.Input.TagIDs))
	for _, id := range state.Input.TagIDs {
		selected[id] = true
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	h.renderer.Render(w, status, "form", map[string]any{
		"Title":        state.Title,
		"UserID":       userID,
		"Action":       state.Action,
		"Input":        state.Input,
		"BirthDateStr": formatBirthDate(state.Input.BirthDate),
		"Tags":         tags,
		"SelectedTags": selected,
		"ErrField":     errField,
		"ErrMessage":   errMessage,
	})
}

// parseBirthdayForm decodes the submitted form fields into a BirthdayInput.
// An unparseable date comes back as a validation error with the rest of the
// fields preserved so the form can re-render what the user typed.
func parseBirthdayForm(r *http.Request) (service.BirthdayInput, error) {
	if err := r.ParseForm(); err != nil {
		return service.BirthdayInput{}, apperror.ValidationFailed("", "malformed form submission")
	}

	in := service.BirthdayInput{
		FirstName:   r.PostFormValue("first_name"),
		LastName:    r.PostFormValue("last_name"),
		Description: r.PostFormValue("description"),
		TagIDs:      r.PostForm["tags"],
	}

	raw := r.PostFormValue("birth_date")
	if raw == "" {
		return in, apperror.ValidationFailed("birth_date", "birth date is required")
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return in, apperror.ValidationFailed("birth_date", "birth date must be YYYY-MM-DD")
	}
	in.BirthDate = parsed

	return in, nil
}

func inputFromModel(b *model.Birthday) service.BirthdayInput {
	tagIDs := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		tagIDs = append(tagIDs, t.ID)
	}
	return service.BirthdayInput{
		FirstName:   b.FirstName,
		LastName:    b.LastName,
		BirthDate:   b.BirthDate,
		Description: b.Description,
		TagIDs:      tagIDs,
	}
}

func formatBirthDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
