package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/acme/birthdays/internal/apperror"
)

// respondError maps a domain error onto the HTTP surface: 404 for missing
// records, 403 for ownership violations, a login redirect for anonymous
// access, 500 for everything unexpected. Validation errors never reach here;
// handlers re-render their form instead.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		http.Error(w, "404 Not Found", http.StatusNotFound)
	case errors.Is(err, apperror.ErrForbidden):
		http.Error(w, "403 Forbidden", http.StatusForbidden)
	case errors.Is(err, apperror.ErrUnauthenticated):
		redirectToLogin(w, r)
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// redirectToLogin sends the browser to the login page, carrying the original
// URL so the user lands back after signing in.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
}
