package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/xid"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/auth"
	"github.com/acme/birthdays/internal/service"
)

// AuthHandler serves registration, password login, logout, and the GitHub
// OAuth flow. github may be nil; the OAuth routes are simply not registered
// then.
type AuthHandler struct {
	authsvc  *service.AuthService
	github   *auth.GitHubProvider
	renderer *Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	authsvc *service.AuthService,
	github *auth.GitHubProvider,
	renderer *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authsvc:  authsvc,
		github:   github,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleRegisterForm serves the registration page.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "register", map[string]any{
		"Title": "Register",
	})
}

// HandleRegister creates an account and signs the new user in.
//
// HTTP: POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}

	res, err := h.authsvc.Register(r.Context(),
		r.PostFormValue("login"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
	)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			var appErr *apperror.AppError
			message := "invalid input"
			if errors.As(err, &appErr) {
				message = appErr.Message
			}
			h.renderer.Render(w, http.StatusOK, "register", map[string]any{
				"Title":      "Register",
				"Login":      r.PostFormValue("login"),
				"Email":      r.PostFormValue("email"),
				"ErrMessage": message,
			})
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	http.Redirect(w, r, "/birthdays/", http.StatusSeeOther)
}

// HandleLoginForm serves the login page. The optional next parameter is
// carried through the form so the post-login redirect lands where the user
// was headed.
//
// HTTP: GET /login?next=...
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login", map[string]any{
		"Title":        "Log in",
		"Next":         safeNext(r.URL.Query().Get("next")),
		"GitHubEnabled": h.github != nil,
	})
}

// HandleLogin verifies a password login and sets the session cookie.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}

	next := safeNext(r.PostFormValue("next"))

	res, err := h.authsvc.Login(r.Context(),
		r.PostFormValue("login"),
		r.PostFormValue("password"),
	)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.renderer.Render(w, http.StatusOK, "login", map[string]any{
				"Title":         "Log in",
				"Login":         r.PostFormValue("login"),
				"Next":          next,
				"GitHubEnabled": h.github != nil,
				"ErrMessage":    "invalid login or password",
			})
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	if next == "" {
		next = "/birthdays/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// HandleLogout clears the session cookie. POST, so a prefetched link can't
// log anyone out.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/birthdays/", http.StatusSeeOther)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
// The random state value is stored in a short-lived cookie and verified on
// callback, which ties the callback to a flow this server started.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login: verifies the state,
// exchanges the code for a GitHub profile, upserts the account, and sets
// the session cookie.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	res, err := h.authsvc.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, res.Token)
	http.Redirect(w, r, "/birthdays/", http.StatusSeeOther)
}

// setSessionCookie stores the session JWT in an HttpOnly cookie.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext keeps post-login redirects on this site. Anything that isn't a
// local absolute path is dropped.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return ""
}
