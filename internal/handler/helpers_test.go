package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acme/birthdays/internal/auth"
	"github.com/acme/birthdays/internal/handler"
	"github.com/acme/birthdays/internal/model"
	"github.com/acme/birthdays/internal/repository/sqlite"
	"github.com/acme/birthdays/internal/service"
)

// testTemplates is a minimal template set with the same page names as the
// real one. Each page emits a recognisable marker plus the fields the tests
// assert on, so tests exercise the handler data contract without depending
// on real markup.
var testTemplates = map[string]string{
	"base.html":           `{{define "base"}}[{{.Title}}] {{template "content" .}}{{end}}`,
	"list.html":           `{{define "content"}}list page={{.Result.Page}}/{{.Result.TotalPages}}:{{range .Result.Birthdays}} {{.FullName}}{{end}}{{end}}`,
	"detail.html":         `{{define "content"}}detail {{.Birthday.FullName}} countdown={{.Countdown}} comments={{len .Congratulations}}{{end}}`,
	"form.html":           `{{define "content"}}form action={{.Action}} err={{.ErrMessage}}{{end}}`,
	"confirm_delete.html": `{{define "content"}}confirm {{.Birthday.FullName}}{{end}}`,
	"login.html":          `{{define "content"}}login err={{.ErrMessage}}{{end}}`,
	"register.html":       `{{define "content"}}register err={{.ErrMessage}}{{end}}`,
}

type testEnv struct {
	db       *sqlite.DB
	tokens   *auth.TokenService
	authsvc  *service.AuthService
	birthday *handler.BirthdayHandler
	congrats *handler.CongratulationHandler
	auth     *handler.AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	for name, body := range testTemplates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	logger := slog.New(slog.DiscardHandler)

	renderer, err := handler.NewRenderer(dir, logger)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret-test-secret")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	authService := service.NewAuthService(db, tokens, passwords, logger)
	birthdayService := service.NewBirthdayService(db, db, db, logger)
	congratulationService := service.NewCongratulationService(db, db, logger)

	return &testEnv{
		db:       db,
		tokens:   tokens,
		authsvc:  authService,
		birthday: handler.NewBirthdayHandler(birthdayService, renderer, logger),
		congrats: handler.NewCongratulationHandler(congratulationService, logger),
		auth:     handler.NewAuthHandler(authService, nil, renderer, logger),
	}
}

func createUser(t *testing.T, env *testEnv, login string) *model.User {
	t.Helper()
	u := &model.User{Login: login}
	require.NoError(t, env.db.CreateUser(context.Background(), u))
	return u
}

func createBirthday(t *testing.T, env *testEnv, authorID, firstName string) *model.Birthday {
	t.Helper()
	b := &model.Birthday{
		FirstName: firstName,
		LastName:  "Tester",
		BirthDate: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
		AuthorID:  authorID,
	}
	require.NoError(t, env.db.CreateBirthday(context.Background(), b, nil))
	return b
}

// getRequest builds a GET with the {id} path value and, when userID is
// non-empty, an authenticated context.
func getRequest(target, id, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if id != "" {
		req.SetPathValue("id", id)
	}
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

// formRequest builds a POST with url-encoded form values.
func formRequest(target, id, userID string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if id != "" {
		req.SetPathValue("id", id)
	}
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}
