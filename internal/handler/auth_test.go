package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestAuthHandler_HandleRegister(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid registration sets a session and redirects", func(t *testing.T) {
		form := url.Values{
			"login":    {"alice"},
			"password": {"correct-horse"},
		}
		rr := httptest.NewRecorder()
		env.auth.HandleRegister(rr, formRequest("/register", "", "", form))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/birthdays/", rr.Header().Get("Location"))

		cookie := sessionCookie(rr)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		userID, err := env.tokens.Validate(cookie.Value)
		require.NoError(t, err)
		assert.NotEmpty(t, userID)
	})

	t.Run("short password re-renders the form", func(t *testing.T) {
		form := url.Values{
			"login":    {"bob"},
			"password": {"short"},
		}
		rr := httptest.NewRecorder()
		env.auth.HandleRegister(rr, formRequest("/register", "", "", form))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "register err=")
		assert.Nil(t, sessionCookie(rr))
	})

	t.Run("duplicate login re-renders with a message", func(t *testing.T) {
		form := url.Values{
			"login":    {"alice"},
			"password": {"correct-horse"},
		}
		rr := httptest.NewRecorder()
		env.auth.HandleRegister(rr, formRequest("/register", "", "", form))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "already taken")
	})
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	env := newTestEnv(t)

	// register once, then exercise login
	rr := httptest.NewRecorder()
	env.auth.HandleRegister(rr, formRequest("/register", "", "", url.Values{
		"login":    {"alice"},
		"password": {"correct-horse"},
	}))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	t.Run("correct credentials redirect to the list", func(t *testing.T) {
		form := url.Values{
			"login":    {"alice"},
			"password": {"correct-horse"},
		}
		rr := httptest.NewRecorder()
		env.auth.HandleLogin(rr, formRequest("/login", "", "", form))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/birthdays/", rr.Header().Get("Location"))
		assert.NotNil(t, sessionCookie(rr))
	})

	t.Run("next parameter is honoured for local paths", func(t *testing.T) {
		form := url.Values{
			"login":    {"alice"},
			"password": {"correct-horse"},
			"next":     {"/birthdays/abc/"},
		}
		rr := httptest.NewRecorder()
		env.auth.HandleLogin(rr, formRequest("/login", "", "", form))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/birthdays/abc/", rr.Header().Get("Location"))
	})

	t.Run("offsite next values are dropped", func(t *testing.T) {
		for _, next := range []string{"https://evil.example", "//evil.example/x"} {
			form := url.Values{
				"login":    {"alice"},
				"password": {"correct-horse"},
				"next":     {next},
			}
			rr := httptest.NewRecorder()
			env.auth.HandleLogin(rr, formRequest("/login", "", "", form))

			require.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, "/birthdays/", rr.Header().Get("Location"))
		}
	})

	t.Run("wrong password re-renders with a generic message", func(t *testing.T) {
		form := url.Values{
			"login":    {"alice"},
			"password": {"wrong-password"},
		}
		rr := httptest.NewRecorder()
		env.auth.HandleLogin(rr, formRequest("/login", "", "", form))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid login or password")
		assert.Nil(t, sessionCookie(rr))
	})

	t.Run("unknown login gets the same message", func(t *testing.T) {
		form := url.Values{
			"login":    {"nobody"},
			"password": {"whatever-pass"},
		}
		rr := httptest.NewRecorder()
		env.auth.HandleLogin(rr, formRequest("/login", "", "", form))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid login or password")
	})
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.auth.HandleLogout(rr, formRequest("/logout", "", "some-user", url.Values{}))

	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
