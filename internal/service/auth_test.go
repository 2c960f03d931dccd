package service

import (
	"context"
	"errors"
	"testing"

	"github.com/acme/birthdays/internal/apperror"
	"github.com/acme/birthdays/internal/auth"
)

func newTestAuthService(t *testing.T, store *mockStore) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(store, tokens, auth.NewPasswordServiceForTest(4), testLogger())
}

func TestRegister_IssuesSession(t *testing.T) {
	store := newMockStore()
	svc := newTestAuthService(t, store)

	res, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.User.ID == "" || res.Token == "" {
		t.Errorf("Register() returned incomplete result: %+v", res)
	}
	if res.User.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plain text")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService(t, newMockStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "", "hunter2hunter2"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty login: error = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(ctx, "bob", "", "short"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("short password: error = %v, want ErrValidation", err)
	}
}

func TestRegister_DuplicateLogin(t *testing.T) {
	store := newMockStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "hunter2hunter2"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "alice", "", "hunter2hunter2")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("duplicate login: error = %v, want ErrValidation", err)
	}
}

func TestLogin_RoundTrip(t *testing.T) {
	store := newMockStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "hunter2hunter2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res, err := svc.Login(ctx, "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.Token == "" {
		t.Error("Login() returned empty token")
	}
}

func TestLogin_WrongPasswordAndUnknownLoginLookAlike(t *testing.T) {
	store := newMockStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "hunter2hunter2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errWrong := svc.Login(ctx, "alice", "not-the-password")
	_, errUnknown := svc.Login(ctx, "nobody", "whatever")

	if !errors.Is(errWrong, apperror.ErrValidation) {
		t.Errorf("wrong password: error = %v, want ErrValidation", errWrong)
	}
	if !errors.Is(errUnknown, apperror.ErrValidation) {
		t.Errorf("unknown login: error = %v, want ErrValidation", errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("login probe leak: %q vs %q", errWrong.Error(), errUnknown.Error())
	}
}

func TestLoginGitHub_StableIdentity(t *testing.T) {
	store := newMockStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	gh := &auth.GitHubUser{ID: 42, Login: "octo", AvatarURL: "https://example.com/a.png"}

	res1, err := svc.LoginGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("LoginGitHub() error = %v", err)
	}
	res2, err := svc.LoginGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("LoginGitHub() second call error = %v", err)
	}
	if res1.User.ID != res2.User.ID {
		t.Errorf("internal ID changed between logins: %q vs %q", res1.User.ID, res2.User.ID)
	}
}
