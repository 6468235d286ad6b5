package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagedesk/blogapi/internal/auth"
	"github.com/pagedesk/blogapi/internal/domain/user"
	"github.com/pagedesk/blogapi/internal/http/handlers"
	"github.com/pagedesk/blogapi/internal/repo/postgres"
	"github.com/pagedesk/blogapi/internal/security"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementations of the handler's small repo interfaces

type fakeUsersRepo struct {
	getFn    func(ctx context.Context, username string) (user.User, error)
	createFn func(ctx context.Context, username, passwordHash string) (user.User, error)

	getCalls    int
	createCalls int
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	f.getCalls++
	if f.getFn != nil {
		return f.getFn(ctx, username)
	}
	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, username, passwordHash string) (user.User, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(ctx, username, passwordHash)
	}
	return user.User{}, nil
}

type fakeCaptcha struct {
	err   error
	calls int
}

func (f *fakeCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	f.calls++
	return f.err
}

// small helper which returns a gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func testManager() *auth.Manager {
	return auth.NewManager("test-secret", time.Hour)
}

func TestLogin(t *testing.T) {
	hash, err := security.HashPassword("s3cret-passw0rd")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	storedUser := user.User{
		ID:           "user-1",
		Username:     "alice",
		PasswordHash: hash,
	}

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		captchaErr     error
		wantStatusCode int
		wantRepoCalls  int
	}{
		{
			name: "success",
			body: `{"username": "alice", "password": "s3cret-passw0rd", "captchaToken": "tok"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getFn = func(ctx context.Context, username string) (user.User, error) {
					return storedUser, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantRepoCalls:  1,
		},
		{
			name: "wrong_password",
			body: `{"username": "alice", "password": "wrong", "captchaToken": "tok"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getFn = func(ctx context.Context, username string) (user.User, error) {
					return storedUser, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantRepoCalls:  1,
		},
		{
			name:           "unknown_user",
			body:           `{"username": "nobody", "password": "whatever", "captchaToken": "tok"}`,
			wantStatusCode: http.StatusUnauthorized,
			wantRepoCalls:  1,
		},
		{
			name:           "validation_error_skips_everything",
			body:           `{"username": "alice"}`,
			wantStatusCode: http.StatusBadRequest,
			wantRepoCalls:  0,
		},
		{
			name:           "captcha_rejection_blocks_lookup",
			body:           `{"username": "alice", "password": "s3cret-passw0rd"}`,
			captchaErr:     errors.New("rejected"),
			wantStatusCode: http.StatusBadRequest,
			wantRepoCalls:  0,
		},
		{
			name: "storage_error",
			body: `{"username": "alice", "password": "s3cret-passw0rd", "captchaToken": "tok"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getFn = func(ctx context.Context, username string) (user.User, error) {
					return user.User{}, errors.New("connection refused")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantRepoCalls:  1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			gate := &fakeCaptcha{err: tt.captchaErr}

			h := handlers.NewAuthHandler(repo, repo, testManager(), gate)

			r := setupRouter(http.MethodPost, "/api/auth/login", h.Login)

			w := postJSON(t, r, "/api/auth/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if repo.getCalls != tt.wantRepoCalls {
				t.Fatalf("got %d repo calls, want %d", repo.getCalls, tt.wantRepoCalls)
			}
		})
	}
}

// Unknown usernames and wrong passwords must be indistinguishable to the
// caller.
func TestLoginEnumerationResistance(t *testing.T) {
	hash, err := security.HashPassword("right-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	known := &fakeUsersRepo{
		getFn: func(ctx context.Context, username string) (user.User, error) {
			return user.User{ID: "user-1", Username: "alice", PasswordHash: hash}, nil
		},
	}
	unknown := &fakeUsersRepo{}

	wrongPassword := postJSON(t,
		setupRouter(http.MethodPost, "/login", handlers.NewAuthHandler(known, known, testManager(), &fakeCaptcha{}).Login),
		"/login", `{"username": "alice", "password": "wrong"}`)

	unknownUser := postJSON(t,
		setupRouter(http.MethodPost, "/login", handlers.NewAuthHandler(unknown, unknown, testManager(), &fakeCaptcha{}).Login),
		"/login", `{"username": "mallory", "password": "wrong"}`)

	if wrongPassword.Code != unknownUser.Code {
		t.Fatalf("status codes differ: %d vs %d", wrongPassword.Code, unknownUser.Code)
	}

	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("response bodies differ:\n%s\n%s", wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestLoginTokenRoundTrip(t *testing.T) {
	hash, err := security.HashPassword("s3cret-passw0rd")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	repo := &fakeUsersRepo{
		getFn: func(ctx context.Context, username string) (user.User, error) {
			return user.User{ID: "user-1", Username: "alice", PasswordHash: hash}, nil
		},
	}

	manager := testManager()

	h := handlers.NewAuthHandler(repo, repo, manager, &fakeCaptcha{})

	r := setupRouter(http.MethodPost, "/login", h.Login)

	w := postJSON(t, r, "/login", `{"username": "alice", "password": "s3cret-passw0rd"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	claims, err := manager.VerifyAccessToken(resp.Token)

	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}

	if claims.Username != "alice" {
		t.Fatalf("got username %q in claims, want %q", claims.Username, "alice")
	}
}

func TestVerifyEndpoint(t *testing.T) {
	manager := testManager()

	validToken, err := manager.GenerateAccessToken("user-1", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	expired, err := auth.NewManager("test-secret", -time.Minute).GenerateAccessToken("user-1", "alice")
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}

	tests := []struct {
		name           string
		body           string
		wantStatusCode int
		wantValid      bool
	}{
		{
			name:           "valid_token",
			body:           `{"token": "` + validToken + `"}`,
			wantStatusCode: http.StatusOK,
			wantValid:      true,
		},
		{
			name:           "garbage_token_still_200",
			body:           `{"token": "garbage"}`,
			wantStatusCode: http.StatusOK,
			wantValid:      false,
		},
		{
			name:           "expired_token_still_200",
			body:           `{"token": "` + expired + `"}`,
			wantStatusCode: http.StatusOK,
			wantValid:      false,
		},
		{
			name:           "missing_token",
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			h := handlers.NewAuthHandler(repo, repo, manager, &fakeCaptcha{})

			r := setupRouter(http.MethodPost, "/verify", h.Verify)

			w := postJSON(t, r, "/verify", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Valid    bool `json:"valid"`
				Identity *struct {
					Username string `json:"username"`
				} `json:"identity"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			if resp.Valid != tt.wantValid {
				t.Fatalf("got valid=%v, want %v", resp.Valid, tt.wantValid)
			}

			if tt.wantValid && (resp.Identity == nil || resp.Identity.Username != "alice") {
				t.Fatalf("identity missing or wrong: %+v", resp.Identity)
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
		wantCreates    int
	}{
		{
			name: "success",
			body: `{"username": "bob", "password": "longenough1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, passwordHash string) (user.User, error) {
					if passwordHash == "longenough1" {
						t.Error("password stored without hashing")
					}
					return user.User{ID: "user-2", Username: username}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantCreates:    1,
		},
		{
			name: "duplicate_username",
			body: `{"username": "bob", "password": "longenough1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, passwordHash string) (user.User, error) {
					return user.User{}, postgres.ErrUsernameTaken
				}
			},
			wantStatusCode: http.StatusConflict,
			wantCreates:    1,
		},
		{
			name:           "short_password_rejected",
			body:           `{"username": "bob", "password": "short"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCreates:    0,
		},
		{
			// 73 bytes is past what bcrypt hashes; validation must catch
			// it instead of the hasher erroring into a 500
			name:           "overlong_password_rejected",
			body:           `{"username": "bob", "password": "` + strings.Repeat("p", 73) + `"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCreates:    0,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, testManager(), &fakeCaptcha{})

			r := setupRouter(http.MethodPost, "/create-user", h.CreateUser)

			w := postJSON(t, r, "/create-user", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if repo.createCalls != tt.wantCreates {
				t.Fatalf("got %d create calls, want %d", repo.createCalls, tt.wantCreates)
			}
		})
	}
}
