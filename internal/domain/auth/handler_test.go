package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/polyeduhub/polyeduhub-api/internal/domain/user"
	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/jwt"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/password"
)

func init() {
	password.Cost = bcrypt.MinCost
}

type fakeUserRepo struct {
	users  map[string]*user.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*user.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.Email]; ok {
		return user.ErrEmailTaken
	}
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.nextID++
	r.users[u.Email] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return r.users[email], nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id int64, first, last, image string) error {
	for _, u := range r.users {
		if u.ID == id {
			u.FirstName, u.LastName, u.ProfileImage = first, last, image
			return nil
		}
	}
	return user.ErrUserNotFound
}

func (r *fakeUserRepo) UpdatePassword(context.Context, int64, string) error { return nil }
func (r *fakeUserRepo) ListAdminIDs(context.Context) ([]int64, error)      { return nil, nil }

type recordingActivity struct {
	actions []string
}

func (a *recordingActivity) LogActivity(_ context.Context, _ int64, action, _ string) {
	a.actions = append(a.actions, action)
}

func newTestHandler() (*Handler, *fakeUserRepo, *recordingActivity) {
	repo := newFakeUserRepo()
	activity := &recordingActivity{}
	svc := NewService(repo, jwt.NewService("secret", time.Minute, time.Hour), nil, activity)
	return NewHandler(svc), repo, activity
}

func postJSON(h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestRegisterThenLogin(t *testing.T) {
	h, repo, activity := newTestHandler()

	rr := postJSON(h.Register, RegisterRequest{
		Email:     " Student@Example.com ",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	u := repo.users["student@example.com"]
	if u == nil {
		t.Fatal("expected normalized email to be stored")
	}
	if u.Role != user.RoleStudent {
		t.Fatalf("expected student role, got %s", u.Role)
	}

	rr = postJSON(h.Login, LoginRequest{Email: "student@example.com", Password: "password123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var out struct {
		Data AuthResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Data.Tokens.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if out.Data.Tokens.RefreshToken != "" {
		t.Fatal("refresh token must be omitted without Redis")
	}

	if len(activity.actions) != 2 || activity.actions[0] != "register" || activity.actions[1] != "login" {
		t.Fatalf("unexpected activity log: %v", activity.actions)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _ := newTestHandler()
	req := RegisterRequest{Email: "a@b.com", Password: "password123", FirstName: "A", LastName: "B"}

	postJSON(h.Register, req)
	rr := postJSON(h.Register, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _, _ := newTestHandler()
	postJSON(h.Register, RegisterRequest{Email: "a@b.com", Password: "password123", FirstName: "A", LastName: "B"})

	rr := postJSON(h.Login, LoginRequest{Email: "a@b.com", Password: "wrong-password"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := newTestHandler()
	rr := postJSON(h.Register, RegisterRequest{Email: "nope", Password: "short"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestMeUsesContextUser(t *testing.T) {
	h, repo, _ := newTestHandler()
	postJSON(h.Register, RegisterRequest{Email: "me@b.com", Password: "password123", FirstName: "Me", LastName: "Too"})
	id := repo.users["me@b.com"].ID

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), id, "student"))
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out struct {
		Data UserResponse `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &out)
	if out.Data.Email != "me@b.com" || out.Data.FirstName != "Me" {
		t.Fatalf("unexpected user: %+v", out.Data)
	}
}
