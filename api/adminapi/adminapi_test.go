package adminapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/storage/model"
)

type fakeStore struct {
	users  map[string]*model.User
	passwd map[string]string
	crates []*model.Crate
	owners []model.CrateOwner
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*model.User),
		passwd: make(map[string]string),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

type fakeUsers fakeStore

func (f *fakeUsers) Count() (int64, error) { return int64(len(f.users)), nil }

func (f *fakeUsers) List() ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Get(username string) (*model.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, model.NotFoundError("user not found")
	}
	return u, nil
}

func (f *fakeUsers) Create(username, password, displayName, email string) (*model.User, error) {
	if _, ok := f.users[username]; ok {
		return nil, model.AlreadyExistsError("user already exists")
	}
	u := &model.User{
		ID:          (*fakeStore)(f).id(),
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   time.Now(),
	}
	f.users[username] = u
	f.passwd[username] = password
	return u, nil
}

func (f *fakeUsers) Update(username string, displayName, email, newPassword *string, disabled *bool) (*model.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, model.NotFoundError("user not found")
	}
	if displayName != nil {
		u.DisplayName = *displayName
	}
	if email != nil {
		u.Email = *email
		u.EmailVerified = false
	}
	if newPassword != nil {
		f.passwd[username] = *newPassword
	}
	if disabled != nil {
		u.Disabled = *disabled
	}
	return u, nil
}

func (f *fakeUsers) SetEmailVerified(username string, verified bool) error {
	u, ok := f.users[username]
	if !ok {
		return model.NotFoundError("user not found")
	}
	u.EmailVerified = verified
	return nil
}

func (f *fakeUsers) Delete(username string) error {
	if _, ok := f.users[username]; !ok {
		return model.NotFoundError("user not found")
	}
	delete(f.users, username)
	delete(f.passwd, username)
	return nil
}

func (f *fakeUsers) Authenticate(username, password string) (*model.User, error) {
	u, ok := f.users[username]
	if !ok || f.passwd[username] != password {
		return nil, model.NotFoundError("invalid credentials")
	}
	return u, nil
}

type fakeCrates fakeStore

func (f *fakeCrates) List() ([]model.Crate, error) {
	out := make([]model.Crate, len(f.crates))
	for i, crate := range f.crates {
		out[i] = *crate
	}
	return out, nil
}

func (f *fakeCrates) Get(name string) (*model.Crate, error) {
	for _, crate := range f.crates {
		if strings.EqualFold(crate.Name, name) {
			return crate, nil
		}
	}
	return nil, model.NotFoundError("crate not found")
}

func (f *fakeCrates) GetByID(id int64) (*model.Crate, error) {
	for _, crate := range f.crates {
		if crate.ID == id {
			return crate, nil
		}
	}
	return nil, model.NotFoundError("crate not found")
}

func (f *fakeCrates) Create(name, description string) (*model.Crate, error) {
	if _, err := f.Get(name); err == nil {
		return nil, model.AlreadyExistsError("crate already exists")
	}
	crate := &model.Crate{ID: (*fakeStore)(f).id(), Name: name, Description: description}
	f.crates = append(f.crates, crate)
	return crate, nil
}

func (f *fakeCrates) AddOwner(crateID, ownerID int64, kind model.OwnerKind) error {
	for _, owner := range f.owners {
		if owner.CrateID == crateID && owner.OwnerID == ownerID && owner.OwnerKind == kind {
			return model.AlreadyExistsError("owner already registered for crate")
		}
	}
	f.owners = append(f.owners, model.CrateOwner{CrateID: crateID, OwnerID: ownerID, OwnerKind: kind})
	return nil
}

func (f *fakeCrates) IsUserOwner(crateID, userID int64) (bool, error) {
	for _, owner := range f.owners {
		if owner.CrateID == crateID && owner.OwnerID == userID && owner.OwnerKind == model.OwnerKindUser {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCrates) UserOwners(crateID int64) ([]model.User, error) {
	var out []model.User
	for _, owner := range f.owners {
		if owner.CrateID != crateID || owner.OwnerKind != model.OwnerKindUser {
			continue
		}
		for _, u := range f.users {
			if u.ID == owner.OwnerID {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (f *fakeCrates) OwnedCrates(userID int64) ([]model.Crate, error) {
	var out []model.Crate
	for _, owner := range f.owners {
		if owner.OwnerID != userID || owner.OwnerKind != model.OwnerKindUser {
			continue
		}
		for _, crate := range f.crates {
			if crate.ID == owner.CrateID {
				out = append(out, *crate)
			}
		}
	}
	return out, nil
}

func newTestApp(store *fakeStore) *fiber.App {
	app := fiber.New()
	Register(
		app.Group("/api/v1/admin"),
		model.Backends{Users: (*fakeUsers)(store), Crates: (*fakeCrates)(store)},
		nil,
	)
	return app
}

func jsonReq(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestAuthOpenWithoutUsers(t *testing.T) {
	app := newTestApp(newFakeStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAuthRequiredWithUsers(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(store)

	// Bootstrap the first user without credentials
	resp, err := app.Test(
		jsonReq(
			http.MethodPost, "/api/v1/admin/users/",
			map[string]any{"username": "admin", "password": "secret"},
		), -1,
	)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	// Unauthenticated requests are rejected now
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	// Wrong credentials are rejected
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/", nil)
	req.Header.Set("Authorization", basicAuth("admin", "wrong"))
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	// Valid credentials pass
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/", nil)
	req.Header.Set("Authorization", basicAuth("admin", "secret"))
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCratesAndOwners(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(store)

	resp, err := app.Test(
		jsonReq(
			http.MethodPost, "/api/v1/admin/users/",
			map[string]any{"username": "alice", "password": "secret", "email": "alice@example.com"},
		), -1,
	)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	auth := basicAuth("alice", "secret")
	req := jsonReq(
		http.MethodPost, "/api/v1/admin/crates/",
		map[string]any{"name": "serde", "description": "serialization framework"},
	)
	req.Header.Set("Authorization", auth)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	req = jsonReq(
		http.MethodPost, "/api/v1/admin/crates/serde/owners",
		map[string]any{"username": "alice"},
	)
	req.Header.Set("Authorization", auth)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/crates/serde/owners", nil)
	req.Header.Set("Authorization", auth)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var owners []model.User
	if err = json.NewDecoder(resp.Body).Decode(&owners); err != nil {
		t.Fatalf("decoding owners: %v", err)
	}
	if len(owners) != 1 || owners[0].Username != "alice" {
		t.Fatalf("owners = %+v, want alice", owners)
	}

	// Adding the same owner again conflicts
	req = jsonReq(
		http.MethodPost, "/api/v1/admin/crates/serde/owners",
		map[string]any{"username": "alice"},
	)
	req.Header.Set("Authorization", auth)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}
