package trustpubapi

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v3/jwk"

	githubapi "github.com/craterio/registry/github"
	"github.com/craterio/registry/storage/model"
)

// memoryBackends is an in-memory model.Backends implementation for handler
// tests.
type memoryBackends struct {
	users         map[string]*model.User
	passwords     map[string]string
	crates        []*model.Crate
	owners        []model.CrateOwner
	githubConfigs []*model.GitHubConfig
	gitlabConfigs []*model.GitLabConfig
	tokens        []*model.Token
	jtis          map[string]time.Time

	nextID int64
}

func newMemoryBackends() *memoryBackends {
	return &memoryBackends{
		users:     make(map[string]*model.User),
		passwords: make(map[string]string),
		jtis:      make(map[string]time.Time),
	}
}

func (m *memoryBackends) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryBackends) backends() model.Backends {
	return model.Backends{
		Users:         (*memoryUsers)(m),
		Crates:        (*memoryCrates)(m),
		GitHubConfigs: (*memoryGitHubConfigs)(m),
		GitLabConfigs: (*memoryGitLabConfigs)(m),
		Tokens:        (*memoryTokens)(m),
		InTransaction: func(fn func(tx model.Backends) error) error {
			return fn(m.backends())
		},
	}
}

func (m *memoryBackends) addUser(username, password string, emailVerified bool) *model.User {
	u := &model.User{
		ID:            m.id(),
		Username:      username,
		Email:         username + "@example.com",
		EmailVerified: emailVerified,
	}
	m.users[username] = u
	m.passwords[username] = password
	return u
}

func (m *memoryBackends) addCrate(name string, ownerIDs ...int64) *model.Crate {
	crate := &model.Crate{ID: m.id(), Name: name}
	m.crates = append(m.crates, crate)
	for _, ownerID := range ownerIDs {
		m.owners = append(
			m.owners,
			model.CrateOwner{CrateID: crate.ID, OwnerID: ownerID, OwnerKind: model.OwnerKindUser},
		)
	}
	return crate
}

type memoryUsers memoryBackends

func (m *memoryUsers) Count() (int64, error)       { return int64(len(m.users)), nil }
func (m *memoryUsers) List() ([]model.User, error) { return nil, nil }
func (m *memoryUsers) Delete(string) error         { return nil }
func (m *memoryUsers) SetEmailVerified(string, bool) error {
	return nil
}

func (m *memoryUsers) Get(username string) (*model.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, model.NotFoundErrorFmt("user not found: %s", username)
	}
	return u, nil
}

func (m *memoryUsers) Create(username, password, displayName, email string) (*model.User, error) {
	return nil, nil
}

func (m *memoryUsers) Update(string, *string, *string, *string, *bool) (*model.User, error) {
	return nil, nil
}

func (m *memoryUsers) Authenticate(username, password string) (*model.User, error) {
	u, ok := m.users[username]
	if !ok || m.passwords[username] != password {
		return nil, model.NotFoundError("invalid credentials")
	}
	return u, nil
}

type memoryCrates memoryBackends

func (m *memoryCrates) List() ([]model.Crate, error) {
	crates := make([]model.Crate, len(m.crates))
	for i, crate := range m.crates {
		crates[i] = *crate
	}
	return crates, nil
}

func (m *memoryCrates) Get(name string) (*model.Crate, error) {
	for _, crate := range m.crates {
		if strings.EqualFold(crate.Name, name) {
			return crate, nil
		}
	}
	return nil, model.NotFoundErrorFmt("crate `%s` does not exist", name)
}

func (m *memoryCrates) GetByID(id int64) (*model.Crate, error) {
	for _, crate := range m.crates {
		if crate.ID == id {
			return crate, nil
		}
	}
	return nil, model.NotFoundErrorFmt("crate %d does not exist", id)
}

func (m *memoryCrates) Create(name, description string) (*model.Crate, error) {
	return nil, nil
}

func (m *memoryCrates) AddOwner(crateID, ownerID int64, kind model.OwnerKind) error {
	m.owners = append(m.owners, model.CrateOwner{CrateID: crateID, OwnerID: ownerID, OwnerKind: kind})
	return nil
}

func (m *memoryCrates) IsUserOwner(crateID, userID int64) (bool, error) {
	for _, owner := range m.owners {
		if owner.CrateID == crateID && owner.OwnerID == userID && owner.OwnerKind == model.OwnerKindUser {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryCrates) UserOwners(crateID int64) ([]model.User, error) {
	var users []model.User
	for _, owner := range m.owners {
		if owner.CrateID != crateID || owner.OwnerKind != model.OwnerKindUser {
			continue
		}
		for _, u := range m.users {
			if u.ID == owner.OwnerID {
				users = append(users, *u)
			}
		}
	}
	return users, nil
}

func (m *memoryCrates) OwnedCrates(userID int64) ([]model.Crate, error) {
	var crates []model.Crate
	for _, owner := range m.owners {
		if owner.OwnerID != userID || owner.OwnerKind != model.OwnerKindUser {
			continue
		}
		for _, crate := range m.crates {
			if crate.ID == owner.CrateID {
				crates = append(crates, *crate)
			}
		}
	}
	sort.Slice(crates, func(i, j int) bool { return crates[i].ID < crates[j].ID })
	return crates, nil
}

type memoryGitHubConfigs memoryBackends

func (m *memoryGitHubConfigs) Create(config *model.GitHubConfig) error {
	b := (*memoryBackends)(m)
	config.ID = b.id()
	config.CreatedAt = time.Now()
	m.githubConfigs = append(m.githubConfigs, config)
	return nil
}

func (m *memoryGitHubConfigs) Get(id int64) (*model.GitHubConfig, error) {
	for _, config := range m.githubConfigs {
		if config.ID == id {
			return config, nil
		}
	}
	return nil, model.NotFoundError("github config not found")
}

func (m *memoryGitHubConfigs) Delete(id int64) error {
	for i, config := range m.githubConfigs {
		if config.ID == id {
			m.githubConfigs = append(m.githubConfigs[:i], m.githubConfigs[i+1:]...)
			return nil
		}
	}
	return model.NotFoundError("github config not found")
}

func (m *memoryGitHubConfigs) CountForCrate(crateID int64) (int64, error) {
	return m.CountForCrates([]int64{crateID})
}

func (m *memoryGitHubConfigs) CountForCrates(crateIDs []int64) (int64, error) {
	var count int64
	for _, config := range m.githubConfigs {
		if containsID(crateIDs, config.CrateID) {
			count++
		}
	}
	return count, nil
}

func (m *memoryGitHubConfigs) ListForCrates(crateIDs []int64, afterID int64, limit int) ([]model.GitHubConfig, error) {
	var out []model.GitHubConfig
	for _, config := range m.githubConfigs {
		if config.ID > afterID && containsID(crateIDs, config.CrateID) {
			out = append(out, *config)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryGitHubConfigs) FindForRepository(owner, name string) ([]model.GitHubConfig, error) {
	var out []model.GitHubConfig
	for _, config := range m.githubConfigs {
		if strings.EqualFold(config.RepositoryOwner, owner) && strings.EqualFold(config.RepositoryName, name) {
			out = append(out, *config)
		}
	}
	return out, nil
}

type memoryGitLabConfigs memoryBackends

func (m *memoryGitLabConfigs) Create(config *model.GitLabConfig) error {
	b := (*memoryBackends)(m)
	config.ID = b.id()
	config.CreatedAt = time.Now()
	m.gitlabConfigs = append(m.gitlabConfigs, config)
	return nil
}

func (m *memoryGitLabConfigs) Get(id int64) (*model.GitLabConfig, error) {
	for _, config := range m.gitlabConfigs {
		if config.ID == id {
			return config, nil
		}
	}
	return nil, model.NotFoundError("gitlab config not found")
}

func (m *memoryGitLabConfigs) Delete(id int64) error {
	for i, config := range m.gitlabConfigs {
		if config.ID == id {
			m.gitlabConfigs = append(m.gitlabConfigs[:i], m.gitlabConfigs[i+1:]...)
			return nil
		}
	}
	return model.NotFoundError("gitlab config not found")
}

func (m *memoryGitLabConfigs) CountForCrate(crateID int64) (int64, error) {
	return m.CountForCrates([]int64{crateID})
}

func (m *memoryGitLabConfigs) CountForCrates(crateIDs []int64) (int64, error) {
	var count int64
	for _, config := range m.gitlabConfigs {
		if containsID(crateIDs, config.CrateID) {
			count++
		}
	}
	return count, nil
}

func (m *memoryGitLabConfigs) ListForCrates(crateIDs []int64, afterID int64, limit int) ([]model.GitLabConfig, error) {
	var out []model.GitLabConfig
	for _, config := range m.gitlabConfigs {
		if config.ID > afterID && containsID(crateIDs, config.CrateID) {
			out = append(out, *config)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryGitLabConfigs) FindForProject(namespace, project string) ([]model.GitLabConfig, error) {
	var out []model.GitLabConfig
	for _, config := range m.gitlabConfigs {
		if strings.EqualFold(config.Namespace, namespace) && strings.EqualFold(config.Project, project) {
			out = append(out, *config)
		}
	}
	return out, nil
}

func (m *memoryGitLabConfigs) BackfillNamespaceID(ids []int64, namespaceID string) error {
	for _, config := range m.gitlabConfigs {
		if config.NamespaceID == nil && containsID(ids, config.ID) {
			id := namespaceID
			config.NamespaceID = &id
		}
	}
	return nil
}

type memoryTokens memoryBackends

func (m *memoryTokens) InsertUsedJTI(jti string, expiresAt time.Time) error {
	if _, ok := m.jtis[jti]; ok {
		return model.AlreadyExistsError("jti already used")
	}
	m.jtis[jti] = expiresAt
	return nil
}

func (m *memoryTokens) Create(token *model.Token) error {
	b := (*memoryBackends)(m)
	token.ID = b.id()
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *memoryTokens) FindByHash(hash string) (*model.Token, error) {
	for _, token := range m.tokens {
		if token.HashedToken == hash && token.ExpiresAt.After(time.Now()) {
			return token, nil
		}
	}
	return nil, model.NotFoundError("token not found")
}

func (m *memoryTokens) DeleteByHash(hash string) error {
	for i, token := range m.tokens {
		if token.HashedToken == hash {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryTokens) SweepExpired(time.Time) (int64, error) { return 0, nil }

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// fakeKeyStore serves a fixed key for a fixed key ID.
type fakeKeyStore struct {
	keyID string
	key   jwk.Key
}

func (s *fakeKeyStore) Key(_ context.Context, keyID string) (jwk.Key, bool, error) {
	if keyID != s.keyID {
		return nil, false, nil
	}
	return s.key, true, nil
}

// fakeGitHubClient resolves accounts from a fixed map keyed by lowercased
// login.
type fakeGitHubClient struct {
	accounts map[string]*githubapi.Account
}

func (c *fakeGitHubClient) Account(_ context.Context, login string) (*githubapi.Account, error) {
	account, ok := c.accounts[strings.ToLower(login)]
	if !ok {
		return nil, githubapi.ErrAccountNotFound
	}
	return account, nil
}

func newTestApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(app.Group("/api/v1/trusted_publishing"), deps)
	return app
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
