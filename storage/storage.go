package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/craterio/registry/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
}

var models = []any{
	&model.User{},
	&model.Crate{},
	&model.CrateOwner{},
	&model.GitHubConfig{},
	&model.GitLabConfig{},
	&model.Token{},
	&model.UsedJTI{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

// CratesStorage returns a CratesStorage
func (s *Storage) CratesStorage() *CratesStorage {
	return &CratesStorage{db: s.db}
}

// GitHubConfigsStorage returns a GitHubConfigsStorage
func (s *Storage) GitHubConfigsStorage() *GitHubConfigsStorage {
	return &GitHubConfigsStorage{db: s.db}
}

// GitLabConfigsStorage returns a GitLabConfigsStorage
func (s *Storage) GitLabConfigsStorage() *GitLabConfigsStorage {
	return &GitLabConfigsStorage{db: s.db}
}

// TokensStorage returns a TokensStorage
func (s *Storage) TokensStorage() *TokensStorage {
	return &TokensStorage{db: s.db}
}

// Users storage is implemented in users_storage.go

// Backends returns the grouped storage interfaces backed by this Storage.
// The InTransaction field runs a callback with all stores bound to a single
// database transaction.
func (s *Storage) Backends() model.Backends {
	return backendsFor(s.db, s.userParams)
}

func backendsFor(db *gorm.DB, userParams Argon2idParams) model.Backends {
	return model.Backends{
		Users:         &UsersStorage{db: db, params: userParams},
		Crates:        &CratesStorage{db: db},
		GitHubConfigs: &GitHubConfigsStorage{db: db},
		GitLabConfigs: &GitLabConfigsStorage{db: db},
		Tokens:        &TokensStorage{db: db},
		InTransaction: func(fn func(tx model.Backends) error) error {
			return db.Transaction(
				func(tx *gorm.DB) error {
					return fn(backendsFor(tx, userParams))
				},
			)
		},
	}
}
