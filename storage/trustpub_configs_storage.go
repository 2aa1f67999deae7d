package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/craterio/registry/storage/model"
)

// GitHubConfigsStorage implements GitHubConfigsStore using GORM
type GitHubConfigsStorage struct {
	db *gorm.DB
}

// Create stores a new configuration
func (s *GitHubConfigsStorage) Create(config *model.GitHubConfig) error {
	if err := s.db.Create(config).Error; err != nil {
		return errors.Wrap(err, "github_configs: create failed")
	}
	return nil
}

// Get returns a configuration by ID
func (s *GitHubConfigsStorage) Get(id int64) (*model.GitHubConfig, error) {
	var config model.GitHubConfig
	if err := s.db.First(&config, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundError("github config not found")
		}
		return nil, errors.Wrap(err, "github_configs: get failed")
	}
	return &config, nil
}

// Delete removes a configuration by ID
func (s *GitHubConfigsStorage) Delete(id int64) error {
	res := s.db.Delete(&model.GitHubConfig{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "github_configs: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundError("github config not found")
	}
	return nil
}

// CountForCrate returns the number of configurations for a crate
func (s *GitHubConfigsStorage) CountForCrate(crateID int64) (int64, error) {
	var count int64
	err := s.db.Model(&model.GitHubConfig{}).Where("crate_id = ?", crateID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "github_configs: count failed")
	}
	return count, nil
}

// ListForCrates returns configurations for the given crates ordered by ID,
// skipping IDs up to afterID and returning at most limit entries
func (s *GitHubConfigsStorage) ListForCrates(crateIDs []int64, afterID int64, limit int) ([]model.GitHubConfig, error) {
	var configs []model.GitHubConfig
	err := s.db.Where("crate_id IN ? AND id > ?", crateIDs, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&configs).Error
	if err != nil {
		return nil, errors.Wrap(err, "github_configs: list failed")
	}
	return configs, nil
}

// CountForCrates returns the total number of configurations for the given crates
func (s *GitHubConfigsStorage) CountForCrates(crateIDs []int64) (int64, error) {
	var count int64
	err := s.db.Model(&model.GitHubConfig{}).Where("crate_id IN ?", crateIDs).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "github_configs: count failed")
	}
	return count, nil
}

// FindForRepository returns all configurations matching the repository owner
// and name, compared case-insensitively
func (s *GitHubConfigsStorage) FindForRepository(owner, name string) ([]model.GitHubConfig, error) {
	var configs []model.GitHubConfig
	err := s.db.Where(
		"lower(repository_owner) = lower(?) AND lower(repository_name) = lower(?)", owner, name,
	).Find(&configs).Error
	if err != nil {
		return nil, errors.Wrap(err, "github_configs: find for repository failed")
	}
	return configs, nil
}

// GitLabConfigsStorage implements GitLabConfigsStore using GORM
type GitLabConfigsStorage struct {
	db *gorm.DB
}

// Create stores a new configuration
func (s *GitLabConfigsStorage) Create(config *model.GitLabConfig) error {
	if err := s.db.Create(config).Error; err != nil {
		return errors.Wrap(err, "gitlab_configs: create failed")
	}
	return nil
}

// Get returns a configuration by ID
func (s *GitLabConfigsStorage) Get(id int64) (*model.GitLabConfig, error) {
	var config model.GitLabConfig
	if err := s.db.First(&config, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundError("gitlab config not found")
		}
		return nil, errors.Wrap(err, "gitlab_configs: get failed")
	}
	return &config, nil
}

// Delete removes a configuration by ID
func (s *GitLabConfigsStorage) Delete(id int64) error {
	res := s.db.Delete(&model.GitLabConfig{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "gitlab_configs: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundError("gitlab config not found")
	}
	return nil
}

// CountForCrate returns the number of configurations for a crate
func (s *GitLabConfigsStorage) CountForCrate(crateID int64) (int64, error) {
	var count int64
	err := s.db.Model(&model.GitLabConfig{}).Where("crate_id = ?", crateID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "gitlab_configs: count failed")
	}
	return count, nil
}

// ListForCrates returns configurations for the given crates ordered by ID,
// skipping IDs up to afterID and returning at most limit entries
func (s *GitLabConfigsStorage) ListForCrates(crateIDs []int64, afterID int64, limit int) ([]model.GitLabConfig, error) {
	var configs []model.GitLabConfig
	err := s.db.Where("crate_id IN ? AND id > ?", crateIDs, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&configs).Error
	if err != nil {
		return nil, errors.Wrap(err, "gitlab_configs: list failed")
	}
	return configs, nil
}

// CountForCrates returns the total number of configurations for the given crates
func (s *GitLabConfigsStorage) CountForCrates(crateIDs []int64) (int64, error) {
	var count int64
	err := s.db.Model(&model.GitLabConfig{}).Where("crate_id IN ?", crateIDs).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "gitlab_configs: count failed")
	}
	return count, nil
}

// FindForProject returns all configurations matching the namespace and
// project, compared case-insensitively
func (s *GitLabConfigsStorage) FindForProject(namespace, project string) ([]model.GitLabConfig, error) {
	var configs []model.GitLabConfig
	err := s.db.Where(
		"lower(namespace) = lower(?) AND lower(project) = lower(?)", namespace, project,
	).Find(&configs).Error
	if err != nil {
		return nil, errors.Wrap(err, "gitlab_configs: find for project failed")
	}
	return configs, nil
}

// BackfillNamespaceID stores the namespace ID on the given configurations
// where it is not yet set
func (s *GitLabConfigsStorage) BackfillNamespaceID(ids []int64, namespaceID string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.Model(&model.GitLabConfig{}).
		Where("id IN ? AND namespace_id IS NULL", ids).
		Update("namespace_id", namespaceID).Error
	if err != nil {
		return errors.Wrap(err, "gitlab_configs: namespace id backfill failed")
	}
	return nil
}
