package model

import (
	"time"
)

// GitHubConfig ties a crate to a GitHub repository and workflow that is
// allowed to publish it via Trusted Publishing.
type GitHubConfig struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	CrateID int64 `gorm:"index" json:"-"`
	// RepositoryOwner is the GitHub login of the user or organization
	// owning the repository, with the casing GitHub reports
	RepositoryOwner string `json:"repository_owner"`
	// RepositoryOwnerID is GitHub's numeric account ID; it protects
	// against repository resurrection after an account rename
	RepositoryOwnerID int64  `json:"repository_owner_id"`
	RepositoryName    string `json:"repository_name"`
	WorkflowFilename  string `json:"workflow_filename"`
	// Environment restricts tokens to workflow runs in the named GitHub
	// Actions environment; nil matches any run
	Environment *string `json:"environment"`
}

// GitLabConfig ties a crate to a GitLab project and CI configuration path
// that is allowed to publish it via Trusted Publishing.
type GitLabConfig struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	CrateID int64 `gorm:"index" json:"-"`
	// Namespace is the full path of the group or user namespace
	Namespace string `json:"namespace"`
	// NamespaceID is GitLab's numeric namespace ID; it is unknown at
	// creation time and backfilled from the first verified token exchange
	NamespaceID *string `json:"namespace_id"`
	Project     string  `json:"project"`
	// WorkflowFilepath is the path of the CI configuration file, e.g.
	// ".gitlab-ci.yml"
	WorkflowFilepath string `json:"workflow_filepath"`
	// Environment restricts tokens to jobs in the named GitLab CI
	// environment; nil matches any job
	Environment *string `json:"environment"`
}

// GitHubConfigsStore is the abstraction used by handlers.
type GitHubConfigsStore interface {
	// Create stores a new configuration
	Create(config *GitHubConfig) error
	// Get returns a configuration by ID
	Get(id int64) (*GitHubConfig, error)
	// Delete removes a configuration by ID
	Delete(id int64) error
	// CountForCrate returns the number of configurations for a crate
	CountForCrate(crateID int64) (int64, error)
	// ListForCrates returns configurations for the given crates ordered by
	// ID, skipping IDs up to afterID and returning at most limit entries
	ListForCrates(crateIDs []int64, afterID int64, limit int) ([]GitHubConfig, error)
	// CountForCrates returns the total number of configurations for the
	// given crates
	CountForCrates(crateIDs []int64) (int64, error)
	// FindForRepository returns all configurations matching the repository
	// owner and name, compared case-insensitively
	FindForRepository(owner, name string) ([]GitHubConfig, error)
}

// GitLabConfigsStore is the abstraction used by handlers.
type GitLabConfigsStore interface {
	// Create stores a new configuration
	Create(config *GitLabConfig) error
	// Get returns a configuration by ID
	Get(id int64) (*GitLabConfig, error)
	// Delete removes a configuration by ID
	Delete(id int64) error
	// CountForCrate returns the number of configurations for a crate
	CountForCrate(crateID int64) (int64, error)
	// ListForCrates returns configurations for the given crates ordered by
	// ID, skipping IDs up to afterID and returning at most limit entries
	ListForCrates(crateIDs []int64, afterID int64, limit int) ([]GitLabConfig, error)
	// CountForCrates returns the total number of configurations for the
	// given crates
	CountForCrates(crateIDs []int64) (int64, error)
	// FindForProject returns all configurations matching the namespace and
	// project, compared case-insensitively
	FindForProject(namespace, project string) ([]GitLabConfig, error)
	// BackfillNamespaceID stores the namespace ID on the given
	// configurations where it is not yet set
	BackfillNamespaceID(ids []int64, namespaceID string) error
}
