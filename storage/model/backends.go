package model

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Users         UsersStore
	Crates        CratesStore
	GitHubConfigs GitHubConfigsStore
	GitLabConfigs GitLabConfigsStore
	Tokens        TokensStore

	// InTransaction runs fn with a Backends bound to a database
	// transaction; the transaction commits when fn returns nil
	InTransaction func(fn func(tx Backends) error) error
}
