// Package github provides the small part of the GitHub REST API the
// registry needs: resolving user and organization accounts to their
// canonical login and numeric ID.
package github

import (
	"context"
	"net/http"

	gogithub "github.com/google/go-github/v80/github"
	"github.com/pkg/errors"
)

// ErrAccountNotFound is returned when no GitHub account exists for the
// requested login.
var ErrAccountNotFound = errors.New("github account not found")

// Account is a GitHub user or organization.
type Account struct {
	// ID is GitHub's stable numeric account ID
	ID int64
	// Login is the account name with the casing GitHub reports
	Login string
}

// Client resolves GitHub accounts.
type Client interface {
	// Account returns the account with the given login
	Account(ctx context.Context, login string) (*Account, error)
}

// APIClient implements Client against the real GitHub API.
type APIClient struct {
	gh *gogithub.Client
}

// NewAPIClient creates an APIClient. A nil httpClient uses
// http.DefaultClient.
func NewAPIClient(httpClient *http.Client) *APIClient {
	return &APIClient{gh: gogithub.NewClient(httpClient)}
}

// Account returns the account with the given login
func (c *APIClient) Account(ctx context.Context, login string) (*Account, error) {
	user, resp, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, "github: user lookup failed")
	}
	return &Account{
		ID:    user.GetID(),
		Login: user.GetLogin(),
	}, nil
}
