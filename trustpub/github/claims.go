// Package github handles OIDC tokens issued by GitHub Actions and the
// validation rules for GitHub trust configurations.
package github

import (
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/craterio/registry/trustpub"
)

// IssuerURL is the iss claim value of GitHub Actions OIDC tokens.
const IssuerURL = "https://token.actions.githubusercontent.com"

// Claims are the claims of a GitHub Actions OIDC token that the exchange
// cares about. GitHub serializes numeric IDs as strings.
type Claims struct {
	trustpub.StandardClaims

	Repository        string  `json:"repository"`
	RepositoryOwner   string  `json:"repository_owner"`
	RepositoryOwnerID string  `json:"repository_owner_id"`
	WorkflowRef       string  `json:"workflow_ref"`
	Environment       *string `json:"environment"`
	RunID             string  `json:"run_id"`
	Ref               string  `json:"ref"`
	SHA               string  `json:"sha"`
}

// Decode verifies the signature and registered claims of token and returns
// its decoded claims.
func Decode(token string, key jwk.Key, audience string) (*Claims, error) {
	var claims Claims
	if err := trustpub.VerifyToken(token, key, audience, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// WorkflowFilename extracts the workflow filename from the workflow_ref
// claim, or false if the reference has an unexpected shape.
func (c *Claims) WorkflowFilename() (string, bool) {
	return ExtractWorkflowFilename(c.WorkflowRef)
}
