// Package gitlab handles OIDC tokens issued by GitLab CI and the validation
// rules for GitLab trust configurations.
package gitlab

import (
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/craterio/registry/trustpub"
)

// IssuerURL is the iss claim value of gitlab.com CI OIDC tokens.
const IssuerURL = "https://gitlab.com"

// Claims are the claims of a GitLab CI OIDC token that the exchange cares
// about. GitLab serializes numeric IDs as strings.
type Claims struct {
	trustpub.StandardClaims

	ProjectPath    string  `json:"project_path"`
	NamespaceID    string  `json:"namespace_id"`
	NamespacePath  string  `json:"namespace_path"`
	CIConfigRefURI string  `json:"ci_config_ref_uri"`
	Environment    *string `json:"environment"`
	JobID          string  `json:"job_id"`
	RefPath        string  `json:"ref_path"`
	SHA            string  `json:"sha"`
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

// WorkflowFilepath extracts the CI config filepath from the
// ci_config_ref_uri claim, or false if the URI has an unexpected shape.
func (c *Claims) WorkflowFilepath() (string, bool) {
	return ExtractWorkflowFilepath(c.CIConfigRefURI)
}
