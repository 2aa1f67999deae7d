package trustpubapi

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/craterio/registry/storage/model"
	"github.com/craterio/registry/trustpub"
	"github.com/craterio/registry/trustpub/accesstoken"
	"github.com/craterio/registry/trustpub/github"
	"github.com/craterio/registry/trustpub/gitlab"
)

var (
	errJWTAlreadyUsed   = errors.New("JWT has already been used")
	errNoMatchingConfig = errors.New("No matching Trusted Publishing config found")
)

// handleExchange implements the token exchange endpoint. A CI job presents
// the OIDC token its provider minted for it and receives an ephemeral access
// token scoped to the crates whose trust configurations match the claims.
func handleExchange(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			JWT string `json:"jwt"`
		}
		if err := c.BodyParser(&req); err != nil || req.JWT == "" {
			return badRequest(c, "invalid request body")
		}

		unverified, err := trustpub.DecodeUnverified(req.JWT)
		if err != nil {
			return badRequest(c, "Failed to decode JWT")
		}

		switch unverified.Issuer {
		case github.IssuerURL:
			return exchangeGitHub(c, deps, req.JWT, unverified.KeyID)
		case gitlab.IssuerURL:
			return exchangeGitLab(c, deps, req.JWT, unverified.KeyID)
		default:
			return badRequest(c, "Unsupported JWT issuer: "+unverified.Issuer)
		}
	}
}

func exchangeGitHub(c *fiber.Ctx, deps Deps, token, keyID string) error {
	if keyID == "" {
		return badRequest(c, "Missing JWT key ID")
	}
	key, found, err := deps.GitHubKeys.Key(c.Context(), keyID)
	if err != nil {
		log.WithError(err).Error("failed to load github key set")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load OIDC key set")
	}
	if !found {
		return badRequest(c, "Invalid JWT key ID")
	}

	claims, err := github.Decode(token, key, deps.Audience)
	if err != nil {
		return badRequest(c, "Failed to decode JWT")
	}
	if claims.JWTID == "" {
		return badRequest(c, "Failed to decode JWT")
	}

	owner, repo, found := strings.Cut(claims.Repository, "/")
	if !found || owner == "" || repo == "" {
		return badRequest(c, "Unexpected `repository` value")
	}
	workflowFilename, ok := claims.WorkflowFilename()
	if !ok {
		return badRequest(c, "Unexpected `workflow_ref` value")
	}
	ownerID, err := strconv.ParseInt(claims.RepositoryOwnerID, 10, 64)
	if err != nil {
		return badRequest(c, "Unexpected `repository_owner_id` value")
	}

	trustpubData, err := json.Marshal(
		map[string]string{
			"provider":   "github",
			"repository": claims.Repository,
			"run_id":     claims.RunID,
			"sha":        claims.SHA,
		},
	)
	if err != nil {
		return serverError(c, err)
	}

	plaintext, err := issueToken(
		deps, claims.JWTID, claims.ExpiresAt(), trustpubData,
		func(tx model.Backends) ([]int64, error) {
			configs, err := tx.GitHubConfigs.FindForRepository(owner, repo)
			if err != nil {
				return nil, err
			}
			var crateIDs []int64
			for _, config := range configs {
				if config.RepositoryOwnerID != ownerID {
					continue
				}
				if config.WorkflowFilename != workflowFilename {
					continue
				}
				if !environmentMatches(config.Environment, claims.Environment) {
					continue
				}
				crateIDs = append(crateIDs, config.CrateID)
			}
			return crateIDs, nil
		},
	)
	if err != nil {
		return exchangeErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"token": plaintext})
}

func exchangeGitLab(c *fiber.Ctx, deps Deps, token, keyID string) error {
	if keyID == "" {
		return badRequest(c, "Missing JWT key ID")
	}
	key, found, err := deps.GitLabKeys.Key(c.Context(), keyID)
	if err != nil {
		log.WithError(err).Error("failed to load gitlab key set")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load OIDC key set")
	}
	if !found {
		return badRequest(c, "Invalid JWT key ID")
	}

	claims, err := gitlab.Decode(token, key, deps.Audience)
	if err != nil {
		return badRequest(c, "Failed to decode JWT")
	}
	if claims.JWTID == "" {
		return badRequest(c, "Failed to decode JWT")
	}

	// Subgroups belong to the namespace, so the project name is everything
	// after the last slash.
	idx := strings.LastIndexByte(claims.ProjectPath, '/')
	if idx <= 0 || idx == len(claims.ProjectPath)-1 {
		return badRequest(c, "Unexpected `project_path` value")
	}
	namespace, project := claims.ProjectPath[:idx], claims.ProjectPath[idx+1:]
	workflowFilepath, ok := claims.WorkflowFilepath()
	if !ok {
		return badRequest(c, "Unexpected `ci_config_ref_uri` value")
	}

	trustpubData, err := json.Marshal(
		map[string]string{
			"provider":     "gitlab",
			"project_path": claims.ProjectPath,
			"job_id":       claims.JobID,
			"sha":          claims.SHA,
		},
	)
	if err != nil {
		return serverError(c, err)
	}

	plaintext, err := issueToken(
		deps, claims.JWTID, claims.ExpiresAt(), trustpubData,
		func(tx model.Backends) ([]int64, error) {
			configs, err := tx.GitLabConfigs.FindForProject(namespace, project)
			if err != nil {
				return nil, err
			}

			// Configurations created before the first exchange have no
			// namespace ID yet. The verified claims pin it now, so a later
			// namespace rename cannot be hijacked.
			var backfill []int64
			for i, config := range configs {
				if config.NamespaceID == nil {
					backfill = append(backfill, config.ID)
					namespaceID := claims.NamespaceID
					configs[i].NamespaceID = &namespaceID
				}
			}
			if len(backfill) > 0 {
				if err = tx.GitLabConfigs.BackfillNamespaceID(backfill, claims.NamespaceID); err != nil {
					return nil, err
				}
			}

			var crateIDs []int64
			for _, config := range configs {
				if config.NamespaceID == nil || *config.NamespaceID != claims.NamespaceID {
					continue
				}
				if config.WorkflowFilepath != workflowFilepath {
					continue
				}
				if !environmentMatches(config.Environment, claims.Environment) {
					continue
				}
				crateIDs = append(crateIDs, config.CrateID)
			}
			return crateIDs, nil
		},
	)
	if err != nil {
		return exchangeErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"token": plaintext})
}

// issueToken runs the exchange inside a single database transaction: the JTI
// insert doubles as the replay check, then the matching crate IDs are
// resolved and the hashed token stored. The plaintext token is returned.
func issueToken(
	deps Deps, jti string, jwtExpiry time.Time, trustpubData []byte,
	matchCrates func(tx model.Backends) ([]int64, error),
) (string, error) {
	token, err := accesstoken.New()
	if err != nil {
		return "", err
	}

	err = deps.DB.InTransaction(
		func(tx model.Backends) error {
			if err := tx.Tokens.InsertUsedJTI(jti, jwtExpiry); err != nil {
				if _, ok := err.(model.AlreadyExistsError); ok {
					return errJWTAlreadyUsed
				}
				return err
			}

			crateIDs, err := matchCrates(tx)
			if err != nil {
				return err
			}
			crateIDs = dedupeIDs(crateIDs)
			if len(crateIDs) == 0 {
				return errNoMatchingConfig
			}

			return tx.Tokens.Create(
				&model.Token{
					ExpiresAt:    time.Now().Add(deps.tokenTTL()),
					HashedToken:  token.SHA256(),
					CrateIDs:     crateIDs,
					TrustpubData: datatypes.JSON(trustpubData),
				},
			)
		},
	)
	if err != nil {
		return "", err
	}
	return token.Finalize(), nil
}

func exchangeErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errJWTAlreadyUsed):
		return badRequest(c, errJWTAlreadyUsed.Error())
	case errors.Is(err, errNoMatchingConfig):
		return badRequest(c, errNoMatchingConfig.Error())
	default:
		return serverError(c, err)
	}
}

// environmentMatches applies the environment restriction of a configuration
// to the environment claim of the token. A configuration without an
// environment accepts any job; one with an environment requires a
// case-insensitively equal claim.
func environmentMatches(configured, claimed *string) bool {
	if configured == nil {
		return true
	}
	if claimed == nil {
		return false
	}
	return strings.EqualFold(*configured, *claimed)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
