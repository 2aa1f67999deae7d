package trustpubapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	githubapi "github.com/craterio/registry/github"
	"github.com/craterio/registry/storage/model"
	"github.com/craterio/registry/trustpub/github"
)

type githubConfigJSON struct {
	ID                int64     `json:"id"`
	Crate             string    `json:"crate"`
	RepositoryOwner   string    `json:"repository_owner"`
	RepositoryOwnerID int64     `json:"repository_owner_id"`
	RepositoryName    string    `json:"repository_name"`
	WorkflowFilename  string    `json:"workflow_filename"`
	Environment       *string   `json:"environment"`
	CreatedAt         time.Time `json:"created_at"`
}

func githubConfigToJSON(config model.GitHubConfig, crateName string) githubConfigJSON {
	return githubConfigJSON{
		ID:                config.ID,
		Crate:             crateName,
		RepositoryOwner:   config.RepositoryOwner,
		RepositoryOwnerID: config.RepositoryOwnerID,
		RepositoryName:    config.RepositoryName,
		WorkflowFilename:  config.WorkflowFilename,
		Environment:       config.Environment,
		CreatedAt:         config.CreatedAt,
	}
}

// registerGitHubConfigs wires the GitHub trust configuration endpoints.
func registerGitHubConfigs(r fiber.Router, deps Deps) {
	g := r.Group("/github_configs")

	type createReq struct {
		GitHubConfig struct {
			Crate            string  `json:"crate"`
			RepositoryOwner  string  `json:"repository_owner"`
			RepositoryName   string  `json:"repository_name"`
			WorkflowFilename string  `json:"workflow_filename"`
			Environment      *string `json:"environment"`
		} `json:"github_config"`
	}

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req createReq
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request body")
			}
			payload := req.GitHubConfig

			if err := github.ValidateOwner(payload.RepositoryOwner); err != nil {
				return badRequest(c, err.Error())
			}
			if err := github.ValidateRepo(payload.RepositoryName); err != nil {
				return badRequest(c, err.Error())
			}
			if err := github.ValidateWorkflowFilename(payload.WorkflowFilename); err != nil {
				return badRequest(c, err.Error())
			}
			environment := normalizeEnvironment(payload.Environment)
			if environment != nil {
				if err := github.ValidateEnvironment(*environment); err != nil {
					return badRequest(c, err.Error())
				}
			}

			user, err := requireUser(c, deps.DB.Users)
			if user == nil {
				return err
			}

			crate, err := deps.DB.Crates.Get(payload.Crate)
			if err != nil {
				if _, ok := err.(model.NotFoundError); ok {
					return notFound(c, err.Error())
				}
				return serverError(c, err)
			}
			isOwner, err := deps.DB.Crates.IsUserOwner(crate.ID, user.ID)
			if err != nil {
				return serverError(c, err)
			}
			if !isOwner {
				return badRequest(c, "You are not an owner of this crate")
			}
			if !user.EmailVerified {
				return forbidden(c, "You must verify your email address to create a Trusted Publishing config")
			}

			// Resolve the account to its canonical login and stable numeric
			// ID. Matching on the ID protects against repository
			// resurrection after an account rename.
			account, err := deps.GitHub.Account(c.Context(), payload.RepositoryOwner)
			if err != nil {
				if errors.Is(err, githubapi.ErrAccountNotFound) {
					return badRequest(c, "Unknown GitHub user or organization")
				}
				return serverError(c, err)
			}

			config := &model.GitHubConfig{
				CrateID:           crate.ID,
				RepositoryOwner:   account.Login,
				RepositoryOwnerID: account.ID,
				RepositoryName:    payload.RepositoryName,
				WorkflowFilename:  payload.WorkflowFilename,
				Environment:       environment,
			}
			if err = deps.DB.GitHubConfigs.Create(config); err != nil {
				return serverError(c, err)
			}

			if owners, err := deps.DB.Crates.UserOwners(crate.ID); err == nil {
				notifyOwners(
					deps.Emails, owners,
					configAddedSubject(crate.Name),
					githubConfigAddedBody(user.Username, crate.Name, config),
				)
			}

			return c.JSON(fiber.Map{"github_config": githubConfigToJSON(*config, crate.Name)})
		},
	)

	g.Get(
		"/", func(c *fiber.Ctx) error {
			user, err := requireUser(c, deps.DB.Users)
			if user == nil {
				return err
			}
			crateIDs, names, errResp := resolveListScope(c, deps, user)
			if crateIDs == nil {
				return errResp
			}

			page, err := parsePageRequest(c)
			if err != nil {
				return badRequest(c, err.Error())
			}

			configs, err := deps.DB.GitHubConfigs.ListForCrates(crateIDs, page.AfterID, page.PerPage)
			if err != nil {
				return serverError(c, err)
			}

			items := make([]githubConfigJSON, len(configs))
			for i, config := range configs {
				items[i] = githubConfigToJSON(config, names[config.CrateID])
			}

			total := int64(len(configs))
			if page.Explicit || len(configs) == page.PerPage {
				if total, err = deps.DB.GitHubConfigs.CountForCrates(crateIDs); err != nil {
					return serverError(c, err)
				}
			}
			var nextPage *string
			if len(configs) == page.PerPage {
				params := nextPageParams(c, page.PerPage, configs[len(configs)-1].ID)
				nextPage = &params
			}

			return c.JSON(
				fiber.Map{
					"github_configs": items,
					"meta":           fiber.Map{"total": total, "next_page": nextPage},
				},
			)
		},
	)

	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			id, err := strconv.ParseInt(c.Params("id"), 10, 64)
			if err != nil {
				return badRequest(c, "invalid config id")
			}
			user, errResp := requireUser(c, deps.DB.Users)
			if user == nil {
				return errResp
			}
			config, err := deps.DB.GitHubConfigs.Get(id)
			if err != nil {
				if _, ok := err.(model.NotFoundError); ok {
					return notFound(c, err.Error())
				}
				return serverError(c, err)
			}
			crate, err := deps.DB.Crates.GetByID(config.CrateID)
			if err != nil {
				return serverError(c, err)
			}
			isOwner, err := deps.DB.Crates.IsUserOwner(crate.ID, user.ID)
			if err != nil {
				return serverError(c, err)
			}
			if !isOwner {
				return badRequest(c, "You are not an owner of this crate")
			}
			if err = deps.DB.GitHubConfigs.Delete(id); err != nil {
				return serverError(c, err)
			}

			if owners, err := deps.DB.Crates.UserOwners(crate.ID); err == nil {
				notifyOwners(
					deps.Emails, owners,
					configRemovedSubject(crate.Name),
					githubConfigRemovedBody(user.Username, crate.Name, config),
				)
			}

			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}

// resolveListScope resolves the crate or user_id query parameter of a list
// request to the crate IDs the caller may see, plus an ID to name mapping.
// On failure it writes the error response and returns a nil slice.
func resolveListScope(c *fiber.Ctx, deps Deps, user *model.User) ([]int64, map[int64]string, error) {
	crateName := c.Query("crate")
	userIDParam := c.Query("user_id")
	if crateName != "" && userIDParam != "" {
		return nil, nil, badRequest(c, "Cannot specify both `crate` and `user_id` query parameters")
	}
	if crateName == "" && userIDParam == "" {
		return nil, nil, badRequest(c, "Must specify either `crate` or `user_id` query parameter")
	}

	if crateName != "" {
		crate, err := deps.DB.Crates.Get(crateName)
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				return nil, nil, notFound(c, err.Error())
			}
			return nil, nil, serverError(c, err)
		}
		isOwner, err := deps.DB.Crates.IsUserOwner(crate.ID, user.ID)
		if err != nil {
			return nil, nil, serverError(c, err)
		}
		if !isOwner {
			return nil, nil, badRequest(c, "You are not an owner of this crate")
		}
		return []int64{crate.ID}, map[int64]string{crate.ID: crate.Name}, nil
	}

	userID, err := strconv.ParseInt(userIDParam, 10, 64)
	if err != nil {
		return nil, nil, badRequest(c, "invalid user_id parameter")
	}
	if userID != user.ID {
		return nil, nil, forbidden(c, "The `user_id` parameter must match the authenticated user")
	}
	crates, err := deps.DB.Crates.OwnedCrates(userID)
	if err != nil {
		return nil, nil, serverError(c, err)
	}
	crateIDs := make([]int64, len(crates))
	names := make(map[int64]string, len(crates))
	for i, crate := range crates {
		crateIDs[i] = crate.ID
		names[crate.ID] = crate.Name
	}
	return crateIDs, names, nil
}

func normalizeEnvironment(env *string) *string {
	if env == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*env)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
