package trustpubapi

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/craterio/registry/storage/model"
	"github.com/craterio/registry/trustpub/gitlab"
)

// maxGitLabConfigsPerCrate limits how many GitLab configurations a single
// crate may have.
const maxGitLabConfigsPerCrate = 5

type gitlabConfigJSON struct {
	ID               int64     `json:"id"`
	Crate            string    `json:"crate"`
	Namespace        string    `json:"namespace"`
	NamespaceID      *string   `json:"namespace_id"`
	Project          string    `json:"project"`
	WorkflowFilepath string    `json:"workflow_filepath"`
	Environment      *string   `json:"environment"`
	CreatedAt        time.Time `json:"created_at"`
}

func gitlabConfigToJSON(config model.GitLabConfig, crateName string) gitlabConfigJSON {
	return gitlabConfigJSON{
		ID:               config.ID,
		Crate:            crateName,
		Namespace:        config.Namespace,
		NamespaceID:      config.NamespaceID,
		Project:          config.Project,
		WorkflowFilepath: config.WorkflowFilepath,
		Environment:      config.Environment,
		CreatedAt:        config.CreatedAt,
	}
}

// registerGitLabConfigs wires the GitLab trust configuration endpoints.
func registerGitLabConfigs(r fiber.Router, deps Deps) {
	g := r.Group("/gitlab_configs")

	type createReq struct {
		GitLabConfig struct {
			Crate            string  `json:"crate"`
			Namespace        string  `json:"namespace"`
			Project          string  `json:"project"`
			WorkflowFilepath string  `json:"workflow_filepath"`
			Environment      *string `json:"environment"`
		} `json:"gitlab_config"`
	}

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req createReq
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid request body")
			}
			payload := req.GitLabConfig

			if err := gitlab.ValidateNamespace(payload.Namespace); err != nil {
				return badRequest(c, err.Error())
			}
			if err := gitlab.ValidateProject(payload.Project); err != nil {
				return badRequest(c, err.Error())
			}
			if err := gitlab.ValidateWorkflowFilepath(payload.WorkflowFilepath); err != nil {
				return badRequest(c, err.Error())
			}
			environment := normalizeEnvironment(payload.Environment)
			if environment != nil {
				if err := gitlab.ValidateEnvironment(*environment); err != nil {
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

			count, err := deps.DB.GitLabConfigs.CountForCrate(crate.ID)
			if err != nil {
				return serverError(c, err)
			}
			if count >= maxGitLabConfigsPerCrate {
				return conflict(
					c, "This crate already has the maximum number of GitLab Trusted Publishing configurations (5)",
				)
			}

			// The numeric namespace ID is unknown until the first verified
			// token exchange backfills it.
			config := &model.GitLabConfig{
				CrateID:          crate.ID,
				Namespace:        payload.Namespace,
				Project:          payload.Project,
				WorkflowFilepath: payload.WorkflowFilepath,
				Environment:      environment,
			}
			if err = deps.DB.GitLabConfigs.Create(config); err != nil {
				return serverError(c, err)
			}

			if owners, err := deps.DB.Crates.UserOwners(crate.ID); err == nil {
				notifyOwners(
					deps.Emails, owners,
					configAddedSubject(crate.Name),
					gitlabConfigAddedBody(user.Username, crate.Name, config),
				)
			}

			return c.JSON(fiber.Map{"gitlab_config": gitlabConfigToJSON(*config, crate.Name)})
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

			configs, err := deps.DB.GitLabConfigs.ListForCrates(crateIDs, page.AfterID, page.PerPage)
			if err != nil {
				return serverError(c, err)
			}

			items := make([]gitlabConfigJSON, len(configs))
			for i, config := range configs {
				items[i] = gitlabConfigToJSON(config, names[config.CrateID])
			}

			total := int64(len(configs))
			if page.Explicit || len(configs) == page.PerPage {
				if total, err = deps.DB.GitLabConfigs.CountForCrates(crateIDs); err != nil {
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
					"gitlab_configs": items,
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
			config, err := deps.DB.GitLabConfigs.Get(id)
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
			if err = deps.DB.GitLabConfigs.Delete(id); err != nil {
				return serverError(c, err)
			}

			if owners, err := deps.DB.Crates.UserOwners(crate.ID); err == nil {
				notifyOwners(
					deps.Emails, owners,
					configRemovedSubject(crate.Name),
					gitlabConfigRemovedBody(user.Username, crate.Name, config),
				)
			}

			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
