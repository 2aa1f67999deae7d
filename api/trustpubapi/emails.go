package trustpubapi

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/craterio/registry/storage/model"
)

// EmailSender delivers notification mails to crate owners.
type EmailSender interface {
	Send(recipient, subject, body string) error
}

// LogEmailSender writes notification mails to the log instead of sending
// them. It is the default when no mail transport is configured.
type LogEmailSender struct{}

// Send logs the mail
func (LogEmailSender) Send(recipient, subject, body string) error {
	log.WithFields(
		log.Fields{
			"recipient": recipient,
			"subject":   subject,
		},
	).Info("email notification")
	return nil
}

// notifyOwners sends the given mail to every crate owner with a verified
// email address. Delivery failures are logged but do not fail the request.
func notifyOwners(sender EmailSender, owners []model.User, subject, body string) {
	if sender == nil {
		return
	}
	for _, owner := range owners {
		if !owner.EmailVerified || owner.Email == "" {
			continue
		}
		if err := sender.Send(owner.Email, subject, body); err != nil {
			log.WithError(err).WithField("recipient", owner.Email).Warn("failed to send notification email")
		}
	}
}

func configAddedSubject(crateName string) string {
	return fmt.Sprintf("Trusted Publishing configuration added to %s", crateName)
}

func configRemovedSubject(crateName string) string {
	return fmt.Sprintf("Trusted Publishing configuration removed from %s", crateName)
}

func githubConfigAddedBody(addedBy string, crateName string, config *model.GitHubConfig) string {
	return fmt.Sprintf(
		"%s added a new Trusted Publishing configuration for GitHub Actions to the crate %s.\n\n"+
			"Repository: %s/%s\nWorkflow: %s\n\n"+
			"If you did not expect this change, please contact the other owners of the crate.",
		addedBy, crateName, config.RepositoryOwner, config.RepositoryName, config.WorkflowFilename,
	)
}

func githubConfigRemovedBody(removedBy string, crateName string, config *model.GitHubConfig) string {
	return fmt.Sprintf(
		"%s removed a Trusted Publishing configuration for GitHub Actions from the crate %s.\n\n"+
			"Repository: %s/%s\nWorkflow: %s\n\n"+
			"If you did not expect this change, please contact the other owners of the crate.",
		removedBy, crateName, config.RepositoryOwner, config.RepositoryName, config.WorkflowFilename,
	)
}

func gitlabConfigAddedBody(addedBy string, crateName string, config *model.GitLabConfig) string {
	return fmt.Sprintf(
		"%s added a new Trusted Publishing configuration for GitLab CI/CD to the crate %s.\n\n"+
			"Project: %s/%s\nCI configuration: %s\n\n"+
			"If you did not expect this change, please contact the other owners of the crate.",
		addedBy, crateName, config.Namespace, config.Project, config.WorkflowFilepath,
	)
}

func gitlabConfigRemovedBody(removedBy string, crateName string, config *model.GitLabConfig) string {
	return fmt.Sprintf(
		"%s removed a Trusted Publishing configuration for GitLab CI/CD from the crate %s.\n\n"+
			"Project: %s/%s\nCI configuration: %s\n\n"+
			"If you did not expect this change, please contact the other owners of the crate.",
		removedBy, crateName, config.Namespace, config.Project, config.WorkflowFilepath,
	)
}
