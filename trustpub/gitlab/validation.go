package gitlab

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// The rules here are intentionally permissive: they accept all valid GitLab
// values while rejecting obviously invalid input. The JWT claims only ever
// contain valid values anyway.
//
// See https://docs.gitlab.com/user/reserved_names/ and
// https://docs.gitlab.com/ci/yaml/#environment for the upstream rules.

const maxFieldLength = 255

var (
	validNamespaceRegexp   = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9_.\-/]*[a-zA-Z0-9])?$`)
	validProjectRegexp     = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9_.\-]*[a-zA-Z0-9])?$`)
	validEnvironmentRegexp = regexp.MustCompile(`^[a-zA-Z0-9 \-_/${}]+$`)
)

// ValidateNamespace checks a GitLab namespace (user, group, or subgroup
// path) from a trust configuration request.
func ValidateNamespace(namespace string) error {
	switch {
	case namespace == "":
		return errors.New("GitLab namespace may not be empty")
	case len(namespace) > maxFieldLength:
		return errors.Errorf("GitLab namespace is too long (maximum is %d characters)", maxFieldLength)
	case strings.HasSuffix(namespace, ".atom") || strings.HasSuffix(namespace, ".git"):
		return errors.New("GitLab namespace cannot end with .atom or .git")
	case !validNamespaceRegexp.MatchString(namespace):
		return errors.New("Invalid GitLab namespace")
	}
	return nil
}

// ValidateProject checks a GitLab project name.
func ValidateProject(project string) error {
	switch {
	case project == "":
		return errors.New("GitLab project name may not be empty")
	case len(project) > maxFieldLength:
		return errors.Errorf("GitLab project name is too long (maximum is %d characters)", maxFieldLength)
	case strings.HasSuffix(project, ".atom") || strings.HasSuffix(project, ".git"):
		return errors.New("GitLab project name cannot end with .atom or .git")
	case !validProjectRegexp.MatchString(project):
		return errors.New("Invalid GitLab project name")
	}
	return nil
}

// ValidateWorkflowFilepath checks that the CI config filepath is a relative
// `.yml` or `.yaml` path.
func ValidateWorkflowFilepath(filepath string) error {
	switch {
	case filepath == "":
		return errors.New("Workflow filepath may not be empty")
	case len(filepath) > maxFieldLength:
		return errors.Errorf("Workflow filepath is too long (maximum is %d characters)", maxFieldLength)
	case strings.HasPrefix(filepath, "/"):
		return errors.New("Workflow filepath cannot start with /")
	case strings.HasSuffix(filepath, "/"):
		return errors.New("Workflow filepath cannot end with /")
	case !strings.HasSuffix(filepath, ".yml") && !strings.HasSuffix(filepath, ".yaml"):
		return errors.New("Workflow filepath must end with `.yml` or `.yaml`")
	}
	return nil
}

// ValidateEnvironment checks a GitLab CI environment name.
func ValidateEnvironment(env string) error {
	switch {
	case env == "":
		return errors.New("Environment name may not be empty (use `null` to omit)")
	case len(env) > maxFieldLength:
		return errors.Errorf("Environment name is too long (maximum is %d characters)", maxFieldLength)
	case !validEnvironmentRegexp.MatchString(env):
		return errors.New("Environment name contains invalid characters")
	}
	return nil
}
