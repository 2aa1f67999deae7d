package github

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const maxFieldLength = 255

var (
	validOwnerRegexp      = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*$`)
	validRepoRegexp       = regexp.MustCompile(`^[a-zA-Z0-9-_.]+$`)
	invalidEnvCharsRegexp = regexp.MustCompile("[\x00-\x1f\x7f'\"`,;\\\\]")
)

// ValidateOwner checks a GitHub repository owner name from a trust
// configuration request.
func ValidateOwner(owner string) error {
	switch {
	case owner == "":
		return errors.New("GitHub repository owner name may not be empty")
	case len(owner) > maxFieldLength:
		return errors.Errorf("GitHub repository owner name is too long (maximum is %d characters)", maxFieldLength)
	case !validOwnerRegexp.MatchString(owner):
		return errors.New("Invalid GitHub repository owner name")
	}
	return nil
}

// ValidateRepo checks a GitHub repository name.
func ValidateRepo(repo string) error {
	switch {
	case repo == "":
		return errors.New("GitHub repository name may not be empty")
	case len(repo) > maxFieldLength:
		return errors.Errorf("GitHub repository name is too long (maximum is %d characters)", maxFieldLength)
	case !validRepoRegexp.MatchString(repo):
		return errors.New("Invalid GitHub repository name")
	}
	return nil
}

// ValidateWorkflowFilename checks that the workflow filename is a plain
// `.yml` or `.yaml` filename without directory components.
func ValidateWorkflowFilename(filename string) error {
	switch {
	case filename == "":
		return errors.New("Workflow filename may not be empty")
	case len(filename) > maxFieldLength:
		return errors.Errorf("Workflow filename is too long (maximum is %d characters)", maxFieldLength)
	case !strings.HasSuffix(filename, ".yml") && !strings.HasSuffix(filename, ".yaml"):
		return errors.New("Workflow filename must end with `.yml` or `.yaml`")
	case strings.Contains(filename, "/"):
		return errors.New("Workflow filename must be a filename only, without directories")
	}
	return nil
}

// ValidateEnvironment checks a GitHub Actions environment name.
func ValidateEnvironment(env string) error {
	switch {
	case env == "":
		return errors.New("Environment name may not be empty (use `null` to omit)")
	case len(env) > maxFieldLength:
		return errors.Errorf("Environment name is too long (maximum is %d characters)", maxFieldLength)
	case strings.HasPrefix(env, " "):
		return errors.New("Environment name may not start with whitespace")
	case strings.HasSuffix(env, " "):
		return errors.New("Environment name may not end with whitespace")
	case invalidEnvCharsRegexp.MatchString(env):
		return errors.New("Environment name must not contain non-printable characters or the characters \"'\", \"\"\", \"`\", \",\", \";\", \"\\\"")
	}
	return nil
}
