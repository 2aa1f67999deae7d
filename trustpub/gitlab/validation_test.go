package gitlab

import (
	"strings"
	"testing"
)

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		namespace string
		wantErr   string
	}{
		{"a", ""},
		{"foo", ""},
		{"foo-bar", ""},
		{"foo_bar", ""},
		{"foo.bar", ""},
		{"foo/bar", ""},
		{"foo/bar/baz", ""},
		{"", "GitLab namespace may not be empty"},
		{strings.Repeat("x", 256), "GitLab namespace is too long (maximum is 255 characters)"},
		{"-", "Invalid GitLab namespace"},
		{"_", "Invalid GitLab namespace"},
		{"-start", "Invalid GitLab namespace"},
		{"end-", "Invalid GitLab namespace"},
		{"invalid@chars", "Invalid GitLab namespace"},
		{"foo+bar", "Invalid GitLab namespace"},
		{"foo.atom", "GitLab namespace cannot end with .atom or .git"},
		{"foo.git", "GitLab namespace cannot end with .atom or .git"},
	}
	for _, tt := range tests {
		checkValidationError(t, "ValidateNamespace", tt.namespace, ValidateNamespace(tt.namespace), tt.wantErr)
	}
}

func TestValidateProject(t *testing.T) {
	tests := []struct {
		project string
		wantErr string
	}{
		{"a", ""},
		{"foo", ""},
		{"foo-bar", ""},
		{"foo_bar", ""},
		{"foo.bar", ""},
		{"", "GitLab project name may not be empty"},
		{strings.Repeat("x", 256), "GitLab project name is too long (maximum is 255 characters)"},
		{"-", "Invalid GitLab project name"},
		{"-start", "Invalid GitLab project name"},
		{"end-", "Invalid GitLab project name"},
		{"invalid/chars", "Invalid GitLab project name"},
		{"foo.atom", "GitLab project name cannot end with .atom or .git"},
		{"foo.git", "GitLab project name cannot end with .atom or .git"},
	}
	for _, tt := range tests {
		checkValidationError(t, "ValidateProject", tt.project, ValidateProject(tt.project), tt.wantErr)
	}
}

func TestValidateWorkflowFilepath(t *testing.T) {
	tests := []struct {
		filepath string
		wantErr  string
	}{
		{".gitlab-ci.yml", ""},
		{".gitlab-ci.yaml", ""},
		{"publish.yml", ""},
		{".gitlab/ci/publish.yml", ""},
		{"ci/publish.yaml", ""},
		{"", "Workflow filepath may not be empty"},
		{strings.Repeat("x", 256), "Workflow filepath is too long (maximum is 255 characters)"},
		{"/starts-with-slash.yml", "Workflow filepath cannot start with /"},
		{"ends-with-slash/", "Workflow filepath cannot end with /"},
		{"no-suffix", "Workflow filepath must end with `.yml` or `.yaml`"},
	}
	for _, tt := range tests {
		checkValidationError(t, "ValidateWorkflowFilepath", tt.filepath, ValidateWorkflowFilepath(tt.filepath), tt.wantErr)
	}
}

func TestValidateEnvironment(t *testing.T) {
	tests := []struct {
		env     string
		wantErr string
	}{
		{"production", ""},
		{"staging", ""},
		{"prod-us-east", ""},
		{"env_name", ""},
		{"path/to/env", ""},
		{"with space", ""},
		{"", "Environment name may not be empty (use `null` to omit)"},
		{strings.Repeat("x", 256), "Environment name is too long (maximum is 255 characters)"},
		{"invalid@chars", "Environment name contains invalid characters"},
		{"invalid.dot", "Environment name contains invalid characters"},
	}
	for _, tt := range tests {
		checkValidationError(t, "ValidateEnvironment", tt.env, ValidateEnvironment(tt.env), tt.wantErr)
	}
}

func checkValidationError(t *testing.T, fn, input string, err error, want string) {
	t.Helper()
	if want == "" {
		if err != nil {
			t.Errorf("%s(%q) returned unexpected error: %v", fn, input, err)
		}
		return
	}
	if err == nil {
		t.Errorf("%s(%q) returned no error, want %q", fn, input, want)
		return
	}
	if err.Error() != want {
		t.Errorf("%s(%q) error = %q, want %q", fn, input, err.Error(), want)
	}
}
