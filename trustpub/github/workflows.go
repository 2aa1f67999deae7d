package github

import "regexp"

var workflowRefRegexp = regexp.MustCompile(`([^/]+\.(yml|yaml))(@.+)`)

// ExtractWorkflowFilename turns a workflow reference like
// `rust-lang/regex/.github/workflows/ci.yml@refs/heads/main` into `ci.yml`.
// It returns false if the reference has an unexpected format.
func ExtractWorkflowFilename(workflowRef string) (string, bool) {
	m := workflowRefRegexp.FindStringSubmatch(workflowRef)
	if m == nil {
		return "", false
	}
	return m[1], true
}
