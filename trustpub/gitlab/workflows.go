package gitlab

import "strings"

// ExtractWorkflowFilepath turns a `ci_config_ref_uri` like
// `gitlab.com/rust-lang/regex//foo/bar/baz.yml@refs/heads/main` into
// `foo/bar/baz.yml`. It returns false if the URI has an unexpected format.
//
// This is implemented with string operations instead of a regular
// expression: the obvious pattern (`//(.*[^/]\.(yml|yaml))@.+`) is open to
// catastrophic backtracking on crafted input.
func ExtractWorkflowFilepath(refURI string) (string, bool) {
	// the double slash separates the project path from the workflow path
	_, rest, found := strings.Cut(refURI, "//")
	if !found {
		return "", false
	}

	// the last @ separates the workflow path from the git ref
	end := strings.LastIndexByte(rest, '@')
	if end < 0 {
		return "", false
	}
	filepath := rest[:end]

	if !strings.HasSuffix(filepath, ".yml") && !strings.HasSuffix(filepath, ".yaml") {
		return "", false
	}

	// the basename must not be empty aside from the extension; this
	// rejects ".yml", ".yaml", and "somedir/.yaml"
	basename := filepath
	if idx := strings.LastIndexByte(filepath, '/'); idx >= 0 {
		basename = filepath[idx+1:]
	}
	if basename == ".yml" || basename == ".yaml" {
		return "", false
	}

	return filepath, true
}
