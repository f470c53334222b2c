package source

import (
	"fmt"
	"regexp"
)

// githubRepoPattern matches GitHub HTTPS clone URLs for credential injection.
var githubRepoPattern = regexp.MustCompile(`.*github\.com/(.*)/(.*)\.git`)

// InjectCredential embeds token as userinfo into a GitHub HTTPS clone URL.
// Non-GitHub URLs (and empty tokens) pass through unchanged. The token is
// provided explicitly by the caller; this package never reads ambient
// environment state.
func InjectCredential(url, token string) string {
	if token == "" {
		return url
	}
	m := githubRepoPattern.FindStringSubmatch(url)
	if m == nil {
		return url
	}
	return fmt.Sprintf("https://%s@github.com/%s/%s.git", token, m[1], m[2])
}
