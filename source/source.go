// Package source classifies and resolves module source locators.
//
// A raw source string resolves to one of three kinds:
//   - Local: a filesystem path (./, ../ or / prefix), copied rather than cloned
//   - Registry: a namespace/name/provider triple resolved through the
//     Terraform Registry to a concrete git URL and ref
//   - Direct: anything else, treated as a ready-to-clone URL
package source

import "regexp"

// Kind discriminates resolved source variants.
type Kind int

const (
	// KindLocal is a filesystem path relative to the Terrafile directory
	// (or absolute).
	KindLocal Kind = iota
	// KindRegistry is an indirect locator resolved via the registry.
	KindRegistry
	// KindDirect is a clone-ready repository URL.
	KindDirect
)

// String returns the kind name for logs and reports.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRegistry:
		return "registry"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Resolved is a classified source locator. Fields are populated according
// to Kind: Path for Local; Namespace/Name/Provider/Subdir for Registry;
// URL for Direct.
type Resolved struct {
	Kind Kind

	// Path is the local source path as written (Local only).
	Path string

	// Registry coordinates (Registry only). Subdir is the optional
	// `//subdir` suffix; it is carried for completeness but ignored for
	// resolution.
	Namespace string
	Name      string
	Provider  string
	Subdir    string

	// URL is the clone URL (Direct only).
	URL string
}

// Registry source pattern per the Terraform module registry: namespace and
// name are 1-64 alphanumeric chars with interior hyphens/underscores,
// provider is 1-64 lowercase alphanumerics. An optional //subdir suffix is
// accepted and ignored for resolution.
var registryPattern = regexp.MustCompile(
	`^([0-9A-Za-z](?:[0-9A-Za-z-_]{0,62}[0-9A-Za-z])?)` +
		`\/([0-9A-Za-z](?:[0-9A-Za-z-_]{0,62}[0-9A-Za-z])?)` +
		`\/([0-9a-z]{1,64})` +
		`(?:\/\/(.*))?$`)

// Classify resolves a raw source locator into its kind.
func Classify(source string) Resolved {
	if isLocal(source) {
		return Resolved{Kind: KindLocal, Path: source}
	}
	if m := registryPattern.FindStringSubmatch(source); m != nil {
		return Resolved{
			Kind:      KindRegistry,
			Namespace: m[1],
			Name:      m[2],
			Provider:  m[3],
			Subdir:    m[4],
		}
	}
	return Resolved{Kind: KindDirect, URL: source}
}

func isLocal(source string) bool {
	return len(source) > 0 && (source[0] == '/' ||
		(len(source) >= 2 && source[:2] == "./") ||
		(len(source) >= 3 && source[:3] == "../"))
}
