package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/justapithecus/terrafile/iox"
)

// DefaultRegistryBaseURL is the Terraform Registry module endpoint.
const DefaultRegistryBaseURL = "https://registry.terraform.io/v1/modules"

// DownloadHeader is the response header carrying the tarball download URL.
const DownloadHeader = "X-Terraform-Get"

// DefaultTimeout is the default registry request timeout.
const DefaultTimeout = 30 * time.Second

// ErrRegistryLookup is the sentinel for registry resolution failures:
// a non-204 response or a download header that does not match the
// documented tarball shape. Lookup failures are fatal to the whole run.
var ErrRegistryLookup = errors.New("registry lookup failed")

// downloadURLPattern extracts user, repo and ref from a tarball URL such as
// https://api.github.com/repos/<user>/<repo>/tarball/<ref>/<anything>.
var downloadURLPattern = regexp.MustCompile(`^https://[^/]+/repos/([^/]+)/([^/]+)/tarball/([^/]+)/.*`)

// RegistryClient resolves registry sources to git URLs via HTTP.
type RegistryClient struct {
	baseURL string
	client  *http.Client
}

// RegistryOption configures a RegistryClient.
type RegistryOption func(*RegistryClient)

// WithBaseURL overrides the registry endpoint (tests point this at a
// local httptest server).
func WithBaseURL(url string) RegistryOption {
	return func(c *RegistryClient) { c.baseURL = url }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) RegistryOption {
	return func(c *RegistryClient) { c.client.Timeout = d }
}

// NewRegistryClient creates a registry client with the given options.
func NewRegistryClient(opts ...RegistryOption) *RegistryClient {
	c := &RegistryClient{
		baseURL: DefaultRegistryBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup resolves a registry triple plus version to a clone URL and ref.
//
// The registry signals success with HTTP 204 and a download header of the
// shape https://<host>/repos/<user>/<repo>/tarball/<ref>/... which maps to
// git URL https://github.com/<user>/<repo>.git at ref <ref>. Anything else
// is an ErrRegistryLookup.
func (c *RegistryClient) Lookup(ctx context.Context, namespace, name, provider, version string) (gitURL, ref string, err error) {
	url := fmt.Sprintf("%s/%s/%s/%s/%s/download", c.baseURL, namespace, name, provider, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: build request: %v", ErrRegistryLookup, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRegistryLookup, err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", "", fmt.Errorf("%w: %s/%s/%s version %s: status %d: %s",
			ErrRegistryLookup, namespace, name, provider, version, resp.StatusCode, body)
	}

	download := resp.Header.Get(DownloadHeader)
	m := downloadURLPattern.FindStringSubmatch(download)
	if m == nil {
		return "", "", fmt.Errorf("%w: unexpected download URL %q for %s/%s/%s",
			ErrRegistryLookup, download, namespace, name, provider)
	}

	user, repo, tag := m[1], m[2], m[3]
	return fmt.Sprintf("https://github.com/%s/%s.git", user, repo), tag, nil
}
