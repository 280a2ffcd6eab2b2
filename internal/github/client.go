package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// defaultRequestTimeout bounds each individual HTTP request. Asset uploads
// can be large, so this is generous; the retry loop handles the rest.
const defaultRequestTimeout = 2 * time.Minute

// ErrReleaseNotFound is returned by ReleaseByTag when no release exists for
// the tag. Callers use it to distinguish "create it" from real failures.
var ErrReleaseNotFound = errors.New("release not found")

// Config carries everything the client needs. The token is passed in
// explicitly — this package never reads process environment — so the
// composition root (the CLI layer) stays the single place that touches
// ambient state.
type Config struct {
	// Token is the API token used as a bearer credential.
	Token string

	// Owner and Repo identify the repository on the release host.
	Owner string
	Repo  string

	// APIBaseURL overrides the REST API base, defaulting to the public
	// GitHub endpoint. Tests point this at a local server.
	APIBaseURL string

	// UploadBaseURL overrides the asset upload base, defaulting to the
	// public GitHub uploads endpoint.
	UploadBaseURL string

	// MaxAttempts bounds the per-asset upload retry loop. Defaults to 3.
	MaxAttempts int

	// HTTPClient overrides the HTTP client, mainly for tests.
	HTTPClient *http.Client
}

// Client is a thin REST client for the release-host operations the
// pipeline needs: querying and creating releases by tag, and uploading
// assets with bounded retry.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a release-host client, filling in defaults for any
// zero-valued optional Config fields.
func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = "https://uploads.github.com"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Release is the subset of the release-host's release object the pipeline
// consumes.
type Release struct {
	ID         int64  `json:"id"`
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
	UploadURL  string `json:"upload_url"`
}

// ReleaseByTag fetches the release for a tag. Returns ErrReleaseNotFound
// when the host reports no release for that tag.
func (c *Client) ReleaseByTag(ctx context.Context, tag string) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		c.cfg.APIBaseURL, c.cfg.Owner, c.cfg.Repo, url.PathEscape(tag))

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var rel Release
		if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
			return nil, fmt.Errorf("failed to decode release for tag %s: %w", tag, err)
		}
		return &rel, nil
	case http.StatusNotFound:
		return nil, ErrReleaseNotFound
	default:
		return nil, statusError("get release", tag, resp)
	}
}

// CreateRelease creates a release for a tag. The release is published
// immediately (not a draft) with an empty body.
func (c *Client) CreateRelease(ctx context.Context, tag string, prerelease bool) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases",
		c.cfg.APIBaseURL, c.cfg.Owner, c.cfg.Repo)

	payload, err := json.Marshal(map[string]any{
		"tag_name":   tag,
		"name":       tag,
		"body":       "",
		"prerelease": prerelease,
		"draft":      false,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError("create release", tag, resp)
	}
	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode created release for tag %s: %w", tag, err)
	}
	return &rel, nil
}

// EnsurePrerelease makes sure a prerelease entry exists for the tag. An
// already-existing release counts as success; any other failure is fatal to
// the caller.
func (c *Client) EnsurePrerelease(ctx context.Context, tag string) error {
	_, err := c.ReleaseByTag(ctx, tag)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrReleaseNotFound) {
		return err
	}
	_, err = c.CreateRelease(ctx, tag, true)
	return err
}

// UploadAssets uploads every file to the release identified by tag,
// sequentially and in the given order. The first file that exhausts its
// retry budget aborts the remaining uploads so a partial upload is
// surfaced, never papered over.
func (c *Client) UploadAssets(ctx context.Context, tag string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	rel, err := c.ReleaseByTag(ctx, tag)
	if err != nil {
		return model.WrapCLIError(model.ExitUploadError,
			fmt.Sprintf("failed to resolve release for tag %s", tag), err)
	}
	for _, f := range files {
		if err := c.UploadAsset(ctx, rel.ID, f); err != nil {
			return err
		}
	}
	return nil
}

// UploadAsset uploads one file as a release asset, retrying transport
// errors and non-success responses up to the configured attempt bound with
// increasing backoff between attempts.
//
// A 422 response means an asset with this name already exists on the
// release; it is treated as success so that re-running an interrupted
// upload converges instead of failing on the assets that did make it.
func (c *Client) UploadAsset(ctx context.Context, releaseID int64, path string) error {
	name := filepath.Base(path)
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s",
		c.cfg.UploadBaseURL, c.cfg.Owner, c.cfg.Repo, releaseID, url.QueryEscape(name))

	// The file is read once and replayed per attempt; streaming straight
	// from disk would leave the reader mid-file after a failed attempt.
	content, err := os.ReadFile(path)
	if err != nil {
		return model.WrapCLIError(model.ExitUploadError,
			fmt.Sprintf("failed to read asset %s", path), err)
	}
	contentType := ContentTypeForName(name)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(content), contentType)
		if err != nil {
			lastErr = err
		} else {
			code := resp.StatusCode
			// Drain and close so the connection can be reused across
			// attempts.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if code >= 200 && code < 300 {
				return nil
			}
			if code == http.StatusUnprocessableEntity {
				// Asset name already present on the release.
				return nil
			}
			lastErr = fmt.Errorf("upload of %s failed with status %d", name, code)
		}

		if attempt < c.cfg.MaxAttempts {
			sleepCtx(ctx, Backoff(attempt))
		}
	}
	return model.WrapCLIError(model.ExitUploadError,
		fmt.Sprintf("failed to upload asset %s after %d attempts", name, c.cfg.MaxAttempts), lastErr)
}

// do performs one authenticated request.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}

// statusError folds a non-success response into an error, including a
// snippet of the body for diagnostics. The body is capped so a large error
// page cannot balloon the message.
func statusError(op, tag string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s for tag %s failed with status %d: %s", op, tag, resp.StatusCode, bytes.TrimSpace(snippet))
}

// ContentTypeForName picks the upload content type from the file name's
// extension.
func ContentTypeForName(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(name, ".zip"):
		return "application/zip"
	case strings.HasSuffix(name, ".sha512"):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// sleepCtx sleeps for the given duration but returns early when the
// context is canceled, so a hung pipeline can still be interrupted between
// attempts.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
