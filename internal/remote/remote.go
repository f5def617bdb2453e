// Package remote pushes and pulls object-cache entries against an HTTP
// artifact remote. Objects live at <base>/<aa>/<rest-of-digest>, mirroring
// the local cache fan-out, and every download is verified against its
// digest before it is admitted.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mirlab/softsim/internal/artifact"
)

// maxErrorBody bounds how much of an error response is surfaced to the user.
const maxErrorBody = 8192

// Client talks to one artifact remote.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  zerolog.Logger
}

// New returns a Client for baseURL. token may be empty for open remotes.
func New(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{},
		Logger:  logger,
	}
}

// objectURL returns the remote location of a digest.
func (c *Client) objectURL(digest string) (string, error) {
	if len(digest) < 3 {
		return "", fmt.Errorf("invalid object digest: %q", digest)
	}
	return fmt.Sprintf("%s/%s/%s", c.BaseURL, digest[:2], digest[2:]), nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "softsim")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

// remoteError turns a non-2xx response into an error carrying a bounded
// slice of the body.
func remoteError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("remote %s failed: %s\n%s", op, resp.Status, strings.TrimSpace(string(body)))
}

// Has reports whether the remote holds an object, via a HEAD request.
func (c *Client) Has(ctx context.Context, digest string) (bool, error) {
	url, err := c.objectURL(digest)
	if err != nil {
		return false, err
	}
	req, err := c.newRequest(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("remote head failed: %w", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, remoteError("head", resp)
	}
}

// Push uploads one object from the local store.
func (c *Client) Push(ctx context.Context, store *artifact.Store, digest string) error {
	path, err := store.ObjectPath(digest)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("object %s not in local cache: %w", digest[:8], err)
	}
	if got := artifact.HashBytes(data); got != digest {
		return fmt.Errorf("local object %s is corrupt (hashes to %s)", digest[:8], got[:8])
	}

	url, err := c.objectURL(digest)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("remote push failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remoteError("push", resp)
	}
	c.Logger.Debug().Str("digest", digest[:8]).Msg("pushed object")
	return nil
}

// Pull downloads one object into the local store, verifying its digest. A
// download whose content does not hash to digest is discarded.
func (c *Client) Pull(ctx context.Context, store *artifact.Store, digest string) error {
	if store.Has(digest) {
		return nil
	}
	url, err := c.objectURL(digest)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("remote pull failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remoteError("pull", resp)
	}

	tmp, err := os.CreateTemp("", ".softsim-pull-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("remote pull interrupted: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	got, err := artifact.HashFile(tmp.Name())
	if err != nil {
		return err
	}
	if got != digest {
		return fmt.Errorf("remote object %s is corrupt (hashes to %s)", digest[:8], got[:8])
	}
	if _, err := store.Add(tmp.Name()); err != nil {
		return err
	}
	c.Logger.Debug().Str("digest", digest[:8]).Msg("pulled object")
	return nil
}

// Sync transfers every digest the local store lacks (pull) or the remote
// lacks (push). It returns how many objects moved.
type Sync struct {
	Pulled int
	Pushed int
}

// PullAll fetches every digest in digests missing from the local store.
func (c *Client) PullAll(ctx context.Context, store *artifact.Store, digests []string) (Sync, error) {
	var s Sync
	for _, digest := range digests {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if store.Has(digest) {
			continue
		}
		if err := c.Pull(ctx, store, digest); err != nil {
			return s, err
		}
		s.Pulled++
	}
	return s, nil
}

// PushAll uploads every digest the remote is missing.
func (c *Client) PushAll(ctx context.Context, store *artifact.Store, digests []string) (Sync, error) {
	var s Sync
	for _, digest := range digests {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		have, err := c.Has(ctx, digest)
		if err != nil {
			return s, err
		}
		if have {
			continue
		}
		if err := c.Push(ctx, store, digest); err != nil {
			return s, err
		}
		s.Pushed++
	}
	return s, nil
}
