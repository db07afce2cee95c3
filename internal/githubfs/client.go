// Package githubfs talks to the GitHub Contents API for a single file.
// GitHub acts as the system's only persistence: the whole token
// collection lives in one blob, versioned by its sha, and every write
// must present the sha it read or GitHub rejects it.
package githubfs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const apiVersion = "2022-11-28"

// Client addresses one file in one repository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	owner      string
	repo       string
	path       string
}

// New builds a client for {owner}/{repo}/{path}. baseURL is normally
// https://api.github.com; tests point it somewhere local.
func New(baseURL, token, owner, repo, path string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		owner:      owner,
		repo:       repo,
		path:       path,
	}
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

func (c *Client) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, c.path)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
}

// Fetch reads the file. A missing file is not an error: it returns
// exists=false so the caller can treat it as an empty collection whose
// first write is a create.
func (c *Client) Fetch(ctx context.Context) (data []byte, sha string, exists bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.contentsURL(), nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("build contents request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", false, fmt.Errorf("fetch %s: %w", c.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", false, apiError("fetch", c.path, resp)
	}

	var body contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", false, fmt.Errorf("decode contents response: %w", err)
	}

	// GitHub wraps the base64 payload with embedded newlines.
	raw := strings.Map(dropSpace, body.Content)
	data, err = base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", false, fmt.Errorf("decode file content: %w", err)
	}
	return data, body.SHA, true, nil
}

// Put writes the file, producing a new commit. sha must be the value
// returned by the Fetch that started this read-modify-write cycle, or
// empty when the file does not exist yet. GitHub rejects a stale sha;
// that surfaces here as an error and is never retried.
func (c *Client) Put(ctx context.Context, data []byte, sha, message string) (string, error) {
	payload, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(data),
		SHA:     sha,
	})
	if err != nil {
		return "", fmt.Errorf("encode put request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", c.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", apiError("put", c.path, resp)
	}

	var body putResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode put response: %w", err)
	}
	return body.Content.SHA, nil
}

func apiError(op, path string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("github: %s %s: status %d: %s", op, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func dropSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return -1
	}
	return r
}
