package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bikeshedbot/bikeshed/pkg/types"
)

// ChangedFiles fetches the list of changed files in a pull request.
func (c *Client) ChangedFiles(ctx context.Context, ref types.PRRef) ([]types.ChangedFile, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/pulls/%d/files?per_page=%d",
		ref.Owner, ref.Repo, ref.Number, perPageLimit)
	resp, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, &PlatformError{Op: "list changed files", Message: err.Error()}
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &PlatformError{Op: "list changed files", StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	var files []struct {
		Filename  string `json:"filename"`
		Status    string `json:"status"`
		Patch     string `json:"patch"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, &PlatformError{Op: "list changed files", Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	changed := make([]types.ChangedFile, 0, len(files))
	for _, f := range files {
		changed = append(changed, types.ChangedFile{
			Filename:  f.Filename,
			Status:    f.Status,
			Patch:     f.Patch,
			Additions: f.Additions,
			Deletions: f.Deletions,
		})
	}
	return changed, nil
}

// PostComment posts an issue comment on the pull request.
func (c *Client) PostComment(ctx context.Context, ref types.PRRef, body string) error {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/issues/%d/comments",
		ref.Owner, ref.Repo, ref.Number)

	payload := map[string]string{"body": body}
	resp, err := c.doRequest(ctx, http.MethodPost, apiURL, payload)
	if err != nil {
		return &PlatformError{Op: "post comment", Message: err.Error()}
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		return &PlatformError{Op: "post comment", StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
	return nil
}

// AddLabels adds labels to the pull request. GitHub creates unknown labels
// on the fly with default colors.
func (c *Client) AddLabels(ctx context.Context, ref types.PRRef, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/issues/%d/labels",
		ref.Owner, ref.Repo, ref.Number)

	payload := map[string][]string{"labels": labels}
	resp, err := c.doRequest(ctx, http.MethodPost, apiURL, payload)
	if err != nil {
		return &PlatformError{Op: "add labels", Message: err.Error()}
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &PlatformError{Op: "add labels", StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
	return nil
}

// readErrorBody reads a bounded amount of an error response body for
// diagnostics.
func readErrorBody(body io.Reader) string {
	const maxErrorBody = 2048
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return fmt.Sprintf("(could not read body: %v)", err)
	}
	return string(data)
}
