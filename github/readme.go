package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FetchReadme returns the raw README body of owner/repo via the REST API.
// ErrNoReadme distinguishes an absent or empty README from transport
// failure; enrichment treats both as "no README" and moves on.
func (c *Client) FetchReadme(ctx context.Context, owner, repo string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/readme", c.config.RESTBaseURL, owner, repo)

	body, err := c.get(ctx, c.config.ReadmeDelay, url, "application/vnd.github.v3.raw")
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return "", ErrNoReadme
		}
		return "", err
	}

	readme := string(body)
	if strings.TrimSpace(readme) == "" {
		return "", ErrNoReadme
	}
	return readme, nil
}
