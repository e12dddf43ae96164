package github

import (
	"context"
	"errors"
	"strings"

	"github.com/poiesic/devscout/core"
)

// searchResultCeiling is the hard cap the search API places on any query:
// pagination past 1000 results returns nothing. Narrower queries are the
// only way past it.
const searchResultCeiling = 1000

// SearchStats summarizes one discovery walk.
type SearchStats struct {
	// TotalMatching is the full result count the API reports for the query,
	// including users beyond the pages actually walked.
	TotalMatching int

	// Pages is how many pages were fetched.
	Pages int

	// Collected is how many logins were gathered, duplicates included.
	Collected int
}

// SearchLogins walks the paginated user search for query and returns the
// collected logins in page order. Pagination overlap means duplicates are
// possible; callers dedupe. The walk stops at the page cap, the user cap,
// the API's result ceiling, or the end of results, whichever comes first.
//
// A page that still fails after retries ends the walk but keeps the logins
// collected so far; only a dead first page, quota exhaustion, or
// cancellation surface as errors, the latter two alongside the partial
// result.
func (c *Client) SearchLogins(ctx context.Context, query string) ([]core.Identifier, *SearchStats, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, ErrEmptyQuery
	}

	logger := c.logger.With("query", query)
	logins := make([]core.Identifier, 0, c.config.PerPage*c.config.MaxPages)
	stats := &SearchStats{}

	cursor := ""
	var walkErr error
	for page := 0; page < c.config.MaxPages; page++ {
		variables := map[string]any{
			"query": query,
			"first": c.config.PerPage,
		}
		if cursor != "" {
			variables["after"] = cursor
		}

		var data searchData
		if err := c.runQuery(ctx, c.config.PageDelay, searchUsersQuery, variables, &data); err != nil {
			if errors.Is(err, ErrQuotaExhausted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				walkErr = err
				break
			}
			if page == 0 {
				return nil, nil, err
			}
			logger.Warn("search page failed, stopping pagination",
				"page", page+1, "collected", len(logins), "error", err)
			break
		}

		if page == 0 {
			stats.TotalMatching = data.Search.UserCount
			logger.Info("search started",
				"total_matching", data.Search.UserCount,
				"per_page", c.config.PerPage,
				"max_pages", c.config.MaxPages)
		}

		for _, node := range data.Search.Nodes {
			if node.Login != "" {
				logins = append(logins, core.Identifier(node.Login))
			}
		}
		stats.Pages++

		logger.Debug("search page fetched",
			"page", page+1,
			"collected", len(logins))

		if len(logins) >= c.config.MaxUsers || len(logins) >= searchResultCeiling {
			logger.Info("login cap reached", "collected", len(logins))
			break
		}
		if !data.Search.PageInfo.HasNextPage {
			break
		}
		cursor = data.Search.PageInfo.EndCursor
	}

	if len(logins) > c.config.MaxUsers {
		logins = logins[:c.config.MaxUsers]
	}
	stats.Collected = len(logins)

	if walkErr != nil {
		return logins, stats, walkErr
	}

	logger.Info("search finished",
		"pages", stats.Pages,
		"collected", stats.Collected,
		"total_matching", stats.TotalMatching)
	return logins, stats, nil
}
