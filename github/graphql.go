package github

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/devscout/core"
)

// searchUsersQuery walks the paginated user search. One point per page.
const searchUsersQuery = `
query SearchUsers($query: String!, $first: Int!, $after: String) {
    rateLimit {
        cost
        remaining
        resetAt
    }
    search(query: $query, type: USER, first: $first, after: $after) {
        userCount
        pageInfo {
            endCursor
            hasNextPage
        }
        nodes {
            ... on User {
                login
            }
        }
    }
}`

type rateLimitInfo struct {
	Cost      int       `json:"cost"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

type pageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

type searchData struct {
	Search struct {
		UserCount int      `json:"userCount"`
		PageInfo  pageInfo `json:"pageInfo"`
		Nodes     []struct {
			Login string `json:"login"`
		} `json:"nodes"`
	} `json:"search"`
	RateLimit rateLimitInfo `json:"rateLimit"`
}

// buildBatchQuery aliases one user() field per login into a single query.
// The contribution calendar is the expensive part: 365 data points per user
// is what forces the modest batch size.
func buildBatchQuery(logins []core.Identifier, reposPerUser int, from, to time.Time) string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, login := range logins {
		safe := strings.ReplaceAll(string(login), `"`, `\"`)
		fmt.Fprintf(&b, `
        user%d: user(login: "%s") {
            login
            name
            bio
            company
            location
            email
            websiteUrl
            followers { totalCount }
            following { totalCount }
            repositories(
                first: %d
                orderBy: {field: STARGAZERS, direction: DESC}
                privacy: PUBLIC
                ownerAffiliations: OWNER
                isFork: false
            ) {
                totalCount
                nodes {
                    name
                    description
                    stargazerCount
                    forkCount
                    pushedAt
                    primaryLanguage { name }
                    url
                }
            }
            contributionsCollection(from: "%s", to: "%s") {
                contributionCalendar {
                    totalContributions
                    weeks {
                        contributionDays {
                            contributionCount
                            date
                        }
                    }
                }
            }
        }`, i, safe, reposPerUser, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	b.WriteString("\n        rateLimit { cost remaining resetAt } }")
	return b.String()
}

type userNode struct {
	Login      string `json:"login"`
	Name       string `json:"name"`
	Bio        string `json:"bio"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	Email      string `json:"email"`
	WebsiteURL string `json:"websiteUrl"`
	Followers  struct {
		TotalCount int `json:"totalCount"`
	} `json:"followers"`
	Following struct {
		TotalCount int `json:"totalCount"`
	} `json:"following"`
	Repositories struct {
		TotalCount int        `json:"totalCount"`
		Nodes      []repoNode `json:"nodes"`
	} `json:"repositories"`
	ContributionsCollection struct {
		ContributionCalendar struct {
			TotalContributions int `json:"totalContributions"`
			Weeks              []struct {
				ContributionDays []struct {
					ContributionCount int    `json:"contributionCount"`
					Date              string `json:"date"`
				} `json:"contributionDays"`
			} `json:"weeks"`
		} `json:"contributionCalendar"`
	} `json:"contributionsCollection"`
}

type repoNode struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StargazerCount  int       `json:"stargazerCount"`
	ForkCount       int       `json:"forkCount"`
	PushedAt        time.Time `json:"pushedAt"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	URL string `json:"url"`
}

// profileFromNode converts one API user node into a Profile. The calendar
// is flattened chronologically and coerced to exactly ContributionDays
// entries: older surplus days fall off, missing days zero-fill at the
// front. The invariant holds whatever the API returned.
func profileFromNode(node *userNode, fetchedAt time.Time) *core.Profile {
	repos := make([]core.Repository, 0, len(node.Repositories.Nodes))
	for _, rn := range node.Repositories.Nodes {
		repo := core.Repository{
			Name:        rn.Name,
			Description: rn.Description,
			Stars:       rn.StargazerCount,
			Forks:       rn.ForkCount,
			URL:         rn.URL,
			PushedAt:    rn.PushedAt,
		}
		if rn.PrimaryLanguage != nil {
			repo.PrimaryLanguage = rn.PrimaryLanguage.Name
		}
		repos = append(repos, repo)
	}

	calendar := node.ContributionsCollection.ContributionCalendar
	daily := make([]int, 0, core.ContributionDays)
	for _, week := range calendar.Weeks {
		for _, day := range week.ContributionDays {
			daily = append(daily, day.ContributionCount)
		}
	}
	if len(daily) > core.ContributionDays {
		daily = daily[len(daily)-core.ContributionDays:]
	} else if len(daily) < core.ContributionDays {
		padded := make([]int, core.ContributionDays)
		copy(padded[core.ContributionDays-len(daily):], daily)
		daily = padded
	}

	return &core.Profile{
		Login:        core.Identifier(node.Login),
		Name:         node.Name,
		Bio:          node.Bio,
		Company:      node.Company,
		Location:     node.Location,
		Email:        node.Email,
		WebsiteURL:   node.WebsiteURL,
		Followers:    node.Followers.TotalCount,
		Following:    node.Following.TotalCount,
		RepoCount:    node.Repositories.TotalCount,
		Repositories: repos,
		Contributions: core.ContributionHistory{
			Total: calendar.TotalContributions,
			Daily: daily,
		},
		FetchedAt: fetchedAt,
	}
}
