package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a 64-bit content hash used to key derived data, such as cached
// embedding vectors.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Identifier is the stable unique handle of a developer account: the login.
type Identifier string

// ContributionDays is the length of the contribution history window.
// A profile's history always covers exactly this many trailing days.
const ContributionDays = 365

// Repository is one public repository owned by a profile, as returned by
// the batch fetch (owner-affiliated, non-fork, ordered by stars).
type Repository struct {
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Stars           int       `json:"stars"`
	Forks           int       `json:"forks"`
	PrimaryLanguage string    `json:"primary_language,omitempty"`
	URL             string    `json:"url,omitempty"`
	PushedAt        time.Time `json:"pushed_at"`
}

// ContributionHistory holds a developer's daily contribution counts over
// the trailing year: exactly ContributionDays entries in chronological
// order, the last entry being the most recent day. Missing days are
// zero-filled at the fetch boundary, so there are never gaps.
type ContributionHistory struct {
	Total int   `json:"total"`
	Daily []int `json:"daily"`
}

// LastDays returns the contribution total over the trailing n days.
func (h ContributionHistory) LastDays(n int) int {
	if n <= 0 || len(h.Daily) == 0 {
		return 0
	}
	start := len(h.Daily) - n
	if start < 0 {
		start = 0
	}
	sum := 0
	for _, c := range h.Daily[start:] {
		sum += c
	}
	return sum
}

// ActiveDays returns the number of days with at least one contribution
// within the trailing n days.
func (h ContributionHistory) ActiveDays(n int) int {
	if n <= 0 || len(h.Daily) == 0 {
		return 0
	}
	start := len(h.Daily) - n
	if start < 0 {
		start = 0
	}
	active := 0
	for _, c := range h.Daily[start:] {
		if c > 0 {
			active++
		}
	}
	return active
}

// Profile is a developer profile as assembled from the platform APIs.
// Repositories holds the fetched sample (top repositories by stars), while
// RepoCount is the account's full public repository count.
type Profile struct {
	Login         Identifier          `json:"login"`
	Name          string              `json:"name,omitempty"`
	Bio           string              `json:"bio,omitempty"`
	Company       string              `json:"company,omitempty"`
	Location      string              `json:"location,omitempty"`
	Email         string              `json:"email,omitempty"`
	WebsiteURL    string              `json:"website_url,omitempty"`
	Followers     int                 `json:"followers"`
	Following     int                 `json:"following"`
	RepoCount     int                 `json:"repo_count"`
	Repositories  []Repository        `json:"repositories"`
	Contributions ContributionHistory `json:"contributions"`
	FetchedAt     time.Time           `json:"fetched_at"`
	Breakdown     *ScoreBreakdown     `json:"score,omitempty"` // populated by the ranking engine
}

// TotalStars returns the star count summed across the fetched repositories.
func (p *Profile) TotalStars() int {
	sum := 0
	for _, repo := range p.Repositories {
		sum += repo.Stars
	}
	return sum
}

// ScoreBreakdown holds the six sub-scores and the weighted composite, all
// on a 0-100 scale. Immutable once computed.
type ScoreBreakdown struct {
	Contributions float64 `json:"contributions"`
	Stars         float64 `json:"stars"`
	Followers     float64 `json:"followers"`
	Activity      float64 `json:"activity"`
	Trend         float64 `json:"trend"`
	Repositories  float64 `json:"repositories"`
	Composite     float64 `json:"composite"`
}

// EnrichedProfile is a Profile plus any README text collected for its
// repositories. Readmes maps repository name to raw README body; a profile
// with no entries is a valid terminal state.
type EnrichedProfile struct {
	Profile
	Readmes map[string]string `json:"readmes,omitempty"`
}

// ReadmeCount returns the number of repositories with non-empty README text.
func (e *EnrichedProfile) ReadmeCount() int {
	count := 0
	for _, body := range e.Readmes {
		if body != "" {
			count++
		}
	}
	return count
}

// Embedding is a cached embedding vector together with its provenance.
// ContentID is the BLAKE2b hash of the model name and source text, so a
// changed text or model yields a different cache entry.
type Embedding struct {
	ContentID ID
	Model     string
	Vector    []float32
	CreatedAt time.Time
}

// SearchResult pairs an enriched profile with its similarity to a query.
// Reasons holds optional short justifications; empty is valid.
type SearchResult struct {
	Profile *EnrichedProfile
	Score   float32
	Reasons []string
}

// RunID keys one pipeline run. The value is the run's start time formatted
// as 20060102_150405, which sorts chronologically as a string.
type RunID string

// NewRunID derives a RunID from the given start time.
func NewRunID(t time.Time) RunID {
	return RunID(t.UTC().Format("20060102_150405"))
}

// PhaseStats records one pipeline phase's outcome: items that made it
// through, items dropped, and wall-clock duration.
type PhaseStats struct {
	Succeeded int           `json:"succeeded"`
	Dropped   int           `json:"dropped"`
	Duration  time.Duration `json:"duration"`
}

// RunRecord summarizes one pipeline run. The per-phase stats cover
// discovery (search + dedup), the batch profile fetch, ranking (dropped =
// gated out as inactive), and enrichment (dropped = no README collected).
type RunRecord struct {
	Id         RunID      `json:"id"`
	Query      string     `json:"query"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Discovery  PhaseStats `json:"discovery"`
	Fetch      PhaseStats `json:"fetch"`
	Ranking    PhaseStats `json:"ranking"`
	Enrichment PhaseStats `json:"enrichment"`
}
