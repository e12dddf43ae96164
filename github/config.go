package github

import (
	"fmt"
	"time"
)

// Config holds everything the client and the fetch operations need. Build
// one from DefaultConfig and adjust; the zero value is not usable.
type Config struct {
	// Token authenticates every request.
	Token string

	// GraphQLURL and RESTBaseURL point at the API. Overridden in tests.
	GraphQLURL  string
	RESTBaseURL string

	// PerPage is the search page size (API maximum 100).
	PerPage int

	// MaxPages caps how many search pages are walked.
	MaxPages int

	// MaxUsers caps collected logins. The search API stops serving results
	// past searchResultCeiling regardless.
	MaxUsers int

	// ReposPerUser is how many top repositories to request per profile.
	ReposPerUser int

	// BatchSize is the number of users aliased into one profile query.
	BatchSize int

	// RetryBatchSize is the reduced size for the second-chance pass.
	RetryBatchSize int

	// MaxRetries bounds attempts per request.
	MaxRetries int

	// RetryDelay is the backoff before the first retry; it doubles on each
	// further attempt.
	RetryDelay time.Duration

	// PageDelay, BatchDelay and ReadmeDelay are the minimum gaps enforced
	// before the corresponding request kinds.
	PageDelay   time.Duration
	BatchDelay  time.Duration
	ReadmeDelay time.Duration

	// Timeout applies per HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns the tuned production settings. Batch size 15 is the
// largest that reliably survives resource limits once the 365-day
// contribution calendar is part of the query.
func DefaultConfig() *Config {
	return &Config{
		GraphQLURL:     "https://api.github.com/graphql",
		RESTBaseURL:    "https://api.github.com",
		PerPage:        15,
		MaxPages:       10,
		MaxUsers:       1000,
		ReposPerUser:   5,
		BatchSize:      15,
		RetryBatchSize: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		PageDelay:      1 * time.Second,
		BatchDelay:     500 * time.Millisecond,
		ReadmeDelay:    1 * time.Second,
		Timeout:        10 * time.Second,
	}
}

// Validate checks that the configuration is complete and in range.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("github config: PerPage must be between 1 and 100, got %d", c.PerPage)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("github config: BatchSize must be positive, got %d", c.BatchSize)
	}
	if c.RetryBatchSize < 1 || c.RetryBatchSize > c.BatchSize {
		return fmt.Errorf("github config: RetryBatchSize must be between 1 and BatchSize, got %d", c.RetryBatchSize)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("github config: MaxRetries must be positive, got %d", c.MaxRetries)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("github config: RetryDelay must be positive, got %s", c.RetryDelay)
	}
	if c.GraphQLURL == "" || c.RESTBaseURL == "" {
		return fmt.Errorf("github config: API URLs are required")
	}
	return nil
}
