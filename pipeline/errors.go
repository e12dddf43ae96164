package pipeline

import "errors"

var (
	// ErrSourceRequired is returned when a profile source is not provided.
	ErrSourceRequired = errors.New("profile source required")

	// ErrRankerRequired is returned when a ranker is not provided.
	ErrRankerRequired = errors.New("ranker required")

	// ErrRunStoreRequired is returned when a run store is not provided.
	ErrRunStoreRequired = errors.New("run store required")

	// ErrOutputDirRequired is returned by Export when no output directory
	// was configured.
	ErrOutputDirRequired = errors.New("output directory required")

	// ErrNoUsers is returned when discovery matches no users at all.
	ErrNoUsers = errors.New("no users matched the query")

	// ErrNoProfiles is returned when every fetch batch failed and nothing
	// was hydrated.
	ErrNoProfiles = errors.New("no profiles fetched")
)
