// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package github

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken indicates no API token was configured.
	ErrMissingToken = errors.New("github: missing API token")

	// ErrEmptyQuery indicates an empty search query.
	ErrEmptyQuery = errors.New("github: search query cannot be empty")

	// ErrQuotaExhausted indicates the API point budget hit zero. Fatal for
	// the run; already-fetched data stays valid.
	ErrQuotaExhausted = errors.New("github: API quota exhausted")

	// ErrQueryComplexity indicates the API rejected a query for exceeding
	// resource limits. Permanent for that query shape; the batch must
	// shrink rather than repeat.
	ErrQueryComplexity = errors.New("github: query exceeds resource limits")

	// ErrGraphQL wraps any other error returned in a GraphQL response body.
	ErrGraphQL = errors.New("github: graphql error")

	// ErrNoReadme indicates a repository without a README.
	ErrNoReadme = errors.New("github: no readme")
)

// HTTPError carries a non-200 response status.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}
