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


// Package github talks to the GitHub GraphQL and REST APIs.
//
// The Client wraps three concerns every call shares:
//   - Retry with exponential backoff for transient failures (5xx, network
//     errors, retriable GraphQL errors). Resource-limit rejections are
//     permanent: repeating an over-complex query just burns quota.
//   - A minimum-delay rate gate between consecutive outbound requests.
//   - A quota ledger fed by the rateLimit envelope of every GraphQL
//     response; exhaustion halts the run cleanly.
//
// On top of the Client sit the three fetch operations of the pipeline:
// SearchLogins walks the paginated user search, FetchProfiles assembles
// full profiles in aliased batches, and FetchReadme pulls raw README
// content over REST.
package github
