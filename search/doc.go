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


// Package search ranks enriched developer profiles against free-text
// queries using vector embeddings.
//
// The Searcher type builds an in-memory Index over a corpus of enriched
// profiles and scores queries against it:
//   - Each profile is flattened to a canonical text representation and
//     embedded; vectors are cached by content hash and reused
//   - Queries are embedded through the same service and ranked by
//     cosine similarity
//   - Results optionally carry short justifications from the reasoning
//     service, degrading to keyword-derived reasons when it fails
//
// The corpus for a search is one pipeline run's enriched snapshot, so
// an Index is small enough to hold and scan in memory.
package search
