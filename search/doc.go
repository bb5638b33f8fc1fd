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


// Package search provides hybrid semantic and entity search over documents.
//
// The Searcher type combines:
//   - Semantic search using abstract embeddings
//   - Entity search using the normalized words of reconciled entities
//   - Verbatim keyword matching with stop-word filtering
//
// It also answers the lookups the HTTP server and CLI need: the entities of
// one document and the documents that mention one entity.
package search
